// Package provider abstracts the administrative API of a VPN provider. The
// lifecycle manager only ever talks to the Client interface; the concrete
// binding is chosen per server row through a Factory.
package provider

import "context"

// Credential is a provider-issued access key.
type Credential struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccessURL string `json:"accessUrl"`
}

// Client manages access keys on a single server's admin endpoint. Calls are
// synchronous network requests with a bounded timeout; callers own retry
// policy.
type Client interface {
	// CreateCredential creates a new access key labeled with name.
	CreateCredential(ctx context.Context, name string) (*Credential, error)

	// DeleteCredential removes an access key by its provider-assigned id.
	DeleteCredential(ctx context.Context, id string) error

	// RenameCredential changes the human-readable label of an access key.
	RenameCredential(ctx context.Context, id, name string) error

	// ListCredentials returns all access keys on the server.
	ListCredentials(ctx context.Context) ([]Credential, error)
}

// Factory builds a Client for one server's admin endpoint. The endpoint
// varies per catalog row, so clients are constructed per call site rather
// than shared.
type Factory func(apiURL, apiToken string) Client
