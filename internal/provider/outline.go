package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NameOutline is the provider name recorded in the credential ledger.
const NameOutline = "outline"

// Every admin call must complete within this window; there is no retry here.
const outlineTimeout = 10 * time.Second

// OutlineClient manages access keys on one Outline server's admin endpoint.
// The client holds no session state; each call is an independent request.
type OutlineClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewOutlineClient creates a client for the given admin endpoint. apiToken
// is optional and sent as a bearer token when set (Outline itself embeds the
// secret in the endpoint URL; fronting proxies may require the header).
func NewOutlineClient(apiURL, apiToken string) *OutlineClient {
	return &OutlineClient{
		baseURL:  strings.TrimRight(apiURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: outlineTimeout,
		},
	}
}

// OutlineFactory is the Factory binding for Outline servers.
func OutlineFactory(apiURL, apiToken string) Client {
	return NewOutlineClient(apiURL, apiToken)
}

// CreateCredential creates a new access key labeled with name.
func (c *OutlineClient) CreateCredential(ctx context.Context, name string) (*Credential, error) {
	var key Credential
	err := c.do(ctx, http.MethodPost, "/access-keys", map[string]string{"name": name}, &key)
	if err != nil {
		return nil, err
	}
	if key.ID == "" || key.AccessURL == "" {
		return nil, fmt.Errorf("outline returned incomplete access key (id=%q)", key.ID)
	}
	return &key, nil
}

// DeleteCredential removes an access key by id.
func (c *OutlineClient) DeleteCredential(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/access-keys/"+id, nil, nil)
}

// RenameCredential changes the label of an access key.
func (c *OutlineClient) RenameCredential(ctx context.Context, id, name string) error {
	return c.do(ctx, http.MethodPut, "/access-keys/"+id, map[string]string{"name": name}, nil)
}

// ListCredentials returns all access keys on the server.
func (c *OutlineClient) ListCredentials(ctx context.Context) ([]Credential, error) {
	var result struct {
		AccessKeys []Credential `json:"accessKeys"`
	}
	if err := c.do(ctx, http.MethodGet, "/access-keys", nil, &result); err != nil {
		return nil, err
	}
	return result.AccessKeys, nil
}

func (c *OutlineClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("outline returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
