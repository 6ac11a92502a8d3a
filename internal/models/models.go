package models

import (
	"time"
)

// Subscription status constants
const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
	SubscriptionRevoked = "revoked"
)

// User role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Payment kind constants (recorded with every consumed payload token)
const (
	PaymentKindPurchase = "purchase"
	PaymentKindRenewal  = "renewal"
)

// User is an end user identified by their Telegram ID. Created on first
// interaction; the Telegram ID never changes afterwards.
type User struct {
	ID         int64
	TgID       int64
	Role       string
	TrialUntil *time.Time
	ReferrerID *int64
	CreatedAt  time.Time
}

// VPNType is a catalog dimension (outline / hiddify / vless / ...).
type VPNType struct {
	ID          int64
	Name        string
	Description string
}

// VPNCountry is a catalog dimension.
type VPNCountry struct {
	ID   int64
	Name string
}

// VPNServer is a purchasable server offering. Price is the monthly price in
// minor currency units. APIURL/APIToken point at the provider admin endpoint
// for this server and are never exposed outside the admin surface.
type VPNServer struct {
	ID        int64
	Name      string
	Price     int64
	MaxConn   int
	NowConn   int
	ServerIP  string
	APIURL    string
	APIToken  string
	IsActive  bool
	TypeID    int64
	CountryID int64
}

// VPNCredential is a ledger entry: one provider-issued access key per
// purchase. Immutable after creation except for expiry extension and the
// active flag.
type VPNCredential struct {
	ID            int64
	UserID        int64
	ServerID      int64
	Provider      string
	ProviderKeyID string
	AccessURL     string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	IsActive      bool
}

// Subscription is the business-facing record of an access term, one-to-one
// with a VPNCredential.
type Subscription struct {
	ID           int64
	UserID       int64
	CredentialID int64
	StartedAt    time.Time
	ExpiresAt    time.Time
	Status       string
}

// ReferralEarning credits a referrer for a referred user's purchase.
type ReferralEarning struct {
	ID         int64
	ReferrerID int64
	ReferredID int64
	Amount     int64
	CreatedAt  time.Time
}

// ProcessedPayment is the dedup record for a consumed payload token. It is
// written in the same transaction as the ledger writes, so a payload can be
// consumed at most once.
type ProcessedPayment struct {
	Payload      string
	Kind         string
	UserID       int64
	CredentialID int64
	AccessURL    string
	ExpiresAt    time.Time
	ProcessedAt  time.Time
}

// LifecycleLog is an audit entry for a lifecycle action.
type LifecycleLog struct {
	ID           string
	CredentialID *int64
	Action       string
	Status       string
	Message      string
	CreatedAt    time.Time
}

// ExpiredCredential pairs a lapsed ledger entry with the admin endpoint of
// its server, for the revocation sweep.
type ExpiredCredential struct {
	Credential     VPNCredential
	ServerAPIURL   string
	ServerAPIToken string
}
