package models

import "time"

// ==================== Presentation DTOs ====================

// ServerSummary is a purchasable server as shown to users. The admin
// endpoint and its credential never leave the admin surface.
type ServerSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	MaxConn   int    `json:"max_conn"`
	NowConn   int    `json:"now_conn"`
	ServerIP  string `json:"server_ip"`
	TypeID    int64  `json:"type_id"`
	CountryID int64  `json:"country_id"`
}

// CredentialSummary is a user's credential joined with its subscription and
// server display name.
type CredentialSummary struct {
	CredentialID int64     `json:"credential_id"`
	ServerID     int64     `json:"server_id"`
	ServerName   string    `json:"server_name"`
	AccessURL    string    `json:"access_url"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsActive     bool      `json:"is_active"`
	Status       string    `json:"status"`
}

// InvoiceDescriptor is handed to the payment channel. Amount is an integer
// in the currency's minor unit; Payload is echoed back on payment success.
type InvoiceDescriptor struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Payload     string `json:"payload"`
}

// PurchaseResult is returned after a completed purchase.
type PurchaseResult struct {
	AccessURL string    `json:"access_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RenewalResult is returned after a completed renewal.
type RenewalResult struct {
	AccessURL    string    `json:"access_url"`
	NewExpiresAt time.Time `json:"new_expires_at"`
}

// ==================== API Requests ====================

// InvoiceRequest asks for a purchase invoice.
type InvoiceRequest struct {
	TgID         int64  `json:"tg_id" binding:"required"`
	ServerID     int64  `json:"server_id" binding:"required"`
	ReferrerTgID *int64 `json:"referrer_tg_id,omitempty"`
}

// RenewInvoiceRequest asks for a renewal invoice.
type RenewInvoiceRequest struct {
	TgID         int64 `json:"tg_id" binding:"required"`
	CredentialID int64 `json:"credential_id" binding:"required"`
	Months       int   `json:"months"`
}

// PaymentSuccessRequest carries the payload token echoed by the payment
// channel after a successful payment.
type PaymentSuccessRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// ==================== Admin Catalog Requests ====================

// TypeUpsertRequest creates or updates a VPN type.
type TypeUpsertRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CountryUpsertRequest creates or updates a VPN country.
type CountryUpsertRequest struct {
	Name string `json:"name" binding:"required"`
}

// ServerUpsertRequest creates or updates a VPN server.
type ServerUpsertRequest struct {
	Name      string `json:"name" binding:"required"`
	Price     int64  `json:"price"`
	MaxConn   int    `json:"max_conn"`
	ServerIP  string `json:"server_ip" binding:"required"`
	APIURL    string `json:"api_url" binding:"required"`
	APIToken  string `json:"api_token"`
	IsActive  bool   `json:"is_active"`
	TypeID    int64  `json:"type_id" binding:"required"`
	CountryID int64  `json:"country_id" binding:"required"`
}

// ==================== Atomic Write Units ====================

// PurchaseRecord is everything the store must persist for one completed
// purchase: ledger row, subscription row, dedup record, capacity increment
// and optional referral earning, all in one transaction.
type PurchaseRecord struct {
	Payload        string
	UserID         int64
	ServerID       int64
	Provider       string
	ProviderKeyID  string
	AccessURL      string
	ExpiresAt      time.Time
	ReferrerID     *int64
	ReferralAmount int64
}

// RenewalRecord is everything the store must persist for one completed
// renewal: credential and subscription expiry updates plus the dedup record,
// in one transaction.
type RenewalRecord struct {
	Payload      string
	UserID       int64
	CredentialID int64
	AccessURL    string
	NewExpiresAt time.Time
}
