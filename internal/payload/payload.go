// Package payload encodes and decodes the tokens that correlate a payment
// completion with the purchase or renewal that produced the invoice:
//
//	purchase: vpn30days_<userID>_<serverID>_<nonce>
//	renewal:  renew_<userID>_<credentialID>_<months>_<nonce>
//
// Tokens are self-describing and parse without a database lookup. The nonce
// is minted per invoice, so two invoices for the same subject never share a
// token: a consumed-token record matches a replayed notification and nothing
// else. Anything that does not match a shape exactly is rejected as
// malformed.
package payload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/artcry/vpn-service/internal/apperrors"
)

const (
	purchaseTag = "vpn30days"
	renewalTag  = "renew"
)

// Purchase is a decoded purchase token.
type Purchase struct {
	UserID   int64
	ServerID int64
	Nonce    string
}

// Renewal is a decoded renewal token.
type Renewal struct {
	UserID       int64
	CredentialID int64
	Months       int
	Nonce        string
}

// EncodePurchase builds a purchase token with a fresh nonce.
func EncodePurchase(userID, serverID int64) string {
	return fmt.Sprintf("%s_%d_%d_%s", purchaseTag, userID, serverID, uuid.New().String())
}

// EncodeRenewal builds a renewal token with a fresh nonce.
func EncodeRenewal(userID, credentialID int64, months int) string {
	return fmt.Sprintf("%s_%d_%d_%d_%s", renewalTag, userID, credentialID, months, uuid.New().String())
}

// DecodePurchase parses a purchase token.
func DecodePurchase(token string) (Purchase, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 4 || parts[0] != purchaseTag {
		return Purchase{}, apperrors.MalformedPayloadf("payload is not a purchase token")
	}

	userID, err := parseID(parts[1])
	if err != nil {
		return Purchase{}, apperrors.MalformedPayloadf("purchase token has invalid user id")
	}
	serverID, err := parseID(parts[2])
	if err != nil {
		return Purchase{}, apperrors.MalformedPayloadf("purchase token has invalid server id")
	}
	nonce, err := parseNonce(parts[3])
	if err != nil {
		return Purchase{}, apperrors.MalformedPayloadf("purchase token has invalid nonce")
	}

	return Purchase{UserID: userID, ServerID: serverID, Nonce: nonce}, nil
}

// DecodeRenewal parses a renewal token.
func DecodeRenewal(token string) (Renewal, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 5 || parts[0] != renewalTag {
		return Renewal{}, apperrors.MalformedPayloadf("payload is not a renewal token")
	}

	userID, err := parseID(parts[1])
	if err != nil {
		return Renewal{}, apperrors.MalformedPayloadf("renewal token has invalid user id")
	}
	credentialID, err := parseID(parts[2])
	if err != nil {
		return Renewal{}, apperrors.MalformedPayloadf("renewal token has invalid credential id")
	}
	months, err := parseID(parts[3])
	if err != nil {
		return Renewal{}, apperrors.MalformedPayloadf("renewal token has invalid months")
	}
	nonce, err := parseNonce(parts[4])
	if err != nil {
		return Renewal{}, apperrors.MalformedPayloadf("renewal token has invalid nonce")
	}

	return Renewal{UserID: userID, CredentialID: credentialID, Months: int(months), Nonce: nonce}, nil
}

// parseID parses a strictly positive decimal integer. Leading signs, spaces
// and zero are all rejected: we never emit them.
func parseID(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("not a positive decimal: %q", s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("not a positive decimal: %q", s)
	}
	return v, nil
}

// parseNonce validates the nonce field. We only ever emit UUIDs, so anything
// else did not come from this system.
func parseNonce(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
