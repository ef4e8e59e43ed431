package auth

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no active API key matches the presented hash.
var ErrNotFound = errors.New("api key not found")

// Scopes recognised by the API.
const (
	// ScopeAdmin allows coupon administration (create/edit).
	ScopeAdmin = "admin"
	// ScopeCheckout allows the payment flow to redeem coupons at commit.
	ScopeCheckout = "checkout"
)

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries the given scope.
func (i *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(i.Scopes, scope)
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
