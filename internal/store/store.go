// Package store persists cached access tokens, keyed by the digest of the
// session cookie they were issued for. At most one record exists per user:
// Put overwrites, and nothing in this package reads the expiration time.
package store

import (
	"context"

	"github.com/lyricsbridge/lyrics-bridge/internal/failure"
)

// CachedToken is the record kept for each user. The attribute names match the
// table layout used by earlier deployments so existing tables stay readable.
type CachedToken struct {
	UserID         string `json:"userId" dynamodbav:"userId"`
	AccessToken    string `json:"accessToken" dynamodbav:"accessToken"`
	ExpirationTime int64  `json:"expirationTime" dynamodbav:"expirationTime"`
}

// TokenStore defines the interface for token persistence implementations.
type TokenStore interface {
	// Get retrieves the token for a user.
	// Returns the token, whether it was found, and any error.
	Get(ctx context.Context, userID string) (CachedToken, bool, error)

	// Put stores the token, replacing any existing record for the same user.
	Put(ctx context.Context, token CachedToken) error

	// Close releases any resources held by the store.
	Close() error
}

// unavailable wraps a backend failure so it is reported as
// failure.KindStoreUnavailable, carrying the backend's message.
func unavailable(err error) error {
	return failure.New(failure.KindStoreUnavailable, err.Error(), err)
}
