package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// keyPrefix namespaces token records in a shared Valkey database.
const keyPrefix = "token:"

// Valkey keeps one JSON-encoded record per user. Records are written without
// a TTL: like the other stores, a record is only ever replaced by a later Put.
type Valkey struct {
	client valkey.Client
}

func NewValkey(client valkey.Client) *Valkey {
	return &Valkey{client: client}
}

func (v *Valkey) Get(ctx context.Context, userID string) (CachedToken, bool, error) {
	cmd := v.client.B().Get().Key(storageKey(userID)).Build()
	result := v.client.Do(ctx, cmd)

	if err := result.Error(); err != nil {
		// Key not found is not an error in our semantics
		if valkey.IsValkeyNil(err) {
			return CachedToken{}, false, nil
		}
		return CachedToken{}, false, unavailable(fmt.Errorf("valkey get failed: %w", err))
	}

	data, err := result.AsBytes()
	if err != nil {
		return CachedToken{}, false, unavailable(fmt.Errorf("valkey value could not be read: %w", err))
	}

	var token CachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return CachedToken{}, false, unavailable(fmt.Errorf("valkey value could not be decoded: %w", err))
	}

	return token, true, nil
}

func (v *Valkey) Put(ctx context.Context, token CachedToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return unavailable(fmt.Errorf("token could not be encoded: %w", err))
	}

	cmd := v.client.B().Set().Key(storageKey(token.UserID)).Value(string(data)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return unavailable(fmt.Errorf("valkey set failed: %w", err))
	}

	return nil
}

// Close releases the underlying client connections.
func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}

func storageKey(userID string) string {
	return keyPrefix + userID
}
