package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tink-crypto/tink-go/v2/tink"
)

// sealedPrefix marks an access token that was encrypted before storage.
const sealedPrefix = "lb-enc:"

// Encrypted seals the access token of every record before it reaches the
// wrapped store. The user ID is bound to the ciphertext as associated data, so
// a sealed token copied to another user's record does not decrypt.
//
// A record that cannot be opened (written before encryption was enabled, or
// under a key that has since been removed from the keyset) is reported as
// absent, so the next request replaces it.
type Encrypted struct {
	wrapped TokenStore
	aead    tink.AEAD
}

func NewEncrypted(wrapped TokenStore, aead tink.AEAD) *Encrypted {
	return &Encrypted{
		wrapped: wrapped,
		aead:    aead,
	}
}

func (e *Encrypted) Get(ctx context.Context, userID string) (CachedToken, bool, error) {
	token, found, err := e.wrapped.Get(ctx, userID)
	if err != nil || !found {
		return token, found, err
	}

	plaintext, err := e.open(token.AccessToken, userID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("userId", userID).Msg("stored token unreadable, treating as absent")
		return CachedToken{}, false, nil
	}

	token.AccessToken = plaintext
	return token, true, nil
}

func (e *Encrypted) Put(ctx context.Context, token CachedToken) error {
	sealed, err := e.seal(token.AccessToken, token.UserID)
	if err != nil {
		return unavailable(err)
	}

	token.AccessToken = sealed
	return e.wrapped.Put(ctx, token)
}

// Close closes the wrapped store and, when it holds resources, the AEAD.
func (e *Encrypted) Close() error {
	err := e.wrapped.Close()

	if closer, ok := e.aead.(interface{ Close() error }); ok {
		err = errors.Join(err, closer.Close())
	}

	return err
}

func (e *Encrypted) seal(accessToken, userID string) (string, error) {
	ciphertext, err := e.aead.Encrypt([]byte(accessToken), associatedData(userID))
	if err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}

	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (e *Encrypted) open(stored, userID string) (string, error) {
	encoded, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return "", errors.New("token is not sealed")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}

	plaintext, err := e.aead.Decrypt(ciphertext, associatedData(userID))
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}

	return string(plaintext), nil
}

func associatedData(userID string) []byte {
	return []byte("token:" + userID)
}
