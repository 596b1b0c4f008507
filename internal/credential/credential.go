package credential

import (
	"crypto/sha256"
	"encoding/hex"
)

// UserID derives the store key for a session cookie. The raw cookie is a
// secret and is never used as a key or logged: only this digest is.
func UserID(spDC string) string {
	sum := sha256.Sum256([]byte(spDC))
	return hex.EncodeToString(sum[:])
}
