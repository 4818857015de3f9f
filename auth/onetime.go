package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const oneTimeSecretBytes = 20

// OneTimeSecret is a random value handed to the user exactly once, matched
// server side only by its digest. The plaintext is never persisted.
type OneTimeSecret struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// GenerateOneTimeSecret mints a fresh secret valid for the given window.
func GenerateOneTimeSecret(window time.Duration) (*OneTimeSecret, error) {
	buf := make([]byte, oneTimeSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token")
	}

	plaintext := hex.EncodeToString(buf)
	return &OneTimeSecret{
		Plaintext: plaintext,
		Hash:      HashForLookup(plaintext),
		ExpiresAt: time.Now().Add(window),
	}, nil
}

// HashForLookup derives the stored digest from a caller-supplied plaintext.
// Deterministic, so the server can look records up by hash.
func HashForLookup(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VerifyOneTimeSecret compares a plaintext against a stored digest in
// constant time.
func VerifyOneTimeSecret(plaintext, storedHash string) bool {
	derived := HashForLookup(plaintext)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(storedHash)) == 1
}
