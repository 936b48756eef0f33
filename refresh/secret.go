package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

// SecretSize is the number of random bytes in a refresh secret.
const SecretSize = 32

// ErrMalformed is returned by [Validate] for secrets that cannot have been issued here.
var ErrMalformed = errors.New("malformed refresh secret")

var randReader io.Reader = rand.Reader

// NewSecret returns a fresh hex-encoded refresh secret.
func NewSecret() (string, error) {
	var raw [SecretSize]byte
	if _, err := io.ReadFull(randReader, raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// Hash returns the lookup key stored in place of the secret.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Validate rejects secrets that are not SecretSize hex-encoded bytes. It lets callers
// short-circuit garbage input before a store round-trip.
func Validate(secret string) error {
	if len(secret) != SecretSize*2 {
		return ErrMalformed
	}
	if _, err := hex.DecodeString(secret); err != nil {
		return ErrMalformed
	}
	return nil
}
