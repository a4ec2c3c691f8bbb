package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const minRefreshValueBytes = 256

// NewRefreshValue returns n cryptographically random bytes encoded with
// standard base64. n below 256 is rejected: the refresh value is the sole
// proof of possession in the rotation protocol.
func NewRefreshValue(n int) (string, error) {
	if n < minRefreshValueBytes {
		return "", errors.New("refresh value entropy too low")
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// NewChallengeID returns a compact random identifier for pending ceremony
// options.
func NewChallengeID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
