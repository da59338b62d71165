package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken returns a 64-character hex token from 32 bytes of
// crypto/rand entropy.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
