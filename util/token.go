// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateToken returns n random bytes hex-encoded. Reset tokens and
// session ids come from here, so it must never fall back to a weak source.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes, %w", err)
	}

	return hex.EncodeToString(b), nil
}
