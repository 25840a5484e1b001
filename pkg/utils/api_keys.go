package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateAPIKey returns a URL-safe key built from length random bytes.
func GenerateAPIKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
