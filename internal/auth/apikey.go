package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

var apiKeyPattern = regexp.MustCompile(`^ak_[a-f0-9]{64}$`)

// GenerateAPIKey returns a new credential of the form ak_<64 hex chars>.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "ak_" + hex.EncodeToString(buf), nil
}

// IsValidAPIKeyFormat reports whether a string looks like an issued key.
func IsValidAPIKeyFormat(apiKey string) bool {
	return apiKeyPattern.MatchString(apiKey)
}
