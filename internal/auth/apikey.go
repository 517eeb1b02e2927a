// Package auth validates API keys against configured key hashes.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/prismql/prism/internal/config"
)

// Authenticator validates API keys. Only sha256 hashes of accepted keys
// are held in memory.
type Authenticator struct {
	keyHashes []string
}

// NewAuthenticator creates an authenticator from configured key hashes.
// Returns nil when no keys are configured, which disables auth.
func NewAuthenticator(keys []config.APIKeyConfig) *Authenticator {
	if len(keys) == 0 {
		return nil
	}

	a := &Authenticator{}
	for _, key := range keys {
		a.keyHashes = append(a.keyHashes, key.KeyHash)
	}
	return a
}

// ValidateAPIKey checks an API key against the configured hashes.
func (a *Authenticator) ValidateAPIKey(apiKey string) error {
	keyHash := HashAPIKey(apiKey)

	// Constant-time comparison to prevent timing attacks
	for _, h := range a.keyHashes {
		if subtle.ConstantTimeCompare([]byte(keyHash), []byte(h)) == 1 {
			return nil
		}
	}
	return fmt.Errorf("invalid API key")
}

// ExtractAPIKey extracts the API key from the Authorization header.
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Support "Bearer <key>" format
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}

	return parts[1], nil
}

// HashAPIKey creates a SHA-256 hash of an API key for storage.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}
