package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	keyPrefixLive = "ik_live_"
	keyPrefixTest = "ik_test_"
)

func keyPrefix(t APIKeyType) string {
	if t == APIKeyLive {
		return keyPrefixLive
	}
	return keyPrefixTest
}

// generateAPIKeySecret returns the plaintext key. Only its SHA-256 hash is
// persisted; lookups hash the presented key and compare fingerprints.
func generateAPIKeySecret(t APIKeyType) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return keyPrefix(t) + hex.EncodeToString(raw), nil
}

// HashAPIKey derives the storage fingerprint of a plaintext api key.
func HashAPIKey(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return sum[:]
}
