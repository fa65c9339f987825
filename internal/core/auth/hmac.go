package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// API keys read fr-v1-<secret_id>-<random>: the secret id selects the
// HMAC secret, the random part is 256 bits of hex.
const (
	keyHeader    = "fr-v1-"
	secretIDLen  = 32
	randomHexLen = 64
)

// ParseAPIKey splits a key into its secret id and random part.
// Any deviation from the format returns ErrInvalidKeyFormat.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	rest, ok := strings.CutPrefix(key, keyHeader)
	if !ok {
		return "", "", ErrInvalidKeyFormat
	}
	secretID, randomData, ok = strings.Cut(rest, "-")
	if !ok || !lowerHex(secretID, secretIDLen) || !lowerHex(randomData, randomHexLen) {
		return "", "", ErrInvalidKeyFormat
	}
	return secretID, randomData, nil
}

func lowerHex(s string, n int) bool {
	if len(s) != n || strings.ToLower(s) != s {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ComputeHMAC signs the full key text; the signature is what gets stored.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(apiKey))
	return mac.Sum(nil)
}

// FormatAPIKey joins a secret id and random part.
func FormatAPIKey(secretID, randomData string) string {
	return keyHeader + secretID + "-" + randomData
}

// GenerateAPIKey creates a key bound to secretID.
func GenerateAPIKey(secretID string) (string, error) {
	buf := make([]byte, randomHexLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	key := FormatAPIKey(secretID, hex.EncodeToString(buf))
	if _, _, err := ParseAPIKey(key); err != nil {
		return "", fmt.Errorf("secret id %q: %w", secretID, err)
	}
	return key, nil
}
