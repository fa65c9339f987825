package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// minSecretLen is the shortest accepted HMAC secret, in bytes.
const minSecretLen = 32

// Secrets maps secret ids to HMAC secrets. API keys name the secret that
// signed them, so several secrets can be live during rotation.
type Secrets map[string][]byte

// Newest returns the greatest secret id. Ids are UUIDv7, so that is the
// most recently minted one.
func (s Secrets) Newest() (string, bool) {
	newest := ""
	for id := range s {
		if id > newest {
			newest = id
		}
	}
	return newest, newest != ""
}

// HMACSecrets reads FR_HMAC_SECRET and FR_HMAC_SECRET_1, _2, ... up to
// the first unset number. Each value is <secret_id>:<base64 secret>.
// Secrets are environment-only; Load rejects them in config files.
func HMACSecrets() (Secrets, error) {
	return secretsFromEnv(os.Getenv)
}

func secretsFromEnv(getenv func(string) string) (Secrets, error) {
	names := []string{"FR_HMAC_SECRET"}
	for i := 1; getenv(fmt.Sprintf("FR_HMAC_SECRET_%d", i)) != ""; i++ {
		names = append(names, fmt.Sprintf("FR_HMAC_SECRET_%d", i))
	}

	secrets := make(Secrets)
	for _, name := range names {
		val := getenv(name)
		if val == "" {
			continue
		}
		id, secret, err := ParseHMACSecretWithID(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := secrets[id]; dup {
			return nil, fmt.Errorf("%s: secret_id %s configured twice", name, id)
		}
		secrets[id] = secret
	}
	return secrets, nil
}

// ParseHMACSecret decodes a base64 secret of at least 32 bytes.
func ParseHMACSecret(encoded string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("secret must be at least %d bytes, got %d", minSecretLen, len(secret))
	}
	return secret, nil
}

// ParseHMACSecretWithID parses <secret_id>:<base64 secret>. The id is a
// UUIDv7 as 32 lowercase hex chars, the form API keys embed.
func ParseHMACSecretWithID(value string) (string, []byte, error) {
	id, encoded, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}
	if _, err := hex.DecodeString(id); err != nil || len(id) != 32 || strings.ToLower(id) != id {
		return "", nil, fmt.Errorf("secret_id must be 32 lowercase hex chars (UUIDv7 without hyphens)")
	}
	secret, err := ParseHMACSecret(encoded)
	if err != nil {
		return "", nil, err
	}
	return id, secret, nil
}
