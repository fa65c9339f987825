package auth

import "errors"

// Missing, malformed and unknown keys all surface as Unauthenticated so a
// caller cannot probe which keys exist. Only a revoked key, which is known
// to exist, maps to PermissionDenied.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("API key bound to an unconfigured secret")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrDatabase         = errors.New("key lookup failed")
)
