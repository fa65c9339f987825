// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey struct{}

// Principal is the caller behind an authenticated request.
type Principal struct {
	TenantID string
	KeyID    string
}

// Queries defines the named-query operations authentication needs.
// Implemented by *db.Queries.
type Queries interface {
	GetContext(ctx context.Context, name string, dest any, args ...any) error
	ExecContext(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Hash returns the stored hash for apiKey, or ErrUnknownKey when its
// secret_id has no configured secret.
func (a *Authenticator) Hash(apiKey string) ([]byte, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	secret, ok := a.secrets[secretID]
	if !ok {
		return nil, ErrUnknownKey
	}
	return ComputeHMAC(secret, apiKey), nil
}

// Authenticate resolves apiKey to its principal. Each failure mode has its
// own error so the interceptor can map it to a status code.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (Principal, error) {
	computedHash, err := a.Hash(apiKey)
	if err != nil {
		return Principal{}, err
	}

	// key_hash is unique, so at most one row matches
	var result struct {
		TenantID   string       `db:"tenant_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		APIKeyID   string       `db:"api_key_id"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.GetContext(ctx, "get-api-key-by-hash", &result, computedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrInvalidKey
	}
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if result.RevokedAt.Valid {
		return Principal{}, ErrKeyRevoked
	}

	// 1-minute throttle keeps busy clients from writing on every call
	now := a.now()
	if shouldUpdateLastUsed(result.LastUsedAt, now) {
		_, _ = a.queries.ExecContext(ctx, "update-last-used", now, result.APIKeyID)
	}

	return Principal{TenantID: result.TenantID, KeyID: result.APIKeyID}, nil
}

// shouldUpdateLastUsed implements 1-minute throttle to reduce write amplification.
func shouldUpdateLastUsed(lastUsed sql.NullTime, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(lastUsed.Time) > time.Minute
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Methods listed in skip (full method names) pass through unauthenticated.
func (a *Authenticator) UnaryInterceptor(skip ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]bool, len(skip))
	for _, m := range skip {
		open[m] = true
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		principal, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			switch {
			case errors.Is(err, ErrKeyRevoked):
				return nil, status.Error(codes.PermissionDenied, err.Error())
			case errors.Is(err, ErrDatabase):
				return nil, status.Error(codes.Unavailable, err.Error())
			default:
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
		}

		return handler(WithPrincipal(ctx, principal), req)
	}
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// WithTenantID is WithPrincipal for a caller known only by tenant.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return WithPrincipal(ctx, Principal{TenantID: tenantID})
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// TenantIDFromContext returns the caller's tenant, or "" when the request
// was not authenticated.
func TenantIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.TenantID
}
