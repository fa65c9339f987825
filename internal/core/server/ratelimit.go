package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/formrel/internal/core/auth"
)

// idleLimiterTTL is how long an unused tenant limiter is kept.
const idleLimiterTTL = 3 * time.Minute

// tenantLimiter holds one token bucket per authenticated tenant.
type tenantLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	tenants map[string]*tenantBucket
	now     func() time.Time
}

type tenantBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newTenantLimiter(rps float64, burst int) *tenantLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &tenantLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		tenants: make(map[string]*tenantBucket),
		now:     time.Now,
	}
}

func (l *tenantLimiter) allow(tenantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.tenants[tenantID]
	if !ok {
		b = &tenantBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.tenants[tenantID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops limiters idle for longer than idleLimiterTTL.
func (l *tenantLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleLimiterTTL)
	for id, b := range l.tenants {
		if b.lastSeen.Before(cutoff) {
			delete(l.tenants, id)
		}
	}
}

// run sweeps once a minute until ctx is done.
func (l *tenantLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// unaryInterceptor rejects calls over the tenant's budget with
// ResourceExhausted. Calls without a tenant (skipped by auth) pass.
func (l *tenantLimiter) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		tenantID := auth.TenantIDFromContext(ctx)
		if tenantID == "" {
			return handler(ctx, req)
		}
		if !l.allow(tenantID) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for tenant %s", tenantID)
		}
		return handler(ctx, req)
	}
}
