// Package ratelimit provides per-client token buckets on top of golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DeganAI/slippage-sentinel/internal/cache"
)

// Limiter keeps one token bucket per client key. Buckets idle for longer than
// the configured TTL are dropped.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	buckets *cache.Cache[string, *rate.Limiter]
}

// New creates a limiter allowing requestsPerMinute per client with the given burst.
func New(requestsPerMinute float64, burst int, idleTTL time.Duration) *Limiter {
	rps := requestsPerMinute / 60.0
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}

	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		buckets: cache.New[string, *rate.Limiter](idleTTL),
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Wait blocks until the client may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	ctx := context.Background()

	b, ok := l.buckets.Get(ctx, key)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		if !l.buckets.SetIfAbsent(ctx, key, b, l.idleTTL) {
			if existing, ok := l.buckets.Get(ctx, key); ok {
				b = existing
			}
		}
		return b
	}

	// refresh idle expiry
	l.buckets.Set(ctx, key, b, l.idleTTL)
	return b
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	return l.buckets.Len()
}

// Close stops the eviction loop.
func (l *Limiter) Close() error {
	l.buckets.Close()
	return nil
}

// Middleware rejects requests over the limit by calling onLimited instead of next.
func (l *Limiter) Middleware(onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientID(r)) {
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID derives the rate-limit key from proxy headers, falling back to the peer address.
func ClientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		first = strings.TrimSpace(first)
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
