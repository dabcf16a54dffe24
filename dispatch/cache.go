package dispatch

import (
	"context"
	"time"
)

// CachePolicy describes how a response may be cached. It is pure
// configuration: the dispatcher hands it to the transport through the request
// context (see CachePolicyFromContext) and enforces nothing itself.
type CachePolicy struct {
	Duration                   time.Duration
	SlidingExpiration          bool
	ForceRefresh               bool
	CustomKeyParts             []string
	RespectCacheControlHeaders bool
}

// DefaultCachePolicy caches for five minutes and honours Cache-Control.
func DefaultCachePolicy() *CachePolicy {
	return &CachePolicy{
		Duration:                   5 * time.Minute,
		RespectCacheControlHeaders: true,
	}
}

// NoCachePolicy disables caching.
func NoCachePolicy() *CachePolicy {
	return &CachePolicy{}
}

type cachePolicyKey struct{}

// WithCachePolicyContext returns a context carrying p. A nil p returns ctx unchanged.
func WithCachePolicyContext(ctx context.Context, p *CachePolicy) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, cachePolicyKey{}, p)
}

// CachePolicyFromContext returns the cache policy attached to ctx, if any.
func CachePolicyFromContext(ctx context.Context) (*CachePolicy, bool) {
	p, ok := ctx.Value(cachePolicyKey{}).(*CachePolicy)
	return p, ok
}
