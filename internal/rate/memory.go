package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: misma ventana fija que el limiter de Redis pero sobre un
// cache de proceso. No coordina entre réplicas; suficiente para dev y
// despliegues single-node.
type MemoryLimiter struct {
	cache  *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	winEnd := winStart.Add(l.Window)
	cacheKey := fmt.Sprintf("%s:%d", strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	// Primer hit de la ventana: el TTL del item es lo que resta de ella.
	if err := l.cache.Add(cacheKey, int64(1), time.Until(winEnd)); err == nil {
		return Result{
			Allowed:     1 <= l.Max,
			Remaining:   maxInt64(l.Max-1, 0),
			CurrentHits: 1,
			WindowTTL:   time.Until(winEnd),
		}, nil
	}

	hits, err := l.cache.IncrementInt64(cacheKey, 1)
	if err != nil {
		// El item expiró entre el Add y el Increment: contar como primero.
		_ = l.cache.Add(cacheKey, int64(1), time.Until(winEnd))
		hits = 1
	}

	allowed := hits <= l.Max
	res := Result{
		Allowed:     allowed,
		Remaining:   maxInt64(l.Max-hits, 0),
		CurrentHits: hits,
		WindowTTL:   time.Until(winEnd),
	}
	if !allowed {
		res.RetryAfter = time.Until(winEnd)
	}
	return res, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
