package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// RedisLimiter: ventana fija compartida entre réplicas (INCR + EXPIRE).
// La key incluye el inicio de ventana, así el contador expira solo y no
// hace falta reset explícito.
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.window)
	winKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, winKey)
	ttl := pipe.TTL(ctx, winKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	// Primer hit de la ventana: recién ahí la key recibe su TTL.
	if incr.Val() == 1 {
		_ = l.client.Expire(ctx, winKey, l.window).Err()
		ttl = l.client.TTL(ctx, winKey)
	}

	hits := incr.Val()
	allowed := hits <= l.max

	res := Result{
		Allowed:     allowed,
		Remaining:   maxInt64(l.max-hits, 0),
		CurrentHits: hits,
		WindowTTL:   ttl.Val(),
	}
	if !allowed {
		// Reintentar cuando la ventana actual expire.
		res.RetryAfter = ttl.Val()
		if res.RetryAfter < 0 {
			res.RetryAfter = l.window
		}
	}
	return res, nil
}
