// Package rate limita requests por clave con ventana fija.
// Dos backends: Redis para despliegues multi-réplica y memoria de proceso
// para dev/single-node.
package rate

import (
	"context"
	"time"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Noop permite todo. Se usa cuando el rate limiting está deshabilitado.
type Noop struct{}

func (Noop) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true, Remaining: -1}, nil
}
