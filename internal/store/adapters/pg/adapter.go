// Package pg implementa core.Repository sobre PostgreSQL (pgxpool).
//
// Semántica clave respecto del contrato del store:
//   - create-if-absent: INSERT ... ON CONFLICT DO NOTHING; cero filas
//     afectadas ⇒ core.ErrConflict (el perdedor de la carrera re-lee).
//   - batches multi-documento: pgx.Batch dentro de una transacción.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

type Store struct {
	pool *pgxpool.Pool
}

// Options ajusta el pool; cero valores usan defaults de pgx.
type Options struct {
	MaxConns        int
	ConnMaxLifetime time.Duration
}

func New(ctx context.Context, dsn string, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// unavailable envuelve errores de infraestructura para que las capas de
// arriba puedan distinguirlos con errors.Is(err, core.ErrUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("pg: %s: %w: %v", op, core.ErrUnavailable, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
