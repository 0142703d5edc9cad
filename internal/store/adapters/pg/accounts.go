package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

func (s *Store) GetAccount(ctx context.Context, localID string) (*core.Account, error) {
	const query = `
		SELECT local_id, provider, provider_user_id, email, display_name, photo_url,
		       created_at, last_login_at
		FROM accounts
		WHERE local_id = $1
	`
	var a core.Account
	err := s.pool.QueryRow(ctx, query, localID).Scan(
		&a.LocalID, &a.Provider, &a.ProviderUserID,
		&a.Email, &a.DisplayName, &a.PhotoURL,
		&a.CreatedAt, &a.LastLoginAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, core.ErrNotFound
		}
		return nil, unavailable("get account", err)
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *core.Account) error {
	const query = `
		INSERT INTO accounts (local_id, provider, provider_user_id, email,
		                      display_name, photo_url, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (local_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		a.LocalID, a.Provider, a.ProviderUserID, a.Email,
		a.DisplayName, a.PhotoURL, a.CreatedAt, a.LastLoginAt,
	)
	if err != nil {
		return unavailable("create account", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, localID string, at time.Time) error {
	const query = `UPDATE accounts SET last_login_at = $2 WHERE local_id = $1`
	tag, err := s.pool.Exec(ctx, query, localID, at)
	if err != nil {
		return unavailable("touch last login", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccountIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	const query = `
		SELECT local_id FROM accounts
		WHERE local_id > $1
		ORDER BY local_id ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, unavailable("list account ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan account id", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list account ids", err)
	}
	return out, nil
}
