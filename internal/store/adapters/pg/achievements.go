package pg

import (
	"context"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

func (s *Store) CreateAchievement(ctx context.Context, a *core.Achievement) error {
	const query = `
		INSERT INTO achievements (account_id, id, title, unlocked, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, a.AccountID, a.ID, a.Title, a.Unlocked, a.CreatedAt)
	if err != nil {
		return unavailable("create achievement", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}
