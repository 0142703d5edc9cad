package pg

import (
	"context"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

func (s *Store) CreateStory(ctx context.Context, st *core.Story) error {
	const query = `
		INSERT INTO stories (account_id, id, content, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, st.AccountID, st.ID, st.Content, st.CreatedAt)
	if err != nil {
		return unavailable("create story", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}

func (s *Store) ListStories(ctx context.Context, accountID string) ([]core.Story, error) {
	const query = `
		SELECT account_id, id, content, created_at
		FROM stories
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, unavailable("list stories", err)
	}
	defer rows.Close()

	var out []core.Story
	for rows.Next() {
		var st core.Story
		if err := rows.Scan(&st.AccountID, &st.ID, &st.Content, &st.CreatedAt); err != nil {
			return nil, unavailable("scan story", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list stories", err)
	}
	return out, nil
}

// DeleteStories borra el conjunto en un solo statement: atómico por sí mismo.
func (s *Store) DeleteStories(ctx context.Context, accountID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM stories WHERE account_id = $1 AND id = ANY($2)`
	if _, err := s.pool.Exec(ctx, query, accountID, ids); err != nil {
		return unavailable("delete stories", err)
	}
	return nil
}
