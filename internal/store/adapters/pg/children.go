package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

func (s *Store) ListChildren(ctx context.Context, accountID string) ([]core.ChildProfile, error) {
	const query = `
		SELECT account_id, child_id, happiness, energy, knowledge
		FROM children
		WHERE account_id = $1
		ORDER BY child_id ASC
	`
	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, unavailable("list children", err)
	}
	defer rows.Close()

	var out []core.ChildProfile
	for rows.Next() {
		var c core.ChildProfile
		if err := rows.Scan(&c.AccountID, &c.ChildID,
			&c.PetStats.Happiness, &c.PetStats.Energy, &c.PetStats.Knowledge); err != nil {
			return nil, unavailable("scan child", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list children", err)
	}
	return out, nil
}

func (s *Store) UpsertChild(ctx context.Context, c *core.ChildProfile) error {
	const query = `
		INSERT INTO children (account_id, child_id, happiness, energy, knowledge)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, child_id) DO UPDATE
		SET happiness = EXCLUDED.happiness,
		    energy    = EXCLUDED.energy,
		    knowledge = EXCLUDED.knowledge
	`
	st := c.PetStats.Normalize()
	if _, err := s.pool.Exec(ctx, query, c.AccountID, c.ChildID,
		st.Happiness, st.Energy, st.Knowledge); err != nil {
		return unavailable("upsert child", err)
	}
	return nil
}

// UpdatePetStats aplica los updates de una cuenta como batch en una tx:
// cada write de documento individual es atómico y el batch entero commitea
// o se descarta junto.
func (s *Store) UpdatePetStats(ctx context.Context, accountID string, stats map[string]core.PetStats) error {
	if len(stats) == 0 {
		return nil
	}
	const query = `
		UPDATE children
		SET happiness = $3, energy = $4, knowledge = $5
		WHERE account_id = $1 AND child_id = $2
	`
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin batch", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for childID, st := range stats {
		st = st.Normalize()
		batch.Queue(query, accountID, childID, st.Happiness, st.Energy, st.Knowledge)
	}
	br := tx.SendBatch(ctx, batch)
	for range stats {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return unavailable("batch update stats", err)
		}
	}
	if err := br.Close(); err != nil {
		return unavailable("close batch", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit batch", err)
	}
	return nil
}
