package pg

import (
	"context"

	"github.com/dropDatabas3/fabula/internal/store/core"
)

func (s *Store) CreateNotification(ctx context.Context, n *core.Notification) error {
	const query = `
		INSERT INTO notifications (account_id, id, type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		n.AccountID, n.ID, n.Type, n.Title, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		return unavailable("create notification", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, accountID string) ([]core.Notification, error) {
	const query = `
		SELECT account_id, id, type, title, message, is_read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.AccountID, &n.ID, &n.Type, &n.Title,
			&n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, unavailable("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notifications", err)
	}
	return out, nil
}
