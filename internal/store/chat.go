package store

import (
	"context"

	"github.com/wosledon/vitanote/internal/chat"
)

// AppendMessages implements chat.Repository. The messages are stored in one
// transaction, in order.
func (s *Store) AppendMessages(ctx context.Context, msgs ...*chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "appending chat messages")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_messages (id, user_id, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.UserID, string(m.Role), m.Content, toMillis(m.CreatedAt),
		); err != nil {
			return mapError(err, "appending chat message")
		}
	}
	return mapError(tx.Commit(), "appending chat messages")
}

// ListMessages implements chat.Repository.
func (s *Store) ListMessages(ctx context.Context, userID string, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, role, content, created_at FROM (
		SELECT seq, id, user_id, role, content, created_at FROM chat_messages
		WHERE user_id = ? ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`, userID, limit)
	if err != nil {
		return nil, mapError(err, "listing chat messages")
	}
	defer rows.Close()

	var out []*chat.Message
	for rows.Next() {
		var (
			m         chat.Message
			role      string
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &createdAt); err != nil {
			return nil, mapError(err, "scanning chat message")
		}
		m.Role = chat.Role(role)
		m.CreatedAt = fromMillis(createdAt)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "listing chat messages")
	}
	return out, nil
}

// ClearMessages implements chat.Repository.
func (s *Store) ClearMessages(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, mapError(err, "clearing chat messages")
	}
	return res.RowsAffected()
}
