package storage

import (
	"context"
	"fmt"

	"paperxray/internal/models"

	"github.com/google/uuid"
)

type ChatRepo struct {
	db *DB
}

func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) AddMessage(ctx context.Context, paperID, role, content string) (string, error) {
	messageID := uuid.NewString()
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO chat_messages (message_id, paper_id, role, content)
VALUES ($1, $2, $3, $4)`,
		messageID, paperID, role, content,
	)
	if err != nil {
		return "", fmt.Errorf("add chat message: %w", err)
	}
	return messageID, nil
}

// ListMessages returns the transcript in creation order, the context fed to
// subsequent chat turns.
func (r *ChatRepo) ListMessages(ctx context.Context, paperID string) ([]models.ChatMessage, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT message_id, paper_id, role, content, created_at
FROM chat_messages
WHERE paper_id=$1
ORDER BY created_at ASC`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.PaperID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return out, nil
}
