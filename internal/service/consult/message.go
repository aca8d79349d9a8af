package consult

import (
	"context"
	"fmt"
	"time"

	"dolo/internal/models"
)

// AddMessage appends one turn to a conversation's history. Messages are
// never updated or deleted afterwards.
func (s *Service) AddMessage(ctx context.Context, conversationID int64, role models.Role, content string) (*models.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	s.invalidateConversation(ctx, conversationID)
	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}, nil
}
