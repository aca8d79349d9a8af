package consult

import (
	"context"
	"fmt"

	"dolo/internal/models"
)

// maxContextMessages bounds the history window. The query orders ascending
// and then limits, so a conversation longer than the window contributes its
// oldest ten turns, not its newest.
const maxContextMessages = 10

// BuildContext reconstructs the ordered context for one inference exchange:
// the primary system prompt, the continuation prompt when history exists,
// the stored turns verbatim, and optionally one pending user turn. Pure
// read; no side effects.
func (s *Service) BuildContext(ctx context.Context, conversationID int64, pendingUserMessage string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at ASC LIMIT ?`,
		conversationID, maxContextMessages,
	)
	if err != nil {
		return nil, fmt.Errorf("query context messages: %w", err)
	}
	defer rows.Close()

	var history []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan context message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	turns := make([]*models.Message, 0, len(history)+3)
	turns = append(turns, &models.Message{Role: models.RoleSystem, Content: systemPrompt})
	if len(history) > 0 {
		turns = append(turns, &models.Message{Role: models.RoleSystem, Content: memoryPrompt})
	}
	turns = append(turns, history...)
	if pendingUserMessage != "" {
		turns = append(turns, &models.Message{Role: models.RoleUser, Content: pendingUserMessage})
	}
	return turns, nil
}
