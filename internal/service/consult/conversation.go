package consult

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dolo/internal/cache"
	"dolo/internal/models"
)

const conversationCacheTTL = 5 * time.Minute

func conversationCacheKey(id int64) string {
	return fmt.Sprintf("dolo:conversation:%d", id)
}

type conversationDetail struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []*models.Message   `json:"messages"`
}

// CreateConversation inserts a new conversation and returns the record.
// An empty title falls back to the default.
func (s *Service) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultConversationTitle
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (title, created_at) VALUES (?, ?)`,
		title, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("conversation id: %w", err)
	}
	return &models.Conversation{ID: id, Title: title, CreatedAt: now}, nil
}

// GetConversation returns one conversation. Propagates sql.ErrNoRows when
// the id does not exist.
func (s *Service) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Title, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

// GetConversationWithMessages returns one conversation and its ordered
// messages, consulting the read cache first when one is configured.
func (s *Service) GetConversationWithMessages(ctx context.Context, id int64) (*models.Conversation, []*models.Message, error) {
	key := conversationCacheKey(id)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var detail conversationDetail
		if err := json.Unmarshal([]byte(cached), &detail); err == nil {
			return &detail.Conversation, detail.Messages, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("conversation cache read %d: %v", id, err)
	}

	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`,
		id,
	)
	if err != nil {
		return conv, nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return conv, nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return conv, nil, err
	}

	if payload, err := json.Marshal(conversationDetail{Conversation: *conv, Messages: messages}); err == nil {
		if err := s.cache.Set(ctx, key, payload, conversationCacheTTL); err != nil {
			log.Printf("conversation cache write %d: %v", id, err)
		}
	}
	return conv, messages, nil
}

func (s *Service) invalidateConversation(ctx context.Context, id int64) {
	if err := s.cache.Del(ctx, conversationCacheKey(id)); err != nil {
		log.Printf("conversation cache invalidate %d: %v", id, err)
	}
}
