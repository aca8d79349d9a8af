package models

import "time"

// Conversation groups a sequence of messages and uploaded reports.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultConversationTitle is used when a client creates a conversation
// without supplying a title.
const DefaultConversationTitle = "New Conversation"
