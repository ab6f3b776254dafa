// Package chat stores a per-user conversation with the VitaNote assistant.
//
// The assistant is rule based: it answers from keywords and the user's
// recent statistics and never calls a language model.
package chat

import (
	"context"
	"time"

	"github.com/wosledon/vitanote/internal/statistics"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is a user message and the assistant's reply.
type Exchange struct {
	Message *Message `json:"message"`
	Reply   *Message `json:"reply"`
}

// AssistantInput is what an Assistant sees when replying. Stats may be nil.
type AssistantInput struct {
	UserID  string
	Message string
	History []*Message
	Stats   *statistics.Overview
}

// Assistant produces replies.
type Assistant interface {
	Reply(ctx context.Context, in AssistantInput) (string, error)
}

// Repository persists messages. AppendMessages stores all of msgs or none.
// ListMessages returns the newest limit messages in chronological order.
type Repository interface {
	AppendMessages(ctx context.Context, msgs ...*Message) error
	ListMessages(ctx context.Context, userID string, limit int) ([]*Message, error)
	ClearMessages(ctx context.Context, userID string) (int64, error)
}
