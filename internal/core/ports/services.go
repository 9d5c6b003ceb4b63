package ports

import (
	"context"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishListingEvent(ctx context.Context, ev *domain.ListingEvent) error
	PublishShareNotification(ctx context.Context, share *domain.ListingShare) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeListingEvents(ctx context.Context, handler func(ctx context.Context, ev *domain.ListingEvent) error) error
	SubscribeShareNotifications(ctx context.Context, handler func(ctx context.Context, share *domain.ListingShare) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, deviceID, title, body string) error
}

// ChatMessage is one turn of an assistant conversation.
// Role is one of "system", "user", "assistant", or "tool". ToolCalls is
// set on assistant turns that request tools; ToolCallID on tool results.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// ChatModel is one round-trip to an LLM chat API. The tool-calling loop
// lives above this interface so providers stay stateless.
type ChatModel interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (*ChatMessage, error)
}
