package port

import (
	"context"
	"time"
)

// EventType identifies what happened to a message row.
type EventType string

const (
	// EventMessageInserted is emitted after a message row is persisted.
	EventMessageInserted EventType = "message_inserted"
)

// MessageEvent is the payload delivered to conversation subscribers. It
// mirrors the persisted message row; subscribers treat it as authoritative.
type MessageEvent struct {
	Type           EventType  `json:"type"`
	MessageID      string     `json:"message_id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Handler consumes events for one subscription. Handlers run on the
// adapter's delivery goroutine and must not block.
type Handler func(evt MessageEvent)

// Subscription is a live channel scoped to one conversation. Unsubscribe
// releases the server-side resources for the channel and must be idempotent.
type Subscription interface {
	Unsubscribe() error
}

// Broker is the publish/subscribe primitive keyed by conversation id.
// Durability, fan-out, and delivery ordering relative to insertion are the
// broker's responsibility; this port only shapes requests. There is no
// reconnect policy: a dropped underlying connection stops delivery until the
// caller subscribes again.
type Broker interface {
	Publish(ctx context.Context, conversationID string, evt MessageEvent) error
	Subscribe(ctx context.Context, conversationID string, h Handler) (Subscription, error)
	Close() error
}
