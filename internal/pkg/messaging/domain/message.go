package messaging

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyMessage   = errors.New("messaging: empty message body")
	ErrMissingMessage = errors.New("messaging: conversation_id and sender_id are required")
	ErrNotOwner       = errors.New("messaging: message does not belong to the user")
)

// Message is an immutable text entry in a conversation. The only mutation a
// message ever sees is the one-way read transition: Read flips false -> true
// and ReadAt is stamped once.
type Message struct {
	ID             string     `db:"id"`
	ConversationID string     `db:"conversation_id"`
	SenderID       string     `db:"sender_id"`
	Body           string     `db:"body"`
	Read           bool       `db:"read"`
	ReadAt         *time.Time `db:"read_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

// NewMessage validates and normalizes an outgoing message. Whitespace-only
// bodies are rejected before any backend call is made.
func NewMessage(conversationID, senderID, body string, now time.Time) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, ErrMissingMessage
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, ErrEmptyMessage
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           trimmed,
		CreatedAt:      now,
	}, nil
}
