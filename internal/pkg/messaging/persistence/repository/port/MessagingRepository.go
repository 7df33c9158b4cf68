package repository

import (
	"context"
	"time"

	messaging "casechat/internal/pkg/messaging/domain"
)

// MessagingRepository defines persistence operations for the messaging domain.
// Backend rows are parsed into the typed domain records at this edge; nothing
// above it sees raw rows. All reads/writes are row-filtered the way the
// managed backend enforces authorization: a user only deletes their own
// messages and only marks messages they did not send.
type MessagingRepository interface {
	// ConversationByPair looks up the single conversation for a canonicalized
	// (low, high) user pair. Returns messaging.ErrConversationNotFound when
	// no row exists.
	ConversationByPair(ctx context.Context, userLowID, userHighID string) (*messaging.Conversation, error)
	ConversationByID(ctx context.Context, conversationID string) (*messaging.Conversation, error)
	CreateConversation(ctx context.Context, c messaging.Conversation) (string, error)
	// TouchConversation advances the conversation's last-activity timestamp.
	TouchConversation(ctx context.Context, conversationID string, at time.Time) error
	// ConversationsByUser returns every conversation the user participates in,
	// ordered by last activity descending.
	ConversationsByUser(ctx context.Context, userID string) ([]messaging.Conversation, error)

	// MessagesByConversation returns messages oldest-first. limit <= 0 means
	// the whole conversation.
	MessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]messaging.Message, error)
	SaveMessage(ctx context.Context, m messaging.Message) (string, error)
	LastMessage(ctx context.Context, conversationID string) (*messaging.Message, error)
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)

	// MarkConversationRead is the batched read acknowledgement: it flips every
	// unread message in the conversation not sent by readerID and returns the
	// number of rows updated.
	MarkConversationRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	// MarkMessageRead acknowledges a single pushed message.
	MarkMessageRead(ctx context.Context, messageID string, at time.Time) error
	// DeleteMessage removes a message constrained to rows where sender is
	// senderID. It returns the number of rows deleted; zero means the filter
	// matched nothing (wrong owner or missing row), never an error by itself.
	DeleteMessage(ctx context.Context, messageID, senderID string) (int64, error)

	ProfileByID(ctx context.Context, userID string) (*messaging.Profile, error)
	ListingByID(ctx context.Context, listingID string) (*messaging.ListingSummary, error)
}
