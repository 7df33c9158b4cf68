package messaging

import (
	"errors"
	"time"
)

// Domain-level errors for messaging behaviors
var (
	ErrSameParticipant      = errors.New("messaging: a conversation needs two distinct users")
	ErrMissingParticipant   = errors.New("messaging: both participant ids are required")
	ErrConversationNotFound = errors.New("messaging: conversation not found")
	ErrNotParticipant       = errors.New("messaging: user is not a participant in the conversation")
)

// Conversation is a durable 1:1 thread between two users, optionally anchored
// to the marketplace listing that started it.
//
// The participant pair is stored canonicalized: UserLowID sorts strictly
// before UserHighID. That makes the pair order-independent and guarantees at
// most one conversation row per unordered (user, user) pair, enforced by a
// canonical lookup before insert.
type Conversation struct {
	ID             string    `db:"id"`
	UserLowID      string    `db:"user_low_id"`
	UserHighID     string    `db:"user_high_id"`
	ListingID      *string   `db:"listing_id"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
}

// CanonicalPair sorts two user ids into (low, high) order.
func CanonicalPair(a, b string) (low string, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// NewConversation validates and canonicalizes a conversation between two users.
func NewConversation(userA, userB string, listingID *string, now time.Time) (*Conversation, error) {
	if userA == "" || userB == "" {
		return nil, ErrMissingParticipant
	}
	if userA == userB {
		return nil, ErrSameParticipant
	}
	if listingID != nil && *listingID == "" {
		listingID = nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	low, high := CanonicalPair(userA, userB)
	return &Conversation{
		UserLowID:      low,
		UserHighID:     high,
		ListingID:      listingID,
		CreatedAt:      now,
		LastActivityAt: now,
	}, nil
}

// HasParticipant tells whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	return c.UserLowID == userID || c.UserHighID == userID
}

// Counterpart returns the other participant relative to userID, or "" when
// userID is not part of the conversation.
func (c *Conversation) Counterpart(userID string) string {
	switch {
	case c == nil:
		return ""
	case c.UserLowID == userID:
		return c.UserHighID
	case c.UserHighID == userID:
		return c.UserLowID
	default:
		return ""
	}
}
