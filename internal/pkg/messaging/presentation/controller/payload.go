package controller

import (
	"errors"
	"net/http"
	"time"

	"casechat/internal/pkg/messaging/application/usecase"
	messaging "casechat/internal/pkg/messaging/domain"

	"github.com/gin-gonic/gin"
)

// messagePayload is the wire shape of a message row.
type messagePayload struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toMessagePayload(m messaging.Message) messagePayload {
	return messagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		Read:           m.Read,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessagePayloads(msgs []messaging.Message) []messagePayload {
	out := make([]messagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessagePayload(m))
	}
	return out
}

type conversationPayload struct {
	ID             string    `json:"id"`
	UserLowID      string    `json:"user_low_id"`
	UserHighID     string    `json:"user_high_id"`
	ListingID      *string   `json:"listing_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func toConversationPayload(c messaging.Conversation) conversationPayload {
	return conversationPayload{
		ID:             c.ID,
		UserLowID:      c.UserLowID,
		UserHighID:     c.UserHighID,
		ListingID:      c.ListingID,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivityAt,
	}
}

type profilePayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type listingPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PhotoURL    string `json:"photo_url,omitempty"`
	AskingPrice int64  `json:"asking_price_cents"`
}

type directoryEntryPayload struct {
	Conversation conversationPayload `json:"conversation"`
	Counterpart  profilePayload      `json:"counterpart"`
	Listing      *listingPayload     `json:"listing,omitempty"`
	LastMessage  *messagePayload     `json:"last_message,omitempty"`
	UnreadCount  int                 `json:"unread_count"`
}

func toDirectoryEntryPayloads(entries []messaging.DirectoryEntry) []directoryEntryPayload {
	out := make([]directoryEntryPayload, 0, len(entries))
	for _, e := range entries {
		p := directoryEntryPayload{
			Conversation: toConversationPayload(e.Conversation),
			Counterpart: profilePayload{
				ID:        e.Counterpart.ID,
				Username:  e.Counterpart.Username,
				AvatarURL: e.Counterpart.AvatarURL,
			},
			UnreadCount: e.UnreadCount,
		}
		if e.Listing != nil {
			p.Listing = &listingPayload{
				ID:          e.Listing.ID,
				Title:       e.Listing.Title,
				PhotoURL:    e.Listing.PhotoURL,
				AskingPrice: e.Listing.AskingPrice,
			}
		}
		if e.LastMessage != nil {
			mp := toMessagePayload(*e.LastMessage)
			p.LastMessage = &mp
		}
		out = append(out, p)
	}
	return out
}

// respondError maps domain/use case errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		status = http.StatusInternalServerError
	case errors.Is(err, messaging.ErrNotParticipant), errors.Is(err, messaging.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, messaging.ErrConversationNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
