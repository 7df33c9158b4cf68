package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	pubsub "casechat/internal/infrastructure/pubsub/port"
	queue "casechat/internal/infrastructure/queue/port"
	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// NotifyMessageTaskType is the queue task name for counterpart notification
// after a message lands.
const NotifyMessageTaskType = "messaging:notify_message"

// NotifyMessagePayload is the JSON payload transported via the queue. Kept
// decoupled from domain types to avoid tight coupling with JSON tags.
type NotifyMessagePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	RecipientID    string `json:"recipientId"`
	Preview        string `json:"preview"`
}

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Body           string
}

// SendMessageUseCase persists a message and emits its insert event to the
// conversation's subscribers. Validation happens before any backend call:
// an empty or whitespace-only body never reaches the repository.
type SendMessageUseCase struct {
	Repo   repository.MessagingRepository
	Broker pubsub.Broker
	Queue  queue.Client // optional; nil disables notification tasks
}

func NewSendMessageUseCase(repo repository.MessagingRepository, broker pubsub.Broker, q queue.Client) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Broker: broker, Queue: q}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*messaging.Message, error) {
	msg, err := messaging.NewMessage(in.ConversationID, in.SenderID, in.Body, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	conv, err := uc.Repo.ConversationByID(ctx, in.ConversationID)
	if err != nil {
		if err == messaging.ErrConversationNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.SenderID) {
		return nil, messaging.ErrNotParticipant
	}

	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.TouchConversation(ctx, in.ConversationID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The message is durable from here on; event emission and notification
	// are best-effort, matching a managed backend that owns delivery.
	evt := pubsub.MessageEvent{
		Type:           pubsub.EventMessageInserted,
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		Read:           msg.Read,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
	if err := uc.Broker.Publish(ctx, msg.ConversationID, evt); err != nil {
		log.Printf("send message: publish event for %s: %v", msg.ID, err)
	}

	uc.enqueueNotify(ctx, msg, conv.Counterpart(in.SenderID))

	return msg, nil
}

func (uc *SendMessageUseCase) enqueueNotify(ctx context.Context, msg *messaging.Message, recipientID string) {
	if uc.Queue == nil || recipientID == "" {
		return
	}
	payload, err := json.Marshal(NotifyMessagePayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		RecipientID:    recipientID,
		Preview:        msg.Body,
	})
	if err != nil {
		return
	}
	opts := queue.EnqueueOption{Queue: "messaging", MaxRetry: 5}
	if _, err := uc.Queue.Enqueue(ctx, queue.Task{Type: NotifyMessageTaskType, Payload: payload}, opts); err != nil {
		log.Printf("send message: enqueue notify for %s: %v", msg.ID, err)
	}
}
