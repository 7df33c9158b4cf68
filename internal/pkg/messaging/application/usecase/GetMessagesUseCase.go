package usecase

import (
	"context"
	"errors"
	"fmt"

	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// GetMessagesInput carries parameters to fetch a conversation's history.
type GetMessagesInput struct {
	ConversationID string
	UserID         string
	Limit          int
	Offset         int
}

// GetMessagesUseCase fetches history oldest-first for a participant.
type GetMessagesUseCase struct {
	Repo repository.MessagingRepository
}

func NewGetMessagesUseCase(repo repository.MessagingRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]messaging.Message, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return nil, fmt.Errorf("conversation_id and user_id are required")
	}

	conv, err := uc.Repo.ConversationByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, messaging.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.UserID) {
		return nil, messaging.ErrNotParticipant
	}

	msgs, err := uc.Repo.MessagesByConversation(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
