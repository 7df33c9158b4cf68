package usecase

import (
	"context"
	"fmt"

	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// DeleteMessageInput identifies the message and the user asking to delete it.
type DeleteMessageInput struct {
	MessageID string
	UserID    string
}

// DeleteMessageUseCase removes a message. Authorization is the row filter
// itself: the delete is constrained to sender = user, so a non-sender's
// request matches zero rows and surfaces as ErrNotOwner rather than a
// silent success.
type DeleteMessageUseCase struct {
	Repo repository.MessagingRepository
}

func NewDeleteMessageUseCase(repo repository.MessagingRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) error {
	if in.MessageID == "" || in.UserID == "" {
		return fmt.Errorf("message_id and user_id are required")
	}

	n, err := uc.Repo.DeleteMessage(ctx, in.MessageID, in.UserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n == 0 {
		return messaging.ErrNotOwner
	}
	return nil
}
