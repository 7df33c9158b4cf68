package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	messaging "casechat/internal/pkg/messaging/domain"
)

func TestGetMessagesRequiresParticipant(t *testing.T) {
	repo := newFakeRepo()
	conv, _ := messaging.NewConversation("user-a", "user-b", nil, time.Now().UTC())
	conv.ID = "conv-1"
	repo.addConversation(*conv)

	uc := NewGetMessagesUseCase(repo)

	if _, err := uc.Execute(context.Background(), GetMessagesInput{ConversationID: "conv-1", UserID: "user-a"}); err != nil {
		t.Errorf("participant fetch should succeed, got %v", err)
	}

	_, err := uc.Execute(context.Background(), GetMessagesInput{ConversationID: "conv-1", UserID: "stranger"})
	if !errors.Is(err, messaging.ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestGetMessagesUnknownConversation(t *testing.T) {
	uc := NewGetMessagesUseCase(newFakeRepo())
	_, err := uc.Execute(context.Background(), GetMessagesInput{ConversationID: "conv-x", UserID: "user-a"})
	if !errors.Is(err, messaging.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}
