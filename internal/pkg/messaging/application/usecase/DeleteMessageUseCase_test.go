package usecase

import (
	"context"
	"errors"
	"testing"

	messaging "casechat/internal/pkg/messaging/domain"
)

func TestDeleteMessageOwned(t *testing.T) {
	repo := newFakeRepo()
	repo.deleteRows = 1
	uc := NewDeleteMessageUseCase(repo)

	err := uc.Execute(context.Background(), DeleteMessageInput{MessageID: "msg-1", UserID: "user-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deletedID != "msg-1" || repo.deletedBy != "user-a" {
		t.Errorf("delete filter mismatch: (%s, %s)", repo.deletedID, repo.deletedBy)
	}
}

func TestDeleteMessageNotOwner(t *testing.T) {
	repo := newFakeRepo()
	repo.deleteRows = 0
	uc := NewDeleteMessageUseCase(repo)

	// The row filter matched nothing: someone else's message or a missing id.
	err := uc.Execute(context.Background(), DeleteMessageInput{MessageID: "msg-1", UserID: "intruder"})
	if !errors.Is(err, messaging.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteMessageBackendError(t *testing.T) {
	repo := newFakeRepo()
	repo.deleteErr = errors.New("connection reset")
	uc := NewDeleteMessageUseCase(repo)

	err := uc.Execute(context.Background(), DeleteMessageInput{MessageID: "msg-1", UserID: "user-a"})
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}

func TestDeleteMessageRequiresIdentity(t *testing.T) {
	uc := NewDeleteMessageUseCase(newFakeRepo())
	if err := uc.Execute(context.Background(), DeleteMessageInput{}); err == nil {
		t.Error("expected error for missing ids")
	}
}
