package usecase

import (
	"context"
	"testing"
	"time"

	messaging "casechat/internal/pkg/messaging/domain"
)

func TestListDirectoryEnrichesEntries(t *testing.T) {
	now := time.Now().UTC()
	listingID := "listing-9"

	conv1, _ := messaging.NewConversation("user-a", "user-b", &listingID, now)
	conv1.ID = "conv-1"
	conv2, _ := messaging.NewConversation("user-a", "user-c", nil, now.Add(-time.Hour))
	conv2.ID = "conv-2"

	repo := newFakeRepo()
	repo.userConvs = []messaging.Conversation{*conv1, *conv2}
	repo.profiles["user-b"] = &messaging.Profile{ID: "user-b", Username: "beth"}
	repo.listings[listingID] = &messaging.ListingSummary{ID: listingID, Title: "1962 Fenton vase", AskingPrice: 12500}
	repo.lastMessages["conv-1"] = &messaging.Message{ID: "msg-7", ConversationID: "conv-1", SenderID: "user-b", Body: "still available"}
	repo.unreadCounts["conv-1"] = 3

	uc := NewListDirectoryUseCase(repo, nil)
	entries, err := uc.Execute(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Counterpart.Username != "beth" {
		t.Errorf("expected enriched counterpart, got %+v", first.Counterpart)
	}
	if first.Listing == nil || first.Listing.Title != "1962 Fenton vase" {
		t.Errorf("expected listing enrichment, got %+v", first.Listing)
	}
	if first.LastMessage == nil || first.LastMessage.ID != "msg-7" {
		t.Errorf("expected last message preview, got %+v", first.LastMessage)
	}
	if first.UnreadCount != 3 {
		t.Errorf("expected unread 3, got %d", first.UnreadCount)
	}

	// Counterpart with no profile row still renders with the bare id.
	second := entries[1]
	if second.Counterpart.ID != "user-c" || second.Counterpart.Username != "" {
		t.Errorf("expected bare-id counterpart, got %+v", second.Counterpart)
	}
	if second.Listing != nil {
		t.Error("conversation without listing should have nil listing")
	}
}

func TestListDirectoryCachesProfiles(t *testing.T) {
	now := time.Now().UTC()
	conv, _ := messaging.NewConversation("user-a", "user-b", nil, now)
	conv.ID = "conv-1"

	repo := newFakeRepo()
	repo.userConvs = []messaging.Conversation{*conv}
	repo.profiles["user-b"] = &messaging.Profile{ID: "user-b", Username: "beth"}

	c := newFakeCache()
	uc := NewListDirectoryUseCase(repo, c)

	if _, err := uc.Execute(context.Background(), "user-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.profileCalls != 1 {
		t.Fatalf("expected 1 repository profile lookup, got %d", repo.profileCalls)
	}

	// Second listing is served from the cache.
	if _, err := uc.Execute(context.Background(), "user-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.profileCalls != 1 {
		t.Errorf("expected cached profile on second load, got %d lookups", repo.profileCalls)
	}
}

func TestListDirectoryRequiresUser(t *testing.T) {
	uc := NewListDirectoryUseCase(newFakeRepo(), nil)
	if _, err := uc.Execute(context.Background(), ""); err == nil {
		t.Error("expected error for empty user id")
	}
}
