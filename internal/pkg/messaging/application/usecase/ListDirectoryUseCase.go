package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cache "casechat/internal/infrastructure/cache/port"
	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

const (
	profileCachePrefix = "messaging:profile:"
	listingCachePrefix = "messaging:listing:"
	enrichmentCacheTTL = 5 * time.Minute
)

// ListDirectoryUseCase produces the ranked, denormalized conversation list
// for one user: each conversation joined with the counterpart's profile, the
// originating listing, the most recent message, and an unread count.
//
// The last-message and unread-count lookups fan out as two queries per
// conversation. Fine at the scale of a personal collection app; it is the
// first thing to denormalize if directories grow past a few hundred rows.
type ListDirectoryUseCase struct {
	Repo  repository.MessagingRepository
	Cache cache.Cache // optional; nil disables profile/listing caching
}

func NewListDirectoryUseCase(repo repository.MessagingRepository, c cache.Cache) *ListDirectoryUseCase {
	return &ListDirectoryUseCase{Repo: repo, Cache: c}
}

// Execute returns directory entries ordered by last activity descending.
func (uc *ListDirectoryUseCase) Execute(ctx context.Context, currentUserID string) ([]messaging.DirectoryEntry, error) {
	if currentUserID == "" {
		return nil, fmt.Errorf("current user id is required")
	}

	convs, err := uc.Repo.ConversationsByUser(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	entries := make([]messaging.DirectoryEntry, 0, len(convs))
	for _, conv := range convs {
		entry := messaging.DirectoryEntry{Conversation: conv}

		counterpartID := conv.Counterpart(currentUserID)
		if profile := uc.profile(ctx, counterpartID); profile != nil {
			entry.Counterpart = *profile
		} else {
			entry.Counterpart = messaging.Profile{ID: counterpartID}
		}

		if conv.ListingID != nil {
			entry.Listing = uc.listing(ctx, *conv.ListingID)
		}

		last, err := uc.Repo.LastMessage(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		entry.LastMessage = last

		unread, err := uc.Repo.UnreadCount(ctx, conv.ID, currentUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		entry.UnreadCount = unread

		entries = append(entries, entry)
	}
	return entries, nil
}

// profile resolves the counterpart's public profile cache-aside. Cache and
// repository misses both degrade to nil; the directory still renders with
// just the user id.
func (uc *ListDirectoryUseCase) profile(ctx context.Context, userID string) *messaging.Profile {
	if userID == "" {
		return nil
	}
	key := profileCachePrefix + userID
	if uc.Cache != nil {
		if raw, err := uc.Cache.Get(ctx, key); err == nil {
			var p messaging.Profile
			if json.Unmarshal([]byte(raw), &p) == nil {
				return &p
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			// transport error; fall through to the repository
		}
	}

	p, err := uc.Repo.ProfileByID(ctx, userID)
	if err != nil || p == nil {
		return nil
	}
	if uc.Cache != nil {
		if raw, err := json.Marshal(p); err == nil {
			_ = uc.Cache.Set(ctx, key, string(raw), enrichmentCacheTTL)
		}
	}
	return p
}

func (uc *ListDirectoryUseCase) listing(ctx context.Context, listingID string) *messaging.ListingSummary {
	key := listingCachePrefix + listingID
	if uc.Cache != nil {
		if raw, err := uc.Cache.Get(ctx, key); err == nil {
			var l messaging.ListingSummary
			if json.Unmarshal([]byte(raw), &l) == nil {
				return &l
			}
		}
	}

	l, err := uc.Repo.ListingByID(ctx, listingID)
	if err != nil || l == nil {
		return nil
	}
	if uc.Cache != nil {
		if raw, err := json.Marshal(l); err == nil {
			_ = uc.Cache.Set(ctx, key, string(raw), enrichmentCacheTTL)
		}
	}
	return l
}
