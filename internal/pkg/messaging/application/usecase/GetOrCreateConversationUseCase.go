package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// GetOrCreateConversationInput identifies the counterpart and, when the
// conversation starts from a marketplace listing, the listing that bridges
// into it ("contact seller" flow).
type GetOrCreateConversationInput struct {
	CurrentUserID string
	OtherUserID   string
	ListingID     *string
}

// GetOrCreateConversationUseCase resolves the single conversation for an
// unordered user pair, creating it when absent.
//
// The pair is canonicalized by sorting the two ids, so (A, B) and (B, A)
// resolve to the same row and repeated calls never create a second one.
// Lookup-then-insert is not transactionally atomic; concurrent first calls
// for the same pair converge on the unique (user_low_id, user_high_id)
// index, with the loser retrying the lookup.
type GetOrCreateConversationUseCase struct {
	Repo repository.MessagingRepository
}

func NewGetOrCreateConversationUseCase(repo repository.MessagingRepository) *GetOrCreateConversationUseCase {
	return &GetOrCreateConversationUseCase{Repo: repo}
}

func (uc *GetOrCreateConversationUseCase) Execute(ctx context.Context, in GetOrCreateConversationInput) (*messaging.Conversation, error) {
	conv, err := messaging.NewConversation(in.CurrentUserID, in.OtherUserID, in.ListingID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	existing, err := uc.Repo.ConversationByPair(ctx, conv.UserLowID, conv.UserHighID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, messaging.ErrConversationNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	id, err := uc.Repo.CreateConversation(ctx, *conv)
	if err != nil {
		// A concurrent creator may have won the insert; fall back to lookup.
		if again, lookupErr := uc.Repo.ConversationByPair(ctx, conv.UserLowID, conv.UserHighID); lookupErr == nil {
			return again, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.ID = id
	return conv, nil
}
