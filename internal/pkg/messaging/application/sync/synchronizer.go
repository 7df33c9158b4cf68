package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"
	"time"

	pubsub "casechat/internal/infrastructure/pubsub/port"
	"casechat/internal/pkg/messaging/application/usecase"
	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// State tracks the per-conversation lifecycle of a synchronizer.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	default:
		return "closed"
	}
}

// ErrSuperseded is returned by Open when a newer Open or Close happened
// while its history fetch was in flight. The late result is discarded
// instead of being applied to a conversation the user already left.
var ErrSuperseded = errors.New("sync: open superseded")

// Synchronizer keeps one user's active conversation in sync: it loads
// history, acknowledges incoming messages as read, holds the single live
// subscription, and mirrors both local sends and pushed inserts into the
// session's Directory so ordering and previews match on both sides.
//
// At most one subscription is live per synchronizer; opening a conversation
// always tears down the previous channel first. There is no reconnect
// policy: if the underlying channel drops, updates stop until the
// conversation is re-opened.
//
// All state mutations happen under one mutex. A generation counter stamps
// each Open so a fetch that resolves after the user switched away is
// discarded rather than applied to the wrong conversation.
type Synchronizer struct {
	userID    string
	repo      repository.MessagingRepository
	broker    pubsub.Broker
	sender    *usecase.SendMessageUseCase
	deleter   *usecase.DeleteMessageUseCase
	directory *Directory

	mu             gosync.Mutex
	state          State
	conversationID string
	messages       []messaging.Message
	sub            pubsub.Subscription
	generation     uint64

	// onMessage, when set, receives every message appended to the active
	// conversation (local sends and pushes alike). It runs outside the lock.
	onMessage func(messaging.Message)
}

func NewSynchronizer(
	userID string,
	repo repository.MessagingRepository,
	broker pubsub.Broker,
	sender *usecase.SendMessageUseCase,
	deleter *usecase.DeleteMessageUseCase,
	directory *Directory,
) *Synchronizer {
	return &Synchronizer{
		userID:    userID,
		repo:      repo,
		broker:    broker,
		sender:    sender,
		deleter:   deleter,
		directory: directory,
		state:     StateClosed,
	}
}

// OnMessage registers the delivery callback for appended messages.
func (s *Synchronizer) OnMessage(fn func(messaging.Message)) {
	s.mu.Lock()
	s.onMessage = fn
	s.mu.Unlock()
}

// Open switches the synchronizer to conversationID: tears down any prior
// subscription, verifies the user participates in the conversation, fetches
// the full history oldest-first, acknowledges every unread counterpart
// message in one batched update, and subscribes to the conversation's live
// channel. Non-participants are rejected before any message row is read or
// touched. On fetch or subscribe failure the state is left Closed with an
// empty message list; there is no retry.
func (s *Synchronizer) Open(ctx context.Context, conversationID string) ([]messaging.Message, error) {
	if conversationID == "" {
		return nil, messaging.ErrConversationNotFound
	}

	s.mu.Lock()
	prev := s.detachLocked()
	s.state = StateLoading
	s.conversationID = conversationID
	s.messages = nil
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Unsubscribe()
	}

	conv, err := s.repo.ConversationByID(ctx, conversationID)
	if err != nil {
		s.abortOpen(gen)
		return nil, err
	}
	if !conv.HasParticipant(s.userID) {
		s.abortOpen(gen)
		return nil, messaging.ErrNotParticipant
	}

	msgs, err := s.repo.MessagesByConversation(ctx, conversationID, 0, 0)
	if err != nil {
		s.abortOpen(gen)
		return nil, err
	}

	// Batched read acknowledgement for everything the counterpart sent.
	now := time.Now().UTC()
	if _, err := s.repo.MarkConversationRead(ctx, conversationID, s.userID, now); err != nil {
		s.abortOpen(gen)
		return nil, err
	}
	for i := range msgs {
		if msgs[i].SenderID != s.userID && !msgs[i].Read {
			msgs[i].Read = true
			at := now
			msgs[i].ReadAt = &at
		}
	}
	s.directory.ClearUnread(conversationID)

	sub, err := s.broker.Subscribe(ctx, conversationID, s.onPush)
	if err != nil {
		s.abortOpen(gen)
		return nil, err
	}

	s.mu.Lock()
	if s.generation != gen {
		// A newer Open or Close won the race; this result is stale.
		s.mu.Unlock()
		_ = sub.Unsubscribe()
		return nil, ErrSuperseded
	}
	s.messages = msgs
	s.sub = sub
	s.state = StateSynced
	snapshot := copyMessages(s.messages)
	s.mu.Unlock()

	return snapshot, nil
}

// Send validates and persists text for conversationID, then optimistically
// appends the stored message to local state and patches the directory entry
// before the push echo comes back. The echo is reconciled by message id in
// onPush, so the append happens exactly once.
func (s *Synchronizer) Send(ctx context.Context, conversationID, text string) (*messaging.Message, error) {
	msg, err := s.sender.Execute(ctx, usecase.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       s.userID,
		Body:           text,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delivered := false
	if s.state == StateSynced && s.conversationID == msg.ConversationID {
		delivered = s.appendLocked(*msg)
	}
	fn := s.onMessage
	s.mu.Unlock()

	s.directory.Touch(*msg)

	if delivered && fn != nil {
		fn(*msg)
	}
	return msg, nil
}

// DeleteMessage removes one of the user's own messages and drops it from
// local state. The directory preview is deliberately not recomputed even
// when the deleted message was the newest one; the next full directory load
// corrects it.
func (s *Synchronizer) DeleteMessage(ctx context.Context, messageID string) error {
	if err := s.deleter.Execute(ctx, usecase.DeleteMessageInput{MessageID: messageID, UserID: s.userID}); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Close tears down the live subscription. Safe to call repeatedly or with
// no subscription open.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	prev := s.detachLocked()
	s.state = StateClosed
	s.conversationID = ""
	s.messages = nil
	s.generation++
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Unsubscribe()
	}
}

// State reports the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConversationID reports the active conversation, or "" when closed.
func (s *Synchronizer) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a snapshot of the active conversation's messages in
// display order (oldest first).
func (s *Synchronizer) Messages() []messaging.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMessages(s.messages)
}

// onPush handles an insert event from the live channel. Events for other
// conversations or a closed synchronizer are dropped; the sender's own echo
// is deduplicated by message id against the optimistic append.
func (s *Synchronizer) onPush(evt pubsub.MessageEvent) {
	if evt.Type != pubsub.EventMessageInserted {
		return
	}
	msg := eventMessage(evt)

	incoming := msg.SenderID != s.userID
	if incoming && !msg.Read {
		// Conversation is on screen; acknowledge immediately.
		now := time.Now().UTC()
		msg.Read = true
		msg.ReadAt = &now
	}

	s.mu.Lock()
	if s.state != StateSynced || s.conversationID != msg.ConversationID {
		s.mu.Unlock()
		return
	}
	appended := s.appendLocked(msg)
	fn := s.onMessage
	s.mu.Unlock()

	if !appended {
		return
	}

	if incoming {
		if err := s.repo.MarkMessageRead(context.Background(), msg.ID, *msg.ReadAt); err != nil {
			log.Printf("sync: mark message %s read: %v", msg.ID, err)
		}
	}

	s.directory.Touch(msg)
	if incoming {
		s.directory.ClearUnread(msg.ConversationID)
	}

	if fn != nil {
		fn(msg)
	}
}

// appendLocked appends msg unless a message with the same id is already
// present. Returns whether the append happened.
func (s *Synchronizer) appendLocked(msg messaging.Message) bool {
	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			return false
		}
	}
	s.messages = append(s.messages, msg)
	return true
}

// detachLocked clears the subscription handle and returns it so the caller
// can unsubscribe outside the lock.
func (s *Synchronizer) detachLocked() pubsub.Subscription {
	sub := s.sub
	s.sub = nil
	return sub
}

// abortOpen rolls a failed Open back to Closed unless a newer Open has
// already taken over.
func (s *Synchronizer) abortOpen(gen uint64) {
	s.mu.Lock()
	if s.generation == gen {
		s.state = StateClosed
		s.conversationID = ""
		s.messages = nil
	}
	s.mu.Unlock()
}

func eventMessage(evt pubsub.MessageEvent) messaging.Message {
	return messaging.Message{
		ID:             evt.MessageID,
		ConversationID: evt.ConversationID,
		SenderID:       evt.SenderID,
		Body:           evt.Body,
		Read:           evt.Read,
		ReadAt:         evt.ReadAt,
		CreatedAt:      evt.CreatedAt,
	}
}

func copyMessages(msgs []messaging.Message) []messaging.Message {
	out := make([]messaging.Message, len(msgs))
	copy(out, msgs)
	return out
}
