package sync

import (
	"context"
	"strconv"
	gosync "sync"
	"time"

	pubsub "casechat/internal/infrastructure/pubsub/port"
	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// stubRepo is an in-memory MessagingRepository for synchronizer tests. The
// optional fetch gate lets a test hold a history fetch open while another
// Open or Close races past it.
type stubRepo struct {
	mu gosync.Mutex

	convs   map[string]*messaging.Conversation
	history map[string][]messaging.Message

	saveSeq   int
	saved     []messaging.Message
	touchedAt map[string]time.Time

	markConvCalls  []string // "<conversationID>/<readerID>"
	markMsgCalls   []string
	deleteRows     int64
	deletedFilters []string // "<messageID>/<senderID>"

	lastMessages map[string]*messaging.Message
	unreadCounts map[string]int

	fetchStarted chan struct{}
	fetchGate    chan struct{}
}

var _ repository.MessagingRepository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{
		convs:        map[string]*messaging.Conversation{},
		history:      map[string][]messaging.Message{},
		touchedAt:    map[string]time.Time{},
		lastMessages: map[string]*messaging.Message{},
		unreadCounts: map[string]int{},
	}
}

func (r *stubRepo) addConversation(c messaging.Conversation) {
	stored := c
	r.convs[c.ID] = &stored
}

func (r *stubRepo) ConversationByPair(_ context.Context, low, high string) (*messaging.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if c.UserLowID == low && c.UserHighID == high {
			out := *c
			return &out, nil
		}
	}
	return nil, messaging.ErrConversationNotFound
}

func (r *stubRepo) ConversationByID(_ context.Context, id string) (*messaging.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.convs[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, messaging.ErrConversationNotFound
}

func (r *stubRepo) CreateConversation(_ context.Context, c messaging.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = "conv-created"
	r.convs[c.ID] = &c
	return c.ID, nil
}

func (r *stubRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchedAt[id] = at
	return nil
}

func (r *stubRepo) ConversationsByUser(_ context.Context, userID string) ([]messaging.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messaging.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubRepo) MessagesByConversation(_ context.Context, conversationID string, _, _ int) ([]messaging.Message, error) {
	if r.fetchStarted != nil {
		r.fetchStarted <- struct{}{}
	}
	if r.fetchGate != nil {
		<-r.fetchGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messaging.Message(nil), r.history[conversationID]...), nil
}

func (r *stubRepo) SaveMessage(_ context.Context, m messaging.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveSeq++
	m.ID = "msg-saved-" + strconv.Itoa(r.saveSeq)
	r.saved = append(r.saved, m)
	return m.ID, nil
}

func (r *stubRepo) LastMessage(_ context.Context, conversationID string) (*messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMessages[conversationID], nil
}

func (r *stubRepo) UnreadCount(_ context.Context, conversationID, _ string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unreadCounts[conversationID], nil
}

func (r *stubRepo) MarkConversationRead(_ context.Context, conversationID, readerID string, _ time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markConvCalls = append(r.markConvCalls, conversationID+"/"+readerID)
	var n int64
	msgs := r.history[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != readerID && !msgs[i].Read {
			msgs[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) MarkMessageRead(_ context.Context, messageID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markMsgCalls = append(r.markMsgCalls, messageID)
	return nil
}

func (r *stubRepo) DeleteMessage(_ context.Context, messageID, senderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedFilters = append(r.deletedFilters, messageID+"/"+senderID)
	return r.deleteRows, nil
}

func (r *stubRepo) ProfileByID(_ context.Context, _ string) (*messaging.Profile, error) {
	return nil, nil
}

func (r *stubRepo) ListingByID(_ context.Context, _ string) (*messaging.ListingSummary, error) {
	return nil, nil
}

// stubBroker records publishes and registers at most one handler per
// conversation. Emit delivers an event synchronously, standing in for the
// backend pushing to the live channel.
type stubBroker struct {
	mu        gosync.Mutex
	handlers  map[string]pubsub.Handler
	published []pubsub.MessageEvent
	subs      []*stubSub
}

var _ pubsub.Broker = (*stubBroker)(nil)

func newStubBroker() *stubBroker {
	return &stubBroker{handlers: map[string]pubsub.Handler{}}
}

func (b *stubBroker) Publish(_ context.Context, _ string, evt pubsub.MessageEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, evt)
	return nil
}

func (b *stubBroker) Subscribe(_ context.Context, conversationID string, h pubsub.Handler) (pubsub.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[conversationID] = h
	sub := &stubSub{broker: b, conversationID: conversationID}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *stubBroker) Close() error { return nil }

// Emit pushes evt to the handler subscribed to its conversation, if any.
func (b *stubBroker) Emit(evt pubsub.MessageEvent) {
	b.mu.Lock()
	h := b.handlers[evt.ConversationID]
	b.mu.Unlock()
	if h != nil {
		h(evt)
	}
}

func (b *stubBroker) unsubscribeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subs {
		n += s.unsubscribed
	}
	return n
}

type stubSub struct {
	broker         *stubBroker
	conversationID string
	unsubscribed   int
}

func (s *stubSub) Unsubscribe() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.unsubscribed++
	if s.broker.handlers[s.conversationID] != nil {
		delete(s.broker.handlers, s.conversationID)
	}
	return nil
}
