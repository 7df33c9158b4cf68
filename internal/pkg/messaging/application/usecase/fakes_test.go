package usecase

import (
	"context"
	"time"

	cache "casechat/internal/infrastructure/cache/port"
	pubsub "casechat/internal/infrastructure/pubsub/port"
	queue "casechat/internal/infrastructure/queue/port"
	messaging "casechat/internal/pkg/messaging/domain"
	repository "casechat/internal/pkg/messaging/persistence/repository/port"
)

// fakeRepo is an in-memory MessagingRepository for use case tests. Behavior
// knobs (forced errors, returned rows) are plain fields set per test.
type fakeRepo struct {
	convsByID   map[string]*messaging.Conversation
	convsByPair map[string]*messaging.Conversation
	userConvs   []messaging.Conversation

	pairCalls   int
	createCalls int
	createErr   error
	onCreate    func()
	nextConvID  string

	saved      []messaging.Message
	saveErr    error
	nextMsgID  string
	touchCalls int

	lastMessages map[string]*messaging.Message
	unreadCounts map[string]int

	deleteRows  int64
	deleteErr   error
	deleteCalls int
	deletedID   string
	deletedBy   string

	profiles map[string]*messaging.Profile
	listings map[string]*messaging.ListingSummary

	profileCalls int
	listingCalls int
}

var _ repository.MessagingRepository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		convsByID:    map[string]*messaging.Conversation{},
		convsByPair:  map[string]*messaging.Conversation{},
		lastMessages: map[string]*messaging.Message{},
		unreadCounts: map[string]int{},
		profiles:     map[string]*messaging.Profile{},
		listings:     map[string]*messaging.ListingSummary{},
		nextConvID:   "conv-new",
		nextMsgID:    "msg-new",
	}
}

func (f *fakeRepo) addConversation(c messaging.Conversation) {
	stored := c
	f.convsByID[c.ID] = &stored
	f.convsByPair[c.UserLowID+"|"+c.UserHighID] = &stored
}

func (f *fakeRepo) ConversationByPair(_ context.Context, low, high string) (*messaging.Conversation, error) {
	f.pairCalls++
	if c, ok := f.convsByPair[low+"|"+high]; ok {
		out := *c
		return &out, nil
	}
	return nil, messaging.ErrConversationNotFound
}

func (f *fakeRepo) ConversationByID(_ context.Context, id string) (*messaging.Conversation, error) {
	if c, ok := f.convsByID[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, messaging.ErrConversationNotFound
}

func (f *fakeRepo) CreateConversation(_ context.Context, c messaging.Conversation) (string, error) {
	f.createCalls++
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	c.ID = f.nextConvID
	f.addConversation(c)
	return c.ID, nil
}

func (f *fakeRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	f.touchCalls++
	if c, ok := f.convsByID[id]; ok {
		c.LastActivityAt = at
	}
	return nil
}

func (f *fakeRepo) ConversationsByUser(_ context.Context, _ string) ([]messaging.Conversation, error) {
	return f.userConvs, nil
}

func (f *fakeRepo) MessagesByConversation(_ context.Context, _ string, _, _ int) ([]messaging.Message, error) {
	return nil, nil
}

func (f *fakeRepo) SaveMessage(_ context.Context, m messaging.Message) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	m.ID = f.nextMsgID
	f.saved = append(f.saved, m)
	return m.ID, nil
}

func (f *fakeRepo) LastMessage(_ context.Context, conversationID string) (*messaging.Message, error) {
	return f.lastMessages[conversationID], nil
}

func (f *fakeRepo) UnreadCount(_ context.Context, conversationID, _ string) (int, error) {
	return f.unreadCounts[conversationID], nil
}

func (f *fakeRepo) MarkConversationRead(_ context.Context, _, _ string, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) MarkMessageRead(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeRepo) DeleteMessage(_ context.Context, messageID, senderID string) (int64, error) {
	f.deleteCalls++
	f.deletedID = messageID
	f.deletedBy = senderID
	return f.deleteRows, f.deleteErr
}

func (f *fakeRepo) ProfileByID(_ context.Context, userID string) (*messaging.Profile, error) {
	f.profileCalls++
	return f.profiles[userID], nil
}

func (f *fakeRepo) ListingByID(_ context.Context, listingID string) (*messaging.ListingSummary, error) {
	f.listingCalls++
	return f.listings[listingID], nil
}

// fakeBroker records published events.
type fakeBroker struct {
	published  []pubsub.MessageEvent
	publishErr error
}

var _ pubsub.Broker = (*fakeBroker)(nil)

func (f *fakeBroker) Publish(_ context.Context, _ string, evt pubsub.MessageEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, evt)
	return nil
}

func (f *fakeBroker) Subscribe(_ context.Context, _ string, _ pubsub.Handler) (pubsub.Subscription, error) {
	return noopSubscription{}, nil
}

func (f *fakeBroker) Close() error { return nil }

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	tasks []queue.Task
}

var _ queue.Client = (*fakeQueue)(nil)

func (f *fakeQueue) Enqueue(_ context.Context, t queue.Task, _ ...queue.EnqueueOption) (string, error) {
	f.tasks = append(f.tasks, t)
	return "task-1", nil
}

func (f *fakeQueue) Close() error { return nil }

// fakeCache is a map-backed Cache with no expiry.
type fakeCache struct {
	data map[string]string
	gets int
	sets int
}

var _ cache.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", cache.ErrMiss
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	f.data[key] = value
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeCache) Ping(_ context.Context) error { return nil }
func (f *fakeCache) Close() error                 { return nil }
