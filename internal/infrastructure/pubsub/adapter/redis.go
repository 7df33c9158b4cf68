package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"casechat/internal/infrastructure/pubsub/port"
)

const redisTopicPrefix = "casechat:conversation:"

// RedisBroker satisfies port.Broker over Redis Pub/Sub. One subscription maps
// to one Redis channel named after the conversation id.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBrokerFromEnv constructs a broker using the REDIS_URL env var.
func NewRedisBrokerFromEnv() (*RedisBroker, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, errors.New("redis broker: REDIS_URL environment variable is not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis broker: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis broker: ping: %w", err)
	}
	return &RedisBroker{client: c}, nil
}

// Ensure interface compliance at compile time
var _ port.Broker = (*RedisBroker)(nil)

func (b *RedisBroker) Publish(ctx context.Context, conversationID string, evt port.MessageEvent) error {
	if conversationID == "" {
		return errors.New("redis broker: conversation id is required")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis broker: encode event: %w", err)
	}
	return b.client.Publish(ctx, redisTopicPrefix+conversationID, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, conversationID string, h port.Handler) (port.Subscription, error) {
	if conversationID == "" {
		return nil, errors.New("redis broker: conversation id is required")
	}
	ps := b.client.Subscribe(ctx, redisTopicPrefix+conversationID)

	// Force the SUBSCRIBE round-trip so a bad channel fails here, not later.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis broker: subscribe: %w", err)
	}

	sub := &redisSubscription{ps: ps}
	go func() {
		for msg := range ps.Channel() {
			var evt port.MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("redis broker: drop malformed event on %s: %v", msg.Channel, err)
				continue
			}
			h(evt)
		}
	}()
	return sub, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps   *redis.PubSub
	once sync.Once
	err  error
}

func (s *redisSubscription) Unsubscribe() error {
	s.once.Do(func() {
		// Closing the PubSub also closes the delivery channel and stops the
		// consumer goroutine.
		s.err = s.ps.Close()
	})
	return s.err
}
