package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/nats-io/nats.go"

	"casechat/internal/infrastructure/pubsub/port"
)

const natsSubjectPrefix = "casechat.conversation."

// NatsBroker satisfies port.Broker over core NATS subjects. Delivery is
// at-most-once to currently connected subscribers, which matches the
// fire-and-forget channel the synchronizer expects.
type NatsBroker struct {
	nc *nats.Conn
}

// NewNatsBrokerFromEnv connects using the NATS_URL env var.
func NewNatsBrokerFromEnv() (*NatsBroker, error) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil, errors.New("nats broker: NATS_URL environment variable is not set")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats broker: connect: %w", err)
	}
	return &NatsBroker{nc: nc}, nil
}

// Ensure interface compliance at compile time
var _ port.Broker = (*NatsBroker)(nil)

func (b *NatsBroker) Publish(ctx context.Context, conversationID string, evt port.MessageEvent) error {
	if conversationID == "" {
		return errors.New("nats broker: conversation id is required")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("nats broker: encode event: %w", err)
	}
	if err := b.nc.Publish(natsSubjectPrefix+conversationID, payload); err != nil {
		return fmt.Errorf("nats broker: publish: %w", err)
	}
	return nil
}

func (b *NatsBroker) Subscribe(ctx context.Context, conversationID string, h port.Handler) (port.Subscription, error) {
	if conversationID == "" {
		return nil, errors.New("nats broker: conversation id is required")
	}
	subject := natsSubjectPrefix + conversationID
	s, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var evt port.MessageEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			log.Printf("nats broker: drop malformed event on %s: %v", msg.Subject, err)
			return
		}
		h(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("nats broker: subscribe %s: %w", subject, err)
	}
	return &natsSubscription{sub: s}, nil
}

func (b *NatsBroker) Close() error {
	b.nc.Close()
	return nil
}

type natsSubscription struct {
	sub  *nats.Subscription
	once sync.Once
	err  error
}

func (s *natsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.sub.Unsubscribe()
	})
	return s.err
}
