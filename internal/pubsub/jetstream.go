package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
)

// jetStreamBus publishes events to a JetStream subject and fans every message
// received on that subject out to local subscriber channels. It backs both the
// external and the embedded NATS upstreams.
type jetStreamBus struct {
	nc          *nats.Conn
	js          nats.JetStreamContext
	sub         *nats.Subscription
	subject     string
	subscribers []chan Event
	mu          sync.RWMutex
}

type streamOptions struct {
	Name    string
	Subject string
	Storage nats.StorageType
	MaxAge  time.Duration
}

func newJetStreamBus(nc *nats.Conn, opts streamOptions) (*jetStreamBus, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(opts.Name); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     opts.Name,
			Subjects: []string{opts.Subject},
			Storage:  opts.Storage,
			MaxAge:   opts.MaxAge,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", opts.Name, err)
		}
		logger.Info("JetStream stream created", "stream", opts.Name, "subject", opts.Subject)
	}

	b := &jetStreamBus{
		nc:          nc,
		js:          js,
		subject:     opts.Subject,
		subscribers: make([]chan Event, 0),
	}

	// Only new messages matter; results are recomputed from the store anyway
	b.sub, err = js.Subscribe(opts.Subject, b.handle, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", opts.Subject, err)
	}
	logger.Debug("Subscribed to JetStream", "subject", opts.Subject)

	return b, nil
}

func (b *jetStreamBus) handle(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal event from JetStream", "error", err)
		msg.Term()
		return
	}

	b.mu.RLock()
	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			logger.Warn("NATS: Skipping slow subscriber", "event_type", event.Type)
		}
	}
	b.mu.RUnlock()

	msg.Ack()
}

// Publish publishes an event to the JetStream subject
func (b *jetStreamBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish to NATS", "error", err, "subject", b.subject, "event_type", event.Type)
		return
	}

	logger.Debug("Published event to NATS", "event_type", event.Type, "subject", b.subject)
}

// Subscribe creates a subscription channel for events
func (b *jetStreamBus) Subscribe() chan Event {
	ch := make(chan Event, 100)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription channel
func (b *jetStreamBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// SubscriberCount returns the number of active local subscribers
func (b *jetStreamBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *jetStreamBus) close() {
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			logger.Debug("JetStream unsubscribe failed", "error", err)
		}
	}

	b.mu.Lock()
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
	b.mu.Unlock()

	if b.nc != nil {
		b.nc.Close()
	}
}
