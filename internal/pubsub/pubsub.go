package pubsub

import (
	"sync"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
)

// Event types carried on the bus
const (
	// EventVotesChanged means the vote set changed and results must be recomputed
	EventVotesChanged = "votes:changed"
	// EventSettingsStatus means voting was opened or closed
	EventSettingsStatus = "settings:status"
	// EventScoreboardUpdated carries a freshly computed scoreboard snapshot
	EventScoreboardUpdated = "scoreboard:updated"
)

// Event represents a pubsub event
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Upstream is an interface for upstream publishers (e.g., NATS)
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub implements a simple publish-subscribe system. One instance lives for
// the whole process and is shared by handlers, the gRPC service and the
// scoreboard refresher.
type PubSub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream // Optional upstream publisher (e.g., NATS)
}

// New creates a new PubSub instance
func New() *PubSub {
	return &PubSub{
		subscribers: []chan Event{},
	}
}

// NewWithUpstream creates a PubSub that bridges to an upstream publisher (e.g., NATS)
// When Publish is called, events are sent to the upstream, which broadcasts to all instances.
// Events from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		subscribers: []chan Event{},
		upstream:    upstream,
	}

	ch := upstream.Subscribe()
	go func() {
		logger.Debug("PubSub: Subscribed to upstream, waiting for events")
		for event := range ch {
			logger.Debug("PubSub: Received event from upstream, forwarding to local", "type", event.Type)
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: Upstream channel closed")
	}()

	return ps
}

// Subscribe adds a new subscriber and returns a channel for receiving events
func (ps *PubSub) Subscribe() chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, 10)
	ps.subscribers = append(ps.subscribers, ch)
	logger.Debug("PubSub: New subscriber added", "totalSubscribers", len(ps.subscribers))
	return ch
}

// Unsubscribe removes a subscriber
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
// If an upstream is configured, the event is published to the upstream,
// which will broadcast it back to all instances (including this one)
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		logger.Debug("PubSub: Forwarding to upstream", "type", event.Type)
		ps.upstream.Publish(event)
		return
	}

	logger.Debug("PubSub: Publishing locally (no upstream)", "type", event.Type)
	ps.publishLocal(event)
}

// PublishLocal delivers an event to this process only, bypassing the
// upstream. Scoreboard snapshots use it since every instance computes its own.
func (ps *PubSub) PublishLocal(event Event) {
	ps.publishLocal(event)
}

// SubscriberCount returns the number of local subscribers
func (ps *PubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers)
}

// closeSubscribers closes and forgets every local subscription
func (ps *PubSub) closeSubscribers() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, ch := range ps.subscribers {
		close(ch)
	}
	ps.subscribers = nil
}

// publishLocal sends an event to local subscribers only. The read lock is
// held while sending so Unsubscribe cannot close a channel mid-delivery.
func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, ch := range ps.subscribers {
		select {
		case ch <- event:
		default:
			logger.Debug("PubSub: Skipping full subscriber", "type", event.Type)
		}
	}
}
