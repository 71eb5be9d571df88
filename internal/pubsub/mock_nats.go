package pubsub

import (
	"slices"
	"sync"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
)

const mockHistorySize = 1000

// MockNATSPubSub stands in for a NATS upstream without any server. Delivery
// is a plain local bus; the most recent events are retained so tests and
// local runs can inspect what was broadcast.
type MockNATSPubSub struct {
	*PubSub
	subject string

	mu         sync.Mutex
	history    []Event
	maxHistory int
}

// NewMockNATSPubSub creates an in-memory upstream for subject
func NewMockNATSPubSub(subject string) *MockNATSPubSub {
	logger.Info("Using mock NATS pub/sub", "subject", subject)

	return &MockNATSPubSub{
		PubSub:     New(),
		subject:    subject,
		maxHistory: mockHistorySize,
	}
}

// Publish records the event and delivers it to every subscriber
func (p *MockNATSPubSub) Publish(event Event) {
	p.mu.Lock()
	p.history = append(p.history, event)
	if over := len(p.history) - p.maxHistory; over > 0 {
		p.history = slices.Delete(p.history, 0, over)
	}
	p.mu.Unlock()

	p.PubSub.publishLocal(event)
}

// History returns a copy of the retained events, oldest first
func (p *MockNATSPubSub) History() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.history)
}

// Close closes all subscriptions
func (p *MockNATSPubSub) Close() {
	p.PubSub.closeSubscribers()
}
