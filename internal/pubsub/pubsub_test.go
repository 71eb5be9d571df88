package pubsub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()
	assert.Equal(t, 2, ps.SubscriberCount())

	ps.Unsubscribe(ch1)
	assert.Equal(t, 1, ps.SubscriberCount())

	_, ok := <-ch1
	assert.False(t, ok, "unsubscribed channel should be closed")

	ps.Publish(Event{Type: EventVotesChanged})
	assert.Equal(t, EventVotesChanged, receive(t, ch2).Type)
}

func TestUnsubscribeUnknownChannelLeavesItOpen(t *testing.T) {
	ps := New()
	ch := make(chan Event, 1)

	ps.Unsubscribe(ch)

	ch <- Event{Type: "still-open"}
	assert.Equal(t, "still-open", (<-ch).Type)
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	ps := New()
	subs := []chan Event{ps.Subscribe(), ps.Subscribe(), ps.Subscribe()}

	ps.Publish(Event{
		Type:    EventSettingsStatus,
		Payload: map[string]any{"status": "CLOSED"},
	})

	for _, ch := range subs {
		ev := receive(t, ch)
		assert.Equal(t, EventSettingsStatus, ev.Type)
		assert.Equal(t, "CLOSED", ev.Payload["status"])
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		New().Publish(Event{Type: EventVotesChanged})
	})
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	for i := 0; i < 15; i++ {
		ps.Publish(Event{Type: EventVotesChanged})
	}

	assert.Len(t, ch, cap(ch))
}

func TestConcurrentSubscribeUnsubscribeWhilePublishing(t *testing.T) {
	ps := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := ps.Subscribe()
			time.Sleep(time.Millisecond)
			ps.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			ps.Publish(Event{Type: EventVotesChanged})
		}()
	}
	wg.Wait()

	assert.Zero(t, ps.SubscriberCount())
}

// fakeUpstream echoes every published event back to its subscribers, like a
// NATS subject shared by all instances
type fakeUpstream struct {
	mu          sync.Mutex
	published   []Event
	subscribers []chan Event
}

func (f *fakeUpstream) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	for _, ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (f *fakeUpstream) Subscribe() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Event, 100)
	f.subscribers = append(f.subscribers, ch)
	return ch
}

func (f *fakeUpstream) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subscribers {
		if sub == ch {
			close(ch)
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			return
		}
	}
}

func (f *fakeUpstream) publishedTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	for i, ev := range f.published {
		out[i] = ev.Type
	}
	return out
}

func TestPublishGoesThroughUpstream(t *testing.T) {
	up := &fakeUpstream{}
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	ps.Publish(Event{Type: EventVotesChanged})

	assert.Equal(t, EventVotesChanged, receive(t, ch).Type)
	assert.Equal(t, []string{EventVotesChanged}, up.publishedTypes())
}

func TestUpstreamEventsReachLocalSubscribers(t *testing.T) {
	up := &fakeUpstream{}
	ps := NewWithUpstream(up)
	ch1, ch2 := ps.Subscribe(), ps.Subscribe()

	// Another instance publishing on the shared subject
	up.Publish(Event{Type: EventSettingsStatus})

	assert.Equal(t, EventSettingsStatus, receive(t, ch1).Type)
	assert.Equal(t, EventSettingsStatus, receive(t, ch2).Type)
}

func TestPublishLocalBypassesUpstream(t *testing.T) {
	up := &fakeUpstream{}
	ps := NewWithUpstream(up)
	ch := ps.Subscribe()

	ps.PublishLocal(Event{Type: EventScoreboardUpdated})

	assert.Equal(t, EventScoreboardUpdated, receive(t, ch).Type)
	require.Empty(t, up.publishedTypes())
}
