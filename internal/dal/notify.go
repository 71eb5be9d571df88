package dal

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
)

// listener is the subset of *pq.Listener the notifier uses
type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// LocalPublisher delivers to this process only. Every instance runs its own
// listener, so notifications never go upstream.
type LocalPublisher interface {
	PublishLocal(pubsub.Event)
}

// PostgresNotifier turns the NOTIFY messages raised by the votes and settings
// triggers into bus events, so writes made by any instance (or by hand in
// psql) trigger a scoreboard refresh everywhere
type PostgresNotifier struct {
	l        listener
	pub      LocalPublisher
	idlePing time.Duration
}

// NewPostgresNotifier opens a dedicated LISTEN connection to connString
func NewPostgresNotifier(connString string, pub LocalPublisher) (*PostgresNotifier, error) {
	l := pq.NewListener(connString, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("Postgres listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("Postgres listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("Postgres listener connection attempt failed", "error", err)
		}
	})

	n, err := newPostgresNotifier(l, pub)
	if err != nil {
		l.Close()
		return nil, err
	}
	return n, nil
}

func newPostgresNotifier(l listener, pub LocalPublisher) (*PostgresNotifier, error) {
	for _, ch := range []string{ChannelVotesChanged, ChannelSettingsChanged} {
		if err := l.Listen(ch); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", ch, err)
		}
	}
	return &PostgresNotifier{l: l, pub: pub, idlePing: 90 * time.Second}, nil
}

// Run forwards notifications until ctx is cancelled
func (n *PostgresNotifier) Run(ctx context.Context) error {
	defer n.l.Close()

	logger.Info("Listening for Postgres notifications", "channels", []string{ChannelVotesChanged, ChannelSettingsChanged})

	for {
		select {
		case <-ctx.Done():
			return nil
		case note := <-n.l.NotificationChannel():
			n.forward(note)
		case <-time.After(n.idlePing):
			go func() {
				if err := n.l.Ping(); err != nil {
					logger.Warn("Postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (n *PostgresNotifier) forward(note *pq.Notification) {
	// A nil notification follows a reconnect; anything may have been missed
	if note == nil {
		n.pub.PublishLocal(pubsub.Event{Type: pubsub.EventVotesChanged, Payload: map[string]any{"source": "reconnect"}})
		return
	}

	logger.Debug("Postgres notification", "channel", note.Channel, "extra", note.Extra)

	switch note.Channel {
	case ChannelVotesChanged:
		n.pub.PublishLocal(pubsub.Event{
			Type:    pubsub.EventVotesChanged,
			Payload: map[string]any{"source": "postgres", "op": note.Extra},
		})
	case ChannelSettingsChanged:
		n.pub.PublishLocal(pubsub.Event{
			Type:    pubsub.EventSettingsStatus,
			Payload: map[string]any{"source": "postgres", "status": note.Extra},
		})
	}
}
