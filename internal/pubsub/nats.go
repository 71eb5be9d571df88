package pubsub

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
)

// NATSPubSub bridges the local bus to an external NATS JetStream deployment so
// several judging instances see each other's vote and settings events
type NATSPubSub struct {
	*jetStreamBus
}

// NewNATSPubSub connects to natsURL and binds to the given subject and stream,
// creating the stream when it does not exist yet
func NewNATSPubSub(natsURL, subject, stream string) (*NATSPubSub, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("hackathon-judging"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := newJetStreamBus(nc, streamOptions{
		Name:    stream,
		Subject: subject,
		Storage: nats.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "subject", subject, "stream", stream)
	return &NATSPubSub{jetStreamBus: bus}, nil
}

// Close drops the subscription, closes local channels and the connection
func (p *NATSPubSub) Close() {
	p.close()
}
