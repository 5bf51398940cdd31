package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/tscswap/backend/core"
	"github.com/tscswap/backend/core/swap"
)

// MatchEvent is the payload published for every run with confirmed matches.
type MatchEvent struct {
	Anchor     swap.Ref     `json:"anchor"`
	Matches    []swap.Match `json:"matches"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// publisher is the part of *nats.Conn the NATSPublisher uses.
type publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes confirmed matches for the external notification dispatchers.
type NATSPublisher struct {
	conn    publisher
	subject string
	logger  core.Logger
}

var (
	_ swap.Publisher = (*NATSPublisher)(nil) // interface compliance check
	_ swap.Publisher = NopPublisher{}

	nowFunc = time.Now
)

// NewNATSPublisher connects to the configured server.
// A nil publisher and no error are returned when no URL is configured.
func NewNATSPublisher(conf core.NATSConfig, appName string, logger core.Logger) (*NATSPublisher, error) {
	if conf.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(conf.URL,
		nats.Name(appName),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats: disconnected", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats: reconnected", map[string]interface{}{"url": nc.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return newNATSPublisher(nc, conf.Subject, logger), nil
}

func newNATSPublisher(conn publisher, subject string, logger core.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

// PublishMatches sends one event holding the confirmed matches of out; nothing is sent when there are none.
func (p *NATSPublisher) PublishMatches(ctx context.Context, out swap.Outcome) error {
	matches := out.Confirmed()
	if len(matches) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(MatchEvent{Anchor: out.Anchor, Matches: matches, OccurredAt: nowFunc().UTC()})
	if err != nil {
		return errors.Wrap(err, "encoding match event")
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.Wrapf(err, "nats publish %s", p.subject)
	}
	p.logger.Debug("events: matches published", map[string]interface{}{
		"anchor": out.Anchor.String(), "matches": len(matches),
	})
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher is used when no NATS server is configured.
type NopPublisher struct{}

func (NopPublisher) PublishMatches(context.Context, swap.Outcome) error { return nil }
