package liveupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
)

const natsFlushTimeout = 5 * time.Second

// publisher is the subset of *nats.Conn used for notifications.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes updates as JSON messages on a NATS subject.
type NATSNotifier struct {
	conn    publisher
	subject string
}

// NewNATSNotifier connects to the NATS server at url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	if url == "" {
		return nil, errors.ConfigError("NATS url is required").Build()
	}
	if subject == "" {
		return nil, errors.ConfigError("NATS subject is required").Build()
	}
	conn, err := nats.Connect(url,
		nats.Name("contentbuild"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS live update notifier connected", slog.String("url", url), slog.String("subject", subject))
	return newNATSNotifier(conn, subject), nil
}

func newNATSNotifier(conn publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

// Subject returns the subject updates are published on.
func (n *NATSNotifier) Subject() string { return n.subject }

// Notify publishes u and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, u Update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal update").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish update").
			WithContext("subject", n.subject).
			Retryable().
			Build()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, natsFlushTimeout)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to flush update").
			WithContext("subject", n.subject).
			Retryable().
			Build()
	}
	slog.Debug("Published live update", logfields.CycleID(u.CycleID), logfields.Hash(u.Hash), slog.String("subject", n.subject))
	return nil
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
