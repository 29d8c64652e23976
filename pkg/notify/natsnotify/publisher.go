// Package natsnotify publishes notifications to NATS for a mailer to pick up.
package natsnotify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/notify"
	"github.com/artem13815/jobboard/pkg/telemetry"
)

var tracer = telemetry.GetTracer("jobboard/notify/nats")

// Publisher sends each notification to <prefix>.<template>.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

func Connect(url, prefix string, timeout time.Duration, logger *zap.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("jobboard"),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, apperr.Internal("connect to NATS", err)
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger}, nil
}

func Subject(prefix string, t notify.Template) string {
	return prefix + "." + string(t)
}

func (p *Publisher) Notify(ctx context.Context, n notify.Notification) error {
	_, span := tracer.Start(ctx, "natsnotify.Publish")
	defer span.End()

	data, err := json.Marshal(n)
	if err != nil {
		span.RecordError(err)
		return apperr.Internal("marshal notification", err)
	}

	subject := Subject(p.prefix, n.Template)
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		return apperr.Internal("publish notification", err)
	}

	p.logger.Debug("published notification",
		zap.String("subject", subject),
		zap.String("recipient", n.Recipient),
	)
	return nil
}

// Ping reports whether the connection is usable.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return apperr.Internal("nats is "+p.conn.Status().String(), nil)
	}
	return p.conn.FlushWithContext(ctx)
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
