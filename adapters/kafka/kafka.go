// Package kafka mirrors published broker traffic onto a Kafka audit topic.
// The tee is write-through: the primary publish decides the caller's result,
// and audit write failures are logged, never propagated.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

const (
	exchangeHeader   = "exchange"
	routingKeyHeader = "routing-key"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go or any other client to this.
type Writer interface {
	Write(topic string, key, value []byte, headers map[string]string) error
}

// AuditPublisher decorates a broker.Publisher, copying every envelope body to
// a single audit topic keyed by routing key.
type AuditPublisher struct {
	next   broker.Publisher
	writer Writer
	topic  string
	logger *slog.Logger
}

var _ broker.Publisher = (*AuditPublisher)(nil)

// NewAuditPublisher wraps next so each publish is mirrored to topic.
func NewAuditPublisher(next broker.Publisher, w Writer, topic string, logger *slog.Logger) *AuditPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &AuditPublisher{next: next, writer: w, topic: topic, logger: logger}
}

func (p *AuditPublisher) Publish(ctx context.Context, exchange, routingKey string, env broker.Envelope) error {
	if err := p.next.Publish(ctx, exchange, routingKey, env); err != nil {
		return err
	}

	if p.writer == nil {
		return nil
	}

	headers := map[string]string{
		exchangeHeader:   exchange,
		routingKeyHeader: routingKey,
	}

	if err := p.writer.Write(p.topic, []byte(routingKey), env.Body, headers); err != nil {
		p.logger.Warn("audit write failed",
			slog.String("topic", p.topic),
			slog.String("exchange", exchange),
			slog.String("routing_key", routingKey),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// errPublish keeps the wrapping shape consistent across adapters.
func errPublish(topic string, err error) error {
	return fmt.Errorf("%w: kafka write to %q: %w", berr.ErrPublishFailed, topic, err)
}
