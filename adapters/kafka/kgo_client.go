package kafka

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Concrete franz-go based writer and constructor.

type Config struct {
	Brokers  []string
	TLS      *tls.Config
	ClientID string
	// Acks overrides the default all-ISR acknowledgement level.
	Acks *kgo.Acks
	// Compression lists preferred batch codecs; the first one the cluster
	// supports wins.
	Compression []kgo.CompressionCodec
	// DisableIdempotency opts out of the idempotent producer, which franz-go
	// enables by default.
	DisableIdempotency bool
}

type kgoWriter struct{ cl *kgo.Client }

func (w kgoWriter) Write(topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if len(headers) > 0 {
		rec.Headers = make([]kgo.RecordHeader, 0, len(headers))
		for k, v := range headers {
			rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
		}
	}

	if err := w.cl.ProduceSync(context.Background(), rec).FirstErr(); err != nil {
		return errPublish(topic, err)
	}

	return nil
}

// NewWriter builds a franz-go backed Writer. The returned cleanup should be
// called to close the client.
func NewWriter(cfg Config) (Writer, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", berr.ErrPublishFailed)
	}

	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	if cfg.DisableIdempotency {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	if cfg.Acks != nil {
		opts = append(opts, kgo.RequiredAcks(*cfg.Acks))
	}

	if len(cfg.Compression) > 0 {
		opts = append(opts, kgo.ProducerBatchCompression(cfg.Compression...))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrPublishFailed, err)
	}

	cleanup := func() { cl.Close() }

	return kgoWriter{cl: cl}, cleanup, nil
}
