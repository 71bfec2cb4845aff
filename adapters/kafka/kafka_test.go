package kafka_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-banking-services/adapters/kafka"
	"github.com/next-trace/scg-banking-services/contract/broker"
)

type fakeWriter struct {
	calls []struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}
	err error
}

func (f *fakeWriter) Write(topic string, key, value []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		topic   string
		key     []byte
		value   []byte
		headers map[string]string
	}{topic, key, value, headers})

	return f.err
}

type fakePublisher struct {
	exchange string
	key      string
	env      broker.Envelope
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, exchange, routingKey string, env broker.Envelope) error {
	f.exchange = exchange
	f.key = routingKey
	f.env = env

	return f.err
}

func TestAuditPublisher_MirrorsToAuditTopic(t *testing.T) {
	fw := &fakeWriter{}
	next := &fakePublisher{}
	pub := kafka.NewAuditPublisher(next, fw, "banking.audit", nil)

	env := broker.Envelope{Body: []byte(`{"accountId":"a-1"}`)}
	if err := pub.Publish(t.Context(), "account.exchange", "account.creation", env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if next.exchange != "account.exchange" || next.key != "account.creation" {
		t.Fatalf("primary publish: %s/%s", next.exchange, next.key)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("want 1 audit write, got %d", len(fw.calls))
	}

	c := fw.calls[0]

	if c.topic != "banking.audit" || string(c.key) != "account.creation" {
		t.Fatalf("audit write: topic=%s key=%s", c.topic, c.key)
	}

	if string(c.value) != `{"accountId":"a-1"}` {
		t.Fatalf("audit value: %s", c.value)
	}

	if c.headers["exchange"] != "account.exchange" || c.headers["routing-key"] != "account.creation" {
		t.Fatalf("audit headers: %v", c.headers)
	}
}

func TestAuditPublisher_PrimaryFailureSkipsAudit(t *testing.T) {
	fw := &fakeWriter{}
	next := &fakePublisher{err: errors.New("broker down")}
	pub := kafka.NewAuditPublisher(next, fw, "banking.audit", nil)

	err := pub.Publish(t.Context(), "account.exchange", "account.creation", broker.Envelope{Body: []byte("x")})
	if err == nil {
		t.Fatal("want error")
	}

	if len(fw.calls) != 0 {
		t.Fatalf("audit written despite failed publish: %d", len(fw.calls))
	}
}

func TestAuditPublisher_AuditFailureIsSwallowed(t *testing.T) {
	fw := &fakeWriter{err: errors.New("kafka down")}
	next := &fakePublisher{}
	pub := kafka.NewAuditPublisher(next, fw, "banking.audit", nil)

	if err := pub.Publish(t.Context(), "account.exchange", "account.creation", broker.Envelope{Body: []byte("x")}); err != nil {
		t.Fatalf("audit failure must not surface: %v", err)
	}
}

func TestAuditPublisher_NilWriterPassesThrough(t *testing.T) {
	next := &fakePublisher{}
	pub := kafka.NewAuditPublisher(next, nil, "banking.audit", nil)

	if err := pub.Publish(t.Context(), "e", "k", broker.Envelope{Body: []byte("x")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
