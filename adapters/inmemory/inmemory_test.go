package inmemory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-banking-services/adapters/inmemory"
	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

const waitFor = 2 * time.Second

func topo() broker.Topology {
	return broker.Topology{
		Exchanges: []broker.Exchange{{Name: "orders.exchange"}},
		Queues: []broker.Queue{
			{Name: "orders.created.queue", Durable: true},
			{Name: "orders.audit.queue", Durable: true},
		},
		Bindings: []broker.Binding{
			{Exchange: "orders.exchange", Queue: "orders.created.queue", RoutingKey: "orders.created"},
			{Exchange: "orders.exchange", Queue: "orders.audit.queue", RoutingKey: "orders.created"},
		},
	}
}

func recv(t *testing.T, ch <-chan broker.Delivery) broker.Delivery {
	t.Helper()

	select {
	case d := <-ch:
		return d
	case <-time.After(waitFor):
		t.Fatalf("no delivery within %v", waitFor)
		return broker.Delivery{}
	}
}

func TestPublish_FansOutToBoundQueues(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	if err := b.Declare(t.Context(), topo()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	created := make(chan broker.Delivery, 1)
	audit := make(chan broker.Delivery, 1)

	stop1, err := b.Subscribe("orders.created.queue", func(_ context.Context, d broker.Delivery) { created <- d })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop1()

	stop2, err := b.Subscribe("orders.audit.queue", func(_ context.Context, d broker.Delivery) { audit <- d })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop2()

	err = b.Publish(t.Context(), "orders.exchange", "orders.created", broker.Envelope{Body: []byte(`{"id":1}`)})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	d := recv(t, created)
	if string(d.Body) != `{"id":1}` || d.Queue != "orders.created.queue" {
		t.Fatalf("unexpected delivery: %+v", d)
	}

	if d = recv(t, audit); d.Queue != "orders.audit.queue" {
		t.Fatalf("unexpected delivery: %+v", d)
	}
}

func TestPublish_ExactKeyMatchOnly(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	if err := b.Declare(t.Context(), topo()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	got := make(chan broker.Delivery, 1)

	stop, err := b.Subscribe("orders.created.queue", func(_ context.Context, d broker.Delivery) { got <- d })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	// No binding for this key: dropped, not an error.
	if err := b.Publish(t.Context(), "orders.exchange", "orders.updated", broker.Envelope{Body: []byte("x")}); err != nil {
		t.Fatalf("publish unroutable: %v", err)
	}

	select {
	case d := <-got:
		t.Fatalf("unexpected delivery: %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublish_DefaultExchangeAddressesQueue(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	if err := b.Declare(t.Context(), topo()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	got := make(chan broker.Delivery, 1)

	stop, err := b.Subscribe("orders.created.queue", func(_ context.Context, d broker.Delivery) { got <- d })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	env := broker.Envelope{Body: []byte("direct"), CorrelationID: "c-1", ReplyTo: "r-1"}
	if err := b.Publish(t.Context(), "", "orders.created.queue", env); err != nil {
		t.Fatalf("publish: %v", err)
	}

	d := recv(t, got)
	if d.CorrelationID != "c-1" || d.ReplyTo != "r-1" || string(d.Body) != "direct" {
		t.Fatalf("envelope not preserved: %+v", d)
	}
}

func TestDeclare_Idempotent(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	for range 3 {
		if err := b.Declare(t.Context(), topo()); err != nil {
			t.Fatalf("declare: %v", err)
		}
	}
}

func TestDeclare_DurabilityConflict(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	if err := b.Declare(t.Context(), topo()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	again := topo()
	again.Queues[0].Durable = false

	err := b.Declare(t.Context(), again)
	if !errors.Is(err, berr.ErrDeclareConflict) {
		t.Fatalf("want ErrDeclareConflict, got %v", err)
	}
}

func TestPublish_UnknownExchange(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	err := b.Publish(t.Context(), "nope.exchange", "k", broker.Envelope{Body: []byte("x")})
	if !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("want ErrPublishFailed, got %v", err)
	}
}

func TestSubscribe_UnknownQueue(t *testing.T) {
	b := inmemory.New(nil)
	defer b.Close()

	if _, err := b.Subscribe("nope", func(context.Context, broker.Delivery) {}); !errors.Is(err, berr.ErrConsumeFailed) {
		t.Fatalf("want ErrConsumeFailed, got %v", err)
	}
}

func TestClose_StopsDelivery(t *testing.T) {
	b := inmemory.New(nil)

	if err := b.Declare(t.Context(), topo()); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := b.Publish(t.Context(), "orders.exchange", "orders.created", broker.Envelope{Body: []byte("x")})
	if !errors.Is(err, berr.ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
}
