package consumer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/next-trace/scg-banking-services/consumer"
	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

type fakeSubscriber struct {
	subscribed []string
	stopped    []string
	failOn     string
}

func (f *fakeSubscriber) Subscribe(queue string, _ broker.Handler) (func(), error) {
	if queue == f.failOn {
		return nil, errors.New("boom")
	}

	f.subscribed = append(f.subscribed, queue)

	return func() { f.stopped = append(f.stopped, queue) }, nil
}

func nopHandler(context.Context, broker.Delivery) {}

func TestBind_RejectsSecondHandlerForQueue(t *testing.T) {
	m := consumer.NewMux(nil)

	if err := m.Bind("accounts.queue", nopHandler); err != nil {
		t.Fatalf("bind: %v", err)
	}

	err := m.Bind("accounts.queue", nopHandler)
	if !errors.Is(err, berr.ErrConsumerExists) {
		t.Fatalf("want ErrConsumerExists, got %v", err)
	}
}

func TestRun_SubscribesInBindOrder(t *testing.T) {
	m := consumer.NewMux(nil)

	for _, q := range []string{"a.queue", "b.queue", "c.queue"} {
		if err := m.Bind(q, nopHandler); err != nil {
			t.Fatalf("bind %s: %v", q, err)
		}
	}

	sub := &fakeSubscriber{}

	stop, err := m.Run(sub)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{"a.queue", "b.queue", "c.queue"}
	for i, q := range want {
		if sub.subscribed[i] != q {
			t.Fatalf("order: got %v want %v", sub.subscribed, want)
		}
	}

	stop()

	if len(sub.stopped) != len(want) {
		t.Fatalf("stopped %d of %d", len(sub.stopped), len(want))
	}
}

func TestRun_FailureStopsAlreadyStarted(t *testing.T) {
	m := consumer.NewMux(nil)

	for _, q := range []string{"a.queue", "b.queue", "c.queue"} {
		if err := m.Bind(q, nopHandler); err != nil {
			t.Fatalf("bind %s: %v", q, err)
		}
	}

	sub := &fakeSubscriber{failOn: "c.queue"}

	if _, err := m.Run(sub); err == nil {
		t.Fatal("want error")
	}

	if len(sub.stopped) != 2 {
		t.Fatalf("want 2 stopped, got %v", sub.stopped)
	}
}
