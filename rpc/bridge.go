// Package rpc turns the asynchronous broker transport into a bounded
// synchronous call: a request envelope is published to a well-known queue and
// the caller blocks until a reply with a matching correlation id arrives on a
// per-process reply queue, or the timeout elapses.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Transport is the slice of the broker surface the bridge needs.
type Transport interface {
	broker.Declarer
	broker.Publisher
	broker.Subscriber
}

// Bridge multiplexes concurrent callers over one shared, non-durable reply
// queue, strictly by correlation id. There is no ordering guarantee between
// independent calls.
type Bridge struct {
	transport  Transport
	replyQueue string
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]chan broker.Envelope

	stop func()
}

// New declares the non-durable reply queue and starts consuming replies.
func New(ctx context.Context, t Transport, replyQueue string, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Bridge{
		transport:  t,
		replyQueue: replyQueue,
		logger:     logger,
		pending:    make(map[string]chan broker.Envelope),
	}

	topo := broker.Topology{Queues: []broker.Queue{{Name: replyQueue, Durable: false}}}
	if err := t.Declare(ctx, topo); err != nil {
		return nil, fmt.Errorf("rpc declare reply queue %q: %w", replyQueue, err)
	}

	stop, err := t.Subscribe(replyQueue, b.handleReply)
	if err != nil {
		return nil, fmt.Errorf("rpc subscribe reply queue %q: %w", replyQueue, err)
	}

	b.stop = stop

	return b, nil
}

// Request publishes payload to the named queue and blocks until the matching
// reply arrives or timeout elapses. On timeout the pending registration is
// released so a late reply cannot be matched; it will be discarded as
// orphaned by the reply consumer.
func (b *Bridge) Request(ctx context.Context, queue string, payload []byte, timeout time.Duration) ([]byte, error) {
	corrID := uuid.NewString()

	ch := make(chan broker.Envelope, 1)

	b.mu.Lock()
	b.pending[corrID] = ch
	b.mu.Unlock()

	defer b.release(corrID)

	env := broker.Envelope{Body: payload, CorrelationID: corrID, ReplyTo: b.replyQueue}
	if err := b.transport.Publish(ctx, "", queue, env); err != nil {
		return nil, fmt.Errorf("rpc request to %q: %w", queue, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		return reply.Body, nil
	case <-timer.C:
		return nil, fmt.Errorf("rpc request to %q after %v: %w", queue, timeout, berr.ErrRequestTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleReply resolves the waiter registered under the reply's correlation
// id. A reply that matches no pending waiter is an orphan (usually a late
// reply after timeout) and is discarded silently; it must never crash the
// consumer.
func (b *Bridge) handleReply(_ context.Context, d broker.Delivery) {
	b.mu.Lock()
	ch, ok := b.pending[d.CorrelationID]
	if ok {
		delete(b.pending, d.CorrelationID)
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Debug("discarding orphaned reply", "queue", b.replyQueue, "correlation_id", d.CorrelationID)
		return
	}

	ch <- d.Envelope
}

func (b *Bridge) release(corrID string) {
	b.mu.Lock()
	delete(b.pending, corrID)
	b.mu.Unlock()
}

// Close cancels the reply-queue subscription.
func (b *Bridge) Close() {
	if b.stop != nil {
		b.stop()
	}
}

// Reply publishes a response envelope to the delivery's reply-to queue,
// echoing its correlation id. It is a no-op for deliveries that did not ask
// for a reply.
func Reply(ctx context.Context, pub broker.Publisher, d broker.Delivery, body []byte) error {
	if d.ReplyTo == "" {
		return nil
	}

	env := broker.Envelope{Body: body, CorrelationID: d.CorrelationID}
	if err := pub.Publish(ctx, "", d.ReplyTo, env); err != nil {
		return fmt.Errorf("rpc reply to %q: %w", d.ReplyTo, err)
	}

	return nil
}
