// Package inmemory provides an in-process broker with direct-exchange
// semantics. It backs tests and examples and mirrors the behavior the
// rabbitmq adapter gets from a real broker: exact routing-key matching,
// per-queue ordered delivery, and one delivery per consumer group.
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

const queueDepth = 1024

type route struct {
	exchange   string
	routingKey string
}

type memQueue struct {
	durable bool
	msgs    chan broker.Delivery
}

// Broker is a thread-safe in-memory implementation of broker.Broker.
type Broker struct {
	mu        sync.Mutex
	logger    *slog.Logger
	exchanges map[string]struct{}
	queues    map[string]*memQueue
	bindings  map[route][]string
	closed    chan struct{}
}

var _ broker.Broker = (*Broker)(nil)

// New creates an empty in-memory broker. A nil logger disables logging.
func New(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Broker{
		logger:    logger,
		exchanges: make(map[string]struct{}),
		queues:    make(map[string]*memQueue),
		bindings:  make(map[route][]string),
		closed:    make(chan struct{}),
	}
}

// Declare registers exchanges, queues and bindings. Re-declaring with
// identical properties is a no-op; a queue re-declared with a different
// durability flag fails with ErrDeclareConflict.
func (b *Broker) Declare(ctx context.Context, t broker.Topology) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ex := range t.Exchanges {
		b.exchanges[ex.Name] = struct{}{}
	}

	for _, q := range t.Queues {
		existing, ok := b.queues[q.Name]
		if ok {
			if existing.durable != q.Durable {
				return fmt.Errorf("declare queue %q: %w", q.Name, berr.ErrDeclareConflict)
			}

			continue
		}

		b.queues[q.Name] = &memQueue{durable: q.Durable, msgs: make(chan broker.Delivery, queueDepth)}
	}

	for _, bd := range t.Bindings {
		if _, ok := b.exchanges[bd.Exchange]; !ok {
			return fmt.Errorf("bind %q to unknown exchange %q: %w", bd.Queue, bd.Exchange, berr.ErrDeclareConflict)
		}

		if _, ok := b.queues[bd.Queue]; !ok {
			return fmt.Errorf("bind unknown queue %q: %w", bd.Queue, berr.ErrDeclareConflict)
		}

		r := route{exchange: bd.Exchange, routingKey: bd.RoutingKey}
		if !contains(b.bindings[r], bd.Queue) {
			b.bindings[r] = append(b.bindings[r], bd.Queue)
		}
	}

	return nil
}

// Publish routes the envelope to every queue bound to (exchange, routingKey).
// An empty exchange addresses the queue named by the routing key directly.
// An unroutable message is dropped, matching direct-exchange behavior.
func (b *Broker) Publish(ctx context.Context, exchange, routingKey string, env broker.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.closed:
		return fmt.Errorf("publish %q/%q: %w", exchange, routingKey, berr.ErrNotConnected)
	default:
	}

	var targets []*memQueue

	if exchange == "" {
		q, ok := b.queues[routingKey]
		if !ok {
			b.logger.Debug("dropping message for unknown queue", "queue", routingKey)
			return nil
		}

		targets = append(targets, q)
	} else {
		if _, ok := b.exchanges[exchange]; !ok {
			return fmt.Errorf("publish to unknown exchange %q: %w", exchange, berr.ErrPublishFailed)
		}

		for _, name := range b.bindings[route{exchange: exchange, routingKey: routingKey}] {
			targets = append(targets, b.queues[name])
		}
	}

	d := broker.Delivery{Envelope: env, Exchange: exchange, RoutingKey: routingKey}

	for _, q := range targets {
		select {
		case q.msgs <- d:
		default:
			return fmt.Errorf("queue full publishing %q/%q: %w", exchange, routingKey, berr.ErrPublishFailed)
		}
	}

	return nil
}

// Subscribe attaches a handler to a declared queue. Each message is handed to
// a single subscriber of the queue; multiple subscribers share the queue as
// one consumer group.
func (b *Broker) Subscribe(queue string, h broker.Handler) (func(), error) {
	b.mu.Lock()
	q, ok := b.queues[queue]
	b.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("subscribe to unknown queue %q: %w", queue, berr.ErrConsumeFailed)
	}

	done := make(chan struct{})

	var once sync.Once

	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		for {
			select {
			case <-done:
				return
			case <-b.closed:
				return
			case d := <-q.msgs:
				d.Queue = queue
				h(context.Background(), d)
			}
		}
	}()

	return stop, nil
}

// Close stops delivery to all subscribers. Pending messages are discarded.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.closed:
	default:
		close(b.closed)
	}

	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}

	return false
}
