// Package nats implements the broker contract on NATS. Exchange routing is
// mapped onto subjects ("<exchange>.<routing key>", or "q.<queue>" for
// default-exchange publishes) and consumer groups onto queue subscriptions,
// so a message lands once per bound queue. Durability is advisory: NATS core
// does not persist, which is acceptable for deployments that accept replay
// loss on restart.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

const (
	directPrefix = "q."

	correlationHeader = "Correlation-Id"
	replyToHeader     = "Reply-To"
)

type route struct {
	exchange   string
	routingKey string
}

// Broker implements broker.Broker on a NATS connection.
type Broker struct {
	nc     *nats.Conn
	logger *slog.Logger

	mu       sync.Mutex
	queues   map[string]bool // name -> durable flag, for conflict parity
	bindings map[string][]route
}

var _ broker.Broker = (*Broker)(nil)

// New wraps an established NATS connection.
func New(nc *nats.Conn, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Broker{
		nc:       nc,
		logger:   logger,
		queues:   make(map[string]bool),
		bindings: make(map[string][]route),
	}
}

// Declare records the topology. Subjects are implicit in NATS, so this only
// registers which subjects each queue is bound to and enforces the same
// conflict rule as the other adapters.
func (b *Broker) Declare(ctx context.Context, t broker.Topology) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, q := range t.Queues {
		durable, ok := b.queues[q.Name]
		if ok && durable != q.Durable {
			return fmt.Errorf("declare queue %q: %w", q.Name, berr.ErrDeclareConflict)
		}

		b.queues[q.Name] = q.Durable
	}

	for _, bd := range t.Bindings {
		if _, ok := b.queues[bd.Queue]; !ok {
			return fmt.Errorf("bind unknown queue %q: %w", bd.Queue, berr.ErrDeclareConflict)
		}

		r := route{exchange: bd.Exchange, routingKey: bd.RoutingKey}
		if !containsRoute(b.bindings[bd.Queue], r) {
			b.bindings[bd.Queue] = append(b.bindings[bd.Queue], r)
		}
	}

	return nil
}

// Publish maps (exchange, routingKey) onto a subject and flushes so the
// envelope is on the wire when the call returns.
func (b *Broker) Publish(ctx context.Context, exchange, routingKey string, env broker.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &nats.Msg{Subject: subjectFor(exchange, routingKey), Data: env.Body}

	if env.CorrelationID != "" || env.ReplyTo != "" {
		msg.Header = nats.Header{}
		if env.CorrelationID != "" {
			msg.Header.Set(correlationHeader, env.CorrelationID)
		}

		if env.ReplyTo != "" {
			msg.Header.Set(replyToHeader, env.ReplyTo)
		}
	}

	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %q/%q: %w", exchange, routingKey, fmt.Errorf("%w: %w", berr.ErrPublishFailed, err))
	}

	if err := b.nc.Flush(); err != nil {
		return fmt.Errorf("publish %q/%q: %w", exchange, routingKey, fmt.Errorf("%w: %w", berr.ErrPublishFailed, err))
	}

	return nil
}

// Subscribe attaches the handler to the queue's direct subject and every
// subject the queue is bound to, all under the queue's consumer group.
func (b *Broker) Subscribe(queue string, h broker.Handler) (func(), error) {
	b.mu.Lock()

	if _, ok := b.queues[queue]; !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("subscribe to unknown queue %q: %w", queue, berr.ErrConsumeFailed)
	}

	routes := append([]route{{exchange: "", routingKey: queue}}, b.bindings[queue]...)
	b.mu.Unlock()

	subs := make([]*nats.Subscription, 0, len(routes))

	for _, r := range routes {
		r := r

		sub, err := b.nc.QueueSubscribe(subjectFor(r.exchange, r.routingKey), queue, func(m *nats.Msg) {
			h(context.Background(), broker.Delivery{
				Envelope: broker.Envelope{
					Body:          m.Data,
					CorrelationID: m.Header.Get(correlationHeader),
					ReplyTo:       m.Header.Get(replyToHeader),
				},
				Exchange:   r.exchange,
				RoutingKey: r.routingKey,
				Queue:      queue,
			})
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}

			return nil, fmt.Errorf("subscribe %q: %w", queue, fmt.Errorf("%w: %w", berr.ErrConsumeFailed, err))
		}

		subs = append(subs, sub)
	}

	var once sync.Once

	stop := func() {
		once.Do(func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
		})
	}

	return stop, nil
}

// Close drains the connection, letting in-flight handlers finish.
func (b *Broker) Close() error {
	if b.nc != nil && !b.nc.IsClosed() {
		_ = b.nc.Drain() //nolint:errcheck // best-effort shutdown; cannot return error here
		b.nc.Close()
	}

	return nil
}

func subjectFor(exchange, routingKey string) string {
	if exchange == "" {
		return directPrefix + routingKey
	}

	return exchange + "." + routingKey
}

func containsRoute(rs []route, r route) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}

	return false
}
