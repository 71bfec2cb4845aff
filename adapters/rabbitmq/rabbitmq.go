package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Broker implements broker.Broker on an amqp091 connection. The initial dial
// is synchronous so topology conflicts fail the process at startup; after
// that a watchdog goroutine reconnects with backoff and restores the declared
// topology and every live subscription.
type Broker struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	topology broker.Topology
	subs     map[string]*subscription
	nextSub  int
	ready    chan struct{}
	closed   chan struct{}
}

type subscription struct {
	id      string
	queue   string
	handler broker.Handler
	done    chan struct{}
}

var _ broker.Broker = (*Broker)(nil)

// Dial connects, opens a channel and starts the reconnect watchdog.
func Dial(cfg Config, logger *slog.Logger) (*Broker, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq dial: url required: %w", berr.ErrNotConnected)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Broker{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]*subscription),
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
	}

	conn, ch, err := b.connect()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	b.install(conn, ch)

	go b.watch()

	return b, nil
}

// Declare applies the topology on the current channel and records it for
// re-declaration after a reconnect. An exchange or queue re-declared with
// conflicting properties surfaces as ErrDeclareConflict; the caller must
// treat that as fatal at startup.
func (b *Broker) Declare(ctx context.Context, t broker.Topology) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := b.channel(ctx)
	if err != nil {
		return err
	}

	if err := declareOn(ch, t); err != nil {
		return fmt.Errorf("%w: %w", berr.ErrDeclareConflict, err)
	}

	b.mu.Lock()
	b.topology = broker.Merge(b.topology, t)
	b.mu.Unlock()

	return nil
}

func declareOn(ch *amqp.Channel, t broker.Topology) error {
	for _, ex := range t.Exchanges {
		if err := ch.ExchangeDeclare(ex.Name, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", ex.Name, err)
		}
	}

	for _, q := range t.Queues {
		// Non-durable queues hold ephemeral replies; let the broker drop
		// them once the last consumer goes away.
		if _, err := ch.QueueDeclare(q.Name, q.Durable, !q.Durable, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %q: %w", q.Name, err)
		}
	}

	for _, bd := range t.Bindings {
		if err := ch.QueueBind(bd.Queue, bd.RoutingKey, bd.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %q to %q with %q: %w", bd.Queue, bd.Exchange, bd.RoutingKey, err)
		}
	}

	return nil
}

// Publish hands the envelope to the broker for routing and returns once the
// broker accepts it.
func (b *Broker) Publish(ctx context.Context, exchange, routingKey string, env broker.Envelope) error {
	ch, err := b.channel(ctx)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: env.CorrelationID,
			ReplyTo:       env.ReplyTo,
			Body:          env.Body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %q/%q: %w", exchange, routingKey, errorsJoin(berr.ErrPublishFailed, err))
	}

	return nil
}

// Subscribe registers the handler and starts consuming. The subscription
// survives reconnects until its stop function is called.
func (b *Broker) Subscribe(queue string, h broker.Handler) (func(), error) {
	b.mu.Lock()
	b.nextSub++
	sub := &subscription{
		id:      fmt.Sprintf("%s.%d", queue, b.nextSub),
		queue:   queue,
		handler: h,
		done:    make(chan struct{}),
	}
	b.subs[sub.id] = sub
	ch := b.ch
	b.mu.Unlock()

	if ch != nil {
		if err := b.consume(ch, sub); err != nil {
			b.mu.Lock()
			delete(b.subs, sub.id)
			b.mu.Unlock()

			return nil, err
		}
	}

	var once sync.Once

	stop := func() {
		once.Do(func() {
			close(sub.done)

			b.mu.Lock()
			delete(b.subs, sub.id)
			ch := b.ch
			b.mu.Unlock()

			if ch != nil {
				_ = ch.Cancel(sub.id, false)
			}
		})
	}

	return stop, nil
}

func (b *Broker) consume(ch *amqp.Channel, sub *subscription) error {
	deliveries, err := ch.Consume(sub.queue, sub.id, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", sub.queue, errorsJoin(berr.ErrConsumeFailed, err))
	}

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case <-b.closed:
				return
			case d, ok := <-deliveries:
				if !ok {
					// Channel died; the watchdog will resubscribe.
					return
				}

				sub.handler(context.Background(), broker.Delivery{
					Envelope: broker.Envelope{
						Body:          d.Body,
						CorrelationID: d.CorrelationId,
						ReplyTo:       d.ReplyTo,
					},
					Exchange:   d.Exchange,
					RoutingKey: d.RoutingKey,
					Queue:      sub.queue,
				})

				if err := d.Ack(false); err != nil {
					b.logger.Warn("ack failed", "queue", sub.queue, "err", err)
				}
			}
		}
	}()

	return nil
}

// Close tears the connection down and stops the watchdog.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.closed:
		return nil
	default:
		close(b.closed)
	}

	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}

	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}

	return nil
}

func (b *Broker) channel(ctx context.Context) (*amqp.Channel, error) {
	b.mu.RLock()
	ch := b.ch
	ready := b.ready
	b.mu.RUnlock()

	if ch != nil {
		return ch, nil
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.closed:
		return nil, berr.ErrNotConnected
	}

	b.mu.RLock()
	ch = b.ch
	b.mu.RUnlock()

	if ch == nil {
		return nil, berr.ErrNotConnected
	}

	return ch, nil
}

func (b *Broker) install(conn *amqp.Connection, ch *amqp.Channel) {
	b.mu.Lock()
	b.conn = conn
	b.ch = ch

	// Flip readiness: anyone blocked on the old ready channel proceeds.
	oldReady := b.ready
	b.ready = make(chan struct{})
	close(oldReady)
	close(b.ready)
	b.mu.Unlock()
}
