package rabbitmq

import (
	"errors"
	"math/rand"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection lifecycle: synchronous first dial, then watchdog-driven
// reconnect with exponential backoff and jitter.

const prefetchCount = 16

type Config struct {
	URL         string
	ConnTimeout time.Duration
}

func errorsJoin(errs ...error) error { return errors.Join(errs...) }

func (b *Broker) connect() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(b.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-banking-services"},
		Dial:       amqp.DefaultDial(b.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (b *Broker) watch() {
	backoff := time.Second

	const maxBackoff = 30 * time.Second

	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-crypto RNG is acceptable for backoff jitter

	for {
		b.mu.RLock()
		conn := b.conn
		b.mu.RUnlock()

		if conn == nil {
			return
		}

		notify := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-b.closed:
			return
		case amqpErr := <-notify:
			b.logger.Warn("broker connection lost", "err", amqpErr)
		}

		// Mark not ready so publishers block instead of writing to a dead
		// channel.
		b.mu.Lock()
		b.conn = nil
		b.ch = nil
		b.ready = make(chan struct{})
		b.mu.Unlock()

		if !b.reconnect(rng, &backoff, maxBackoff) {
			return
		}
	}
}

func (b *Broker) reconnect(rng *rand.Rand, backoff *time.Duration, maxBackoff time.Duration) bool {
	for {
		select {
		case <-b.closed:
			return false
		default:
		}

		conn, ch, err := b.connect()
		if err != nil {
			if !b.sleep(rng, backoff, maxBackoff) {
				return false
			}

			continue
		}

		if err := b.restore(ch); err != nil {
			b.logger.Warn("restore after reconnect failed", "err", err)
			_ = ch.Close()
			_ = conn.Close()

			if !b.sleep(rng, backoff, maxBackoff) {
				return false
			}

			continue
		}

		*backoff = time.Second

		b.install(conn, ch)
		b.logger.Info("broker connection restored")

		return true
	}
}

// restore re-declares the recorded topology and restarts every live
// subscription on the fresh channel.
func (b *Broker) restore(ch *amqp.Channel) error {
	b.mu.RLock()
	topo := b.topology
	subs := make([]*subscription, 0, len(b.subs))

	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	if err := declareOn(ch, topo); err != nil {
		return err
	}

	for _, sub := range subs {
		if err := b.consume(ch, sub); err != nil {
			return err
		}
	}

	return nil
}

func (b *Broker) sleep(rng *rand.Rand, backoff *time.Duration, maxBackoff time.Duration) bool {
	jitter := time.Duration(rng.Int63n(int64(*backoff / 2)))

	sleep := *backoff + jitter/2
	if sleep > maxBackoff {
		sleep = maxBackoff
	}

	t := time.NewTimer(sleep)
	defer t.Stop()

	select {
	case <-b.closed:
		return false
	case <-t.C:
	}

	if *backoff < maxBackoff {
		*backoff *= 2
		if *backoff > maxBackoff {
			*backoff = maxBackoff
		}
	}

	return true
}
