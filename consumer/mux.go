// Package consumer binds queues to handlers and manages the subscription
// lifecycle for a service instance. Exactly one handler may be bound per
// queue, so the parsing contract of every queue is explicit at wiring time.
package consumer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Mux is a queue-to-handler registry. It is concurrency-safe and contains no
// global state.
type Mux struct {
	mu       sync.Mutex
	handlers map[string]broker.Handler
	order    []string
	logger   *slog.Logger
}

// NewMux constructs an empty Mux. A nil logger disables logging.
func NewMux(logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Mux{handlers: make(map[string]broker.Handler), logger: logger}
}

// Bind registers the handler for a queue. A second binding for the same
// queue is rejected with ErrConsumerExists.
func (m *Mux) Bind(queue string, h broker.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[queue]; exists {
		return fmt.Errorf("bind queue %q: %w", queue, berr.ErrConsumerExists)
	}

	m.handlers[queue] = h
	m.order = append(m.order, queue)

	return nil
}

// Run subscribes every bound queue on the given subscriber and returns a stop
// function that cancels all subscriptions. If any subscription fails, the
// ones already started are stopped before the error is returned.
func (m *Mux) Run(sub broker.Subscriber) (func(), error) {
	m.mu.Lock()
	queues := append([]string(nil), m.order...)
	m.mu.Unlock()

	stops := make([]func(), 0, len(queues))
	stopAll := func() {
		for _, s := range stops {
			s()
		}
	}

	for _, q := range queues {
		m.mu.Lock()
		h := m.handlers[q]
		m.mu.Unlock()

		stop, err := sub.Subscribe(q, h)
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("run consumer for %q: %w", q, err)
		}

		m.logger.Info("consumer started", "queue", q)
		stops = append(stops, stop)
	}

	return stopAll, nil
}
