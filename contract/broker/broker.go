package broker

import "context"

// Envelope is the unit transported between services: an opaque payload plus
// the optional request/response metadata. Every RPC request carries a freshly
// generated correlation id; every reply echoes the same id so the original
// caller can match it.
type Envelope struct {
	Body          []byte
	CorrelationID string
	ReplyTo       string
}

// Delivery is an envelope as observed by a consumer, along with where it came
// from.
type Delivery struct {
	Envelope

	Exchange   string
	RoutingKey string
	Queue      string
}

// Handler processes one delivery. A handler must never panic the consumer
// loop; malformed messages are logged and dropped by the handler itself.
type Handler func(ctx context.Context, d Delivery)

// Declarer declares a topology. Declaration is idempotent: re-declaring an
// existing exchange or queue with identical properties is a no-op, declaring
// with conflicting properties is an error the caller must treat as fatal.
type Declarer interface {
	Declare(ctx context.Context, t Topology) error
}

// Publisher hands an envelope to the broker for routing. The call returns
// once the broker accepts the message, not once any consumer has processed
// it: callers must treat a nil error as "eventually delivered", never "done".
//
// Publishing with an empty exchange name addresses the queue named by the
// routing key directly (default-exchange semantics), which is how RPC
// requests and replies reach their well-known queues.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, env Envelope) error
}

// Subscriber attaches a handler to a declared queue. The returned stop
// function cancels the subscription; it is safe to call more than once.
type Subscriber interface {
	Subscribe(queue string, h Handler) (func(), error)
}

// Broker is the full transport surface a service holds for its lifetime.
// It is injected as an explicit handle with init-at-startup and
// teardown-at-shutdown, never accessed as an ambient singleton.
type Broker interface {
	Declarer
	Publisher
	Subscriber

	Close() error
}
