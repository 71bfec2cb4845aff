package broker

// Exchange is a named router with direct semantics: a published routing key is
// delivered to every queue bound with that exact key. No pattern matching.
type Exchange struct {
	Name string
}

// Queue holds an ordered sequence of pending messages per consumer group.
// Durable queues survive a broker restart; non-durable ones (used for
// ephemeral reply queues) do not.
type Queue struct {
	Name    string
	Durable bool
}

// Binding is an (exchange, queue, routing key) triple, declared once at startup.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// Topology is the fixed set of exchanges, queues and bindings a service
// depends on, both as publisher and consumer. It is declared once per process
// start; there are no dynamic topology changes at runtime.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// Merge combines several topologies into one declaration. Duplicates are fine:
// declaration is idempotent as long as properties agree.
func Merge(ts ...Topology) Topology {
	var out Topology
	for _, t := range ts {
		out.Exchanges = append(out.Exchanges, t.Exchanges...)
		out.Queues = append(out.Queues, t.Queues...)
		out.Bindings = append(out.Bindings, t.Bindings...)
	}

	return out
}
