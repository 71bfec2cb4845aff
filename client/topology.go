package client

import "github.com/next-trace/scg-banking-services/contract/broker"

// Broker names the client service depends on. The request queue is addressed
// directly (default exchange) and carries no binding.
const (
	Exchange = "client.exchange"

	CreationKey     = "client.creation"
	UpdateKey       = "client.update"
	DeletionKey     = "client.deletion"
	BulkDeletionKey = "client.bulkDeletion"

	EventQueue   = "client.queue"
	RequestQueue = "client.request.queue"
)

// GetClientByIDPrefix is the request command served on RequestQueue, in the
// "<Verb>By<Field>:<value>" convention.
const GetClientByIDPrefix = "GetClientById:"

// Topology returns the fixed broker layout of the client service.
func Topology() broker.Topology {
	return broker.Topology{
		Exchanges: []broker.Exchange{{Name: Exchange}},
		Queues: []broker.Queue{
			{Name: EventQueue, Durable: true},
			{Name: RequestQueue, Durable: true},
		},
		Bindings: []broker.Binding{
			{Exchange: Exchange, Queue: EventQueue, RoutingKey: CreationKey},
			{Exchange: Exchange, Queue: EventQueue, RoutingKey: UpdateKey},
			{Exchange: Exchange, Queue: EventQueue, RoutingKey: DeletionKey},
		},
	}
}
