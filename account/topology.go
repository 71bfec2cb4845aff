package account

import (
	"github.com/next-trace/scg-banking-services/client"
	"github.com/next-trace/scg-banking-services/contract/broker"
)

// Broker names the account service depends on. Request queues are addressed
// directly (default exchange), so they carry no binding.
const (
	Exchange            = "account.exchange"
	TransactionExchange = "transaction.exchange"

	CreationKey     = "account.creation"
	UpdateKey       = "account.update"
	DeletionKey     = "account.deletion"
	BulkDeletionKey = "account.bulkDeletion"

	TransactionCreationKey = "transaction.creation"

	CreationQueue      = "account.creation.queue"
	UpdateQueue        = "account.update.queue"
	DeletionQueue      = "account.deletion.queue"
	RequestQueue       = "account.request.queue"
	TransactionQueue   = "transaction.queue"
	ClientCleanupQueue = "account.client-deletion.queue"
)

// Request commands served on RequestQueue.
const (
	GetAllAccountsCommand = "GetAllAccounts"
	GetAccountByIDPrefix  = "GetAccountById:"
)

// Topology returns the fixed broker layout of the account service. The
// client exchange is re-declared here (identical properties, so the
// declaration stays idempotent) because the service binds its cleanup queue
// to client deletion events.
func Topology() broker.Topology {
	return broker.Topology{
		Exchanges: []broker.Exchange{
			{Name: Exchange},
			{Name: TransactionExchange},
			{Name: client.Exchange},
		},
		Queues: []broker.Queue{
			{Name: CreationQueue, Durable: true},
			{Name: UpdateQueue, Durable: true},
			{Name: DeletionQueue, Durable: true},
			{Name: RequestQueue, Durable: true},
			{Name: TransactionQueue, Durable: true},
			{Name: ClientCleanupQueue, Durable: true},
		},
		Bindings: []broker.Binding{
			{Exchange: Exchange, Queue: CreationQueue, RoutingKey: CreationKey},
			{Exchange: Exchange, Queue: UpdateQueue, RoutingKey: UpdateKey},
			{Exchange: Exchange, Queue: DeletionQueue, RoutingKey: DeletionKey},
			{Exchange: TransactionExchange, Queue: TransactionQueue, RoutingKey: TransactionCreationKey},
			{Exchange: client.Exchange, Queue: ClientCleanupQueue, RoutingKey: client.DeletionKey},
		},
	}
}
