package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the local, keyed persistence of accounts. Implementations report
// a missing account with errors.ErrNotFound (contract/errors). Mutations are
// atomic per entity; there is no cross-entity transaction spanning a broker
// publish and a local write.
type Store interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Account, error)
	Create(ctx context.Context, accounts []Account) error
	Update(ctx context.Context, a Account) error
	Patch(ctx context.Context, id uuid.UUID, p Patch) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	// DeactivateByClient clears the active flag on every account owned by the
	// client and reports how many were touched.
	DeactivateByClient(ctx context.Context, clientID uuid.UUID) (int64, error)
}

// TransactionStore is the local persistence of transactions.
type TransactionStore interface {
	List(ctx context.Context) ([]Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// ListByAccountBetween returns the account's transactions with timestamp
	// in [from, to], inclusive on both ends, in storage order.
	ListByAccountBetween(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]Transaction, error)
	Create(ctx context.Context, txs []Transaction) error
	Patch(ctx context.Context, id uuid.UUID, p TransactionPatch) (*Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}
