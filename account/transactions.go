package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/contract/broker"
)

// TransactionService mutates the local transaction store and publishes
// creation events to the transaction exchange.
type TransactionService struct {
	store  TransactionStore
	pub    broker.Publisher
	logger *slog.Logger
}

func NewTransactionService(store TransactionStore, pub broker.Publisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &TransactionService{store: store, pub: pub, logger: logger}
}

func (s *TransactionService) List(ctx context.Context) ([]Transaction, error) {
	return s.store.List(ctx)
}

func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *TransactionService) ListByAccountBetween(
	ctx context.Context,
	accountID uuid.UUID,
	from, to time.Time,
) ([]Transaction, error) {
	return s.store.ListByAccountBetween(ctx, accountID, from, to)
}

func (s *TransactionService) Create(ctx context.Context, txs []Transaction) ([]Transaction, error) {
	for i := range txs {
		if txs[i].ID == uuid.Nil {
			txs[i].ID = uuid.New()
		}
	}

	if err := s.store.Create(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	for _, tx := range txs {
		s.publish(ctx, tx)
	}

	return txs, nil
}

// Patch applies an administrative correction to a settled transaction.
func (s *TransactionService) Patch(ctx context.Context, id uuid.UUID, p TransactionPatch) (*Transaction, error) {
	updated, err := s.store.Patch(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("patch transaction %s: %w", id, err)
	}

	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	return nil
}

func (s *TransactionService) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}

	return nil
}

func (s *TransactionService) publish(ctx context.Context, tx Transaction) {
	if s.pub == nil {
		return
	}

	body, err := json.Marshal(tx)
	if err != nil {
		s.logger.Error("serialize transaction event", "err", err)
		return
	}

	if err := s.pub.Publish(ctx, TransactionExchange, TransactionCreationKey, broker.Envelope{Body: body}); err != nil {
		s.logger.Error("event publish failed after committed write", "routing_key", TransactionCreationKey, "err", err)
	}
}
