package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/contract/broker"
)

// Service mutates the local account store and publishes the corresponding
// domain event after every committed write. Publishing is fire-and-forget:
// a publish failure after a committed write is logged, not rolled back, so
// consumers must not assume an event per mutation.
type Service struct {
	store  Store
	pub    broker.Publisher
	logger *slog.Logger
}

func NewService(store Store, pub broker.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{store: store, pub: pub, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Account, error) { return s.store.List(ctx) }

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Account, error) {
	return s.store.ListByClient(ctx, clientID)
}

// Create persists the accounts, assigning ids where missing, and publishes a
// creation event per account.
func (s *Service) Create(ctx context.Context, accounts []Account) ([]Account, error) {
	for i := range accounts {
		if accounts[i].ID == uuid.Nil {
			accounts[i].ID = uuid.New()
		}
	}

	if err := s.store.Create(ctx, accounts); err != nil {
		return nil, fmt.Errorf("create accounts: %w", err)
	}

	for _, a := range accounts {
		s.publish(ctx, CreationKey, a)
	}

	return accounts, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, a Account) (*Account, error) {
	a.ID = id
	if err := s.store.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update account %s: %w", id, err)
	}

	s.publish(ctx, UpdateKey, a)

	return &a, nil
}

func (s *Service) Patch(ctx context.Context, id uuid.UUID, p Patch) (*Account, error) {
	updated, err := s.store.Patch(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("patch account %s: %w", id, err)
	}

	s.publish(ctx, UpdateKey, *updated)

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}

	s.publish(ctx, DeletionKey, id.String())

	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all accounts: %w", err)
	}

	s.publish(ctx, BulkDeletionKey, "all accounts deleted")

	return nil
}

func (s *Service) publish(ctx context.Context, key string, payload any) {
	if s.pub == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("serialize event", "routing_key", key, "err", err)
		return
	}

	if err := s.pub.Publish(ctx, Exchange, key, broker.Envelope{Body: body}); err != nil {
		s.logger.Error("event publish failed after committed write", "routing_key", key, "err", err)
	}
}
