package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/contract/broker"
)

// Service mutates the local client store and publishes the corresponding
// domain event after every committed write. A publish failure after a
// committed write is logged and tolerated as an at-most-once event gap.
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

func (s *Service) List(ctx context.Context) ([]Profile, error) { return s.store.List(ctx) }

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, profiles []Profile) ([]Profile, error) {
	for i := range profiles {
		if profiles[i].ID == uuid.Nil {
			profiles[i].ID = uuid.New()
		}
	}

	if err := s.store.Create(ctx, profiles); err != nil {
		return nil, fmt.Errorf("create clients: %w", err)
	}

	for _, p := range profiles {
		s.publish(ctx, CreationKey, p)
	}

	return profiles, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p Profile) (*Profile, error) {
	p.ID = id
	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update client %s: %w", id, err)
	}

	s.publish(ctx, UpdateKey, p)

	return &p, nil
}

func (s *Service) Patch(ctx context.Context, id uuid.UUID, p Patch) (*Profile, error) {
	updated, err := s.store.Patch(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("patch client %s: %w", id, err)
	}

	s.publish(ctx, UpdateKey, *updated)

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}

	s.publish(ctx, DeletionKey, id.String())

	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all clients: %w", err)
	}

	s.publish(ctx, BulkDeletionKey, "all clients deleted")

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
