// Package memstore provides map-backed implementations of the domain store
// interfaces for tests and examples. Listing preserves insertion order, so
// reads are as deterministic as the relational stores'.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// AccountStore is a thread-safe in-memory account.Store.
type AccountStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]account.Account
	order []uuid.UUID
}

func NewAccountStore() *AccountStore {
	return &AccountStore{items: make(map[uuid.UUID]account.Account)}
}

var _ account.Store = (*AccountStore)(nil)

func (s *AccountStore) List(_ context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}

	return out, nil
}

func (s *AccountStore) Get(_ context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
	}

	return &a, nil
}

func (s *AccountStore) ListByClient(_ context.Context, clientID uuid.UUID) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.Account, 0)

	for _, id := range s.order {
		if a := s.items[id]; a.ClientID == clientID {
			out = append(out, a)
		}
	}

	return out, nil
}

func (s *AccountStore) Create(_ context.Context, accounts []account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range accounts {
		if _, exists := s.items[a.ID]; !exists {
			s.order = append(s.order, a.ID)
		}

		s.items[a.ID] = a
	}

	return nil
}

func (s *AccountStore) Update(_ context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, berr.ErrNotFound)
	}

	s.items[a.ID] = a

	return nil
}

func (s *AccountStore) Patch(_ context.Context, id uuid.UUID, p account.Patch) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
	}

	if p.Number != nil {
		a.Number = *p.Number
	}

	if p.Type != nil {
		a.Type = *p.Type
	}

	if p.Balance != nil {
		a.Balance = *p.Balance
	}

	s.items[id] = a

	return &a, nil
}

func (s *AccountStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("account %s: %w", id, berr.ErrNotFound)
	}

	delete(s.items, id)
	s.order = remove(s.order, id)

	return nil
}

func (s *AccountStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[uuid.UUID]account.Account)
	s.order = nil

	return nil
}

func (s *AccountStore) DeactivateByClient(_ context.Context, clientID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for id, a := range s.items {
		if a.ClientID == clientID && a.Active {
			a.Active = false
			s.items[id] = a
			n++
		}
	}

	return n, nil
}

// TransactionStore is a thread-safe in-memory account.TransactionStore.
type TransactionStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]account.Transaction
	order []uuid.UUID
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{items: make(map[uuid.UUID]account.Transaction)}
}

var _ account.TransactionStore = (*TransactionStore)(nil)

func (s *TransactionStore) List(_ context.Context) ([]account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}

	return out, nil
}

func (s *TransactionStore) Get(_ context.Context, id uuid.UUID) (*account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
	}

	return &tx, nil
}

func (s *TransactionStore) ListByAccountBetween(
	_ context.Context,
	accountID uuid.UUID,
	from, to time.Time,
) ([]account.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.Transaction, 0)

	for _, id := range s.order {
		tx := s.items[id]
		if tx.AccountID != accountID {
			continue
		}

		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}

		out = append(out, tx)
	}

	return out, nil
}

func (s *TransactionStore) Create(_ context.Context, txs []account.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if _, exists := s.items[tx.ID]; !exists {
			s.order = append(s.order, tx.ID)
		}

		s.items[tx.ID] = tx
	}

	return nil
}

func (s *TransactionStore) Patch(
	_ context.Context,
	id uuid.UUID,
	p account.TransactionPatch,
) (*account.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
	}

	if p.Amount != nil {
		tx.Amount = *p.Amount
	}

	if p.Credit != nil {
		tx.Credit = *p.Credit
	}

	if p.Date != nil {
		tx.Date = *p.Date
	}

	s.items[id] = tx

	return &tx, nil
}

func (s *TransactionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, berr.ErrNotFound)
	}

	delete(s.items, id)
	s.order = remove(s.order, id)

	return nil
}

func (s *TransactionStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[uuid.UUID]account.Transaction)
	s.order = nil

	return nil
}

// ClientStore is a thread-safe in-memory client.Store.
type ClientStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]client.Profile
	order []uuid.UUID
}

func NewClientStore() *ClientStore {
	return &ClientStore{items: make(map[uuid.UUID]client.Profile)}
}

var _ client.Store = (*ClientStore)(nil)

func (s *ClientStore) List(_ context.Context) ([]client.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]client.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}

	return out, nil
}

func (s *ClientStore) Get(_ context.Context, id uuid.UUID) (*client.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
	}

	return &p, nil
}

func (s *ClientStore) Create(_ context.Context, profiles []client.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range profiles {
		if _, exists := s.items[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}

		s.items[p.ID] = p
	}

	return nil
}

func (s *ClientStore) Update(_ context.Context, p client.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[p.ID]; !ok {
		return fmt.Errorf("client %s: %w", p.ID, berr.ErrNotFound)
	}

	s.items[p.ID] = p

	return nil
}

func (s *ClientStore) Patch(_ context.Context, id uuid.UUID, patch client.Patch) (*client.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}

	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}

	if patch.Age != nil {
		p.Age = *patch.Age
	}

	if patch.Identification != nil {
		p.Identification = *patch.Identification
	}

	if patch.Address != nil {
		p.Address = *patch.Address
	}

	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}

	if patch.Active != nil {
		p.Active = *patch.Active
	}

	s.items[id] = p

	return &p, nil
}

func (s *ClientStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("client %s: %w", id, berr.ErrNotFound)
	}

	delete(s.items, id)
	s.order = remove(s.order, id)

	return nil
}

func (s *ClientStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[uuid.UUID]client.Profile)
	s.order = nil

	return nil
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]

	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}

	return out
}
