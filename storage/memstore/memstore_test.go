package memstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/account"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
	"github.com/next-trace/scg-banking-services/storage/memstore"
)

func TestAccountStore_ListKeepsInsertionOrder(t *testing.T) {
	s := memstore.NewAccountStore()

	seed := []account.Account{
		{ID: uuid.New(), Number: 3},
		{ID: uuid.New(), Number: 1},
		{ID: uuid.New(), Number: 2},
	}
	if err := s.Create(t.Context(), seed); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.List(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	for i := range seed {
		if got[i].ID != seed[i].ID {
			t.Fatalf("order changed: %+v", got)
		}
	}
}

func TestAccountStore_GetUnknownIsNotFound(t *testing.T) {
	s := memstore.NewAccountStore()

	if _, err := s.Get(t.Context(), uuid.New()); !errors.Is(err, berr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAccountStore_DeactivateByClient(t *testing.T) {
	s := memstore.NewAccountStore()

	clientID := uuid.New()

	seed := []account.Account{
		{ID: uuid.New(), ClientID: clientID, Active: true},
		{ID: uuid.New(), ClientID: clientID, Active: true},
		{ID: uuid.New(), ClientID: uuid.New(), Active: true},
	}
	if err := s.Create(t.Context(), seed); err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := s.DeactivateByClient(t.Context(), clientID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
}

func TestTransactionStore_WindowIsInclusive(t *testing.T) {
	s := memstore.NewTransactionStore()

	accountID := uuid.New()
	from := time.Date(2022, 2, 8, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)

	// Two rows sit exactly on the window bounds; the rows just outside and
	// the other account's row must not come back.
	seed := []account.Transaction{
		{ID: uuid.New(), AccountID: accountID, Date: from},
		{ID: uuid.New(), AccountID: accountID, Date: to},
		{ID: uuid.New(), AccountID: accountID, Date: from.Add(-time.Second)},
		{ID: uuid.New(), AccountID: accountID, Date: to.Add(time.Second)},
		{ID: uuid.New(), AccountID: uuid.New(), Date: from.Add(time.Minute)},
	}
	if err := s.Create(t.Context(), seed); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ListByAccountBetween(t.Context(), accountID, from, to)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want both boundary transactions, got %d", len(got))
	}
}
