package statement_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
	"github.com/next-trace/scg-banking-services/statement"
	"github.com/next-trace/scg-banking-services/storage/memstore"
)

type stubDirectory struct {
	profile *client.Profile
	err     error
}

func (d *stubDirectory) Lookup(context.Context, uuid.UUID) (*client.Profile, error) {
	return d.profile, d.err
}

func seed(t *testing.T) (uuid.UUID, *stubDirectory, *memstore.AccountStore, *memstore.TransactionStore) {
	t.Helper()

	clientID := uuid.New()
	dir := &stubDirectory{profile: &client.Profile{ID: clientID, Name: "Jane Doe", Active: true}}

	accounts := memstore.NewAccountStore()
	transactions := memstore.NewTransactionStore()

	accX := account.Account{ID: uuid.New(), ClientID: clientID, Number: 478758, Type: "savings", Balance: 1425, Active: true}
	accY := account.Account{ID: uuid.New(), ClientID: clientID, Number: 225487, Type: "checking", Balance: 700, Active: true}

	if err := accounts.Create(t.Context(), []account.Account{accX, accY}); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	base := time.Date(2022, 2, 8, 0, 0, 0, 0, time.UTC)

	txs := []account.Transaction{
		{ID: uuid.New(), AccountID: accX.ID, ClientID: clientID, Amount: 575, Credit: false, Date: base},
		{ID: uuid.New(), AccountID: accX.ID, ClientID: clientID, Amount: 150, Credit: true, Date: base.AddDate(0, 0, 2)},
		// Outside any window the tests below ask for.
		{ID: uuid.New(), AccountID: accY.ID, ClientID: clientID, Amount: 999, Credit: true, Date: base.AddDate(1, 0, 0)},
	}
	if err := transactions.Create(t.Context(), txs); err != nil {
		t.Fatalf("seed transactions: %v", err)
	}

	return clientID, dir, accounts, transactions
}

func TestGenerate_WindowsTransactionsPerAccount(t *testing.T) {
	clientID, dir, accounts, transactions := seed(t)

	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	from := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 2, 28, 0, 0, 0, 0, time.UTC)

	report, err := agg.Generate(t.Context(), clientID, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if report.Client.Name != "Jane Doe" {
		t.Fatalf("client: %+v", report.Client)
	}

	if len(report.Accounts) != 2 {
		t.Fatalf("want 2 accounts, got %d", len(report.Accounts))
	}

	// First account has both February transactions, second has none in the
	// window but is still present with an empty sequence.
	if n := len(report.Accounts[0].Transactions); n != 2 {
		t.Fatalf("account X transactions: %d", n)
	}

	if report.Accounts[1].Transactions == nil || len(report.Accounts[1].Transactions) != 0 {
		t.Fatalf("account Y transactions: %+v", report.Accounts[1].Transactions)
	}
}

func TestGenerate_WindowBoundsAreInclusive(t *testing.T) {
	clientID, dir, accounts, transactions := seed(t)

	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	// Exactly the two timestamps of account X's transactions.
	from := time.Date(2022, 2, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 2, 10, 0, 0, 0, 0, time.UTC)

	report, err := agg.Generate(t.Context(), clientID, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if n := len(report.Accounts[0].Transactions); n != 2 {
		t.Fatalf("want both boundary transactions, got %d", n)
	}
}

func TestGenerate_UnknownClientIsHardStop(t *testing.T) {
	_, _, accounts, transactions := seed(t)

	dir := &stubDirectory{err: fmt.Errorf("lookup: %w", berr.ErrClientNotFound)}
	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	_, err := agg.Generate(t.Context(), uuid.New(), time.Time{}, time.Now())
	if !errors.Is(err, berr.ErrClientNotFound) {
		t.Fatalf("want ErrClientNotFound, got %v", err)
	}
}

func TestGenerate_ClientWithoutAccountsIsHardStop(t *testing.T) {
	clientID := uuid.New()
	dir := &stubDirectory{profile: &client.Profile{ID: clientID, Name: "No Accounts", Active: true}}

	agg := statement.NewAggregator(dir, memstore.NewAccountStore(), memstore.NewTransactionStore(), nil)

	_, err := agg.Generate(t.Context(), clientID, time.Time{}, time.Now())
	if !errors.Is(err, berr.ErrNoAccountsFound) {
		t.Fatalf("want ErrNoAccountsFound, got %v", err)
	}
}

func TestGenerate_InvertedRangeYieldsEmptySequences(t *testing.T) {
	clientID, dir, accounts, transactions := seed(t)

	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	from := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)

	report, err := agg.Generate(t.Context(), clientID, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, a := range report.Accounts {
		if len(a.Transactions) != 0 {
			t.Fatalf("inverted range produced transactions: %+v", a.Transactions)
		}
	}
}

func TestGenerate_IsIdempotentOverUnchangedData(t *testing.T) {
	clientID, dir, accounts, transactions := seed(t)

	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	from := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, 2, 28, 0, 0, 0, 0, time.UTC)

	first, err := agg.Generate(t.Context(), clientID, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	second, err := agg.Generate(t.Context(), clientID, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !bytes.Equal(a, b) {
		t.Fatalf("reports differ:\n%s\n%s", a, b)
	}
}
