// Package statement composes the on-demand account statement: one client
// profile plus the client's accounts and their transactions within a date
// window. A report is never persisted; its lifecycle is the request.
package statement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// Report is the composite statement.
type Report struct {
	Client   client.Profile     `json:"client"`
	Accounts []AccountStatement `json:"accounts"`
}

// AccountStatement pairs an account with its transactions inside the window.
type AccountStatement struct {
	Details      account.Account       `json:"accountDetails"`
	Transactions []account.Transaction `json:"transactions"`
}

// Aggregator gathers the report's three upstreams and surfaces the first
// hard failure. The profile travels through a client.Directory, so the
// aggregator does not care whether the lookup rode the broker or HTTP.
type Aggregator struct {
	directory    client.Directory
	accounts     account.Store
	transactions account.TransactionStore
	logger       *slog.Logger
}

func NewAggregator(
	directory client.Directory,
	accounts account.Store,
	transactions account.TransactionStore,
	logger *slog.Logger,
) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Aggregator{directory: directory, accounts: accounts, transactions: transactions, logger: logger}
}

// Generate builds the statement for clientID over [from, to] inclusive.
//
// A missing client fails with ErrClientNotFound before any account is read,
// and a client without accounts fails with ErrNoAccountsFound: both are hard
// stops, no partial report is returned. An account with no transactions in
// the window is still included with an empty sequence. Range ordering is the
// caller's responsibility; an inverted range yields empty sequences, not an
// error. Accounts keep storage order, so identical inputs against unchanged
// upstream data produce byte-identical reports.
func (a *Aggregator) Generate(ctx context.Context, clientID uuid.UUID, from, to time.Time) (*Report, error) {
	profile, err := a.directory.Lookup(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("statement for %s: %w", clientID, err)
	}

	accounts, err := a.accounts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("statement for %s: list accounts: %w", clientID, err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("statement for %s: %w", clientID, berr.ErrNoAccountsFound)
	}

	report := &Report{Client: *profile, Accounts: make([]AccountStatement, 0, len(accounts))}

	for _, acc := range accounts {
		txs, err := a.transactions.ListByAccountBetween(ctx, acc.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("statement for %s: transactions of %s: %w", clientID, acc.ID, err)
		}

		if txs == nil {
			txs = []account.Transaction{}
		}

		report.Accounts = append(report.Accounts, AccountStatement{Details: acc, Transactions: txs})
	}

	return report, nil
}
