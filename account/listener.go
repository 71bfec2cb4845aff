package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/consumer"
	"github.com/next-trace/scg-banking-services/contract/broker"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
	"github.com/next-trace/scg-banking-services/rpc"
)

// Listener applies inbound account events to the local store and serves the
// account request queue. Event handlers write through the store directly,
// never through the Service, so an applied event is not republished.
//
// One malformed message must never take down the shared consumer: every
// handler logs and returns on a parse failure.
type Listener struct {
	store        Store
	transactions TransactionStore
	pub          broker.Publisher
	logger       *slog.Logger
}

func NewListener(store Store, transactions TransactionStore, pub broker.Publisher, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Listener{store: store, transactions: transactions, pub: pub, logger: logger}
}

// Register binds every queue the account service consumes. Each queue gets
// exactly one parsing contract.
func (l *Listener) Register(m *consumer.Mux) error {
	bindings := []struct {
		queue   string
		handler broker.Handler
	}{
		{CreationQueue, l.handleCreation},
		{UpdateQueue, l.handleUpdate},
		{DeletionQueue, l.handleDeletion},
		{RequestQueue, l.handleRequest},
		{TransactionQueue, l.handleTransactionCreated},
		{ClientCleanupQueue, l.handleClientDeleted},
	}

	for _, b := range bindings {
		if err := m.Bind(b.queue, b.handler); err != nil {
			return err
		}
	}

	return nil
}

func (l *Listener) handleCreation(ctx context.Context, d broker.Delivery) {
	var a Account
	if err := json.Unmarshal(d.Body, &a); err != nil {
		l.logger.Error("malformed account creation event", "queue", d.Queue, "err", err)
		return
	}

	if err := l.store.Create(ctx, []Account{a}); err != nil {
		l.logger.Error("apply account creation", "account_id", a.ID, "err", err)
	}
}

func (l *Listener) handleUpdate(ctx context.Context, d broker.Delivery) {
	var a Account
	if err := json.Unmarshal(d.Body, &a); err != nil {
		l.logger.Error("malformed account update event", "queue", d.Queue, "err", err)
		return
	}

	if err := l.store.Update(ctx, a); err != nil {
		l.logger.Error("apply account update", "account_id", a.ID, "err", err)
	}
}

func (l *Listener) handleDeletion(ctx context.Context, d broker.Delivery) {
	var raw string
	if err := json.Unmarshal(d.Body, &raw); err != nil {
		l.logger.Error("malformed account deletion event", "queue", d.Queue, "err", err)
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		l.logger.Error("malformed account id in deletion event", "value", raw, "err", err)
		return
	}

	if err := l.store.Delete(ctx, id); err != nil {
		l.logger.Error("apply account deletion", "account_id", id, "err", err)
	}
}

// handleRequest serves string commands on the account request queue. A
// request that expected a reply always gets one: the entity JSON, the list
// JSON, or an explicit null for a miss. A command that cannot be parsed is
// logged and dropped with no reply; the caller's own timeout is its
// remediation.
func (l *Listener) handleRequest(ctx context.Context, d broker.Delivery) {
	cmd := string(d.Body)

	switch {
	case cmd == GetAllAccountsCommand:
		accounts, err := l.store.List(ctx)
		if err != nil {
			l.logger.Error("list accounts for request", "err", err)
			return
		}

		l.reply(ctx, d, accounts)
	case strings.HasPrefix(cmd, GetAccountByIDPrefix):
		id, err := uuid.Parse(strings.TrimPrefix(cmd, GetAccountByIDPrefix))
		if err != nil {
			l.logger.Warn("malformed command", "queue", d.Queue, "command", cmd, "err", err)
			return
		}

		a, err := l.store.Get(ctx, id)
		switch {
		case errors.Is(err, berr.ErrNotFound):
			l.reply(ctx, d, nil)
		case err != nil:
			l.logger.Error("get account for request", "account_id", id, "err", err)
		default:
			l.reply(ctx, d, a)
		}
	default:
		l.logger.Warn("malformed command", "queue", d.Queue, "command", cmd)
	}
}

func (l *Listener) handleTransactionCreated(_ context.Context, d broker.Delivery) {
	var tx Transaction
	if err := json.Unmarshal(d.Body, &tx); err != nil {
		l.logger.Error("malformed transaction event", "queue", d.Queue, "err", err)
		return
	}

	l.logger.Info("transaction settled",
		"transaction_id", tx.ID, "account_id", tx.AccountID, "amount", tx.Amount, "credit", tx.Credit)
}

// handleClientDeleted deactivates all accounts of a deleted client. The event
// may race a concurrent read; the aggregator tolerates momentarily stale
// profiles by design of the transport, and this cleanup is eventual.
func (l *Listener) handleClientDeleted(ctx context.Context, d broker.Delivery) {
	var raw string
	if err := json.Unmarshal(d.Body, &raw); err != nil {
		l.logger.Error("malformed client deletion event", "queue", d.Queue, "err", err)
		return
	}

	clientID, err := uuid.Parse(raw)
	if err != nil {
		l.logger.Error("malformed client id in deletion event", "value", raw, "err", err)
		return
	}

	n, err := l.store.DeactivateByClient(ctx, clientID)
	if err != nil {
		l.logger.Error("deactivate accounts of deleted client", "client_id", clientID, "err", err)
		return
	}

	if n > 0 {
		l.logger.Info("deactivated accounts of deleted client", "client_id", clientID, "count", n)
	}
}

func (l *Listener) reply(ctx context.Context, d broker.Delivery, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error("serialize reply", "queue", d.Queue, "err", err)
		return
	}

	if err := rpc.Reply(ctx, l.pub, d, body); err != nil {
		l.logger.Error("send reply", "queue", d.Queue, "err", err)
	}
}
