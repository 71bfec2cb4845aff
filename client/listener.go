package client

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

// RequestListener serves profile lookups on the client request queue and
// observes the client event queue. It is the single parsing contract for
// both queues.
type RequestListener struct {
	store  Store
	pub    broker.Publisher
	logger *slog.Logger
}

func NewRequestListener(store Store, pub broker.Publisher, logger *slog.Logger) *RequestListener {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &RequestListener{store: store, pub: pub, logger: logger}
}

func (l *RequestListener) Register(m *consumer.Mux) error {
	if err := m.Bind(RequestQueue, l.handleRequest); err != nil {
		return err
	}

	return m.Bind(EventQueue, l.handleEvent)
}

// handleRequest answers "GetClientById:<uuid>" with the profile JSON, or an
// explicit null when the client does not exist. A request that expected a
// reply is never dropped silently; a command that cannot be parsed is logged
// and dropped without a reply, and the consumer loop keeps going.
func (l *RequestListener) handleRequest(ctx context.Context, d broker.Delivery) {
	cmd := string(d.Body)

	if !strings.HasPrefix(cmd, GetClientByIDPrefix) {
		l.logger.Warn("malformed command", "queue", d.Queue, "command", cmd)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(cmd, GetClientByIDPrefix))
	if err != nil {
		l.logger.Warn("malformed command", "queue", d.Queue, "command", cmd, "err", err)
		return
	}

	p, err := l.store.Get(ctx, id)
	switch {
	case errors.Is(err, berr.ErrNotFound):
		l.reply(ctx, d, nil)
	case err != nil:
		l.logger.Error("get client for request", "client_id", id, "err", err)
	default:
		l.reply(ctx, d, p)
	}
}

// handleEvent logs lifecycle traffic observed on the client event queue.
func (l *RequestListener) handleEvent(_ context.Context, d broker.Delivery) {
	l.logger.Info("client event", "routing_key", d.RoutingKey, "bytes", len(d.Body))
}

func (l *RequestListener) reply(ctx context.Context, d broker.Delivery, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error("serialize reply", "queue", d.Queue, "err", err)
		return
	}

	if err := rpc.Reply(ctx, l.pub, d, body); err != nil {
		l.logger.Error("send reply", "queue", d.Queue, "err", err)
	}
}
