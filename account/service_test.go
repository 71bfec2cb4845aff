package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/contract/broker"
	"github.com/next-trace/scg-banking-services/storage/memstore"
)

type recordingPublisher struct {
	mu    sync.Mutex
	calls []struct {
		exchange string
		key      string
		body     []byte
	}
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, routingKey string, env broker.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, struct {
		exchange string
		key      string
		body     []byte
	}{exchange, routingKey, env.Body})

	return p.err
}

func (p *recordingPublisher) published() []struct {
	exchange string
	key      string
	body     []byte
} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append(p.calls[:0:0], p.calls...)
}

func TestService_CreateAssignsIDsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := account.NewService(memstore.NewAccountStore(), pub, nil)

	created, err := svc.Create(t.Context(), []account.Account{
		{ClientID: uuid.New(), Number: 1, Active: true},
		{ClientID: uuid.New(), Number: 2, Active: true},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, a := range created {
		if a.ID == uuid.Nil {
			t.Fatalf("id not assigned: %+v", a)
		}
	}

	calls := pub.published()
	if len(calls) != 2 {
		t.Fatalf("want 2 events, got %d", len(calls))
	}

	for _, c := range calls {
		if c.exchange != account.Exchange || c.key != account.CreationKey {
			t.Fatalf("event routing: %s/%s", c.exchange, c.key)
		}
	}
}

func TestService_DeletePublishesIDAsJSONString(t *testing.T) {
	store := memstore.NewAccountStore()
	pub := &recordingPublisher{}
	svc := account.NewService(store, pub, nil)

	a := account.Account{ID: uuid.New(), Active: true}
	if err := store.Create(t.Context(), []account.Account{a}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Delete(t.Context(), a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	calls := pub.published()
	if len(calls) != 1 || calls[0].key != account.DeletionKey {
		t.Fatalf("calls: %+v", calls)
	}

	var raw string
	if err := json.Unmarshal(calls[0].body, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if raw != a.ID.String() {
		t.Fatalf("payload: %s", raw)
	}
}

func TestService_PublishFailureDoesNotFailTheWrite(t *testing.T) {
	store := memstore.NewAccountStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := account.NewService(store, pub, nil)

	created, err := svc.Create(t.Context(), []account.Account{{ClientID: uuid.New(), Active: true}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The write is committed even though the event was lost.
	if _, err := store.Get(t.Context(), created[0].ID); err != nil {
		t.Fatalf("committed write missing: %v", err)
	}
}
