package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	gmux "github.com/gorilla/mux"

	"github.com/next-trace/scg-banking-services/account"
	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
	"github.com/next-trace/scg-banking-services/httpapi"
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

func newReportServer(t *testing.T, dir client.Directory, seed func(*memstore.AccountStore, *memstore.TransactionStore)) *httptest.Server {
	t.Helper()

	accounts := memstore.NewAccountStore()
	transactions := memstore.NewTransactionStore()

	if seed != nil {
		seed(accounts, transactions)
	}

	agg := statement.NewAggregator(dir, accounts, transactions, nil)

	r := gmux.NewRouter()
	httpapi.NewReportAPI(agg, nil).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func TestReports_HappyPath(t *testing.T) {
	clientID := uuid.New()
	dir := &stubDirectory{profile: &client.Profile{ID: clientID, Name: "Jane", Active: true}}

	base := time.Date(2022, 2, 8, 0, 0, 0, 0, time.UTC)

	srv := newReportServer(t, dir, func(as *memstore.AccountStore, ts *memstore.TransactionStore) {
		acc := account.Account{ID: uuid.New(), ClientID: clientID, Number: 478758, Type: "savings", Balance: 2000, Active: true}
		if err := as.Create(t.Context(), []account.Account{acc}); err != nil {
			t.Fatalf("seed accounts: %v", err)
		}

		tx := account.Transaction{ID: uuid.New(), AccountID: acc.ID, ClientID: clientID, Amount: 575, Date: base}
		if err := ts.Create(t.Context(), []account.Transaction{tx}); err != nil {
			t.Fatalf("seed transactions: %v", err)
		}
	})

	url := fmt.Sprintf("%s/reports?client=%s&range=2022-02-01T00:00:00Z,2022-02-28T00:00:00Z", srv.URL, clientID)

	resp, err := http.Get(url) //nolint:gosec,noctx // test server url
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	var report statement.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if report.Client.ID != clientID || len(report.Accounts) != 1 || len(report.Accounts[0].Transactions) != 1 {
		t.Fatalf("report: %+v", report)
	}
}

func TestReports_MalformedTimestampIsBadRequest(t *testing.T) {
	dir := &stubDirectory{profile: &client.Profile{ID: uuid.New(), Active: true}}
	srv := newReportServer(t, dir, nil)

	for _, rng := range []string{
		"not-a-date,2022-02-28T00:00:00Z",
		"2022-02-01T00:00:00Z",
		"",
	} {
		url := fmt.Sprintf("%s/reports?client=%s&range=%s", srv.URL, uuid.New(), rng)

		resp, err := http.Get(url) //nolint:gosec,noctx // test server url
		if err != nil {
			t.Fatalf("get: %v", err)
		}

		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("range %q: status %d", rng, resp.StatusCode)
		}
	}
}

func TestReports_MissingClientIDIsBadRequest(t *testing.T) {
	dir := &stubDirectory{profile: &client.Profile{ID: uuid.New(), Active: true}}
	srv := newReportServer(t, dir, nil)

	resp, err := http.Get(srv.URL + "/reports?range=2022-02-01T00:00:00Z,2022-02-28T00:00:00Z") //nolint:noctx // test
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestReports_UnknownClientIsNotFound(t *testing.T) {
	dir := &stubDirectory{err: fmt.Errorf("lookup: %w", berr.ErrClientNotFound)}
	srv := newReportServer(t, dir, nil)

	url := fmt.Sprintf("%s/reports?client=%s&range=2022-02-01T00:00:00Z,2022-02-28T00:00:00Z", srv.URL, uuid.New())

	resp, err := http.Get(url) //nolint:gosec,noctx // test server url
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestReports_NoAccountsIsNotFound(t *testing.T) {
	clientID := uuid.New()
	dir := &stubDirectory{profile: &client.Profile{ID: clientID, Active: true}}
	srv := newReportServer(t, dir, nil)

	url := fmt.Sprintf("%s/reports?client=%s&range=2022-02-01T00:00:00Z,2022-02-28T00:00:00Z", srv.URL, clientID)

	resp, err := http.Get(url) //nolint:gosec,noctx // test server url
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestReports_DirectoryTimeoutIsGatewayTimeout(t *testing.T) {
	dir := &stubDirectory{err: fmt.Errorf("lookup: %w", berr.ErrRequestTimeout)}
	srv := newReportServer(t, dir, nil)

	url := fmt.Sprintf("%s/reports?client=%s&range=2022-02-01T00:00:00Z,2022-02-28T00:00:00Z", srv.URL, uuid.New())

	resp, err := http.Get(url) //nolint:gosec,noctx // test server url
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
