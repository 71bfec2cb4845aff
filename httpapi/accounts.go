package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/next-trace/scg-banking-services/account"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// AccountAPI serves the account service's HTTP surface.
type AccountAPI struct {
	accounts     *account.Service
	transactions *account.TransactionService
	logger       *slog.Logger
}

func NewAccountAPI(accounts *account.Service, transactions *account.TransactionService, logger *slog.Logger) *AccountAPI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &AccountAPI{accounts: accounts, transactions: transactions, logger: logger}
}

func (a *AccountAPI) Register(r *mux.Router) {
	r.HandleFunc("/accounts", a.listAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts", a.createAccounts).Methods(http.MethodPost)
	r.HandleFunc("/accounts", a.deleteAllAccounts).Methods(http.MethodDelete)
	r.HandleFunc("/accounts/{id}", a.getAccount).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}", a.updateAccount).Methods(http.MethodPut)
	r.HandleFunc("/accounts/{id}", a.patchAccount).Methods(http.MethodPatch)
	r.HandleFunc("/accounts/{id}", a.deleteAccount).Methods(http.MethodDelete)

	r.HandleFunc("/transactions", a.listTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions", a.createTransactions).Methods(http.MethodPost)
	r.HandleFunc("/transactions", a.deleteAllTransactions).Methods(http.MethodDelete)
	r.HandleFunc("/transactions/{id}", a.getTransaction).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id}", a.patchTransaction).Methods(http.MethodPatch)
	r.HandleFunc("/transactions/{id}", a.deleteTransaction).Methods(http.MethodDelete)
}

func (a *AccountAPI) listAccounts(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("client"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, fmt.Errorf("client id %q: %w", raw, berr.ErrBadInput))
			return
		}

		accounts, err := a.accounts.ListByClient(r.Context(), clientID)
		if err != nil {
			respondError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, accounts)

		return
	}

	accounts, err := a.accounts.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

func (a *AccountAPI) createAccounts(w http.ResponseWriter, r *http.Request) {
	var in []account.Account
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode accounts: %w", berr.ErrBadInput))
		return
	}

	created, err := a.accounts.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (a *AccountAPI) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	acc, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, acc)
}

func (a *AccountAPI) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in account.Account
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode account: %w", berr.ErrBadInput))
		return
	}

	updated, err := a.accounts.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (a *AccountAPI) patchAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in account.Patch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode account patch: %w", berr.ErrBadInput))
		return
	}

	updated, err := a.accounts.Patch(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (a *AccountAPI) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.accounts.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (a *AccountAPI) deleteAllAccounts(w http.ResponseWriter, r *http.Request) {
	if err := a.accounts.DeleteAll(r.Context()); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (a *AccountAPI) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.transactions.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

func (a *AccountAPI) createTransactions(w http.ResponseWriter, r *http.Request) {
	var in []account.Transaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode transactions: %w", berr.ErrBadInput))
		return
	}

	created, err := a.transactions.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (a *AccountAPI) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tx, err := a.transactions.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

func (a *AccountAPI) patchTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in account.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode transaction patch: %w", berr.ErrBadInput))
		return
	}

	updated, err := a.transactions.Patch(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (a *AccountAPI) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.transactions.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (a *AccountAPI) deleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	if err := a.transactions.DeleteAll(r.Context()); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]

	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, fmt.Errorf("id %q: %w", raw, berr.ErrBadInput))
		return uuid.Nil, false
	}

	return id, true
}
