// Package httpapi exposes the REST surface of both services: CRUD routes for
// accounts, transactions and clients, and the statement report endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps the error taxonomy onto one unambiguous status class:
// not-found, bad-input or internal. Nothing here ever produces a partial 200.
func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, errorStatus(err), errorBody{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, berr.ErrNotFound),
		errors.Is(err, berr.ErrClientNotFound),
		errors.Is(err, berr.ErrNoAccountsFound):
		return http.StatusNotFound
	case errors.Is(err, berr.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, berr.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
