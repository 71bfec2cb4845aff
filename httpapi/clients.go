package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/next-trace/scg-banking-services/client"
	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

// ClientAPI serves the client service's HTTP surface. Its GET-by-id route is
// what the HTTP-backed Directory consumes.
type ClientAPI struct {
	clients *client.Service
	logger  *slog.Logger
}

func NewClientAPI(clients *client.Service, logger *slog.Logger) *ClientAPI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &ClientAPI{clients: clients, logger: logger}
}

func (c *ClientAPI) Register(r *mux.Router) {
	r.HandleFunc("/clients", c.list).Methods(http.MethodGet)
	r.HandleFunc("/clients", c.create).Methods(http.MethodPost)
	r.HandleFunc("/clients", c.deleteAll).Methods(http.MethodDelete)
	r.HandleFunc("/clients/{id}", c.get).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id}", c.update).Methods(http.MethodPut)
	r.HandleFunc("/clients/{id}", c.patch).Methods(http.MethodPatch)
	r.HandleFunc("/clients/{id}", c.delete).Methods(http.MethodDelete)
}

func (c *ClientAPI) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.clients.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profiles)
}

func (c *ClientAPI) create(w http.ResponseWriter, r *http.Request) {
	var in []client.Profile
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode clients: %w", berr.ErrBadInput))
		return
	}

	created, err := c.clients.Create(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (c *ClientAPI) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := c.clients.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (c *ClientAPI) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in client.Profile
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode client: %w", berr.ErrBadInput))
		return
	}

	updated, err := c.clients.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (c *ClientAPI) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in client.Patch
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, fmt.Errorf("decode client patch: %w", berr.ErrBadInput))
		return
	}

	updated, err := c.clients.Patch(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (c *ClientAPI) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := c.clients.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (c *ClientAPI) deleteAll(w http.ResponseWriter, r *http.Request) {
	if err := c.clients.DeleteAll(r.Context()); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
