package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	berr "github.com/next-trace/scg-banking-services/contract/errors"
	"github.com/next-trace/scg-banking-services/statement"
)

// timestampLayouts accepted in the range parameter, tried in order.
var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// ReportAPI serves the statement report: a client id and a comma-separated
// ISO-8601 start/end pair. Malformed timestamps are a client error; any other
// failure maps through the error taxonomy, never a partial 200.
type ReportAPI struct {
	statements *statement.Aggregator
	logger     *slog.Logger
}

func NewReportAPI(statements *statement.Aggregator, logger *slog.Logger) *ReportAPI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &ReportAPI{statements: statements, logger: logger}
}

func (a *ReportAPI) Register(r *mux.Router) {
	r.HandleFunc("/reports", a.generate).Methods(http.MethodGet)
}

func (a *ReportAPI) generate(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(r.URL.Query().Get("client"))
	if err != nil {
		respondError(w, fmt.Errorf("client id: %w", berr.ErrBadInput))
		return
	}

	from, to, err := parseRange(r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := a.statements.Generate(r.Context(), clientID, from, to)
	if err != nil {
		a.logger.Error("statement generation failed", "client_id", clientID, "err", err)
		respondError(w, err)

		return
	}

	respondJSON(w, http.StatusOK, report)
}

func parseRange(raw string) (time.Time, time.Time, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("range %q: want start,end: %w", raw, berr.ErrBadInput)
	}

	from, err := parseTimestamp(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	to, err := parseTimestamp(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return from, to, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("timestamp %q: %w", raw, berr.ErrBadInput)
}
