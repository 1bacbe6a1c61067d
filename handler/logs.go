package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider"
)

const (
	defaultRecentLimit  = 50
	maxRecentLimit      = 500
	defaultFailureHours = 24
	maxFailureHours     = 168
)

// RecentReader lists the latest journaled calls
type RecentReader interface {
	Recent(ctx context.Context, limit int) ([]provider.CallRecord, error)
}

// TransactionReader lists the journaled calls of one transaction
type TransactionReader interface {
	TransactionCalls(ctx context.Context, transID string) ([]provider.CallRecord, error)
}

// FailureReader lists failed calls of a time window
type FailureReader interface {
	RecentFailures(ctx context.Context, hours int) ([]provider.CallRecord, error)
}

// StatsReader summarizes the journal
type StatsReader interface {
	GetStats(ctx context.Context) (map[string]any, error)
}

// JournalHandler serves read queries over the call journal. Each query is
// available only when the configured journal supports it.
type JournalHandler struct {
	journal provider.CallJournal
}

// NewJournalHandler creates a journal handler. journal may be nil.
func NewJournalHandler(journal provider.CallJournal) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// ListCalls returns the latest calls, ?limit caps the count
func (h *JournalHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.journal.(RecentReader)
	if !ok {
		response.Error(w, http.StatusNotImplemented, "Journal does not support listing calls", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	limit := queryInt(r, "limit", defaultRecentLimit, maxRecentLimit)
	records, err := reader.Recent(ctx, limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read journal", err)
		return
	}

	response.Success(w, http.StatusOK, "Calls retrieved", map[string]any{
		"limit": limit,
		"count": len(records),
		"calls": records,
	})
}

// GetTransactionCalls returns every journaled call for one transaction
func (h *JournalHandler) GetTransactionCalls(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.journal.(TransactionReader)
	if !ok {
		response.Error(w, http.StatusNotImplemented, "Journal does not support transaction lookups", nil)
		return
	}

	transID := chi.URLParam(r, "transID")
	if transID == "" {
		response.Error(w, http.StatusBadRequest, "Missing transaction ID", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	records, err := reader.TransactionCalls(ctx, transID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read journal", err)
		return
	}

	response.Success(w, http.StatusOK, "Calls retrieved", map[string]any{
		"transaction_id": transID,
		"count":          len(records),
		"calls":          records,
	})
}

// GetFailures returns connection and api errors of the last ?hours (max 7 days)
func (h *JournalHandler) GetFailures(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.journal.(FailureReader)
	if !ok {
		response.Error(w, http.StatusNotImplemented, "Journal does not support failure queries", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	hours := queryInt(r, "hours", defaultFailureHours, maxFailureHours)
	records, err := reader.RecentFailures(ctx, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to read journal", err)
		return
	}

	response.Success(w, http.StatusOK, "Failures retrieved", map[string]any{
		"hours": hours,
		"count": len(records),
		"calls": records,
	})
}

// GetStats returns journal statistics
func (h *JournalHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.journal.(StatsReader)
	if !ok {
		response.Error(w, http.StatusNotImplemented, "Journal does not support statistics", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	stats, err := reader.GetStats(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve journal statistics", err)
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved", stats)
}

// queryInt reads a positive integer query parameter, falling back to def when
// it is missing, malformed or above upper
func queryInt(r *http.Request, name string, def, upper int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= upper {
		return v
	}
	return def
}
