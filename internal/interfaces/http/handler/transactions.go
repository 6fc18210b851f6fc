package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"transaction-aggregator/internal/application/dto"
	apptx "transaction-aggregator/internal/application/transaction"
	"transaction-aggregator/internal/domain/transaction"
	"transaction-aggregator/internal/infrastructure/resilience"
)

// TenantHeader identifies the caller for cache partitioning
const TenantHeader = "X-Tenant-ID"

// Pagination headers
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderPage       = "X-Page"
	HeaderPageSize   = "X-Page-Size"
	HeaderTotalPages = "X-Total-Pages"
)

const queryDateLayout = "2006-01-02"

// TransactionService is the application surface used by TransactionHandler
type TransactionService interface {
	Execute(ctx context.Context, input apptx.GetTransactionsInput) (*transaction.PagedResult, error)
	Invalidate(ctx context.Context, input apptx.GetTransactionsInput) error
	ClearCache(ctx context.Context) error
	Sources() []resilience.Status
}

// TransactionHandler handles transaction query HTTP requests
type TransactionHandler struct {
	service TransactionService
	logger  *zap.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service TransactionService, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{service: service, logger: logger}
}

// ListTransactions handles GET /api/v1/transactions
//
// A failure in every upstream source yields a 200 with an empty page; it is
// indistinguishable from a range with no matching transactions.
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.Execute(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set(HeaderTotalCount, strconv.Itoa(result.Total))
	w.Header().Set(HeaderPage, strconv.Itoa(result.Page))
	w.Header().Set(HeaderPageSize, strconv.Itoa(result.PageSize))
	w.Header().Set(HeaderTotalPages, strconv.Itoa(result.TotalPages))
	writeJSON(w, http.StatusOK, dto.FromPagedResult(result))
}

// InvalidateEntry handles DELETE /api/v1/transactions/cache/entry
func (h *TransactionHandler) InvalidateEntry(w http.ResponseWriter, r *http.Request) {
	input, err := parseInput(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.Invalidate(r.Context(), input); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCache handles DELETE /api/v1/transactions/cache
func (h *TransactionHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCache(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSources handles GET /api/v1/sources
func (h *TransactionHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": h.service.Sources(),
	})
}

func (h *TransactionHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrInvalidQuery):
		writeValidationError(w, err)
	case errors.Is(err, transaction.ErrClearUnsupported):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, transaction.ErrCacheWrite):
		h.logger.Error("Failed to cache transactions", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Failed to cache transactions")
	default:
		h.logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var vErr *transaction.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: vErr.Message, Field: vErr.Field})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// parseInput reads from, to, category, page and pageSize from the query
// string and the tenant from TenantHeader
func parseInput(r *http.Request) (apptx.GetTransactionsInput, error) {
	q := r.URL.Query()

	from, err := parseDate(q, "from")
	if err != nil {
		return apptx.GetTransactionsInput{}, err
	}
	to, err := parseDate(q, "to")
	if err != nil {
		return apptx.GetTransactionsInput{}, err
	}
	page, err := parseInt(q, "page")
	if err != nil {
		return apptx.GetTransactionsInput{}, err
	}
	pageSize, err := parseInt(q, "pageSize")
	if err != nil {
		return apptx.GetTransactionsInput{}, err
	}

	return apptx.GetTransactionsInput{
		From:     from,
		To:       to,
		Category: q.Get("category"),
		Page:     page,
		PageSize: pageSize,
		Tenant:   r.Header.Get(TenantHeader),
	}, nil
}

func parseDate(q url.Values, name string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return time.Time{}, &transaction.ValidationError{Field: name, Message: name + " is required"}
	}
	if t, err := time.Parse(queryDateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &transaction.ValidationError{
		Field:   name,
		Message: fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", name),
	}
}

func parseInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &transaction.ValidationError{Field: name, Message: name + " must be an integer"}
	}
	// zero means "use the default" downstream, so an explicit zero is rejected here
	if n < 1 {
		return 0, &transaction.ValidationError{Field: name, Message: name + " must be greater than or equal to 1"}
	}
	return n, nil
}
