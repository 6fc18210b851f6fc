package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"transaction-aggregator/internal/domain/transaction"
)

// TransactionResponse represents one transaction in API responses
type TransactionResponse struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Source   string          `json:"source"`
}

// TransactionListResponse represents one page of transactions
type TransactionListResponse struct {
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
	TotalPages   int                   `json:"totalPages"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// FromPagedResult maps a page to its response body
func FromPagedResult(result *transaction.PagedResult) TransactionListResponse {
	items := make([]TransactionResponse, len(result.Items))
	for i, r := range result.Items {
		items[i] = TransactionResponse{
			ID:       r.ID,
			Date:     r.Date.UTC(),
			Amount:   r.Amount,
			Currency: r.Currency,
			Category: r.Category,
			Source:   r.Source,
		}
	}
	return TransactionListResponse{
		Total:        result.Total,
		Page:         result.Page,
		PageSize:     result.PageSize,
		TotalPages:   result.TotalPages,
		Transactions: items,
	}
}
