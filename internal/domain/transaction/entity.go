package transaction

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultPage is the page used when the caller does not specify one
	DefaultPage = 1

	// DefaultPageSize is the page size used when the caller does not specify one
	DefaultPageSize = 50

	// MaxPageSize caps the number of records returned per page
	MaxPageSize = 100

	// AnonymousTenant partitions cache entries for callers without a tenant identifier
	AnonymousTenant = "anonymous"

	// AllCategories is the fingerprint segment used when no category filter is set
	AllCategories = "all"

	fingerprintPrefix = "transactions"
	fingerprintDate   = "20060102"
)

// Record represents a single transaction as reported by one upstream source.
// Records are immutable once a source has produced them.
type Record struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"` // Using decimal for financial precision
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Source   string          `json:"source"`
}

// InWindow reports whether the record date falls inside [from, to]
func (r Record) InWindow(from, to time.Time) bool {
	return !r.Date.Before(from) && !r.Date.After(to)
}

// Query describes a single paged, filtered read over the aggregated sources
type Query struct {
	From     time.Time
	To       time.Time
	Category string
	Page     int `validate:"min=1"`
	PageSize int `validate:"min=1,max=100"`
	Tenant   string
}

// NewQuery creates a query, applying the default page and page size for zero values
func NewQuery(from, to time.Time, category string, page, pageSize int, tenant string) Query {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return Query{
		From:     from,
		To:       to,
		Category: strings.TrimSpace(category),
		Page:     page,
		PageSize: pageSize,
		Tenant:   strings.TrimSpace(tenant),
	}
}

// HasCategory reports whether the query filters by category
func (q Query) HasCategory() bool {
	return strings.TrimSpace(q.Category) != ""
}

// Window returns the fetch window for the query: the start of the From day
// through the last instant of the To day, both in UTC.
func (q Query) Window() (time.Time, time.Time) {
	from := startOfDay(q.From)
	to := startOfDay(q.To).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}

// Fingerprint returns the cache key for the query. It is a pure function of
// tenant, date range, category, page and page size.
func (q Query) Fingerprint() string {
	tenant := q.Tenant
	if tenant == "" {
		tenant = AnonymousTenant
	}
	category := AllCategories
	if q.HasCategory() {
		category = strings.ToLower(strings.TrimSpace(q.Category))
	}
	return fmt.Sprintf("%s:%s:%s-%s:%s:%d:%d",
		fingerprintPrefix,
		tenant,
		q.From.UTC().Format(fingerprintDate),
		q.To.UTC().Format(fingerprintDate),
		category,
		q.Page,
		q.PageSize,
	)
}

// PagedResult is one page of the filtered, sorted record list
type PagedResult struct {
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	Items      []Record
}

// EmptyResult returns a zero-total page for the query
func EmptyResult(q Query) *PagedResult {
	return &PagedResult{
		Page:     q.Page,
		PageSize: q.PageSize,
		Items:    []Record{},
	}
}

// TotalPages returns ceil(total/pageSize), or 0 when there is nothing to page
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
