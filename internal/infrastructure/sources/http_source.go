package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"transaction-aggregator/internal/domain/transaction"
)

const queryDateFormat = "2006-01-02"

// HTTPSourceConfig configures a remote bank API
type HTTPSourceConfig struct {
	Name    string
	BaseURL string
	// Path is appended to BaseURL; defaults to /transactions
	Path    string
	Timeout time.Duration
	Headers map[string]string
}

// HTTPSource fetches records from a remote JSON API:
//
//	GET {base}/transactions?from=YYYY-MM-DD&to=YYYY-MM-DD -> [Record...]
//
// Retries are the resilience wrapper's job, so resty's own retry is off.
type HTTPSource struct {
	name   string
	path   string
	client *resty.Client
}

// NewHTTPSource creates a remote source
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.Path == "" {
		cfg.Path = "/transactions"
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers).
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &HTTPSource{name: cfg.Name, path: cfg.Path, client: client}
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return s.name
}

// Fetch calls the remote API. Network errors, 429 and 5xx are transient;
// any other non-2xx status, a non-JSON body or an undecodable body is fatal.
func (s *HTTPSource) Fetch(ctx context.Context, from, to time.Time) ([]transaction.Record, error) {
	var records []transaction.Record
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from": from.UTC().Format(queryDateFormat),
			"to":   to.UTC().Format(queryDateFormat),
		}).
		SetResult(&records).
		Get(s.path)
	if err != nil {
		return nil, s.classify(err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return nil, transaction.NewTransientError(s.name, fmt.Errorf("upstream returned %d", status))
	case status < 200 || status >= 300:
		return nil, transaction.NewFatalError(s.name, fmt.Errorf("upstream returned %d", status))
	}

	// resty only decodes JSON content types into the result
	if status != http.StatusNoContent {
		if ct := resp.Header().Get("Content-Type"); !resty.IsJSONType(ct) {
			return nil, transaction.NewFatalError(s.name, fmt.Errorf("unexpected content type %q", ct))
		}
	}

	out := make([]transaction.Record, 0, len(records))
	for _, r := range records {
		if r.Source == "" {
			r.Source = s.name
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *HTTPSource) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transaction.NewTransientError(s.name, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return transaction.NewTransientError(s.name, err)
	}
	return transaction.NewFatalError(s.name, err)
}
