package sources

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"transaction-aggregator/internal/domain/transaction"
)

// DefaultCategories are assigned to generated records
var DefaultCategories = []string{"Groceries", "Travel", "Utilities", "Dining", "Entertainment", "Salary"}

// MockBankConfig configures a simulated bank
type MockBankConfig struct {
	Name          string
	Currency      string
	RecordsPerDay int
	// FailureRate is the probability in [0,1] that a call fails transiently
	FailureRate float64
	// Latency is the simulated response time of every call
	Latency    time.Duration
	Seed       uint64
	Categories []string
}

// MockBank generates deterministic records for a window. The same seed and
// day always yield the same records, so repeated fetches are consistent.
type MockBank struct {
	cfg MockBankConfig

	mu       sync.Mutex
	failures *rand.Rand
}

// NewMockBank creates a simulated bank source
func NewMockBank(cfg MockBankConfig) *MockBank {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.RecordsPerDay < 0 {
		cfg.RecordsPerDay = 0
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	return &MockBank{
		cfg:      cfg,
		failures: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Name returns the bank name
func (b *MockBank) Name() string {
	return b.cfg.Name
}

// Fetch waits for the configured latency, fails transiently at the configured
// rate, and otherwise returns the generated records dated inside [from, to].
func (b *MockBank) Fetch(ctx context.Context, from, to time.Time) ([]transaction.Record, error) {
	if b.cfg.Latency > 0 {
		timer := time.NewTimer(b.cfg.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if b.shouldFail() {
		return nil, transaction.NewTransientError(b.cfg.Name, fmt.Errorf("simulated upstream failure"))
	}

	var records []transaction.Record
	for day := startOfDay(from); !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, r := range b.generateDay(day) {
			if r.InWindow(from, to) {
				records = append(records, r)
			}
		}
	}
	if records == nil {
		records = []transaction.Record{}
	}
	return records, nil
}

func (b *MockBank) shouldFail() bool {
	if b.cfg.FailureRate <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures.Float64() < b.cfg.FailureRate
}

func (b *MockBank) generateDay(day time.Time) []transaction.Record {
	dayKey := uint64(day.Unix() / 86400)
	rng := rand.New(rand.NewPCG(b.cfg.Seed, dayKey))

	records := make([]transaction.Record, b.cfg.RecordsPerDay)
	for i := range records {
		offset := time.Duration(rng.Int64N(int64(24 * time.Hour)))
		cents := rng.Int64N(500_00) + 1
		if rng.IntN(10) == 0 {
			cents = -cents
		}
		records[i] = transaction.Record{
			ID:       fmt.Sprintf("%s-%s-%03d", b.cfg.Name, day.Format("20060102"), i),
			Date:     day.Add(offset),
			Amount:   decimal.New(cents, -2),
			Currency: b.cfg.Currency,
			Category: b.cfg.Categories[rng.IntN(len(b.cfg.Categories))],
			Source:   b.cfg.Name,
		}
	}
	return records
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
