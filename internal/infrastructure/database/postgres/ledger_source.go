package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"transaction-aggregator/internal/domain/transaction"
)

// LedgerEntryModel is the database model for ledger transactions
type LedgerEntryModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookedAt  time.Time       `gorm:"index;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Category  string          `gorm:"type:varchar(50);index"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for ledger entries
func (LedgerEntryModel) TableName() string {
	return "ledger_transactions"
}

// LedgerSource reads transactions from the internal ledger database
type LedgerSource struct {
	name string
	db   *gorm.DB
}

// NewLedgerSource creates a source backed by the ledger table
func NewLedgerSource(name string, client *Client) *LedgerSource {
	return &LedgerSource{name: name, db: client.DB()}
}

// Name returns the source name
func (s *LedgerSource) Name() string {
	return s.name
}

// Fetch returns the ledger entries booked inside [from, to]
func (s *LedgerSource) Fetch(ctx context.Context, from, to time.Time) ([]transaction.Record, error) {
	var models []LedgerEntryModel
	if err := s.db.WithContext(ctx).
		Where("booked_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("booked_at DESC").
		Find(&models).Error; err != nil {
		return nil, classifyDBError(s.name, err)
	}

	records := make([]transaction.Record, len(models))
	for i := range models {
		records[i] = modelToRecord(&models[i], s.name)
	}
	return records, nil
}

// Migrate creates the ledger table if it does not exist
func (s *LedgerSource) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&LedgerEntryModel{})
}

func modelToRecord(m *LedgerEntryModel, source string) transaction.Record {
	return transaction.Record{
		ID:       m.ID.String(),
		Date:     m.BookedAt.UTC(),
		Amount:   m.Amount,
		Currency: m.Currency,
		Category: m.Category,
		Source:   source,
	}
}

// classifyDBError treats timeouts and dropped connections as transient
func classifyDBError(source string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return transaction.NewTransientError(source, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return transaction.NewTransientError(source, err)
	}
	return transaction.NewFatalError(source, err)
}
