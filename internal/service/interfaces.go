// Package service implements the bookkeeping use cases on top of the repositories.
package service

import (
	"context"
	"io"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
)

// BlobStore persists attachment contents.
type BlobStore interface {
	Save(ctx context.Context, tenantID, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, tenantID, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, tenantID, key string) error
}

// ReportWriter renders a property summary somewhere.
type ReportWriter interface {
	Write(ctx context.Context, summary *Summary) error
}

// DateRange represents a time period with inclusive start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// CategorySummary contains aggregated statistics for a category.
type CategorySummary struct {
	Name   string
	Type   model.TransactionType
	Amount decimal.Decimal
	Count  int
}

// Summary is the financial picture of one property over a date range.
type Summary struct {
	DateRange     DateRange
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	RentCollected decimal.Decimal
	Net           decimal.Decimal
	Property      model.Property
	ByCategory    map[string]CategorySummary
	Transactions  []model.Transaction
	Payments      []model.Payment
}

// ImportOptions controls how statement drafts are booked against a property.
type ImportOptions struct {
	Progress          func(done, total int)
	PropertyID        string
	IncomeCategoryID  string
	ExpenseCategoryID string
	PaymentMethodID   string
}

// ImportResult reports what an import did.
type ImportResult struct {
	Created int
	Skipped int
}
