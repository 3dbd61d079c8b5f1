package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// uncategorized labels transactions whose category cannot be resolved.
const uncategorized = "Uncategorized"

// SummaryService computes property financial summaries.
type SummaryService struct {
	properties   *storage.PropertyRepository
	payments     *storage.PaymentRepository
	transactions *storage.TransactionRepository
	resolve      resolver
}

// NewSummaryService creates a summary service.
func NewSummaryService(repos *storage.Repositories) *SummaryService {
	return &SummaryService{
		properties:   repos.Properties,
		payments:     repos.Payments,
		transactions: repos.Transactions,
		resolve:      resolver{repos: repos},
	}
}

// Export computes the summary of propertyID over [start, end] and hands it
// to w.
func (s *SummaryService) Export(ctx context.Context, w ReportWriter, propertyID string, start, end time.Time) (*Summary, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: report writer", storage.ErrNilParameter)
	}
	sum, err := s.PropertySummary(ctx, propertyID, start, end)
	if err != nil {
		return nil, err
	}
	if err := w.Write(ctx, sum); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return sum, nil
}

// PropertySummary totals a property's rent, income, and expenses dated within
// [start, end]. The reads are independent queries, so a summary taken while
// others write may mix states.
func (s *SummaryService) PropertySummary(ctx context.Context, propertyID string, start, end time.Time) (*Summary, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateID(propertyID); err != nil {
		return nil, err
	}
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", storage.ErrInvalidDateRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	prop, err := s.properties.GetByID(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, missingParent("property", propertyID)
	}

	var (
		payments []model.Payment
		txns     []model.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.payments.GetByPropertyAndDateRange(gctx, tenantID, propertyID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = s.transactions.GetByPropertyAndDateRange(gctx, tenantID, propertyID, start, end)
		if err != nil {
			return err
		}
		return s.resolve.populateTransactions(gctx, tenantID, txns, Includes{Category: true})
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load summary data: %w", err)
	}

	sum := &Summary{
		DateRange:     DateRange{Start: start, End: end},
		Property:      *prop,
		Income:        decimal.Zero,
		Expenses:      decimal.Zero,
		RentCollected: decimal.Zero,
		ByCategory:    make(map[string]CategorySummary),
		Transactions:  txns,
		Payments:      payments,
	}

	for _, p := range payments {
		sum.RentCollected = sum.RentCollected.Add(p.Amount)
	}

	for _, t := range txns {
		switch t.Type {
		case model.TransactionIncome:
			sum.Income = sum.Income.Add(t.Amount)
		case model.TransactionExpense:
			sum.Expenses = sum.Expenses.Add(t.Amount)
		}

		name := uncategorized
		if t.Category != nil {
			name = t.Category.Name
		}
		cs := sum.ByCategory[name]
		if cs.Amount.IsZero() && cs.Count == 0 {
			cs = CategorySummary{Name: name, Type: t.Type, Amount: decimal.Zero}
		}
		cs.Amount = cs.Amount.Add(t.Amount)
		cs.Count++
		sum.ByCategory[name] = cs
	}

	sum.Net = sum.RentCollected.Add(sum.Income).Sub(sum.Expenses)
	return sum, nil
}

// Categories returns the per-category totals, largest first.
func (s *Summary) Categories() []CategorySummary {
	out := make([]CategorySummary, 0, len(s.ByCategory))
	for _, cs := range s.ByCategory {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
