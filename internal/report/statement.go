// Package report renders property summaries as statements.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/shopspring/decimal"
)

// Line kinds.
const (
	KindRent    = "rent"
	KindIncome  = "income"
	KindExpense = "expense"
)

// Line is one dated entry of a statement.
type Line struct {
	Date        time.Time
	Amount      decimal.Decimal // signed: expenses are negative
	Kind        string
	Category    string
	Description string
	ID          string
}

// Statement is the printable form of a property summary.
type Statement struct {
	Start         time.Time
	End           time.Time
	RentCollected decimal.Decimal
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	Net           decimal.Decimal
	Title         string
	Property      string
	Address       string
	Currency      string
	Categories    []service.CategorySummary
	Lines         []Line
}

// Period renders the statement date range.
func (s *Statement) Period() string {
	return fmt.Sprintf("%s - %s", s.Start.Format("Jan 2, 2006"), s.End.Format("Jan 2, 2006"))
}

// Build converts a summary into a statement with lines in date order.
func Build(sum *service.Summary) (*Statement, error) {
	if sum == nil {
		return nil, fmt.Errorf("%w: summary", storage.ErrNilParameter)
	}

	st := &Statement{
		Title:         "Property Statement",
		Property:      sum.Property.Name,
		Address:       sum.Property.Address.String(),
		Currency:      sum.Property.Currency,
		Start:         sum.DateRange.Start,
		End:           sum.DateRange.End,
		RentCollected: sum.RentCollected,
		Income:        sum.Income,
		Expenses:      sum.Expenses,
		Net:           sum.Net,
		Categories:    sum.Categories(),
		Lines:         make([]Line, 0, len(sum.Payments)+len(sum.Transactions)),
	}

	for _, p := range sum.Payments {
		desc := strings.TrimSpace(p.Reference)
		if desc == "" {
			desc = "Rent payment"
		}
		st.Lines = append(st.Lines, Line{
			Date:        p.Date,
			Amount:      p.Amount,
			Kind:        KindRent,
			Description: desc,
			ID:          p.ID,
		})
	}

	for i := range sum.Transactions {
		t := &sum.Transactions[i]
		kind := KindIncome
		if t.Type == model.TransactionExpense {
			kind = KindExpense
		}
		category := "Uncategorized"
		if t.Category != nil {
			category = t.Category.Name
		}
		st.Lines = append(st.Lines, Line{
			Date:        t.Date,
			Amount:      t.Signed(),
			Kind:        kind,
			Category:    category,
			Description: t.Description,
			ID:          t.ID,
		})
	}

	sort.SliceStable(st.Lines, func(i, j int) bool {
		return st.Lines[i].Date.Before(st.Lines[j].Date)
	})

	return st, nil
}

// FormatMoney renders d with two decimals and thousands separators.
func FormatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i := 0; i < len(whole); i++ {
		b.WriteByte(whole[i])
		if rem := len(whole) - i - 1; rem > 0 && rem%3 == 0 {
			b.WriteByte(',')
		}
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
