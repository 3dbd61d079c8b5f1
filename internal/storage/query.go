package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
)

// Collection names.
const (
	CollectionProperties     = "properties"
	CollectionPayments       = "payments"
	CollectionTransactions   = "transactions"
	CollectionAttachments    = "attachments"
	CollectionCategories     = "categories"
	CollectionPaymentMethods = "payment_methods"
)

var allCollections = []string{
	CollectionProperties,
	CollectionPayments,
	CollectionTransactions,
	CollectionAttachments,
	CollectionCategories,
	CollectionPaymentMethods,
}

// fieldPattern restricts JSON field paths to dotted identifiers. Field names
// are interpolated into SQL so the indexed expressions match.
var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(\.[A-Za-z][A-Za-z0-9]*)*$`)

func jsonPath(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

func numericPath(field string) string {
	return fmt.Sprintf("CAST(%s AS REAL)", jsonPath(field))
}

func foldedPath(field string) string {
	return fmt.Sprintf("lower(%s)", jsonPath(field))
}

func indexSuffix(field string) string {
	return strings.ToLower(strings.ReplaceAll(field, ".", "_"))
}

// Scope selects which tenants a query may see.
type Scope struct {
	tenantID      string
	includeSystem bool
	allTenants    bool
}

// ForTenant restricts a query to one tenant.
func ForTenant(tenantID string) Scope {
	return Scope{tenantID: tenantID}
}

// WithSystem restricts a query to one tenant plus the shared system tenant.
func WithSystem(tenantID string) Scope {
	return Scope{tenantID: tenantID, includeSystem: true}
}

// anyTenant is only available to the shared repository.
func anyTenant() Scope {
	return Scope{allTenants: true}
}

func (s Scope) clause() (string, []any, error) {
	if s.allTenants {
		return "1 = 1", nil, nil
	}
	if err := model.ValidateTenantID(s.tenantID); err != nil {
		return "", nil, err
	}
	if s.includeSystem && s.tenantID != model.SystemTenant {
		return "tenant_id IN (?, ?)", []any{s.tenantID, model.SystemTenant}, nil
	}
	return "tenant_id = ?", []any{s.tenantID}, nil
}

// Condition is a server-side filter applied on top of the tenant scope.
type Condition struct {
	err    error
	clause string
	args   []any
}

func checkField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Condition {
	if err := checkField(field); err != nil {
		return Condition{err: err}
	}
	return Condition{clause: jsonPath(field) + " = ?", args: []any{value}}
}

// Between matches numeric fields within the inclusive range.
func Between(field string, minValue, maxValue decimal.Decimal) Condition {
	if err := checkField(field); err != nil {
		return Condition{err: err}
	}
	return Condition{
		clause: numericPath(field) + " BETWEEN ? AND ?",
		args:   []any{minValue.InexactFloat64(), maxValue.InexactFloat64()},
	}
}

// DateRange matches RFC 3339 date fields within the inclusive range.
func DateRange(field string, start, end time.Time) Condition {
	if err := checkField(field); err != nil {
		return Condition{err: err}
	}
	if end.Before(start) {
		return Condition{err: fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)}
	}
	return Condition{
		clause: fmt.Sprintf("julianday(%s) BETWEEN julianday(?) AND julianday(?)", jsonPath(field)),
		args:   []any{start.UTC().Format(time.RFC3339Nano), end.UTC().Format(time.RFC3339Nano)},
	}
}

// Contains matches documents where any of fields contains text, ignoring
// ASCII case. Other letters match only as written, the same way SQLite's
// lower() treats the stored side.
func Contains(text string, fields ...string) Condition {
	if len(fields) == 0 {
		return Condition{err: fmt.Errorf("%w: no fields to search", ErrInvalidField)}
	}
	pattern := "%" + escapeLike(foldASCII(strings.TrimSpace(text))) + "%"

	parts := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return Condition{err: err}
		}
		parts = append(parts, foldedPath(f)+` LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	return Condition{clause: "(" + strings.Join(parts, " OR ") + ")", args: args}
}

// IDIn matches documents whose id is one of ids.
func IDIn(ids []string) Condition {
	if err := validateIDs(ids); err != nil {
		return Condition{err: err}
	}
	if len(ids) == 0 {
		return Condition{clause: "0 = 1"}
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return Condition{
		clause: "id IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")",
		args:   args,
	}
}

// foldASCII lowercases A-Z only, matching SQLite's built-in lower().
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildWhere joins the scope and conditions into one WHERE clause.
func buildWhere(scope Scope, conds []Condition) (string, []any, error) {
	clause, args, err := scope.clause()
	if err != nil {
		return "", nil, err
	}
	parts := []string{clause}
	for _, c := range conds {
		if c.err != nil {
			return "", nil, c.err
		}
		if c.clause == "" {
			continue
		}
		parts = append(parts, c.clause)
		args = append(args, c.args...)
	}
	return strings.Join(parts, " AND "), args, nil
}
