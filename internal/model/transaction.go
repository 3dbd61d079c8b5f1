package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether money came in or went out.
type TransactionType string

const (
	// TransactionIncome represents money received.
	TransactionIncome TransactionType = "income"
	// TransactionExpense represents money spent.
	TransactionExpense TransactionType = "expense"
)

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate rejects unknown transaction types.
func (t TransactionType) Validate() error {
	switch t {
	case TransactionIncome, TransactionExpense:
		return nil
	default:
		return invalid("unknown transaction type %q", t)
	}
}

// Transaction is an income or expense booked against a property.
type Transaction struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Base
	Category        *Category       `json:"-"`
	PaymentMethod   *PaymentMethod  `json:"-"`
	PropertyID      string          `json:"propertyId"`
	Type            TransactionType `json:"type"`
	CategoryID      string          `json:"categoryId"`
	PaymentMethodID string          `json:"paymentMethodId,omitempty"`
	Description     string          `json:"description,omitempty"`
	Currency        string          `json:"currency"`
	ExternalRef     string          `json:"externalRef,omitempty"`
	AttachmentIDs   []string        `json:"attachmentIds,omitempty"`
	Attachments     []Attachment    `json:"-"`
}

// Validate checks the client-supplied fields of a transaction.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.PropertyID) == "" {
		return invalid("transaction propertyId is required")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return invalid("transaction categoryId is required")
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return invalid("transaction amount must be positive")
	}
	if t.Date.IsZero() {
		return invalid("transaction date is required")
	}
	return ValidateCurrency(t.Currency)
}

// Signed returns the amount with expenses negated.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
