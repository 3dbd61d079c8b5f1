package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a rent payment received for a property.
type Payment struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Base
	PaymentMethod   *PaymentMethod `json:"-"`
	PropertyID      string         `json:"propertyId"`
	Currency        string         `json:"currency"`
	PaymentMethodID string         `json:"paymentMethodId,omitempty"`
	Reference       string         `json:"reference,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	AttachmentIDs   []string       `json:"attachmentIds,omitempty"`
	Attachments     []Attachment   `json:"-"`
}

// Validate checks the client-supplied fields of a payment.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.PropertyID) == "" {
		return invalid("payment propertyId is required")
	}
	if !p.Amount.IsPositive() {
		return invalid("payment amount must be positive")
	}
	if p.Date.IsZero() {
		return invalid("payment date is required")
	}
	return ValidateCurrency(p.Currency)
}

// PaymentMethodKind groups payment methods.
type PaymentMethodKind string

// Payment method kinds.
const (
	MethodCash         PaymentMethodKind = "cash"
	MethodBankTransfer PaymentMethodKind = "bank_transfer"
	MethodCard         PaymentMethodKind = "card"
	MethodCheck        PaymentMethodKind = "check"
	MethodOther        PaymentMethodKind = "other"
)

// PaymentMethod is how money moved. System-owned methods are shared defaults.
type PaymentMethod struct {
	Base
	Name    string            `json:"name"`
	Kind    PaymentMethodKind `json:"kind"`
	Details string            `json:"details,omitempty"`
}

// Validate checks the payment method fields.
func (m *PaymentMethod) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return invalid("payment method name is required")
	}
	switch m.Kind {
	case MethodCash, MethodBankTransfer, MethodCard, MethodCheck, MethodOther:
		return nil
	default:
		return invalid("unknown payment method kind %q", m.Kind)
	}
}
