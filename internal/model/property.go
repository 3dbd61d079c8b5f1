package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PropertyStatus describes the occupancy state of a rental property.
type PropertyStatus string

// Property status constants.
const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyOccupied    PropertyStatus = "occupied"
	PropertyMaintenance PropertyStatus = "maintenance"
)

// Address is the postal address of a property.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// String renders the address on one line.
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Property is a rental unit owned by a tenant.
type Property struct {
	RentAmount decimal.Decimal `json:"rentAmount"`
	Base
	Address       Address        `json:"address"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Currency      string         `json:"currency"`
	Status        PropertyStatus `json:"status"`
	AttachmentIDs []string       `json:"attachmentIds,omitempty"`
	Bedrooms      int            `json:"bedrooms,omitempty"`
}

// Validate checks the client-editable fields of a property.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("property name is required")
	}
	if strings.TrimSpace(p.Address.City) == "" {
		return invalid("property city is required")
	}
	if p.RentAmount.IsNegative() {
		return invalid("rent amount cannot be negative")
	}
	if p.Bedrooms < 0 {
		return invalid("bedrooms cannot be negative")
	}
	if err := ValidateCurrency(p.Currency); err != nil {
		return err
	}
	switch p.Status {
	case PropertyAvailable, PropertyOccupied, PropertyMaintenance:
	default:
		return invalid("unknown property status %q", p.Status)
	}
	return nil
}

// ValidateCurrency checks for a three letter currency code.
func ValidateCurrency(code string) error {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return invalid("currency %q must be a three letter upper-case code", code)
	}
	return nil
}
