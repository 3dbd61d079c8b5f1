package model

import "strings"

// Category classifies transactions. System-owned categories are shared defaults.
type Category struct {
	Base
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        TransactionType `json:"type"`
}

// Validate checks the category fields.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("category name is required")
	}
	return c.Type.Validate()
}
