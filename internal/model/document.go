// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
)

// SystemTenant is the reserved tenant that owns shared defaults visible to every tenant.
const SystemTenant = "system"

// Base carries the fields every persisted document shares.
type Base struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Version   int64     `json:"version"`
}

// Meta returns the document metadata.
func (b *Base) Meta() *Base {
	return b
}

// Document is implemented by every entity stored through a repository.
type Document interface {
	Meta() *Base
}

// IsSystemTenant reports whether tenantID is the reserved shared tenant.
func IsSystemTenant(tenantID string) bool {
	return tenantID == SystemTenant
}

// ValidateTenantID rejects empty or whitespace tenant ids.
func ValidateTenantID(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("%w: tenantID cannot be empty", common.ErrInvalidArgument)
	}
	if strings.TrimSpace(tenantID) != tenantID {
		return fmt.Errorf("%w: tenantID %q has surrounding whitespace", common.ErrInvalidArgument, tenantID)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
