package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidArgument)
	ErrNilParameter     = fmt.Errorf("%w: parameter cannot be nil", common.ErrInvalidArgument)
	ErrInvalidRange     = fmt.Errorf("%w: invalid range", common.ErrInvalidArgument)
	ErrInvalidDateRange = fmt.Errorf("%w: start date must be before end date", common.ErrInvalidArgument)
	ErrInvalidField     = fmt.Errorf("%w: invalid query field", common.ErrInvalidArgument)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// ValidateID ensures id is a canonical UUID string.
func ValidateID(id string) error {
	if len(id) != 36 {
		return fmt.Errorf("%w: %q", common.ErrInvalidID, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", common.ErrInvalidID, id)
	}
	return nil
}

func validateIDs(ids []string) error {
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return err
		}
	}
	return nil
}

// validateAmountRange checks an inclusive, non-negative amount range.
func validateAmountRange(minAmount, maxAmount decimal.Decimal) error {
	if minAmount.IsNegative() || maxAmount.IsNegative() {
		return fmt.Errorf("%w: amounts cannot be negative (min %s, max %s)", ErrInvalidRange, minAmount, maxAmount)
	}
	if minAmount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: min %s is greater than max %s", ErrInvalidRange, minAmount, maxAmount)
	}
	return nil
}
