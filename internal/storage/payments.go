package storage

import (
	"context"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
)

// PaymentRepository adds payment queries to the generic repository.
type PaymentRepository struct {
	*Repository[model.Payment, *model.Payment]
}

// NewPaymentRepository creates a payment repository.
func NewPaymentRepository(s *SQLiteStorage) *PaymentRepository {
	return &PaymentRepository{Repository: NewRepository[model.Payment](s, CollectionPayments)}
}

// GetByProperty returns the payments recorded for a property.
func (r *PaymentRepository) GetByProperty(ctx context.Context, tenantID, propertyID string) ([]model.Payment, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID))
}

// GetByPropertyAndDateRange returns a property's payments dated within [start, end].
func (r *PaymentRepository) GetByPropertyAndDateRange(ctx context.Context, tenantID, propertyID string, start, end time.Time) ([]model.Payment, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID), DateRange("date", start, end))
}
