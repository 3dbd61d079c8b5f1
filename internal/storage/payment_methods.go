package storage

import (
	"context"

	"github.com/Veraticus/rentbook/internal/model"
)

// PaymentMethodRepository stores tenant payment methods alongside the shared defaults.
type PaymentMethodRepository struct {
	*SharedRepository[model.PaymentMethod, *model.PaymentMethod]
}

// NewPaymentMethodRepository creates a payment method repository.
func NewPaymentMethodRepository(s *SQLiteStorage) *PaymentMethodRepository {
	return &PaymentMethodRepository{SharedRepository: NewSharedRepository[model.PaymentMethod](s, CollectionPaymentMethods)}
}

// GetByName returns the payment method named name visible to tenantID, or nil.
func (r *PaymentMethodRepository) GetByName(ctx context.Context, tenantID, name string) (*model.PaymentMethod, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	found, err := r.Find(ctx, WithSystem(tenantID), Eq("name", name))
	if err != nil {
		return nil, err
	}
	return preferTenant(found, tenantID), nil
}
