package storage

import (
	"context"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
)

// PropertyRepository adds property queries to the generic repository.
type PropertyRepository struct {
	*Repository[model.Property, *model.Property]
}

// NewPropertyRepository creates a property repository.
func NewPropertyRepository(s *SQLiteStorage) *PropertyRepository {
	return &PropertyRepository{Repository: NewRepository[model.Property](s, CollectionProperties)}
}

// GetByCity returns the tenant's properties located in exactly city.
func (r *PropertyRepository) GetByCity(ctx context.Context, tenantID, city string) ([]model.Property, error) {
	if err := validateString(city, "city"); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("address.city", city))
}

// GetByRentRange returns properties with minRent <= rent <= maxRent.
func (r *PropertyRepository) GetByRentRange(ctx context.Context, tenantID string, minRent, maxRent decimal.Decimal) ([]model.Property, error) {
	if err := validateAmountRange(minRent, maxRent); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Between("rentAmount", minRent, maxRent))
}

// Search matches text against the name, street, city, and description.
func (r *PropertyRepository) Search(ctx context.Context, tenantID, text string) ([]model.Property, error) {
	if err := validateString(text, "text"); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID),
		Contains(text, "name", "address.street", "address.city", "description"))
}
