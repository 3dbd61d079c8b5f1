package storage

import (
	"context"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
)

// TransactionRepository adds transaction queries to the generic repository.
type TransactionRepository struct {
	*Repository[model.Transaction, *model.Transaction]
}

// NewTransactionRepository creates a transaction repository.
func NewTransactionRepository(s *SQLiteStorage) *TransactionRepository {
	return &TransactionRepository{Repository: NewRepository[model.Transaction](s, CollectionTransactions)}
}

// GetByProperty returns the transactions booked against a property.
func (r *TransactionRepository) GetByProperty(ctx context.Context, tenantID, propertyID string) ([]model.Transaction, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID))
}

// GetByCategory returns the tenant's transactions in a category.
func (r *TransactionRepository) GetByCategory(ctx context.Context, tenantID, categoryID string) ([]model.Transaction, error) {
	if err := ValidateID(categoryID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("categoryId", categoryID))
}

// GetByPropertyAndDateRange returns a property's transactions dated within [start, end].
func (r *TransactionRepository) GetByPropertyAndDateRange(ctx context.Context, tenantID, propertyID string, start, end time.Time) ([]model.Transaction, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID), DateRange("date", start, end))
}

// GetByExternalRef returns a property's transactions imported with ref.
func (r *TransactionRepository) GetByExternalRef(ctx context.Context, tenantID, propertyID, ref string) ([]model.Transaction, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	if err := validateString(ref, "ref"); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID), Eq("externalRef", ref))
}
