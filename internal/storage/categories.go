package storage

import (
	"context"

	"github.com/Veraticus/rentbook/internal/model"
)

// CategoryRepository stores tenant categories alongside the shared defaults.
type CategoryRepository struct {
	*SharedRepository[model.Category, *model.Category]
}

// NewCategoryRepository creates a category repository.
func NewCategoryRepository(s *SQLiteStorage) *CategoryRepository {
	return &CategoryRepository{SharedRepository: NewSharedRepository[model.Category](s, CollectionCategories)}
}

// GetByType returns the categories of one transaction type visible to tenantID.
func (r *CategoryRepository) GetByType(ctx context.Context, tenantID string, t model.TransactionType) ([]model.Category, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return r.Find(ctx, WithSystem(tenantID), Eq("type", string(t)))
}

// GetByName returns the category named name visible to tenantID, preferring
// the tenant's own over a system default. Returns nil when none exists.
func (r *CategoryRepository) GetByName(ctx context.Context, tenantID, name string) (*model.Category, error) {
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	found, err := r.Find(ctx, WithSystem(tenantID), Eq("name", name))
	if err != nil {
		return nil, err
	}
	return preferTenant(found, tenantID), nil
}

// preferTenant picks the tenant-owned document over a system-owned one.
func preferTenant[T any, P DocumentPtr[T]](docs []T, tenantID string) *T {
	var fallback *T
	for i := range docs {
		doc := &docs[i]
		if P(doc).Meta().TenantID == tenantID {
			return doc
		}
		if fallback == nil {
			fallback = doc
		}
	}
	return fallback
}
