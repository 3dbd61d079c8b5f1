package service

import (
	"context"
	"fmt"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
)

// DefaultCategories are the shared categories seeded into the system tenant.
var DefaultCategories = []model.Category{
	{Name: "Rent", Type: model.TransactionIncome, Description: "Rent received from occupants"},
	{Name: "Late Fees", Type: model.TransactionIncome, Description: "Penalties for late rent"},
	{Name: "Deposits", Type: model.TransactionIncome, Description: "Security deposits received"},
	{Name: "Other Income", Type: model.TransactionIncome},
	{Name: "Mortgage Interest", Type: model.TransactionExpense},
	{Name: "Property Tax", Type: model.TransactionExpense},
	{Name: "Insurance", Type: model.TransactionExpense},
	{Name: "Repairs", Type: model.TransactionExpense, Description: "Repairs and maintenance"},
	{Name: "Utilities", Type: model.TransactionExpense},
	{Name: "HOA Fees", Type: model.TransactionExpense},
	{Name: "Management Fees", Type: model.TransactionExpense},
	{Name: "Supplies", Type: model.TransactionExpense},
}

// CategoryService manages transaction categories.
type CategoryService struct {
	catalog[model.Category, *model.Category]
	categories   *storage.CategoryRepository
	transactions *storage.TransactionRepository
}

// NewCategoryService creates a category service.
func NewCategoryService(repos *storage.Repositories) *CategoryService {
	return &CategoryService{
		catalog: catalog[model.Category, *model.Category]{
			repo: repos.Categories.SharedRepository,
			kind: "category",
			merge: func(stored, in *model.Category) {
				stored.Name = in.Name
				stored.Description = in.Description
				stored.Type = in.Type
			},
			name: func(c *model.Category) string { return c.Name },
		},
		categories:   repos.Categories,
		transactions: repos.Transactions,
	}
}

// Create adds a category for owner.
func (s *CategoryService) Create(ctx context.Context, owner Owner, c *model.Category) (*model.Category, error) {
	return s.create(ctx, owner, c)
}

// Get returns a category the caller can see, or nil.
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	return s.get(ctx, id)
}

// List returns the caller's categories, plus the system defaults when includeSystem is set.
func (s *CategoryService) List(ctx context.Context, includeSystem bool) ([]model.Category, error) {
	return s.list(ctx, includeSystem)
}

// ListAll returns every tenant's categories. Admin only.
func (s *CategoryService) ListAll(ctx context.Context) ([]model.Category, error) {
	return s.listAll(ctx)
}

// ByType returns the categories of one type visible to the caller.
func (s *CategoryService) ByType(ctx context.Context, t model.TransactionType) ([]model.Category, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.GetByType(ctx, tenantID, t)
}

// ByName returns the category called name, preferring the caller's own.
func (s *CategoryService) ByName(ctx context.Context, name string) (*model.Category, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.categories.GetByName(ctx, tenantID, name)
}

// Update edits a category of owner. The type of a category that
// transactions already use cannot change.
func (s *CategoryService) Update(ctx context.Context, owner Owner, id string, in *model.Category) (*model.Category, error) {
	if owner == OwnTenant && in != nil {
		tenantID, err := tenantOf(ctx)
		if err != nil {
			return nil, err
		}
		stored, err := s.categories.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if stored != nil && stored.Type != in.Type {
			if err := s.ensureUnused(ctx, tenantID, id); err != nil {
				return nil, err
			}
		}
	}
	return s.update(ctx, owner, id, in)
}

// Delete removes a category of owner. Tenant categories still used by
// transactions cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, owner Owner, id string) error {
	if owner == OwnTenant {
		tenantID, err := tenantOf(ctx)
		if err != nil {
			return err
		}
		if err := s.ensureUnused(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return s.delete(ctx, owner, id)
}

func (s *CategoryService) ensureUnused(ctx context.Context, tenantID, id string) error {
	used, err := s.transactions.GetByCategory(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if len(used) > 0 {
		return fmt.Errorf("%w: category %s is used by %d transactions", common.ErrInvalidArgument, id, len(used))
	}
	return nil
}

// SeedDefaults creates the missing DefaultCategories in the system tenant. Admin only.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	return s.seed(ctx, DefaultCategories, func(ctx context.Context, name string) (*model.Category, error) {
		return s.categories.GetByName(ctx, model.SystemTenant, name)
	})
}
