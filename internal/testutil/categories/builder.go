package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
)

// Builder provides a fluent interface for constructing test categories.
type Builder interface {
	// WithCategory adds a single category, typed by its known name.
	WithCategory(name CategoryName) Builder

	// WithTypedCategory adds a category with an explicit transaction type.
	WithTypedCategory(name CategoryName, t model.TransactionType) Builder

	// WithCategories adds multiple categories to the builder.
	WithCategories(names ...CategoryName) Builder

	// WithBasicCategories adds the minimal set of categories commonly used in tests.
	WithBasicCategories() Builder

	// WithExtendedCategories adds every well-known rental category.
	WithExtendedCategories() Builder

	// WithFixture adds categories from a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build creates the categories for the tenant carried by ctx.
	Build(ctx context.Context, svc *service.CategoryService) (Categories, error)

	// BuildMap creates categories and returns them keyed by name.
	BuildMap(ctx context.Context, svc *service.CategoryService) (CategoryMap, error)
}

// CategoryName is a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Common category names used across tests.
const (
	CategoryRent          CategoryName = "Rent"
	CategoryLateFees      CategoryName = "Late Fees"
	CategoryDeposits      CategoryName = "Security Deposits"
	CategoryParking       CategoryName = "Parking"
	CategoryRepairs       CategoryName = "Repairs"
	CategoryUtilities     CategoryName = "Utilities"
	CategoryInsurance     CategoryName = "Insurance"
	CategoryPropertyTax   CategoryName = "Property Tax"
	CategoryMortgage      CategoryName = "Mortgage Interest"
	CategoryManagement    CategoryName = "Property Management"
	CategoryLandscaping   CategoryName = "Landscaping"
	CategoryCleaning      CategoryName = "Cleaning"
	CategoryAdvertising   CategoryName = "Advertising"
	CategoryLegalServices CategoryName = "Legal & Professional"
)

// Test-specific category names.
const (
	CategoryTest1 CategoryName = "Test Category 1"
	CategoryTest2 CategoryName = "Test Category 2"
	CategoryTest3 CategoryName = "Test Category 3"
)

// incomeNames lists the well-known names that classify income. Every other
// name defaults to expense.
var incomeNames = map[CategoryName]bool{
	CategoryRent:     true,
	CategoryLateFees: true,
	CategoryDeposits: true,
	CategoryParking:  true,
}

// TypeOf returns the transaction type a category name is built with by default.
func TypeOf(name CategoryName) model.TransactionType {
	if incomeNames[name] {
		return model.TransactionIncome
	}
	return model.TransactionExpense
}

// Categories represents a collection of created test categories.
type Categories []model.Category

// Find returns the category with the given name, or nil if not found.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == name.String() {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given name, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat := c.Find(name)
	if cat == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *cat
}

// Names returns all category names as a slice of strings.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// OfType returns the categories classifying transactions of type t.
func (c Categories) OfType(t model.TransactionType) Categories {
	var out Categories
	for _, cat := range c {
		if cat.Type == t {
			out = append(out, cat)
		}
	}
	return out
}

// CategoryMap provides O(1) lookup for categories by name.
type CategoryMap map[CategoryName]model.Category

// Get returns the category for the given name and whether it was found.
func (m CategoryMap) Get(name CategoryName) (model.Category, bool) {
	cat, ok := m[name]
	return cat, ok
}

// MustGet returns the category for the given name or fails the test.
func (m CategoryMap) MustGet(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat, ok := m.Get(name)
	if !ok {
		t.Fatalf("category %q not found in test data", name)
	}
	return cat
}

type categoryBuilder struct {
	t          *testing.T
	categories map[CategoryName]model.TransactionType
	order      []CategoryName
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &categoryBuilder{
		t:          t,
		categories: make(map[CategoryName]model.TransactionType),
	}
}

func (b *categoryBuilder) WithCategory(name CategoryName) Builder {
	return b.WithTypedCategory(name, TypeOf(name))
}

func (b *categoryBuilder) WithTypedCategory(name CategoryName, t model.TransactionType) Builder {
	if _, ok := b.categories[name]; !ok {
		b.order = append(b.order, name)
	}
	b.categories[name] = t
	return b
}

func (b *categoryBuilder) WithCategories(names ...CategoryName) Builder {
	for _, name := range names {
		b.WithCategory(name)
	}
	return b
}

func (b *categoryBuilder) WithBasicCategories() Builder {
	return b.WithFixture(FixtureMinimal)
}

func (b *categoryBuilder) WithExtendedCategories() Builder {
	return b.WithFixture(FixtureComprehensive)
}

func (b *categoryBuilder) WithFixture(fixture Fixture) Builder {
	return b.WithCategories(fixture.Categories()...)
}

func (b *categoryBuilder) Build(ctx context.Context, svc *service.CategoryService) (Categories, error) {
	b.t.Helper()

	result := make(Categories, 0, len(b.order))
	for _, name := range b.order {
		created, err := svc.Create(ctx, service.OwnTenant, &model.Category{
			Name:        name.String(),
			Description: "Test description for " + name.String(),
			Type:        b.categories[name],
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
		result = append(result, *created)
	}
	return result, nil
}

func (b *categoryBuilder) BuildMap(ctx context.Context, svc *service.CategoryService) (CategoryMap, error) {
	categories, err := b.Build(ctx, svc)
	if err != nil {
		return nil, err
	}

	m := make(CategoryMap, len(categories))
	for _, cat := range categories {
		m[CategoryName(cat.Name)] = cat
	}
	return m, nil
}
