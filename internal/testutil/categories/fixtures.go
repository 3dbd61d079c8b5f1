package categories

// Fixture represents a predefined set of categories for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Description returns a detailed description of the fixture's purpose.
	Description() string

	// Categories returns the category names included in this fixture.
	Categories() []CategoryName
}

type fixture struct {
	name        string
	description string
	categories  []CategoryName
}

func (f *fixture) Name() string               { return f.name }
func (f *fixture) Description() string        { return f.description }
func (f *fixture) Categories() []CategoryName { return f.categories }

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal provides one income and a few expense categories.
	FixtureMinimal = &fixture{
		name:        "Minimal",
		description: "Rent plus the everyday expense categories",
		categories: []CategoryName{
			CategoryRent,
			CategoryRepairs,
			CategoryUtilities,
			CategoryInsurance,
		},
	}

	// FixtureStandard covers the categories a typical landlord books.
	FixtureStandard = &fixture{
		name:        "Standard",
		description: "Standard category set covering common rental income and expenses",
		categories: []CategoryName{
			CategoryRent,
			CategoryLateFees,
			CategoryRepairs,
			CategoryUtilities,
			CategoryInsurance,
			CategoryPropertyTax,
			CategoryManagement,
		},
	}

	// FixtureComprehensive provides every well-known category.
	FixtureComprehensive = &fixture{
		name:        "Comprehensive",
		description: "Comprehensive category set for integration and summary tests",
		categories: []CategoryName{
			CategoryRent,
			CategoryLateFees,
			CategoryDeposits,
			CategoryParking,
			CategoryRepairs,
			CategoryUtilities,
			CategoryInsurance,
			CategoryPropertyTax,
			CategoryMortgage,
			CategoryManagement,
			CategoryLandscaping,
			CategoryCleaning,
			CategoryAdvertising,
			CategoryLegalServices,
		},
	}

	// FixtureTestingOnly provides generic expense categories for edge cases.
	FixtureTestingOnly = &fixture{
		name:        "TestingOnly",
		description: "Generic categories for testing state transitions and edge cases",
		categories: []CategoryName{
			CategoryTest1,
			CategoryTest2,
			CategoryTest3,
		},
	}
)

// FixtureRegistry provides access to all available fixtures.
type FixtureRegistry struct {
	fixtures map[string]Fixture
}

// NewFixtureRegistry creates a registry with all predefined fixtures.
func NewFixtureRegistry() *FixtureRegistry {
	registry := &FixtureRegistry{
		fixtures: make(map[string]Fixture),
	}

	registry.Register(FixtureMinimal)
	registry.Register(FixtureStandard)
	registry.Register(FixtureComprehensive)
	registry.Register(FixtureTestingOnly)

	return registry
}

// Register adds a fixture to the registry.
func (r *FixtureRegistry) Register(f Fixture) {
	r.fixtures[f.Name()] = f
}

// Get retrieves a fixture by name.
func (r *FixtureRegistry) Get(name string) (Fixture, bool) {
	f, ok := r.fixtures[name]
	return f, ok
}

// CompositeFixture combines multiple fixtures.
type CompositeFixture struct {
	name        string
	description string
	fixtures    []Fixture
}

// NewCompositeFixture creates a fixture that combines multiple fixtures.
func NewCompositeFixture(name, description string, fixtures ...Fixture) Fixture {
	return &CompositeFixture{
		name:        name,
		description: description,
		fixtures:    fixtures,
	}
}

func (c *CompositeFixture) Name() string        { return c.name }
func (c *CompositeFixture) Description() string { return c.description }

func (c *CompositeFixture) Categories() []CategoryName {
	seen := make(map[CategoryName]struct{})
	var categories []CategoryName

	for _, f := range c.fixtures {
		for _, cat := range f.Categories() {
			if _, exists := seen[cat]; !exists {
				seen[cat] = struct{}{}
				categories = append(categories, cat)
			}
		}
	}

	return categories
}
