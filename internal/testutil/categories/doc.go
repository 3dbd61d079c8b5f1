// Package categories seeds tenant categories for tests.
//
// The builder creates categories through the category service for the tenant
// carried by the context, so every seeded category went through the same
// validation as production writes:
//
//	db := testutil.SetupTestDBWithBuilder(t, "tenant-a", func(b categories.Builder) categories.Builder {
//		return b.WithBasicCategories().WithCategory(categories.CategoryLateFees)
//	})
//	rent := db.Categories.MustFind(t, categories.CategoryRent)
//
// Names in the income set (rent, late fees, deposits, parking) are created as
// income categories; every other name is an expense category unless added with
// WithTypedCategory.
package categories
