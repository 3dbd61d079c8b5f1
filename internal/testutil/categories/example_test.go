package categories_test

import (
	"fmt"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/testutil/categories"
)

func ExampleTypeOf() {
	fmt.Println(categories.TypeOf(categories.CategoryRent))
	fmt.Println(categories.TypeOf(categories.CategoryRepairs))
	// Output:
	// income
	// expense
}

func ExampleCategories_OfType() {
	cats := categories.Categories{
		{Name: "Rent", Type: model.TransactionIncome},
		{Name: "Repairs", Type: model.TransactionExpense},
		{Name: "Utilities", Type: model.TransactionExpense},
	}
	fmt.Println(cats.OfType(model.TransactionExpense).Names())
	// Output: [Repairs Utilities]
}
