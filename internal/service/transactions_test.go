package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/ofx"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/testutil"
	"github.com/Veraticus/rentbook/internal/testutil/categories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_Create(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	repairs := db.Categories.MustFind(t, categories.CategoryRepairs)

	when := time.Date(2024, 5, 3, 23, 0, 0, 0, time.FixedZone("MDT", -6*3600))
	created, err := db.Services.Transactions.Create(ctx, &model.Transaction{
		PropertyID:  prop.ID,
		Type:        model.TransactionExpense,
		CategoryID:  repairs.ID,
		Amount:      decimal.RequireFromString("245.10"),
		Currency:    "USD",
		Date:        when,
		Description: "Water heater",
		Category:    &model.Category{Name: "not persisted"},
	})
	require.NoError(t, err)

	assert.Equal(t, time.UTC, created.Date.Location())
	assert.Equal(t, 4, created.Date.Day())
	assert.Nil(t, created.Category)

	got, err := db.Services.Transactions.Get(ctx, created.ID, service.Includes{Category: true})
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Repairs", got.Category.Name)
}

func TestTransactionService_CategoryTypeMustMatch(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	rent := db.Categories.MustFind(t, categories.CategoryRent)

	_, err := db.Services.Transactions.Create(ctx, &model.Transaction{
		PropertyID: prop.ID,
		Type:       model.TransactionExpense,
		CategoryID: rent.ID,
		Amount:     decimal.NewFromInt(10),
		Currency:   "USD",
		Date:       time.Now(),
	})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "Rent")
}

func TestTransactionService_MissingReferences(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	repairs := db.Categories.MustFind(t, categories.CategoryRepairs)

	base := model.Transaction{
		PropertyID: prop.ID,
		Type:       model.TransactionExpense,
		CategoryID: repairs.ID,
		Amount:     decimal.NewFromInt(10),
		Currency:   "USD",
		Date:       time.Now(),
	}

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "property", mutate: func(tx *model.Transaction) { tx.PropertyID = uuid.NewString() }},
		{name: "category", mutate: func(tx *model.Transaction) { tx.CategoryID = uuid.NewString() }},
		{name: "payment method", mutate: func(tx *model.Transaction) { tx.PaymentMethodID = uuid.NewString() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base
			tt.mutate(&tx)
			_, err := db.Services.Transactions.Create(ctx, &tx)
			require.ErrorIs(t, err, common.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestTransactionService_OtherTenantsCategoryIsInvisible(t *testing.T) {
	db, _ := setup(t)
	rent := db.Categories.MustFind(t, categories.CategoryRent)

	ctxB := testutil.TenantContext(tenantB)
	prop := db.MustCreateProperty(ctxB, "Pine", "Reno", 700)
	_, err := db.Services.Transactions.Create(ctxB, &model.Transaction{
		PropertyID: prop.ID,
		Type:       model.TransactionIncome,
		CategoryID: rent.ID,
		Amount:     decimal.NewFromInt(700),
		Currency:   "USD",
		Date:       time.Now(),
	})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestTransactionService_Lists(t *testing.T) {
	db, ctx := setup(t)
	elm := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	oak := db.MustCreateProperty(ctx, "Oak", "Denver", 900)

	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	db.MustCreateTransaction(ctx, elm.ID, categories.CategoryRepairs, "100", jan)
	db.MustCreateTransaction(ctx, elm.ID, categories.CategoryUtilities, "60", feb)
	db.MustCreateTransaction(ctx, oak.ID, categories.CategoryRepairs, "300", feb)

	all, err := db.Services.Transactions.List(ctx, service.Includes{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byProp, err := db.Services.Transactions.ListByProperty(ctx, elm.ID, service.Includes{})
	require.NoError(t, err)
	assert.Len(t, byProp, 2)

	byCat, err := db.Services.Transactions.ListByCategory(ctx, db.MustGetCategory(categories.CategoryRepairs), service.Includes{Category: true})
	require.NoError(t, err)
	require.Len(t, byCat, 2)
	for _, tx := range byCat {
		require.NotNil(t, tx.Category)
		assert.Equal(t, "Repairs", tx.Category.Name)
	}

	febOnly, err := db.Services.Transactions.ListByDateRange(ctx, elm.ID, feb, feb, service.Includes{})
	require.NoError(t, err)
	require.Len(t, febOnly, 1)
	assert.True(t, febOnly[0].Amount.Equal(decimal.NewFromInt(60)))
}

func TestTransactionService_Update(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	tx := db.MustCreateTransaction(ctx, prop.ID, categories.CategoryRepairs, "100", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	edit := *tx
	edit.CategoryID = db.MustGetCategory(categories.CategoryUtilities)
	edit.Amount = decimal.NewFromInt(80)
	updated, err := db.Services.Transactions.Update(ctx, tx.ID, &edit)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// Switching type without a matching category is rejected.
	edit = *updated
	edit.Type = model.TransactionIncome
	_, err = db.Services.Transactions.Update(ctx, tx.ID, &edit)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	// A second writer still holding version 1 loses.
	stale := *tx
	stale.Amount = decimal.NewFromInt(1)
	_, err = db.Services.Transactions.Update(ctx, tx.ID, &stale)
	require.ErrorIs(t, err, common.ErrConcurrencyConflict)

	require.NoError(t, db.Services.Transactions.Delete(ctx, tx.ID))
}

func statementDrafts() []ofx.Draft {
	return []ofx.Draft{
		{Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(1000), Type: model.TransactionIncome, Description: "RENT JUNE", ExternalRef: "fit-1", Currency: "USD"},
		{Date: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("89.99"), Type: model.TransactionExpense, Description: "HARDWARE", ExternalRef: "fit-2", Currency: "USD"},
		{Date: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("42.00"), Type: model.TransactionExpense, Description: "WATER", Currency: "USD"},
	}
}

func importOptions(db *testutil.TestDB, propertyID string) service.ImportOptions {
	return service.ImportOptions{
		PropertyID:        propertyID,
		IncomeCategoryID:  db.MustGetCategory(categories.CategoryRent),
		ExpenseCategoryID: db.MustGetCategory(categories.CategoryRepairs),
	}
}

func TestTransactionService_Import(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)

	var progress [][2]int
	opts := importOptions(db, prop.ID)
	opts.Progress = func(done, total int) { progress = append(progress, [2]int{done, total}) }

	result, err := db.Services.Transactions.Import(ctx, statementDrafts(), opts)
	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{Created: 3}, result)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	txns, err := db.Services.Transactions.ListByProperty(ctx, prop.ID, service.Includes{Category: true})
	require.NoError(t, err)
	require.Len(t, txns, 3)
	refs := map[string]model.TransactionType{}
	for _, tx := range txns {
		refs[tx.ExternalRef] = tx.Type
		require.NotNil(t, tx.Category)
		assert.Equal(t, tx.Type, tx.Category.Type)
	}
	assert.Equal(t, model.TransactionIncome, refs["fit-1"])
	assert.Equal(t, model.TransactionExpense, refs["fit-2"])

	// Re-importing the same statement creates nothing.
	again, err := db.Services.Transactions.Import(ctx, statementDrafts(), importOptions(db, prop.ID))
	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{Skipped: 3}, again)
}

func TestTransactionService_ImportDuplicatesWithinStatement(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)

	drafts := statementDrafts()
	drafts = append(drafts, drafts[0])

	result, err := db.Services.Transactions.Import(ctx, drafts, importOptions(db, prop.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestTransactionService_ImportRejectsBadOptions(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)

	swapped := importOptions(db, prop.ID)
	swapped.IncomeCategoryID, swapped.ExpenseCategoryID = swapped.ExpenseCategoryID, swapped.IncomeCategoryID
	_, err := db.Services.Transactions.Import(ctx, statementDrafts(), swapped)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	missing := importOptions(db, prop.ID)
	missing.ExpenseCategoryID = ""
	_, err = db.Services.Transactions.Import(ctx, statementDrafts(), missing)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = db.Services.Transactions.Import(ctx, statementDrafts(), importOptions(db, uuid.NewString()))
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	txns, err := db.Services.Transactions.List(ctx, service.Includes{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestTransactionService_ImportCanceled(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)

	canceled, cancel := context.WithCancel(ctx)
	opts := importOptions(db, prop.ID)
	opts.Progress = func(done, _ int) {
		if done == 1 {
			cancel()
		}
	}

	result, err := db.Services.Transactions.Import(canceled, statementDrafts(), opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Created)
}
