package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_GetByType(t *testing.T) {
	store := createTestStorage(t)
	repo := NewCategoryRepository(store)
	ctx := context.Background()

	for _, c := range []*model.Category{
		newCategory(model.SystemTenant, "Rent", model.TransactionIncome),
		newCategory(model.SystemTenant, "Repairs", model.TransactionExpense),
		newCategory("t1", "Parking", model.TransactionIncome),
		newCategory("t2", "Storage", model.TransactionIncome),
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	income, err := repo.GetByType(ctx, "t1", model.TransactionIncome)
	require.NoError(t, err)

	names := make([]string, 0, len(income))
	for _, c := range income {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Rent", "Parking"}, names)

	_, err = repo.GetByType(ctx, "t1", "transfer")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestCategoryRepository_GetByNamePrefersTenant(t *testing.T) {
	store := createTestStorage(t)
	repo := NewCategoryRepository(store)
	ctx := context.Background()

	system := newCategory(model.SystemTenant, "Utilities", model.TransactionExpense)
	_, err := repo.Create(ctx, system)
	require.NoError(t, err)

	got, err := repo.GetByName(ctx, "t1", "Utilities")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SystemTenant, got.TenantID)

	own := newCategory("t1", "Utilities", model.TransactionExpense)
	own.Description = "Water and power"
	_, err = repo.Create(ctx, own)
	require.NoError(t, err)

	got, err = repo.GetByName(ctx, "t1", "Utilities")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, own.ID, got.ID)

	missing, err := repo.GetByName(ctx, "t1", "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPaymentMethodRepository_GetByName(t *testing.T) {
	store := createTestStorage(t)
	repo := NewPaymentMethodRepository(store)
	ctx := context.Background()

	cash := &model.PaymentMethod{Base: model.Base{TenantID: model.SystemTenant}, Name: "Cash", Kind: model.MethodCash}
	venmo := &model.PaymentMethod{Base: model.Base{TenantID: "t2"}, Name: "Venmo", Kind: model.MethodOther}
	for _, m := range []*model.PaymentMethod{cash, venmo} {
		_, err := repo.Create(ctx, m)
		require.NoError(t, err)
	}

	got, err := repo.GetByName(ctx, "t1", "Cash")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cash.ID, got.ID)

	got, err = repo.GetByName(ctx, "t1", "Venmo")
	require.NoError(t, err)
	assert.Nil(t, got, "another tenant's payment method is not visible")
}
