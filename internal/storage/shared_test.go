package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategory(tenantID, name string, t model.TransactionType) *model.Category {
	return &model.Category{Base: model.Base{TenantID: tenantID}, Name: name, Type: t}
}

func TestSharedRepository_GetAllShared(t *testing.T) {
	store := createTestStorage(t)
	repo := NewCategoryRepository(store)
	ctx := context.Background()

	for _, c := range []*model.Category{
		newCategory(model.SystemTenant, "Rent", model.TransactionIncome),
		newCategory("t1", "Parking", model.TransactionIncome),
		newCategory("t2", "Plumbing", model.TransactionExpense),
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	all, err := repo.GetAllShared(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	tenants := make([]string, 0, len(all))
	for _, c := range all {
		tenants = append(tenants, c.TenantID)
	}
	assert.ElementsMatch(t, []string{model.SystemTenant, "t1", "t2"}, tenants)
}

func TestSharedRepository_GetSharedByID(t *testing.T) {
	store := createTestStorage(t)
	repo := NewCategoryRepository(store)
	ctx := context.Background()

	system := newCategory(model.SystemTenant, "Repairs", model.TransactionExpense)
	private := newCategory("t1", "Laundry", model.TransactionIncome)
	for _, c := range []*model.Category{system, private} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	got, err := repo.GetSharedByID(ctx, system.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SystemTenant, got.TenantID)
	assert.Equal(t, "Repairs", got.Name)

	got, err = repo.GetSharedByID(ctx, private.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.TenantID)

	got, err = repo.GetSharedByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.GetSharedByID(ctx, "x")
	assert.ErrorIs(t, err, common.ErrInvalidID)
}

func TestSharedRepository_TenantOperationsStayScoped(t *testing.T) {
	store := createTestStorage(t)
	repo := NewCategoryRepository(store)
	ctx := context.Background()

	system := newCategory(model.SystemTenant, "Insurance", model.TransactionExpense)
	_, err := repo.Create(ctx, system)
	require.NoError(t, err)

	// A tenant cannot reach a system document through the tenant-scoped operations.
	got, err := repo.GetByID(ctx, "t1", system.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	edited := *system
	edited.TenantID = ""
	edited.Name = "Hijacked"
	assert.ErrorIs(t, repo.Update(ctx, "t1", system.ID, &edited), common.ErrConcurrencyConflict)

	require.NoError(t, repo.Delete(ctx, "t1", system.ID))
	got, err = repo.GetSharedByID(ctx, system.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Insurance", got.Name)
}
