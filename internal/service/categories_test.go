package service_test

import (
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/testutil"
	"github.com/Veraticus/rentbook/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_SeedDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	admin := testutil.AdminContext("ops")

	created, err := db.Services.Categories.SeedDefaults(admin)
	require.NoError(t, err)
	assert.Equal(t, len(service.DefaultCategories), created)

	again, err := db.Services.Categories.SeedDefaults(admin)
	require.NoError(t, err)
	assert.Zero(t, again)

	_, err = db.Services.Categories.SeedDefaults(testutil.TenantContext(tenantA))
	require.ErrorIs(t, err, common.ErrForbidden)

	visible, err := db.Services.Categories.List(testutil.TenantContext(tenantA), true)
	require.NoError(t, err)
	assert.Len(t, visible, len(service.DefaultCategories))
	for _, c := range visible {
		assert.Equal(t, model.SystemTenant, c.TenantID)
	}

	own, err := db.Services.Categories.List(testutil.TenantContext(tenantA), false)
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestCategoryService_SystemWritesRequireAdmin(t *testing.T) {
	db, ctx := setup(t)

	_, err := db.Services.Categories.Create(ctx, service.SystemOwned, &model.Category{Name: "Capital", Type: model.TransactionExpense})
	require.ErrorIs(t, err, common.ErrForbidden)

	admin := testutil.AdminContext(tenantA)
	sys, err := db.Services.Categories.Create(admin, service.SystemOwned, &model.Category{Name: "Capital", Type: model.TransactionExpense})
	require.NoError(t, err)
	assert.Equal(t, model.SystemTenant, sys.TenantID)

	// Tenant-scoped writes cannot reach the system copy.
	_, err = db.Services.Categories.Update(ctx, service.OwnTenant, sys.ID, &model.Category{Name: "Hijacked", Type: model.TransactionExpense})
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, db.Services.Categories.Delete(ctx, service.SystemOwned, sys.ID), common.ErrForbidden)

	renamed, err := db.Services.Categories.Update(admin, service.SystemOwned, sys.ID, &model.Category{Name: "Capital Improvements", Type: model.TransactionExpense})
	require.NoError(t, err)
	assert.Equal(t, "Capital Improvements", renamed.Name)

	// Every tenant sees the system category.
	got, err := db.Services.Categories.Get(testutil.TenantContext(tenantB), sys.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Capital Improvements", got.Name)

	require.NoError(t, db.Services.Categories.Delete(admin, service.SystemOwned, sys.ID))
	got, err = db.Services.Categories.Get(ctx, sys.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCategoryService_SystemTenantPrincipalCannotWrite(t *testing.T) {
	db, ctx := setup(t)
	sys := testutil.TenantContext(model.SystemTenant)

	_, err := db.Services.Categories.Create(sys, service.OwnTenant, &model.Category{Name: "Injected", Type: model.TransactionExpense})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = db.Services.PaymentMethods.Create(sys, service.OwnTenant, &model.PaymentMethod{Name: "Injected", Kind: model.MethodBankTransfer})
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = db.Services.Categories.List(sys, true)
	require.ErrorIs(t, err, common.ErrForbidden)

	visible, err := db.Services.Categories.List(ctx, true)
	require.NoError(t, err)
	for _, c := range visible {
		assert.NotEqual(t, "Injected", c.Name)
	}
}

func TestCategoryService_GetHidesOtherTenants(t *testing.T) {
	db, ctx := setup(t)
	theirs, err := db.Services.Categories.Create(testutil.TenantContext(tenantB), service.OwnTenant, &model.Category{Name: "B only", Type: model.TransactionIncome})
	require.NoError(t, err)

	got, err := db.Services.Categories.Get(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = db.Services.Categories.Get(testutil.TenantContext(tenantB), theirs.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "B only", got.Name)

	method, err := db.Services.PaymentMethods.Create(testutil.TenantContext(tenantB), service.OwnTenant, &model.PaymentMethod{Name: "B wire", Kind: model.MethodBankTransfer})
	require.NoError(t, err)
	gotMethod, err := db.Services.PaymentMethods.Get(ctx, method.ID)
	require.NoError(t, err)
	assert.Nil(t, gotMethod)
}

func TestCategoryService_ListAll(t *testing.T) {
	db, ctx := setup(t)
	_, err := db.Services.Categories.Create(testutil.TenantContext(tenantB), service.OwnTenant, &model.Category{Name: "B only", Type: model.TransactionIncome})
	require.NoError(t, err)

	_, err = db.Services.Categories.ListAll(ctx)
	require.ErrorIs(t, err, common.ErrForbidden)

	all, err := db.Services.Categories.ListAll(testutil.AdminContext(tenantA))
	require.NoError(t, err)
	assert.Len(t, all, len(db.Categories)+1)
}

func TestCategoryService_ByNamePrefersOwn(t *testing.T) {
	db, ctx := setup(t)
	_, err := db.Services.Categories.SeedDefaults(testutil.AdminContext("ops"))
	require.NoError(t, err)

	// tenantA has its own "Repairs" from the fixture; tenantB only sees the default.
	own, err := db.Services.Categories.ByName(ctx, "Repairs")
	require.NoError(t, err)
	assert.Equal(t, tenantA, own.TenantID)

	shared, err := db.Services.Categories.ByName(testutil.TenantContext(tenantB), "Repairs")
	require.NoError(t, err)
	assert.Equal(t, model.SystemTenant, shared.TenantID)

	income, err := db.Services.Categories.ByType(ctx, model.TransactionIncome)
	require.NoError(t, err)
	for _, c := range income {
		assert.Equal(t, model.TransactionIncome, c.Type)
	}
}

func TestCategoryService_InUse(t *testing.T) {
	db, ctx := setup(t)
	prop := db.MustCreateProperty(ctx, "Elm", "Denver", 1000)
	db.MustCreateTransaction(ctx, prop.ID, categories.CategoryRepairs, "100", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	repairs := db.Categories.MustFind(t, categories.CategoryRepairs)

	err := db.Services.Categories.Delete(ctx, service.OwnTenant, repairs.ID)
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = db.Services.Categories.Update(ctx, service.OwnTenant, repairs.ID, &model.Category{Name: "Repairs", Type: model.TransactionIncome})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	// Renaming keeps the type, so it is allowed.
	renamed, err := db.Services.Categories.Update(ctx, service.OwnTenant, repairs.ID, &model.Category{Name: "Maintenance", Type: model.TransactionExpense})
	require.NoError(t, err)
	assert.Equal(t, "Maintenance", renamed.Name)

	unused := db.Categories.MustFind(t, categories.CategoryInsurance)
	require.NoError(t, db.Services.Categories.Delete(ctx, service.OwnTenant, unused.ID))
}

func TestPaymentMethodService_Catalog(t *testing.T) {
	db, ctx := setup(t)

	_, err := db.Services.PaymentMethods.Create(ctx, service.OwnTenant, &model.PaymentMethod{Name: "Crypto", Kind: "barter"})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	m, err := db.Services.PaymentMethods.Create(ctx, service.OwnTenant, &model.PaymentMethod{Name: "Venmo", Kind: model.MethodOther})
	require.NoError(t, err)

	edit := *m
	edit.Details = "@landlord"
	updated, err := db.Services.PaymentMethods.Update(ctx, service.OwnTenant, m.ID, &edit)
	require.NoError(t, err)
	assert.Equal(t, "@landlord", updated.Details)

	// A client that edited version 1 after the update above conflicts.
	_, err = db.Services.PaymentMethods.Update(ctx, service.OwnTenant, m.ID, &edit)
	require.ErrorIs(t, err, common.ErrConcurrencyConflict)

	seeded, err := db.Services.PaymentMethods.SeedDefaults(testutil.AdminContext("ops"))
	require.NoError(t, err)
	assert.Equal(t, len(service.DefaultPaymentMethods), seeded)

	withSystem, err := db.Services.PaymentMethods.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, withSystem, len(service.DefaultPaymentMethods)+1)

	all, err := db.Services.PaymentMethods.ListAll(testutil.AdminContext(tenantA))
	require.NoError(t, err)
	assert.Len(t, all, len(service.DefaultPaymentMethods)+1)

	require.NoError(t, db.Services.PaymentMethods.Delete(ctx, service.OwnTenant, m.ID))
	gone, err := db.Services.PaymentMethods.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
