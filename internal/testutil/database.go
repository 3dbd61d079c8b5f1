// Package testutil wires a fully migrated rentbook stack for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/filestore"
	"github.com/Veraticus/rentbook/internal/identity"
	"github.com/Veraticus/rentbook/internal/metrics"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/Veraticus/rentbook/internal/testutil/categories"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with the repositories and services built on it.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Repos      *storage.Repositories
	Services   *service.Services
	Blobs      *filestore.Store
	Metrics    *metrics.Metrics
	t          *testing.T
	Categories categories.Categories
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, *TestDB) error
	Clock       func() time.Time
	// Tenant owns the categories the builder creates.
	Tenant         string
	Configure      func(categories.Builder) categories.Builder
	SkipMigrations bool
}

// SetupTestDB creates a migrated database under t.TempDir with an in-memory
// blob store. Cleanup is registered on t.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithBuilder creates a test database and seeds tenant categories.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, "tenant-a", func(b categories.Builder) categories.Builder {
//		return b.WithBasicCategories()
//	})
func SetupTestDBWithBuilder(t *testing.T, tenantID string, configure func(categories.Builder) categories.Builder) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Tenant: tenantID, Configure: configure})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	m := metrics.NewMetrics()
	storageOpts := []storage.Option{storage.WithMetrics(m)}
	if opts.Clock != nil {
		storageOpts = append(storageOpts, storage.WithClock(opts.Clock))
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "rentbook.db"), storageOpts...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	repos := storage.NewRepositories(store)
	blobs := filestore.NewMemory()
	db := &TestDB{
		Storage:  store,
		Repos:    repos,
		Services: service.New(repos, blobs),
		Blobs:    blobs,
		Metrics:  m,
		t:        t,
	}

	if opts.Configure != nil {
		builder := opts.Configure(categories.NewBuilder(t))
		cats, err := builder.Build(TenantContext(opts.Tenant), db.Services.Categories)
		if err != nil {
			t.Fatalf("failed to build categories: %v", err)
		}
		db.Categories = cats
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, db); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// TenantContext returns a context authenticated as a member of tenantID.
func TenantContext(tenantID string, roles ...string) context.Context {
	return identity.WithPrincipal(context.Background(), identity.Principal{
		TenantID: tenantID,
		Subject:  "user@" + tenantID,
		Roles:    roles,
	})
}

// AdminContext returns a context authenticated as an administrator of tenantID.
func AdminContext(tenantID string) context.Context {
	return TenantContext(tenantID, identity.RoleAdmin)
}

// MustGetCategory returns the id of the seeded category with the given name or fails the test.
func (db *TestDB) MustGetCategory(name categories.CategoryName) string {
	db.t.Helper()
	return db.Categories.MustFind(db.t, name).ID
}

// MustCreateProperty creates an available USD property for the tenant of ctx.
func (db *TestDB) MustCreateProperty(ctx context.Context, name, city string, rent int64) *model.Property {
	db.t.Helper()
	p, err := db.Services.Properties.Create(ctx, &model.Property{
		Name:        name,
		Address:     model.Address{Street: "1 " + name + " Way", City: city},
		Description: name + " test property",
		RentAmount:  decimal.NewFromInt(rent),
		Currency:    "USD",
		Status:      model.PropertyAvailable,
	})
	if err != nil {
		db.t.Fatalf("failed to create property %q: %v", name, err)
	}
	return p
}

// MustCreatePayment records a USD rent payment.
func (db *TestDB) MustCreatePayment(ctx context.Context, propertyID, amount string, date time.Time) *model.Payment {
	db.t.Helper()
	p, err := db.Services.Payments.Create(ctx, &model.Payment{
		PropertyID: propertyID,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "USD",
		Date:       date,
	})
	if err != nil {
		db.t.Fatalf("failed to create payment: %v", err)
	}
	return p
}

// MustCreateTransaction books a USD transaction in the named seeded category.
func (db *TestDB) MustCreateTransaction(ctx context.Context, propertyID string, name categories.CategoryName, amount string, date time.Time) *model.Transaction {
	db.t.Helper()
	cat := db.Categories.MustFind(db.t, name)
	txn, err := db.Services.Transactions.Create(ctx, &model.Transaction{
		PropertyID:  propertyID,
		Type:        cat.Type,
		CategoryID:  cat.ID,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Date:        date,
		Description: name.String() + " " + amount,
	})
	if err != nil {
		db.t.Fatalf("failed to create transaction: %v", err)
	}
	return txn
}
