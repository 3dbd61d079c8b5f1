package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/metrics"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T, opts ...Option) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath, opts...)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()), "failed to migrate")
	return store
}

func newProperty(tenantID, name, city string, rent int64) *model.Property {
	return &model.Property{
		Base: model.Base{TenantID: tenantID},
		Name: name,
		Address: model.Address{
			Street: "1 " + name + " Street",
			City:   city,
		},
		Description: "A lovely place called " + name,
		RentAmount:  decimal.NewFromInt(rent),
		Currency:    "USD",
		Status:      model.PropertyAvailable,
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("   ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_Options(t *testing.T) {
	m := metrics.NewMetrics()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	store := createTestStorage(t, WithMetrics(m), WithClock(func() time.Time { return fixed }))

	require.Same(t, m, store.Metrics())
	require.Equal(t, time.UTC, store.now().Location())
	require.True(t, store.now().Equal(fixed))
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	repo := NewPropertyRepository(store)
	created, err := repo.Create(ctx, newProperty("t1", "Loft", "Austin", 1200))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "t1", created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}
