package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_CreatesCollectionsAndIndexes(t *testing.T) {
	store := createTestStorage(t)

	for _, name := range allCollections {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "collection %s missing", name)
	}

	for _, index := range []string{
		"idx_properties_tenant",
		"idx_properties_address_city",
		"idx_properties_rent",
		"idx_properties_description_text",
		"idx_transactions_categoryid",
		"idx_attachments_entitytype",
		"idx_categories_shared",
	} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?`, index).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s missing", index)
	}
}

func TestMigrate_RejectsEmptyTenantAtStorageLevel(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.db.Exec(`INSERT INTO properties (id, tenant_id, version, created_at, updated_at, body)
		VALUES ('x', '  ', 1, '', '', '{}')`)
	assert.Error(t, err)
}
