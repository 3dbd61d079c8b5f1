package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

func collectionTable(name string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL CHECK (length(trim(tenant_id)) > 0),
			version INTEGER NOT NULL CHECK (version >= 1),
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			body TEXT NOT NULL CHECK (json_valid(body))
		)`, name),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_tenant ON %s(tenant_id, id)`, name, name),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_tenant_created ON %s(tenant_id, created_at)`, name, name),
	}
}

// fieldIndex declares a compound (tenant, JSON field) index. The indexed
// expression matches the one emitted by the query conditions.
func fieldIndex(collection, field string) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(tenant_id, %s)`,
		collection, indexSuffix(field), collection, jsonPath(field))
}

// textIndex declares a case-folded index over a free-text field.
func textIndex(collection, field string) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_%s_text ON %s(tenant_id, %s)`,
		collection, indexSuffix(field), collection, foldedPath(field))
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial document collections",
		Up: func(tx *sql.Tx) error {
			var queries []string
			for _, c := range allCollections {
				queries = append(queries, collectionTable(c)...)
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "Add query indexes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				fieldIndex(CollectionProperties, "address.city"),
				`CREATE INDEX IF NOT EXISTS idx_properties_rent ON properties(tenant_id, ` + numericPath("rentAmount") + `)`,
				textIndex(CollectionProperties, "name"),
				textIndex(CollectionProperties, "address.street"),
				textIndex(CollectionProperties, "description"),

				fieldIndex(CollectionPayments, "propertyId"),
				fieldIndex(CollectionPayments, "paymentMethodId"),

				fieldIndex(CollectionTransactions, "propertyId"),
				fieldIndex(CollectionTransactions, "categoryId"),
				fieldIndex(CollectionTransactions, "externalRef"),

				fieldIndex(CollectionAttachments, "propertyId"),
				fieldIndex(CollectionAttachments, "paymentId"),
				fieldIndex(CollectionAttachments, "transactionId"),
				fieldIndex(CollectionAttachments, "entityType"),

				fieldIndex(CollectionCategories, "type"),
				fieldIndex(CollectionCategories, "name"),
				fieldIndex(CollectionPaymentMethods, "name"),
			})
		},
	},
	{
		Version:     3,
		Description: "Index shared lookups by id across tenants",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_categories_shared ON categories(id, tenant_id)`,
				`CREATE INDEX IF NOT EXISTS idx_payment_methods_shared ON payment_methods(id, tenant_id)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
