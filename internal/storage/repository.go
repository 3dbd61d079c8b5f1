package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/metrics"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/google/uuid"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DocumentPtr is satisfied by pointers to entity structs that embed model.Base.
type DocumentPtr[T any] interface {
	*T
	model.Document
}

// Repository provides tenant-scoped CRUD with optimistic concurrency for one collection.
// Every query it issues carries a tenant predicate.
type Repository[T any, P DocumentPtr[T]] struct {
	storage    *SQLiteStorage
	collection string
}

// NewRepository creates a repository over the named collection.
func NewRepository[T any, P DocumentPtr[T]](s *SQLiteStorage, collection string) *Repository[T, P] {
	return &Repository[T, P]{storage: s, collection: collection}
}

// GetAll returns every document of tenantID, plus system documents when includeSystem is set.
func (r *Repository[T, P]) GetAll(ctx context.Context, tenantID string, includeSystem bool) ([]T, error) {
	scope := ForTenant(tenantID)
	if includeSystem {
		scope = WithSystem(tenantID)
	}
	return r.Find(ctx, scope)
}

// GetByID returns the document, or nil when no document of tenantID has that id.
func (r *Repository[T, P]) GetByID(ctx context.Context, tenantID, id string) (*T, error) {
	started := time.Now()
	doc, err := r.getByID(ctx, tenantID, id)
	r.observe("get", started, err)
	return doc, err
}

func (r *Repository[T, P]) getByID(ctx context.Context, tenantID, id string) (*T, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := model.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ? AND id = ?`, selectColumns, r.collection)
	return r.queryOne(ctx, query, tenantID, id)
}

// GetByIDs returns the documents in scope whose id is listed. Missing ids are skipped.
func (r *Repository[T, P]) GetByIDs(ctx context.Context, scope Scope, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Find(ctx, scope, IDIn(ids))
}

// Create stamps timestamps and version 1, assigns an id when missing, and inserts doc.
func (r *Repository[T, P]) Create(ctx context.Context, doc *T) (*T, error) {
	started := time.Now()
	err := r.create(ctx, doc)
	r.observe("create", started, err)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Repository[T, P]) create(ctx context.Context, doc *T) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: entity", ErrNilParameter)
	}

	meta := P(doc).Meta()
	if err := model.ValidateTenantID(meta.TenantID); err != nil {
		return err
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	} else if err := ValidateID(meta.ID); err != nil {
		return err
	}

	now := r.storage.now()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.Version = 1

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", r.collection, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, tenant_id, version, created_at, updated_at, body)
		VALUES (?, ?, ?, ?, ?, ?)`, r.collection)
	if _, err := r.storage.db.ExecContext(ctx, query,
		meta.ID, meta.TenantID, meta.Version,
		meta.CreatedAt.Format(timeLayout), meta.UpdatedAt.Format(timeLayout), string(body),
	); err != nil {
		return fmt.Errorf("failed to insert %s document: %w", r.collection, err)
	}

	slog.Debug("created document", "collection", r.collection, "tenant", meta.TenantID, "id", meta.ID)
	return nil
}

// Update replaces the stored document only when its version equals doc's version.
// On success doc's Version is incremented and UpdatedAt advanced. When nothing
// matched, doc's Version and UpdatedAt are restored and ErrConcurrencyConflict
// is returned, so the caller can re-fetch and retry.
func (r *Repository[T, P]) Update(ctx context.Context, tenantID, id string, doc *T) error {
	started := time.Now()
	err := r.update(ctx, tenantID, id, doc)
	r.observe("update", started, err)
	return err
}

func (r *Repository[T, P]) update(ctx context.Context, tenantID, id string, doc *T) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: entity", ErrNilParameter)
	}

	meta := P(doc).Meta()
	if meta.ID != "" && meta.ID != id {
		return fmt.Errorf("%w: entity id %q does not match %q", common.ErrInvalidArgument, meta.ID, id)
	}
	if meta.TenantID != "" && meta.TenantID != tenantID {
		return fmt.Errorf("%w: entity tenant %q does not match %q", common.ErrInvalidArgument, meta.TenantID, tenantID)
	}

	prev := *meta
	rollback := func() {
		meta.ID = prev.ID
		meta.TenantID = prev.TenantID
		meta.Version = prev.Version
		meta.UpdatedAt = prev.UpdatedAt
	}

	now := r.storage.now()
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Microsecond)
	}
	meta.ID = id
	meta.TenantID = tenantID
	meta.UpdatedAt = now
	meta.Version = prev.Version + 1

	body, err := json.Marshal(doc)
	if err != nil {
		rollback()
		return fmt.Errorf("failed to encode %s document: %w", r.collection, err)
	}

	query := fmt.Sprintf(`UPDATE %s SET version = ?, updated_at = ?, body = ?
		WHERE tenant_id = ? AND id = ? AND version = ?`, r.collection)
	result, err := r.storage.db.ExecContext(ctx, query,
		meta.Version, meta.UpdatedAt.Format(timeLayout), string(body),
		tenantID, id, prev.Version,
	)
	if err != nil {
		rollback()
		return fmt.Errorf("failed to update %s document: %w", r.collection, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		rollback()
		return fmt.Errorf("%w: %s %s is missing or not at version %d", common.ErrConcurrencyConflict, r.collection, id, prev.Version)
	}

	slog.Debug("updated document", "collection", r.collection, "tenant", tenantID, "id", id, "version", meta.Version)
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (r *Repository[T, P]) Delete(ctx context.Context, tenantID, id string) error {
	started := time.Now()
	err := r.delete(ctx, tenantID, id)
	r.observe("delete", started, err)
	return err
}

func (r *Repository[T, P]) delete(ctx context.Context, tenantID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE tenant_id = ? AND id = ?`, r.collection)
	result, err := r.storage.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s document: %w", r.collection, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		slog.Debug("delete row count unavailable", "collection", r.collection, "tenant", tenantID, "id", id, "error", err)
	} else if n == 0 {
		slog.Debug("delete matched no document", "collection", r.collection, "tenant", tenantID, "id", id)
	}
	return nil
}

// Find returns the documents in scope that satisfy every condition, oldest first.
func (r *Repository[T, P]) Find(ctx context.Context, scope Scope, conds ...Condition) ([]T, error) {
	started := time.Now()
	docs, err := r.find(ctx, scope, conds)
	r.observe("find", started, err)
	if err == nil {
		r.storage.metrics.ObserveResult(r.collection, len(docs))
	}
	return docs, err
}

func (r *Repository[T, P]) find(ctx context.Context, scope Scope, conds []Condition) ([]T, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	where, args, err := buildWhere(scope, conds)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at, id`, selectColumns, r.collection, where)
	rows, err := r.storage.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []T
	for rows.Next() {
		doc, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.collection, err)
	}

	slog.Debug("queried documents", "collection", r.collection, "count", len(docs))
	return docs, nil
}

const selectColumns = "id, tenant_id, version, created_at, updated_at, body"

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository[T, P]) queryOne(ctx context.Context, query string, args ...any) (*T, error) {
	doc, err := r.scan(r.storage.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// scan decodes the body and then applies the column metadata, which is authoritative.
func (r *Repository[T, P]) scan(row scanner) (*T, error) {
	var (
		id, tenantID, createdAt, updatedAt, body string
		version                                  int64
	)
	if err := row.Scan(&id, &tenantID, &version, &createdAt, &updatedAt, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan %s document: %w", r.collection, err)
	}

	doc := new(T)
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %s: %w", r.collection, id, err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at on %s %s: %w", r.collection, id, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at on %s %s: %w", r.collection, id, err)
	}

	meta := P(doc).Meta()
	meta.ID = id
	meta.TenantID = tenantID
	meta.Version = version
	meta.CreatedAt = created.UTC()
	meta.UpdatedAt = updated.UTC()
	return doc, nil
}

func (r *Repository[T, P]) observe(op string, started time.Time, err error) {
	r.storage.metrics.Observe(r.collection, op, outcome(err), started)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, common.ErrConcurrencyConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, common.ErrInvalidArgument), errors.Is(err, common.ErrInvalidID):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
