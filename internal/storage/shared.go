package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
)

// SharedRepository serves collections that hold both tenant-private documents
// and shared defaults owned by model.SystemTenant.
type SharedRepository[T any, P DocumentPtr[T]] struct {
	*Repository[T, P]
}

// NewSharedRepository creates a shared repository over the named collection.
func NewSharedRepository[T any, P DocumentPtr[T]](s *SQLiteStorage, collection string) *SharedRepository[T, P] {
	return &SharedRepository[T, P]{Repository: NewRepository[T, P](s, collection)}
}

// GetAllShared returns every document regardless of tenant. Callers must
// authorize the request before using it.
func (r *SharedRepository[T, P]) GetAllShared(ctx context.Context) ([]T, error) {
	return r.Find(ctx, anyTenant())
}

// GetSharedByID looks the id up in the system tenant first and falls back to
// whichever tenant owns it.
func (r *SharedRepository[T, P]) GetSharedByID(ctx context.Context, id string) (*T, error) {
	started := time.Now()
	doc, err := r.getSharedByID(ctx, id)
	r.observe("get_shared", started, err)
	return doc, err
}

func (r *SharedRepository[T, P]) getSharedByID(ctx context.Context, id string) (*T, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ? AND id = ?`, selectColumns, r.collection)
	doc, err := r.queryOne(ctx, query, model.SystemTenant, id)
	if err != nil || doc != nil {
		return doc, err
	}

	query = fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? LIMIT 1`, selectColumns, r.collection)
	return r.queryOne(ctx, query, id)
}
