package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
)

// catalogEntry is a shared document that validates itself.
type catalogEntry[T any] interface {
	storage.DocumentPtr[T]
	Validate() error
}

// catalog implements the operations categories and payment methods share:
// tenant-private records next to system defaults only admins may change.
type catalog[T any, P catalogEntry[T]] struct {
	repo  *storage.SharedRepository[T, P]
	kind  string
	merge func(stored, in *T)
	name  func(*T) string
}

func (c *catalog[T, P]) create(ctx context.Context, owner Owner, doc *T) (*T, error) {
	tenantID, err := ownerTenant(ctx, owner)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNilParameter, c.kind)
	}

	*P(doc).Meta() = model.Base{TenantID: tenantID}
	if err := P(doc).Validate(); err != nil {
		return nil, err
	}

	created, err := c.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", c.kind, err)
	}

	slog.Info("Created "+c.kind, "tenant", tenantID, "id", P(created).Meta().ID, "name", c.name(created))
	return created, nil
}

// get returns the document visible to the caller: their own or a system default.
func (c *catalog[T, P]) get(ctx context.Context, id string) (*T, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := c.repo.GetSharedByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	// Another tenant's record reads as absent.
	owner := P(doc).Meta().TenantID
	if owner != tenantID && !model.IsSystemTenant(owner) {
		return nil, nil
	}
	return doc, nil
}

func (c *catalog[T, P]) list(ctx context.Context, includeSystem bool) ([]T, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return c.repo.GetAll(ctx, tenantID, includeSystem)
}

// listAll returns every tenant's documents. Admin only.
func (c *catalog[T, P]) listAll(ctx context.Context) ([]T, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: listing every tenant's %s records requires admin", common.ErrForbidden, c.kind)
	}
	return c.repo.GetAllShared(ctx)
}

func (c *catalog[T, P]) update(ctx context.Context, owner Owner, id string, in *T) (*T, error) {
	tenantID, err := ownerTenant(ctx, owner)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNilParameter, c.kind)
	}

	stored, err := c.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, c.kind, id)
	}

	updated := *stored
	P(&updated).Meta().Version = expectedVersion(P(in).Meta().Version, P(stored).Meta().Version)
	c.merge(&updated, in)
	if err := P(&updated).Validate(); err != nil {
		return nil, err
	}

	if err := c.repo.Update(ctx, tenantID, id, &updated); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", c.kind, err)
	}

	slog.Info("Updated "+c.kind, "tenant", tenantID, "id", id, "version", P(&updated).Meta().Version)
	return &updated, nil
}

func (c *catalog[T, P]) delete(ctx context.Context, owner Owner, id string) error {
	tenantID, err := ownerTenant(ctx, owner)
	if err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.kind, err)
	}

	slog.Info("Deleted "+c.kind, "tenant", tenantID, "id", id)
	return nil
}

// seed creates each default the system tenant does not have by name yet.
func (c *catalog[T, P]) seed(ctx context.Context, defaults []T, existing func(ctx context.Context, name string) (*T, error)) (int, error) {
	if _, err := ownerTenant(ctx, SystemOwned); err != nil {
		return 0, err
	}

	created := 0
	for i := range defaults {
		doc := defaults[i]
		found, err := existing(ctx, c.name(&doc))
		if err != nil {
			return created, err
		}
		if found != nil {
			continue
		}
		if _, err := c.create(ctx, SystemOwned, &doc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
