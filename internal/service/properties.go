package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/shopspring/decimal"
)

// PropertyService manages rental properties.
type PropertyService struct {
	properties *storage.PropertyRepository
}

// NewPropertyService creates a property service.
func NewPropertyService(repos *storage.Repositories) *PropertyService {
	return &PropertyService{properties: repos.Properties}
}

// Create stores a new property for the calling tenant. Server-owned fields in
// p are ignored.
func (s *PropertyService) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: property", storage.ErrNilParameter)
	}

	p.Base = model.Base{TenantID: tenantID}
	p.AttachmentIDs = nil
	if err := p.Validate(); err != nil {
		return nil, err
	}

	created, err := s.properties.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	slog.Info("Created property", "tenant", tenantID, "id", created.ID, "name", created.Name)
	return created, nil
}

// Get returns the property, or nil when the caller has none with that id.
func (s *PropertyService) Get(ctx context.Context, id string) (*model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.properties.GetByID(ctx, tenantID, id)
}

// List returns every property of the caller.
func (s *PropertyService) List(ctx context.Context) ([]model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.properties.GetAll(ctx, tenantID, false)
}

// ByCity returns the caller's properties in city.
func (s *PropertyService) ByCity(ctx context.Context, city string) ([]model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.properties.GetByCity(ctx, tenantID, city)
}

// ByRentRange returns the caller's properties with rent in [minRent, maxRent].
func (s *PropertyService) ByRentRange(ctx context.Context, minRent, maxRent decimal.Decimal) ([]model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.properties.GetByRentRange(ctx, tenantID, minRent, maxRent)
}

// Search finds the caller's properties whose name, address, or description mention text.
func (s *PropertyService) Search(ctx context.Context, text string) ([]model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.properties.Search(ctx, tenantID, text)
}

// Update applies the client-editable fields of in to the stored property.
// CreatedAt and the attachment list always come from the stored copy. A
// non-zero in.Version must match the stored version.
func (s *PropertyService) Update(ctx context.Context, id string, in *model.Property) (*model.Property, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: property", storage.ErrNilParameter)
	}

	stored, err := s.properties.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: property %s", common.ErrNotFound, id)
	}

	updated := *stored
	updated.Version = expectedVersion(in.Version, stored.Version)
	updated.Name = in.Name
	updated.Address = in.Address
	updated.Description = in.Description
	updated.RentAmount = in.RentAmount
	updated.Currency = in.Currency
	updated.Status = in.Status
	updated.Bedrooms = in.Bedrooms
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.properties.Update(ctx, tenantID, id, &updated); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	slog.Info("Updated property", "tenant", tenantID, "id", id, "version", updated.Version)
	return &updated, nil
}

// Delete removes the property document. Payments, transactions, and
// attachments that reference it are left in place.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	slog.Info("Deleted property", "tenant", tenantID, "id", id)
	return nil
}
