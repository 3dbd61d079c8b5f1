package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
)

// PaymentService records rent payments.
type PaymentService struct {
	payments   *storage.PaymentRepository
	properties *storage.PropertyRepository
	methods    *storage.PaymentMethodRepository
	resolve    resolver
}

// NewPaymentService creates a payment service.
func NewPaymentService(repos *storage.Repositories) *PaymentService {
	return &PaymentService{
		payments:   repos.Payments,
		properties: repos.Properties,
		methods:    repos.PaymentMethods,
		resolve:    resolver{repos: repos},
	}
}

// checkReferences verifies the property and optional payment method exist
// for tenantID before anything is written.
func (s *PaymentService) checkReferences(ctx context.Context, tenantID string, p *model.Payment) error {
	if err := storage.ValidateID(p.PropertyID); err != nil {
		return err
	}
	prop, err := s.properties.GetByID(ctx, tenantID, p.PropertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return missingParent("property", p.PropertyID)
	}
	return checkPaymentMethod(ctx, s.methods, tenantID, p.PaymentMethodID)
}

func checkPaymentMethod(ctx context.Context, methods *storage.PaymentMethodRepository, tenantID, id string) error {
	if id == "" {
		return nil
	}
	if err := storage.ValidateID(id); err != nil {
		return err
	}
	found, err := methods.GetByIDs(ctx, storage.WithSystem(tenantID), []string{id})
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return missingParent("payment method", id)
	}
	return nil
}

// Create records a payment for one of the caller's properties.
func (s *PaymentService) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: payment", storage.ErrNilParameter)
	}

	p.Base = model.Base{TenantID: tenantID}
	p.Date = p.Date.UTC()
	p.AttachmentIDs = nil
	p.PaymentMethod = nil
	p.Attachments = nil
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, tenantID, p); err != nil {
		return nil, err
	}

	created, err := s.payments.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	slog.Info("Recorded payment", "tenant", tenantID, "id", created.ID, "property", created.PropertyID, "amount", created.Amount.String())
	return created, nil
}

// Get returns the payment with the requested references resolved, or nil.
func (s *PaymentService) Get(ctx context.Context, id string, inc Includes) (*model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.GetByID(ctx, tenantID, id)
	if err != nil || p == nil {
		return p, err
	}

	one := []model.Payment{*p}
	if err := s.resolve.populatePayments(ctx, tenantID, one, inc); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// List returns every payment of the caller.
func (s *PaymentService) List(ctx context.Context, inc Includes) ([]model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.GetAll(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	return payments, s.resolve.populatePayments(ctx, tenantID, payments, inc)
}

// ListByProperty returns the payments of one property.
func (s *PaymentService) ListByProperty(ctx context.Context, propertyID string, inc Includes) ([]model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.GetByProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	return payments, s.resolve.populatePayments(ctx, tenantID, payments, inc)
}

// ListByDateRange returns a property's payments dated within [start, end].
func (s *PaymentService) ListByDateRange(ctx context.Context, propertyID string, start, end time.Time, inc Includes) ([]model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.GetByPropertyAndDateRange(ctx, tenantID, propertyID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return payments, s.resolve.populatePayments(ctx, tenantID, payments, inc)
}

// Update applies the client-editable fields of in to the stored payment.
func (s *PaymentService) Update(ctx context.Context, id string, in *model.Payment) (*model.Payment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: payment", storage.ErrNilParameter)
	}

	stored, err := s.payments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: payment %s", common.ErrNotFound, id)
	}

	updated := *stored
	updated.Version = expectedVersion(in.Version, stored.Version)
	updated.PropertyID = in.PropertyID
	updated.Date = in.Date.UTC()
	updated.Amount = in.Amount
	updated.Currency = in.Currency
	updated.PaymentMethodID = in.PaymentMethodID
	updated.Reference = in.Reference
	updated.Notes = in.Notes
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, tenantID, &updated); err != nil {
		return nil, err
	}

	if err := s.payments.Update(ctx, tenantID, id, &updated); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	slog.Info("Updated payment", "tenant", tenantID, "id", id, "version", updated.Version)
	return &updated, nil
}

// Delete removes a payment.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	slog.Info("Deleted payment", "tenant", tenantID, "id", id)
	return nil
}
