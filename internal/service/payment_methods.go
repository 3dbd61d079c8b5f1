package service

import (
	"context"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
)

// DefaultPaymentMethods are the shared payment methods seeded into the system tenant.
var DefaultPaymentMethods = []model.PaymentMethod{
	{Name: "Cash", Kind: model.MethodCash},
	{Name: "Bank Transfer", Kind: model.MethodBankTransfer},
	{Name: "Check", Kind: model.MethodCheck},
	{Name: "Card", Kind: model.MethodCard},
}

// PaymentMethodService manages payment methods.
type PaymentMethodService struct {
	catalog[model.PaymentMethod, *model.PaymentMethod]
	methods *storage.PaymentMethodRepository
}

// NewPaymentMethodService creates a payment method service.
func NewPaymentMethodService(repos *storage.Repositories) *PaymentMethodService {
	return &PaymentMethodService{
		catalog: catalog[model.PaymentMethod, *model.PaymentMethod]{
			repo: repos.PaymentMethods.SharedRepository,
			kind: "payment method",
			merge: func(stored, in *model.PaymentMethod) {
				stored.Name = in.Name
				stored.Kind = in.Kind
				stored.Details = in.Details
			},
			name: func(m *model.PaymentMethod) string { return m.Name },
		},
		methods: repos.PaymentMethods,
	}
}

// Create adds a payment method for owner.
func (s *PaymentMethodService) Create(ctx context.Context, owner Owner, m *model.PaymentMethod) (*model.PaymentMethod, error) {
	return s.create(ctx, owner, m)
}

// Get returns a payment method the caller can see, or nil.
func (s *PaymentMethodService) Get(ctx context.Context, id string) (*model.PaymentMethod, error) {
	return s.get(ctx, id)
}

// List returns the caller's payment methods, plus the system defaults when includeSystem is set.
func (s *PaymentMethodService) List(ctx context.Context, includeSystem bool) ([]model.PaymentMethod, error) {
	return s.list(ctx, includeSystem)
}

// ListAll returns every tenant's payment methods. Admin only.
func (s *PaymentMethodService) ListAll(ctx context.Context) ([]model.PaymentMethod, error) {
	return s.listAll(ctx)
}

// ByName returns the payment method called name, preferring the caller's own.
func (s *PaymentMethodService) ByName(ctx context.Context, name string) (*model.PaymentMethod, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.methods.GetByName(ctx, tenantID, name)
}

// Update edits a payment method of owner.
func (s *PaymentMethodService) Update(ctx context.Context, owner Owner, id string, in *model.PaymentMethod) (*model.PaymentMethod, error) {
	return s.update(ctx, owner, id, in)
}

// Delete removes a payment method of owner.
func (s *PaymentMethodService) Delete(ctx context.Context, owner Owner, id string) error {
	return s.delete(ctx, owner, id)
}

// SeedDefaults creates the missing DefaultPaymentMethods in the system tenant. Admin only.
func (s *PaymentMethodService) SeedDefaults(ctx context.Context) (int, error) {
	return s.seed(ctx, DefaultPaymentMethods, func(ctx context.Context, name string) (*model.PaymentMethod, error) {
		return s.methods.GetByName(ctx, model.SystemTenant, name)
	})
}
