package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/ofx"
	"github.com/Veraticus/rentbook/internal/storage"
)

// TransactionService books income and expenses against properties.
type TransactionService struct {
	transactions *storage.TransactionRepository
	properties   *storage.PropertyRepository
	categories   *storage.CategoryRepository
	methods      *storage.PaymentMethodRepository
	resolve      resolver
}

// NewTransactionService creates a transaction service.
func NewTransactionService(repos *storage.Repositories) *TransactionService {
	return &TransactionService{
		transactions: repos.Transactions,
		properties:   repos.Properties,
		categories:   repos.Categories,
		methods:      repos.PaymentMethods,
		resolve:      resolver{repos: repos},
	}
}

func (s *TransactionService) requireProperty(ctx context.Context, tenantID, propertyID string) error {
	if err := storage.ValidateID(propertyID); err != nil {
		return err
	}
	prop, err := s.properties.GetByID(ctx, tenantID, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return missingParent("property", propertyID)
	}
	return nil
}

// requireCategory returns the category visible to tenantID and checks it
// classifies transactions of type t.
func (s *TransactionService) requireCategory(ctx context.Context, tenantID, categoryID string, t model.TransactionType) (*model.Category, error) {
	if err := storage.ValidateID(categoryID); err != nil {
		return nil, err
	}
	found, err := s.categories.GetByIDs(ctx, storage.WithSystem(tenantID), []string{categoryID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, missingParent("category", categoryID)
	}
	if found[0].Type != t {
		return nil, fmt.Errorf("%w: category %q is for %s but the transaction is %s",
			common.ErrInvalidArgument, found[0].Name, found[0].Type, t)
	}
	return &found[0], nil
}

func (s *TransactionService) checkReferences(ctx context.Context, tenantID string, t *model.Transaction) error {
	if err := s.requireProperty(ctx, tenantID, t.PropertyID); err != nil {
		return err
	}
	if _, err := s.requireCategory(ctx, tenantID, t.CategoryID, t.Type); err != nil {
		return err
	}
	return checkPaymentMethod(ctx, s.methods, tenantID, t.PaymentMethodID)
}

// Create books a transaction. The category must exist and match the
// transaction type.
func (s *TransactionService) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transaction", storage.ErrNilParameter)
	}

	t.Base = model.Base{TenantID: tenantID}
	t.Date = t.Date.UTC()
	t.AttachmentIDs = nil
	t.Category = nil
	t.PaymentMethod = nil
	t.Attachments = nil
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, tenantID, t); err != nil {
		return nil, err
	}

	created, err := s.transactions.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	slog.Info("Booked transaction", "tenant", tenantID, "id", created.ID, "type", created.Type, "amount", created.Amount.String())
	return created, nil
}

// Get returns the transaction with the requested references resolved, or nil.
func (s *TransactionService) Get(ctx context.Context, id string, inc Includes) (*model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.transactions.GetByID(ctx, tenantID, id)
	if err != nil || t == nil {
		return t, err
	}

	one := []model.Transaction{*t}
	if err := s.resolve.populateTransactions(ctx, tenantID, one, inc); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// List returns every transaction of the caller.
func (s *TransactionService) List(ctx context.Context, inc Includes) ([]model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.GetAll(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	return txns, s.resolve.populateTransactions(ctx, tenantID, txns, inc)
}

// ListByProperty returns a property's transactions.
func (s *TransactionService) ListByProperty(ctx context.Context, propertyID string, inc Includes) ([]model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.GetByProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	return txns, s.resolve.populateTransactions(ctx, tenantID, txns, inc)
}

// ListByCategory returns the caller's transactions in a category.
func (s *TransactionService) ListByCategory(ctx context.Context, categoryID string, inc Includes) ([]model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.GetByCategory(ctx, tenantID, categoryID)
	if err != nil {
		return nil, err
	}
	return txns, s.resolve.populateTransactions(ctx, tenantID, txns, inc)
}

// ListByDateRange returns a property's transactions dated within [start, end].
func (s *TransactionService) ListByDateRange(ctx context.Context, propertyID string, start, end time.Time, inc Includes) ([]model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.GetByPropertyAndDateRange(ctx, tenantID, propertyID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	return txns, s.resolve.populateTransactions(ctx, tenantID, txns, inc)
}

// Update applies the client-editable fields of in to the stored transaction.
func (s *TransactionService) Update(ctx context.Context, id string, in *model.Transaction) (*model.Transaction, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: transaction", storage.ErrNilParameter)
	}

	stored, err := s.transactions.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}

	updated := *stored
	updated.Version = expectedVersion(in.Version, stored.Version)
	updated.PropertyID = in.PropertyID
	updated.Type = in.Type
	updated.CategoryID = in.CategoryID
	updated.PaymentMethodID = in.PaymentMethodID
	updated.Amount = in.Amount
	updated.Currency = in.Currency
	updated.Date = in.Date.UTC()
	updated.Description = in.Description
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, tenantID, &updated); err != nil {
		return nil, err
	}

	if err := s.transactions.Update(ctx, tenantID, id, &updated); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	slog.Info("Updated transaction", "tenant", tenantID, "id", id, "version", updated.Version)
	return &updated, nil
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	if err := s.transactions.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	slog.Info("Deleted transaction", "tenant", tenantID, "id", id)
	return nil
}

// Import books statement drafts against a property. Drafts whose reference
// was already imported for that property are skipped. References are checked
// once up front so a bad category fails the whole import before any write.
func (s *TransactionService) Import(ctx context.Context, drafts []ofx.Draft, opts ImportOptions) (ImportResult, error) {
	var result ImportResult

	tenantID, err := tenantOf(ctx)
	if err != nil {
		return result, err
	}
	if err := s.requireProperty(ctx, tenantID, opts.PropertyID); err != nil {
		return result, err
	}

	categoryFor := map[model.TransactionType]string{}
	for _, d := range drafts {
		if _, ok := categoryFor[d.Type]; ok {
			continue
		}
		id := opts.IncomeCategoryID
		if d.Type == model.TransactionExpense {
			id = opts.ExpenseCategoryID
		}
		if id == "" {
			return result, fmt.Errorf("%w: no category configured for %s lines", common.ErrInvalidArgument, d.Type)
		}
		if _, err := s.requireCategory(ctx, tenantID, id, d.Type); err != nil {
			return result, err
		}
		categoryFor[d.Type] = id
	}
	if err := checkPaymentMethod(ctx, s.methods, tenantID, opts.PaymentMethodID); err != nil {
		return result, err
	}

	existing, err := s.transactions.GetByProperty(ctx, tenantID, opts.PropertyID)
	if err != nil {
		return result, err
	}
	imported := make(map[string]bool, len(existing))
	for _, t := range existing {
		if t.ExternalRef != "" {
			imported[t.ExternalRef] = true
		}
	}

	for i, d := range drafts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ref := d.Ref()
		if imported[ref] {
			result.Skipped++
		} else {
			t := &model.Transaction{
				Base:            model.Base{TenantID: tenantID},
				PropertyID:      opts.PropertyID,
				Type:            d.Type,
				CategoryID:      categoryFor[d.Type],
				PaymentMethodID: opts.PaymentMethodID,
				Amount:          d.Amount,
				Currency:        d.Currency,
				Date:            d.Date.UTC(),
				Description:     d.Description,
				ExternalRef:     ref,
			}
			if err := t.Validate(); err != nil {
				slog.Warn("Skipping invalid statement line", "ref", ref, "error", err)
				result.Skipped++
			} else {
				if _, err := s.transactions.Create(ctx, t); err != nil {
					return result, fmt.Errorf("failed to import %s: %w", ref, err)
				}
				imported[ref] = true
				result.Created++
			}
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(drafts))
		}
	}

	slog.Info("Imported statement", "tenant", tenantID, "property", opts.PropertyID,
		"created", result.Created, "skipped", result.Skipped)
	return result, nil
}
