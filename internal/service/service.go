package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/identity"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
)

// Services bundles the application services.
type Services struct {
	Properties     *PropertyService
	Payments       *PaymentService
	Transactions   *TransactionService
	Categories     *CategoryService
	PaymentMethods *PaymentMethodService
	Attachments    *AttachmentService
	Summaries      *SummaryService
}

// New wires every service to repos and blobs.
func New(repos *storage.Repositories, blobs BlobStore) *Services {
	return &Services{
		Properties:     NewPropertyService(repos),
		Payments:       NewPaymentService(repos),
		Transactions:   NewTransactionService(repos),
		Categories:     NewCategoryService(repos),
		PaymentMethods: NewPaymentMethodService(repos),
		Attachments:    NewAttachmentService(repos, blobs),
		Summaries:      NewSummaryService(repos),
	}
}

// conflictRetry re-runs server-owned read-modify-write cycles that lost a race.
var conflictRetry = common.RetryOptions{
	MaxAttempts:  5,
	InitialDelay: 5 * time.Millisecond,
	MaxDelay:     100 * time.Millisecond,
	Multiplier:   2.0,
}

// retryOnConflict retries op only while it fails with a concurrency conflict.
func retryOnConflict(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		err := op()
		if err != nil && !errors.Is(err, common.ErrConcurrencyConflict) {
			return common.Permanent(err)
		}
		return err
	}, conflictRetry)
}

// caller returns the principal the request runs as.
func caller(ctx context.Context) (identity.Principal, error) {
	if ctx == nil {
		return identity.Principal{}, storage.ErrNilContext
	}
	p, err := identity.FromContext(ctx)
	if err != nil {
		return identity.Principal{}, err
	}
	if model.IsSystemTenant(p.TenantID) {
		return identity.Principal{}, fmt.Errorf("%w: %s may not act as the system tenant", common.ErrForbidden, p.Subject)
	}
	return p, nil
}

func tenantOf(ctx context.Context) (string, error) {
	p, err := caller(ctx)
	if err != nil {
		return "", err
	}
	return p.TenantID, nil
}

// Owner selects whose copy of a shared document an operation writes.
type Owner int

const (
	// OwnTenant writes the caller's private documents.
	OwnTenant Owner = iota
	// SystemOwned writes the shared defaults. Requires the admin role.
	SystemOwned
)

// ownerTenant resolves the tenant id an operation on owner may write.
func ownerTenant(ctx context.Context, owner Owner) (string, error) {
	p, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if owner == SystemOwned {
		if !p.IsAdmin() {
			return "", fmt.Errorf("%w: %s may not modify system records", common.ErrForbidden, p.Subject)
		}
		return model.SystemTenant, nil
	}
	return p.TenantID, nil
}

// missingParent reports a referenced document that does not exist.
func missingParent(kind, id string) error {
	return fmt.Errorf("%w: %s %s does not exist", common.ErrInvalidArgument, kind, id)
}

// expectedVersion lets a client pin the version it edited; zero means "whatever is stored".
func expectedVersion(client, stored int64) int64 {
	if client > 0 {
		return client
	}
	return stored
}
