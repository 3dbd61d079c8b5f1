package storage

import (
	"context"

	"github.com/Veraticus/rentbook/internal/model"
)

// AttachmentRepository adds attachment queries to the generic repository.
type AttachmentRepository struct {
	*Repository[model.Attachment, *model.Attachment]
}

// NewAttachmentRepository creates an attachment repository.
func NewAttachmentRepository(s *SQLiteStorage) *AttachmentRepository {
	return &AttachmentRepository{Repository: NewRepository[model.Attachment](s, CollectionAttachments)}
}

// GetByProperty returns every attachment that belongs to a property.
func (r *AttachmentRepository) GetByProperty(ctx context.Context, tenantID, propertyID string) ([]model.Attachment, error) {
	if err := ValidateID(propertyID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("propertyId", propertyID))
}

// GetByPayment returns the attachments of a payment.
func (r *AttachmentRepository) GetByPayment(ctx context.Context, tenantID, paymentID string) ([]model.Attachment, error) {
	if err := ValidateID(paymentID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("paymentId", paymentID))
}

// GetByTransaction returns the attachments of a transaction.
func (r *AttachmentRepository) GetByTransaction(ctx context.Context, tenantID, transactionID string) ([]model.Attachment, error) {
	if err := ValidateID(transactionID); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("transactionId", transactionID))
}

// GetByEntityType returns the attachments whose entity type discriminator is entityType.
func (r *AttachmentRepository) GetByEntityType(ctx context.Context, tenantID string, entityType model.AttachmentEntityType) ([]model.Attachment, error) {
	if err := validateString(string(entityType), "entityType"); err != nil {
		return nil, err
	}
	return r.Find(ctx, ForTenant(tenantID), Eq("entityType", string(entityType)))
}
