package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/google/uuid"
)

// UploadRequest describes a file to attach.
type UploadRequest struct {
	EntityType    model.AttachmentEntityType
	PropertyID    string
	PaymentID     string
	TransactionID string
	FileName      string
	ContentType   string
	Description   string
}

// AttachmentService stores files and links them to their owning documents.
type AttachmentService struct {
	attachments  *storage.AttachmentRepository
	properties   *storage.PropertyRepository
	payments     *storage.PaymentRepository
	transactions *storage.TransactionRepository
	blobs        BlobStore
}

// NewAttachmentService creates an attachment service.
func NewAttachmentService(repos *storage.Repositories, blobs BlobStore) *AttachmentService {
	return &AttachmentService{
		attachments:  repos.Attachments,
		properties:   repos.Properties,
		payments:     repos.Payments,
		transactions: repos.Transactions,
		blobs:        blobs,
	}
}

// checkOwner verifies the documents the attachment will hang off exist and
// belong together.
func (s *AttachmentService) checkOwner(ctx context.Context, tenantID string, a *model.Attachment) error {
	if err := storage.ValidateID(a.PropertyID); err != nil {
		return err
	}
	prop, err := s.properties.GetByID(ctx, tenantID, a.PropertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return missingParent("property", a.PropertyID)
	}

	switch a.EntityType {
	case model.AttachPayment:
		p, err := s.payments.GetByID(ctx, tenantID, a.PaymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return missingParent("payment", a.PaymentID)
		}
		if p.PropertyID != a.PropertyID {
			return fmt.Errorf("%w: payment %s belongs to property %s", common.ErrInvalidArgument, p.ID, p.PropertyID)
		}
	case model.AttachTransaction:
		t, err := s.transactions.GetByID(ctx, tenantID, a.TransactionID)
		if err != nil {
			return err
		}
		if t == nil {
			return missingParent("transaction", a.TransactionID)
		}
		if t.PropertyID != a.PropertyID {
			return fmt.Errorf("%w: transaction %s belongs to property %s", common.ErrInvalidArgument, t.ID, t.PropertyID)
		}
	}
	return nil
}

// Upload saves r as a new attachment and appends it to the owner's attachment list.
func (s *AttachmentService) Upload(ctx context.Context, req UploadRequest, r io.Reader) (*model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: content", storage.ErrNilParameter)
	}

	a := &model.Attachment{
		Base:          model.Base{ID: uuid.NewString(), TenantID: tenantID},
		FileName:      strings.TrimSpace(req.FileName),
		ContentType:   req.ContentType,
		EntityType:    req.EntityType,
		PropertyID:    req.PropertyID,
		PaymentID:     req.PaymentID,
		TransactionID: req.TransactionID,
		Description:   req.Description,
	}
	if a.ContentType == "" {
		a.ContentType = "application/octet-stream"
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, tenantID, a); err != nil {
		return nil, err
	}

	a.StorageKey = path.Join(string(a.EntityType), a.ID, a.FileName)
	size, err := s.blobs.Save(ctx, tenantID, a.StorageKey, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment content: %w", err)
	}
	a.Size = size

	if _, err := s.attachments.Create(ctx, a); err != nil {
		s.discardBlob(ctx, tenantID, a.StorageKey)
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	if err := s.link(ctx, tenantID, a, true); err != nil {
		if delErr := s.attachments.Delete(ctx, tenantID, a.ID); delErr != nil {
			slog.Warn("Failed to remove unlinked attachment", "id", a.ID, "error", delErr)
		}
		s.discardBlob(ctx, tenantID, a.StorageKey)
		return nil, fmt.Errorf("failed to link attachment: %w", err)
	}

	slog.Info("Uploaded attachment", "tenant", tenantID, "id", a.ID, "entity", a.EntityType, "bytes", a.Size)
	return a, nil
}

func (s *AttachmentService) discardBlob(ctx context.Context, tenantID, key string) {
	if err := s.blobs.Delete(ctx, tenantID, key); err != nil {
		slog.Warn("Failed to discard attachment content", "key", key, "error", err)
	}
}

// errOwnerGone stops a link retry when the owning document was deleted.
var errOwnerGone = errors.New("owner no longer exists")

// link adds or removes a's id on the owning document's attachment list,
// re-reading the owner whenever a concurrent writer wins.
func (s *AttachmentService) link(ctx context.Context, tenantID string, a *model.Attachment, add bool) error {
	edit := func(ids []string) []string {
		if add {
			if slices.Contains(ids, a.ID) {
				return ids
			}
			return append(ids, a.ID)
		}
		return slices.DeleteFunc(ids, func(id string) bool { return id == a.ID })
	}

	err := retryOnConflict(ctx, func() error {
		switch a.EntityType {
		case model.AttachProperty:
			doc, err := s.properties.GetByID(ctx, tenantID, a.PropertyID)
			if err != nil {
				return err
			}
			if doc == nil {
				return errOwnerGone
			}
			doc.AttachmentIDs = edit(doc.AttachmentIDs)
			return s.properties.Update(ctx, tenantID, doc.ID, doc)
		case model.AttachPayment:
			doc, err := s.payments.GetByID(ctx, tenantID, a.PaymentID)
			if err != nil {
				return err
			}
			if doc == nil {
				return errOwnerGone
			}
			doc.AttachmentIDs = edit(doc.AttachmentIDs)
			return s.payments.Update(ctx, tenantID, doc.ID, doc)
		case model.AttachTransaction:
			doc, err := s.transactions.GetByID(ctx, tenantID, a.TransactionID)
			if err != nil {
				return err
			}
			if doc == nil {
				return errOwnerGone
			}
			doc.AttachmentIDs = edit(doc.AttachmentIDs)
			return s.transactions.Update(ctx, tenantID, doc.ID, doc)
		default:
			return fmt.Errorf("%w: unknown attachment entity type %q", common.ErrInvalidArgument, a.EntityType)
		}
	})

	if errors.Is(err, errOwnerGone) {
		if add {
			return missingParent(string(a.EntityType), ownerID(a))
		}
		return nil
	}
	return err
}

func ownerID(a *model.Attachment) string {
	switch a.EntityType {
	case model.AttachPayment:
		return a.PaymentID
	case model.AttachTransaction:
		return a.TransactionID
	default:
		return a.PropertyID
	}
}

// Get returns attachment metadata, or nil.
func (s *AttachmentService) Get(ctx context.Context, id string) (*model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachments.GetByID(ctx, tenantID, id)
}

// Open returns the metadata and content of an attachment. The caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, id string) (*model.Attachment, io.ReadCloser, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.attachments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, fmt.Errorf("%w: attachment %s", common.ErrNotFound, id)
	}

	rc, err := s.blobs.Open(ctx, tenantID, a.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return a, rc, nil
}

// ListByProperty returns every attachment of a property, including those on its payments and transactions.
func (s *AttachmentService) ListByProperty(ctx context.Context, propertyID string) ([]model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachments.GetByProperty(ctx, tenantID, propertyID)
}

// ListByPayment returns the attachments of a payment.
func (s *AttachmentService) ListByPayment(ctx context.Context, paymentID string) ([]model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachments.GetByPayment(ctx, tenantID, paymentID)
}

// ListByTransaction returns the attachments of a transaction.
func (s *AttachmentService) ListByTransaction(ctx context.Context, transactionID string) ([]model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachments.GetByTransaction(ctx, tenantID, transactionID)
}

// ListByEntityType returns the caller's attachments of one entity type.
func (s *AttachmentService) ListByEntityType(ctx context.Context, entityType model.AttachmentEntityType) ([]model.Attachment, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachments.GetByEntityType(ctx, tenantID, entityType)
}

// Delete unlinks the attachment from its owner and removes the document and
// its content. Deleting a missing attachment is not an error.
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return err
	}
	a, err := s.attachments.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if a == nil {
		return nil
	}

	if err := s.link(ctx, tenantID, a, false); err != nil {
		return fmt.Errorf("failed to unlink attachment: %w", err)
	}
	if err := s.attachments.Delete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := s.blobs.Delete(ctx, tenantID, a.StorageKey); err != nil {
		return fmt.Errorf("failed to delete attachment content: %w", err)
	}

	slog.Info("Deleted attachment", "tenant", tenantID, "id", id)
	return nil
}
