package model

import (
	"path"
	"strings"
)

// AttachmentEntityType names the kind of entity a file is attached to.
type AttachmentEntityType string

// Attachment entity types.
const (
	AttachProperty    AttachmentEntityType = "property"
	AttachPayment     AttachmentEntityType = "payment"
	AttachTransaction AttachmentEntityType = "transaction"
)

// Attachment is the metadata of a stored file.
type Attachment struct {
	Base
	FileName      string               `json:"fileName"`
	ContentType   string               `json:"contentType"`
	StorageKey    string               `json:"storageKey"`
	EntityType    AttachmentEntityType `json:"entityType"`
	PropertyID    string               `json:"propertyId"`
	PaymentID     string               `json:"paymentId,omitempty"`
	TransactionID string               `json:"transactionId,omitempty"`
	Description   string               `json:"description,omitempty"`
	Size          int64                `json:"size"`
}

// Validate checks the attachment metadata.
func (a *Attachment) Validate() error {
	name := strings.TrimSpace(a.FileName)
	if name == "" || path.Base(name) != name || name == "." || name == ".." {
		return invalid("attachment fileName %q is not a plain file name", a.FileName)
	}
	if strings.TrimSpace(a.PropertyID) == "" {
		return invalid("attachment propertyId is required")
	}
	switch a.EntityType {
	case AttachProperty:
	case AttachPayment:
		if a.PaymentID == "" {
			return invalid("payment attachment requires paymentId")
		}
	case AttachTransaction:
		if a.TransactionID == "" {
			return invalid("transaction attachment requires transactionId")
		}
	default:
		return invalid("unknown attachment entity type %q", a.EntityType)
	}
	return nil
}
