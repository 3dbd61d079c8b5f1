package storage

// Repositories bundles every collection repository over one storage handle.
type Repositories struct {
	Properties     *PropertyRepository
	Payments       *PaymentRepository
	Transactions   *TransactionRepository
	Attachments    *AttachmentRepository
	Categories     *CategoryRepository
	PaymentMethods *PaymentMethodRepository
}

// NewRepositories creates the repositories that share s.
func NewRepositories(s *SQLiteStorage) *Repositories {
	return &Repositories{
		Properties:     NewPropertyRepository(s),
		Payments:       NewPaymentRepository(s),
		Transactions:   NewTransactionRepository(s),
		Attachments:    NewAttachmentRepository(s),
		Categories:     NewCategoryRepository(s),
		PaymentMethods: NewPaymentMethodRepository(s),
	}
}
