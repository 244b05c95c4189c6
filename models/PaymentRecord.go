package models

import "gorm.io/gorm"

// PaymentRecord is one per-bill outcome of a submitted batch, kept for the
// payment history screen after the workflow session itself is gone.
type PaymentRecord struct {
	gorm.Model

	TokenID   uint
	CompanyID string `gorm:"index"`

	WorkflowID string `gorm:"index"`
	BillID     string
	VendorName string
	InvoiceRef string

	Amount   string
	Currency string
	Note     string

	SourceID   string
	SourceKind string

	Succeeded      bool
	Reference      string
	PaymentEventID int64
	FailureReason  string
}
