package workflow

import "github.com/shopspring/decimal"

// BillToPay is an immutable snapshot of a payable bill for the lifetime of
// one workflow session. Operator overrides never touch it; they live in the
// session's AmountMap.
type BillToPay struct {
	ID         string          `json:"id"`
	VendorName string          `json:"vendorName"`
	InvoiceRef string          `json:"invoiceRef"`
	Currency   string          `json:"currency"`
	AmountDue  decimal.Decimal `json:"amountDue"`

	// linked contact at the finance backend, used only by recipient auto-fill
	ContactID string `json:"contactId,omitempty"`
}
