package workflow

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotParsable = errors.New("amount is not a valid decimal")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountExceedsDue  = errors.New("amount exceeds the amount due")
)

// AmountMap holds operator overrides of the amount paid per bill, keyed by
// bill id. A missing key means "pay the amount due unchanged".
type AmountMap map[string]string

// Set validates and stores an override for the given bill. The bounds
// 0 < amount <= amountDue are enforced here, at validation time, not at
// keystroke time.
func (m AmountMap) Set(bill BillToPay, raw string) error {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrAmountNotParsable, raw)
	}
	if !amount.GreaterThan(decimal.Zero) {
		return ErrAmountNotPositive
	}
	if amount.GreaterThan(bill.AmountDue) {
		return ErrAmountExceedsDue
	}

	m[bill.ID] = amount.String()
	return nil
}

func (m AmountMap) Clear(billID string) {
	delete(m, billID)
}

// Resolved returns the amount that will actually be paid for the bill,
// falling back to the amount due when no override exists.
func (m AmountMap) Resolved(bill BillToPay) decimal.Decimal {
	raw, ok := m[bill.ID]
	if !ok {
		return bill.AmountDue
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return bill.AmountDue
	}
	return amount
}

// IsPartial reports whether the resolved amount is strictly below the amount
// due. Partial payment is a supported outcome, flagged but never blocking.
func (m AmountMap) IsPartial(bill BillToPay) bool {
	return m.Resolved(bill).LessThan(bill.AmountDue)
}

// Total sums the resolved amounts over the whole batch.
func (m AmountMap) Total(bills []BillToPay) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(m.Resolved(b))
	}
	return total
}

// PartialCount counts the bills that would be underpaid.
func (m AmountMap) PartialCount(bills []BillToPay) int {
	n := 0
	for _, b := range bills {
		if m.IsPartial(b) {
			n++
		}
	}
	return n
}
