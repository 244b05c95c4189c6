package workflow

import (
	"errors"
	"strings"
)

type DeliveryMode string

const (
	ModeMobile DeliveryMode = "mobile"
	ModeBank   DeliveryMode = "bank"
)

var ErrModeMismatch = errors.New("recipient details do not match the batch delivery mode")

// MobileRecipient delivers funds to a mobile-money number. ContactID and
// ContactName only record where an auto-filled number came from.
type MobileRecipient struct {
	Phone       string `json:"phone"`
	ContactID   string `json:"contactId,omitempty"`
	ContactName string `json:"contactName,omitempty"`
}

// BankRecipient delivers funds over bank rails. Swift is derived from the
// chosen bank, never entered by hand. RawBankText preserves an auto-filled
// bank name that matched no known bank, so the operator can see it.
type BankRecipient struct {
	BankID        string `json:"bankId"`
	BankName      string `json:"bankName"`
	Swift         string `json:"swift"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	RawBankText   string `json:"rawBankText,omitempty"`
}

// RecipientDetails is a tagged variant: exactly one of Mobile or Bank is set,
// matching Mode. Conflating the two in a single record with optional fields
// is what used to leak stale bank fields into mobile-money submissions.
type RecipientDetails struct {
	Mode   DeliveryMode     `json:"mode"`
	Mobile *MobileRecipient `json:"mobile,omitempty"`
	Bank   *BankRecipient   `json:"bank,omitempty"`
}

// Complete reports whether the entry carries every field its variant
// requires.
func (r RecipientDetails) Complete() bool {
	switch r.Mode {
	case ModeMobile:
		return r.Mobile != nil && strings.TrimSpace(r.Mobile.Phone) != ""
	case ModeBank:
		return r.Bank != nil &&
			r.Bank.BankID != "" &&
			strings.TrimSpace(r.Bank.AccountNumber) != "" &&
			strings.TrimSpace(r.Bank.AccountName) != ""
	default:
		return false
	}
}

// RecipientSet maps bill id to its (single) recipient record.
type RecipientSet map[string]RecipientDetails

// Set stores a recipient for a bill, refusing entries tagged with a mode
// other than the batch-wide one.
func (s RecipientSet) Set(billID string, mode DeliveryMode, details RecipientDetails) error {
	if details.Mode != mode {
		return ErrModeMismatch
	}
	switch details.Mode {
	case ModeMobile:
		if details.Bank != nil {
			return ErrModeMismatch
		}
	case ModeBank:
		if details.Mobile != nil {
			return ErrModeMismatch
		}
	}
	s[billID] = details
	return nil
}

// Rekey switches every entry to the new delivery mode. Fields from the old
// variant are discarded wholesale; the entries come back incomplete and the
// operator re-enters them. Nothing from a bank record may survive into a
// mobile-money submission, or vice versa.
func (s RecipientSet) Rekey(mode DeliveryMode) {
	for billID := range s {
		s[billID] = RecipientDetails{Mode: mode}
	}
}

// CompleteCount counts entries that are submittable as-is.
func (s RecipientSet) CompleteCount() int {
	n := 0
	for _, r := range s {
		if r.Complete() {
			n++
		}
	}
	return n
}

// Bank is one row of the backend's searchable bank directory.
type Bank struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	SwiftCode string `json:"swift_code"`
}

// MatchBank resolves a free-text bank name against the directory: exact
// (case-insensitive) first, then substring either direction, tested against
// both the full and the short name.
func MatchBank(banks []Bank, name string) (Bank, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Bank{}, false
	}

	for _, b := range banks {
		if strings.ToLower(b.Name) == needle || strings.ToLower(b.ShortName) == needle {
			return b, true
		}
	}

	for _, b := range banks {
		if fuzzyContains(b.Name, needle) || fuzzyContains(b.ShortName, needle) {
			return b, true
		}
	}

	return Bank{}, false
}

func fuzzyContains(candidate, needle string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return false
	}
	return strings.Contains(c, needle) || strings.Contains(needle, c)
}
