package workflow

import (
	"github.com/shopspring/decimal"
)

type SourceKind string

const (
	KindMobileMoney SourceKind = "mobile_money"
	KindBankAccount SourceKind = "bank_account"
	KindWallet      SourceKind = "wallet"
)

// PaymentSource is one account an operator can pay from, normalized from the
// per-kind arrays the backend returns.
type PaymentSource struct {
	ID        string          `json:"id"`
	Kind      SourceKind      `json:"kind"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Provider  string          `json:"provider,omitempty"`
	BankName  string          `json:"bankName,omitempty"`
	IsDefault bool            `json:"isDefault"`
}

// RequiresRecipients reports whether paying from this source needs per-bill
// routing details. Pooled wallet sources settle internally and skip the
// recipient step entirely.
func (s PaymentSource) RequiresRecipients() bool {
	return s.Kind != KindWallet
}

// HasSufficientBalance checks the source against the batch total. Comparisons
// are exact only in the source's own currency; a cross-currency source is
// treated as provisionally sufficient whenever it holds anything at all —
// the backend re-validates after conversion at submission time.
func HasSufficientBalance(s PaymentSource, total decimal.Decimal, billCurrency string) bool {
	if s.Currency == billCurrency {
		return s.Balance.GreaterThanOrEqual(total)
	}
	return s.Balance.GreaterThan(decimal.Zero)
}

// SourceListPayload mirrors the backend's listPaymentSources response.
type SourceListPayload struct {
	MobileMoneyAccounts []sourceAccount `json:"mobile_money_accounts"`
	BankAccounts        []sourceAccount `json:"bank_accounts"`
	WalletAccounts      []sourceAccount `json:"wallet_accounts"`
}

type sourceAccount struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Provider  string `json:"provider"`
	BankName  string `json:"bank_name"`
	IsDefault bool   `json:"is_default"`
}

// NormalizeSources merges the per-kind account arrays into one kind-tagged
// list, grouped by kind with default sources listed first inside each group.
// Unparseable balances degrade to zero rather than dropping the source.
func NormalizeSources(payload SourceListPayload) []PaymentSource {
	out := make([]PaymentSource, 0,
		len(payload.MobileMoneyAccounts)+len(payload.BankAccounts)+len(payload.WalletAccounts))

	out = append(out, normalizeGroup(payload.MobileMoneyAccounts, KindMobileMoney)...)
	out = append(out, normalizeGroup(payload.BankAccounts, KindBankAccount)...)
	out = append(out, normalizeGroup(payload.WalletAccounts, KindWallet)...)

	return out
}

func normalizeGroup(accounts []sourceAccount, kind SourceKind) []PaymentSource {
	defaults := make([]PaymentSource, 0, len(accounts))
	rest := make([]PaymentSource, 0, len(accounts))

	for _, a := range accounts {
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil || balance.IsNegative() {
			balance = decimal.Zero
		}

		src := PaymentSource{
			ID:        a.ID,
			Kind:      kind,
			Name:      a.Name,
			Currency:  a.Currency,
			Balance:   balance,
			Provider:  a.Provider,
			BankName:  a.BankName,
			IsDefault: a.IsDefault,
		}

		if src.IsDefault {
			defaults = append(defaults, src)
		} else {
			rest = append(rest, src)
		}
	}

	return append(defaults, rest...)
}

// FindSource looks a source up by id in a normalized list.
func FindSource(sources []PaymentSource, id string) (PaymentSource, bool) {
	for _, s := range sources {
		if s.ID == id {
			return s, true
		}
	}
	return PaymentSource{}, false
}
