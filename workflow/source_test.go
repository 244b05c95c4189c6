package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHasSufficientBalance(t *testing.T) {
	tests := []struct {
		name         string
		currency     string
		balance      string
		billCurrency string
		total        string
		want         bool
	}{
		{name: "same currency, enough", currency: "UGX", balance: "500", billCurrency: "UGX", total: "260", want: true},
		{name: "same currency, exactly enough", currency: "UGX", balance: "260", billCurrency: "UGX", total: "260", want: true},
		{name: "same currency, short", currency: "UGX", balance: "259.99", billCurrency: "UGX", total: "260", want: false},
		{name: "cross currency, small balance still passes", currency: "USD", balance: "0.01", billCurrency: "UGX", total: "1000000", want: true},
		{name: "cross currency, zero balance fails", currency: "USD", balance: "0", billCurrency: "UGX", total: "10", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := PaymentSource{
				ID:       "s1",
				Kind:     KindBankAccount,
				Currency: tt.currency,
				Balance:  decimal.RequireFromString(tt.balance),
			}
			got := HasSufficientBalance(src, decimal.RequireFromString(tt.total), tt.billCurrency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSources(t *testing.T) {
	payload := SourceListPayload{
		MobileMoneyAccounts: []sourceAccount{
			{ID: "m1", Name: "MTN Till", Currency: "UGX", Balance: "1000", Provider: "mtn"},
			{ID: "m2", Name: "Airtel Till", Currency: "UGX", Balance: "500", Provider: "airtel", IsDefault: true},
		},
		BankAccounts: []sourceAccount{
			{ID: "b1", Name: "Operating Account", Currency: "UGX", Balance: "not-a-number", BankName: "Stanbic"},
		},
		WalletAccounts: []sourceAccount{
			{ID: "w1", Name: "Main Wallet", Currency: "UGX", Balance: "-3"},
		},
	}

	sources := NormalizeSources(payload)
	assert.Len(t, sources, 4)

	// grouped by kind, defaults first within each group
	assert.Equal(t, "m2", sources[0].ID)
	assert.Equal(t, KindMobileMoney, sources[0].Kind)
	assert.Equal(t, "m1", sources[1].ID)
	assert.Equal(t, "b1", sources[2].ID)
	assert.Equal(t, KindBankAccount, sources[2].Kind)
	assert.Equal(t, "w1", sources[3].ID)
	assert.Equal(t, KindWallet, sources[3].Kind)

	// bad balances degrade to zero instead of dropping the source
	assert.True(t, sources[2].Balance.IsZero())
	assert.True(t, sources[3].Balance.IsZero())
}

func TestRequiresRecipients(t *testing.T) {
	assert.True(t, PaymentSource{Kind: KindMobileMoney}.RequiresRecipients())
	assert.True(t, PaymentSource{Kind: KindBankAccount}.RequiresRecipients())
	assert.False(t, PaymentSource{Kind: KindWallet}.RequiresRecipients())
}

func TestFindSource(t *testing.T) {
	sources := []PaymentSource{{ID: "a"}, {ID: "b"}}

	got, ok := FindSource(sources, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)

	_, ok = FindSource(sources, "c")
	assert.False(t, ok)
}
