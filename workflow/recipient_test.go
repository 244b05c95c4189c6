package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientSetModeMismatch(t *testing.T) {
	s := make(RecipientSet)

	err := s.Set("b1", ModeMobile, RecipientDetails{
		Mode: ModeBank,
		Bank: &BankRecipient{BankID: "bank-1"},
	})
	assert.ErrorIs(t, err, ErrModeMismatch)

	// a mobile-tagged entry smuggling bank fields is refused too
	err = s.Set("b1", ModeMobile, RecipientDetails{
		Mode:   ModeMobile,
		Mobile: &MobileRecipient{Phone: "0700123456"},
		Bank:   &BankRecipient{BankID: "bank-1"},
	})
	assert.ErrorIs(t, err, ErrModeMismatch)

	err = s.Set("b1", ModeMobile, RecipientDetails{
		Mode:   ModeMobile,
		Mobile: &MobileRecipient{Phone: "0700123456"},
	})
	assert.NoError(t, err)
}

func TestRekeyDiscardsOldVariantFields(t *testing.T) {
	s := make(RecipientSet)
	require.NoError(t, s.Set("b1", ModeBank, RecipientDetails{
		Mode: ModeBank,
		Bank: &BankRecipient{
			BankID:        "bank-1",
			BankName:      "Stanbic",
			Swift:         "SBICUGKX",
			AccountNumber: "9030001234",
			AccountName:   "Vendor One",
		},
	}))
	require.Equal(t, 1, s.CompleteCount())

	s.Rekey(ModeMobile)

	entry := s["b1"]
	assert.Equal(t, ModeMobile, entry.Mode)
	assert.Nil(t, entry.Bank)
	assert.Nil(t, entry.Mobile)
	assert.False(t, entry.Complete())
	assert.Equal(t, 0, s.CompleteCount())
}

func TestRecipientDetailsComplete(t *testing.T) {
	tests := []struct {
		name    string
		details RecipientDetails
		want    bool
	}{
		{
			name:    "mobile with phone",
			details: RecipientDetails{Mode: ModeMobile, Mobile: &MobileRecipient{Phone: "0700123456"}},
			want:    true,
		},
		{
			name:    "mobile with blank phone",
			details: RecipientDetails{Mode: ModeMobile, Mobile: &MobileRecipient{Phone: "   "}},
			want:    false,
		},
		{
			name: "bank with all fields",
			details: RecipientDetails{Mode: ModeBank, Bank: &BankRecipient{
				BankID: "bank-1", AccountNumber: "9030001234", AccountName: "Vendor One",
			}},
			want: true,
		},
		{
			name: "bank missing account name",
			details: RecipientDetails{Mode: ModeBank, Bank: &BankRecipient{
				BankID: "bank-1", AccountNumber: "9030001234",
			}},
			want: false,
		},
		{
			name: "bank with raw text only",
			details: RecipientDetails{Mode: ModeBank, Bank: &BankRecipient{
				RawBankText: "some bank", AccountNumber: "9030001234", AccountName: "Vendor One",
			}},
			want: false,
		},
		{
			name:    "untagged entry",
			details: RecipientDetails{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.details.Complete())
		})
	}
}

func TestMatchBank(t *testing.T) {
	banks := []Bank{
		{ID: "1", Name: "Stanbic Bank Uganda", ShortName: "Stanbic", SwiftCode: "SBICUGKX"},
		{ID: "2", Name: "Centenary Rural Development Bank", ShortName: "Centenary", SwiftCode: "CERBUGKA"},
		{ID: "3", Name: "ABSA Bank Uganda", ShortName: "ABSA", SwiftCode: "BARCUGKX"},
	}

	tests := []struct {
		name   string
		search string
		wantID string
		found  bool
	}{
		{name: "exact full name", search: "Stanbic Bank Uganda", wantID: "1", found: true},
		{name: "exact short name, case-insensitive", search: "absa", wantID: "3", found: true},
		{name: "needle inside full name", search: "centenary rural", wantID: "2", found: true},
		{name: "full name inside needle", search: "ABSA Bank Uganda Ltd.", wantID: "3", found: true},
		{name: "no match", search: "Equity", found: false},
		{name: "blank", search: "   ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchBank(banks, tt.search)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
