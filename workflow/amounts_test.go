package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bill(id, currency, due string) BillToPay {
	d, err := decimal.NewFromString(due)
	if err != nil {
		panic(err)
	}
	return BillToPay{
		ID:         id,
		VendorName: "Vendor " + id,
		InvoiceRef: "INV-" + id,
		Currency:   currency,
		AmountDue:  d,
	}
}

func TestAmountMapSet(t *testing.T) {
	b := bill("b1", "UGX", "100")

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "full amount", raw: "100", wantErr: nil},
		{name: "partial amount", raw: "60", wantErr: nil},
		{name: "exactly the amount due", raw: "100.00", wantErr: nil},
		{name: "one cent over", raw: "100.01", wantErr: ErrAmountExceedsDue},
		{name: "zero", raw: "0", wantErr: ErrAmountNotPositive},
		{name: "negative", raw: "-5", wantErr: ErrAmountNotPositive},
		{name: "not a number", raw: "ten", wantErr: ErrAmountNotParsable},
		{name: "empty", raw: "", wantErr: ErrAmountNotParsable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make(AmountMap)
			err := m.Set(b, tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, m)
				return
			}
			require.NoError(t, err)
			assert.True(t, m.Resolved(b).Equal(decimal.RequireFromString(tt.raw)))
		})
	}
}

func TestAmountMapResolvedFallsBackToDue(t *testing.T) {
	b := bill("b1", "UGX", "250")
	m := make(AmountMap)

	assert.True(t, m.Resolved(b).Equal(decimal.RequireFromString("250")))
	assert.False(t, m.IsPartial(b))

	require.NoError(t, m.Set(b, "100"))
	assert.True(t, m.Resolved(b).Equal(decimal.RequireFromString("100")))
	assert.True(t, m.IsPartial(b))

	m.Clear(b.ID)
	assert.True(t, m.Resolved(b).Equal(decimal.RequireFromString("250")))
	assert.False(t, m.IsPartial(b))
}

func TestAmountMapTotalAndPartialCount(t *testing.T) {
	bills := []BillToPay{
		bill("b1", "UGX", "100"),
		bill("b2", "UGX", "100"),
		bill("b3", "UGX", "100"),
	}

	m := make(AmountMap)
	require.NoError(t, m.Set(bills[1], "60"))

	assert.True(t, m.Total(bills).Equal(decimal.RequireFromString("260")))
	assert.Equal(t, 1, m.PartialCount(bills))
}
