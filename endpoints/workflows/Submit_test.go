package workflows

import (
	"testing"

	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T, kind workflow.SourceKind) *workflow.Session {
	t.Helper()

	bills := []workflow.BillToPay{
		{ID: "b1", VendorName: "Vendor One", InvoiceRef: "INV-1", Currency: "UGX",
			AmountDue: decimal.RequireFromString("100")},
		{ID: "b2", VendorName: "Vendor Two", InvoiceRef: "INV-2", Currency: "UGX",
			AmountDue: decimal.RequireFromString("100")},
	}
	s := workflow.NewSession("wf-1", "company-1", "org-1", bills)
	require.NoError(t, s.SelectSource(workflow.PaymentSource{
		ID:       "src-1",
		Kind:     kind,
		Currency: "UGX",
		Balance:  decimal.RequireFromString("1000"),
	}))
	return s
}

func TestBuildEnvelopeMobile(t *testing.T) {
	s := testSession(t, workflow.KindMobileMoney)

	require.NoError(t, s.SetRecipient("b1", workflow.RecipientDetails{
		Mode:   workflow.ModeMobile,
		Mobile: &workflow.MobileRecipient{Phone: "0700 123 456"},
	}))
	require.NoError(t, s.SetRecipient("b2", workflow.RecipientDetails{
		Mode:   workflow.ModeMobile,
		Mobile: &workflow.MobileRecipient{Phone: "+256701234567"},
	}))
	require.NoError(t, s.SetAmount("b2", "60"))

	env := buildEnvelope(s, "UG")

	assert.Equal(t, "src-1", env.SourceAccountId)
	assert.Equal(t, "mobile_money", env.SourceKind)
	require.Len(t, env.Payments, 2)

	assert.Equal(t, "100", env.Payments[0].Amount)
	assert.Equal(t, "+256700123456", env.Payments[0].Recipient.Phone)
	assert.Empty(t, env.Payments[0].Recipient.AccountNumber)

	assert.Equal(t, "60", env.Payments[1].Amount)
	assert.Equal(t, "+256701234567", env.Payments[1].Recipient.Phone)
}

func TestBuildEnvelopeBank(t *testing.T) {
	s := testSession(t, workflow.KindBankAccount)

	require.NoError(t, s.SetRecipient("b1", workflow.RecipientDetails{
		Mode: workflow.ModeBank,
		Bank: &workflow.BankRecipient{
			BankID:        "bank-1",
			BankName:      "Stanbic",
			Swift:         "SBICUGKX",
			AccountNumber: "9030001234",
			AccountName:   "Vendor One",
		},
	}))

	env := buildEnvelope(s, "UG")

	assert.Equal(t, "bank_account", env.SourceKind)
	r := env.Payments[0].Recipient
	require.NotNil(t, r)
	assert.Equal(t, "bank-1", r.BankId)
	assert.Equal(t, "SBICUGKX", r.Swift)
	assert.Equal(t, "9030001234", r.AccountNumber)
	assert.Empty(t, r.Phone)
}

func TestBuildEnvelopeWalletOmitsRecipients(t *testing.T) {
	s := testSession(t, workflow.KindWallet)

	env := buildEnvelope(s, "UG")

	require.Len(t, env.Payments, 2)
	assert.Nil(t, env.Payments[0].Recipient)
	assert.Nil(t, env.Payments[1].Recipient)
}

func TestAlignResultsByBillId(t *testing.T) {
	s := testSession(t, workflow.KindBankAccount)
	eventId := int64(501)

	// response order differs from the submitted bill order, and b2 is
	// missing from the response entirely
	raw := []workflow.PaymentResult{
		{BillID: "b1", Success: true, Reference: "REF-1", PaymentEventID: &eventId},
	}

	results := alignResults(s, raw)
	require.Len(t, results, 2)

	assert.Equal(t, "b1", results[0].BillID)
	assert.True(t, results[0].Success)
	assert.Equal(t, "REF-1", results[0].Reference)

	assert.Equal(t, "b2", results[1].BillID)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
}
