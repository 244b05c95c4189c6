package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportFormat(t *testing.T) {
	got, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, got)

	got, err = ParseExportFormat("xml")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, got)

	_, err = ParseExportFormat("pdf")
	assert.Error(t, err)
}

func TestExportNegotiationHappyPath(t *testing.T) {
	e := NewExportState()

	require.NoError(t, e.Begin(FormatXML))
	assert.True(t, e.Exporting)

	e.Complete(ExportFile{Filename: "payments-2026-08.xml", PaymentCount: 3})

	assert.False(t, e.Exporting)
	require.NotNil(t, e.File)
	assert.Equal(t, 3, e.File.PaymentCount)
}

func TestExportConversionReprompt(t *testing.T) {
	e := NewExportState()
	require.NoError(t, e.Begin(FormatCSV))

	mismatches := []MismatchedPayment{
		{BillRef: "INV-9", Amount: "120.00", FromCurrency: "USD", ToCurrency: "UGX"},
	}
	err := e.RequireConversion(mismatches, "2 payments are not in UGX. Convert them?")

	// the first requires_conversion is a re-prompt, not an error
	require.NoError(t, err)
	assert.True(t, e.AwaitingConsent)
	assert.False(t, e.Exporting)
	assert.Len(t, e.Mismatches, 1)

	// consenting buys exactly one retry with conversion allowed
	require.NoError(t, e.Conceded())
	assert.True(t, e.RetriedWithConversion)
	assert.True(t, e.Exporting)
	assert.False(t, e.AwaitingConsent)

	// a second requires_conversion after the consented retry fails outright
	err = e.RequireConversion(mismatches, "still mismatched")
	assert.ErrorIs(t, err, ErrConversionUnsolved)
	assert.False(t, e.AwaitingConsent)
	assert.Nil(t, e.Mismatches)
}

func TestExportConcededWithoutPrompt(t *testing.T) {
	e := NewExportState()
	assert.ErrorIs(t, e.Conceded(), ErrNoConsentPending)
}

func TestExportBeginWhileInFlight(t *testing.T) {
	e := NewExportState()
	require.NoError(t, e.Begin(FormatCSV))
	assert.ErrorIs(t, e.Begin(FormatCSV), ErrExportInFlight)
}

func TestExportDeclineLeavesStepParked(t *testing.T) {
	s := NewSession("wf-1", "c1", "o1", []BillToPay{bill("b1", "UGX", "100")})
	require.NoError(t, s.SelectSource(bankSource()))
	eventId := int64(501)
	require.Equal(t, StepExport, s.FinishSubmit([]PaymentResult{
		{BillID: "b1", Success: true, PaymentEventID: &eventId},
	}))

	// skipping is the only way off the export step without a file
	require.NoError(t, s.SkipExport())
	assert.Equal(t, StepResult, s.Step)
	assert.Nil(t, s.Export.File)

	assert.ErrorIs(t, s.SkipExport(), ErrWrongStep)
}
