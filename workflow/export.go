package workflow

import "errors"

type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatXML ExportFormat = "xml"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(raw) {
	case FormatCSV, FormatXML:
		return ExportFormat(raw), nil
	case "":
		return FormatCSV, nil
	default:
		return "", errors.New("unsupported export format: " + raw)
	}
}

var (
	ErrExportInFlight     = errors.New("an export attempt is already running")
	ErrNoConsentPending   = errors.New("no conversion consent is pending")
	ErrConversionUnsolved = errors.New("backend still requires conversion after consent")
)

// MismatchedPayment is one line of a requires_conversion response: a bill
// whose currency differs from the payout source's.
type MismatchedPayment struct {
	BillRef      string `json:"bill_ref"`
	Amount       string `json:"amount"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
}

// ExportFile describes a generated bank-upload file. Generation and storage
// happen server-side; this is all the workflow ever sees.
type ExportFile struct {
	Filename     string `json:"filename"`
	PaymentCount int    `json:"payment_count"`
}

// ExportState tracks one export negotiation. A requires_conversion answer is
// a re-prompt, not an error; consenting buys exactly one re-attempt with
// conversion allowed, and a second requires_conversion after that is a plain
// failure. Declining leaves the workflow parked on the export step.
type ExportState struct {
	Format                ExportFormat        `json:"format"`
	Exporting             bool                `json:"exporting"`
	AwaitingConsent       bool                `json:"awaitingConsent"`
	Mismatches            []MismatchedPayment `json:"mismatches,omitempty"`
	Prompt                string              `json:"prompt,omitempty"`
	RetriedWithConversion bool                `json:"-"`
	File                  *ExportFile         `json:"file,omitempty"`
}

func NewExportState() ExportState {
	return ExportState{Format: FormatCSV}
}

// Begin starts a fresh export action (allowConversion=false). Any pending
// consent from a previous action is abandoned.
func (e *ExportState) Begin(format ExportFormat) error {
	if e.Exporting {
		return ErrExportInFlight
	}
	e.Format = format
	e.Exporting = true
	e.AwaitingConsent = false
	e.Mismatches = nil
	e.Prompt = ""
	e.RetriedWithConversion = false
	e.File = nil
	return nil
}

// Conceded is called when the operator consents to conversion; it authorizes
// the single re-attempt.
func (e *ExportState) Conceded() error {
	if !e.AwaitingConsent {
		return ErrNoConsentPending
	}
	e.AwaitingConsent = false
	e.RetriedWithConversion = true
	e.Exporting = true
	return nil
}

// RequireConversion records a requires_conversion answer. On the first
// attempt it parks the state awaiting consent; after a consented re-attempt
// it is an unresolved server-side condition and fails outright.
func (e *ExportState) RequireConversion(mismatches []MismatchedPayment, prompt string) error {
	e.Exporting = false
	if e.RetriedWithConversion {
		e.Mismatches = nil
		e.Prompt = ""
		return ErrConversionUnsolved
	}
	e.AwaitingConsent = true
	e.Mismatches = mismatches
	e.Prompt = prompt
	return nil
}

// Fail ends the attempt without a file.
func (e *ExportState) Fail() {
	e.Exporting = false
}

// Complete records the generated file descriptor.
func (e *ExportState) Complete(file ExportFile) {
	e.Exporting = false
	e.AwaitingConsent = false
	e.Mismatches = nil
	e.Prompt = ""
	e.File = &file
}
