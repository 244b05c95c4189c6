package workflow

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

type Step string

const (
	StepSource     Step = "source"
	StepRecipients Step = "recipients"
	StepConfirm    Step = "confirm"
	StepProcessing Step = "processing"
	StepExport     Step = "export"
	StepResult     Step = "result"
)

var (
	ErrUnknownBill        = errors.New("bill is not part of this workflow")
	ErrNoSourceSelected   = errors.New("no payment source selected")
	ErrRecipientsPending  = errors.New("every bill needs recipient details first")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("this workflow has already been submitted")
	ErrWrongStep          = errors.New("operation not valid at the current step")
	ErrSourceSkipsRouting = errors.New("the selected source does not take recipient details")
)

// Session is one open run of the bill-payment workflow. Everything in it is
// created empty when the workflow opens and discarded in full when it
// closes; payment sources and recipients live no longer than the session.
type Session struct {
	mu sync.Mutex

	ID             string
	CompanyID      string
	OrganizationID string

	Bills []BillToPay

	Step       Step
	Source     *PaymentSource
	Mode       DeliveryMode
	Recipients RecipientSet
	Amounts    AmountMap
	Note       string
	Results    []PaymentResult
	Export     ExportState

	submitting bool
}

func NewSession(id, companyID, organizationID string, bills []BillToPay) *Session {
	return &Session{
		ID:             id,
		CompanyID:      companyID,
		OrganizationID: organizationID,
		Bills:          bills,
		Step:           StepSource,
		Recipients:     make(RecipientSet),
		Amounts:        make(AmountMap),
		Export:         NewExportState(),
	}
}

func (s *Session) Bill(billID string) (BillToPay, bool) {
	for _, b := range s.Bills {
		if b.ID == billID {
			return b, true
		}
	}
	return BillToPay{}, false
}

// SelectSource is the only way past the source step; there is no implicit
// default selection, so an operator can never advance on an account they
// did not explicitly pick.
func (s *Session) SelectSource(src PaymentSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepSource && s.Step != StepRecipients && s.Step != StepConfirm {
		return ErrWrongStep
	}

	s.Source = &src
	switch src.Kind {
	case KindBankAccount:
		s.Mode = ModeBank
	case KindMobileMoney:
		s.Mode = ModeMobile
	default:
		s.Mode = ""
	}
	s.Recipients.Rekey(s.Mode)

	if src.RequiresRecipients() {
		s.Step = StepRecipients
	} else {
		s.Step = StepConfirm
	}
	return nil
}

// SwitchMode flips the batch-wide delivery mode and re-keys every entered
// recipient, discarding fields the new variant cannot carry.
func (s *Session) SwitchMode(mode DeliveryMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Source == nil {
		return ErrNoSourceSelected
	}
	if !s.Source.RequiresRecipients() {
		return ErrSourceSkipsRouting
	}
	if s.Step != StepRecipients && s.Step != StepConfirm {
		return ErrWrongStep
	}

	if s.Mode != mode {
		s.Mode = mode
		s.Recipients.Rekey(mode)
	}
	s.Step = StepRecipients
	return nil
}

func (s *Session) SetRecipient(billID string, details RecipientDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Bill(billID); !ok {
		return ErrUnknownBill
	}
	if s.Step != StepRecipients && s.Step != StepConfirm {
		return ErrWrongStep
	}
	return s.Recipients.Set(billID, s.Mode, details)
}

func (s *Session) SetAmount(billID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.Bill(billID)
	if !ok {
		return ErrUnknownBill
	}
	if s.Step == StepProcessing || s.Step == StepExport || s.Step == StepResult {
		return ErrWrongStep
	}
	return s.Amounts.Set(bill, raw)
}

func (s *Session) ClearAmount(billID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Bill(billID); !ok {
		return ErrUnknownBill
	}
	s.Amounts.Clear(billID)
	return nil
}

func (s *Session) SetNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Note = note
}

// RecipientsReady is the progression gate out of the recipient step: one
// complete entry per bill, or a source that needs none.
func (s *Session) RecipientsReady() bool {
	if s.Source == nil {
		return false
	}
	if !s.Source.RequiresRecipients() {
		return true
	}
	return s.Recipients.CompleteCount() == len(s.Bills)
}

// CanConfirm gates the confirm step.
func (s *Session) CanConfirm() bool {
	return s.Source != nil && s.RecipientsReady()
}

func (s *Session) Total() decimal.Decimal {
	return s.Amounts.Total(s.Bills)
}

func (s *Session) PartialCount() int {
	return s.Amounts.PartialCount(s.Bills)
}

// BeginSubmit flips the session into processing, refusing while another
// submission is in flight. Double submission is prevented here, by
// construction, not by a server-side idempotency key alone.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmissionInFlight
	}
	if s.Step == StepProcessing || s.Step == StepExport || s.Step == StepResult {
		return ErrAlreadySubmitted
	}
	if s.Source == nil {
		return ErrNoSourceSelected
	}
	if !s.RecipientsReady() {
		return ErrRecipientsPending
	}

	s.submitting = true
	s.Step = StepProcessing
	return nil
}

// FinishSubmit stores the per-bill results and picks the next step: the
// export fork is taken only for a bank source with at least one success.
func (s *Session) FinishSubmit(results []PaymentResult) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	s.Results = results

	if s.Source != nil && s.Source.Kind == KindBankAccount && AnySucceeded(results) {
		s.Step = StepExport
	} else {
		s.Step = StepResult
	}
	return s.Step
}

// FailSubmit records a synthesized all-bills failure so the result screen
// always has at least one row.
func (s *Session) FailSubmit(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	s.Results = SynthesizeFailure(message)
	s.Step = StepResult
}

// SkipExport abandons the export attempt with no side effects.
func (s *Session) SkipExport() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepExport {
		return ErrWrongStep
	}
	s.Step = StepResult
	return nil
}

// FinishExport moves past a completed export.
func (s *Session) FinishExport(file ExportFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepExport {
		return ErrWrongStep
	}
	s.Export.Complete(file)
	s.Step = StepResult
	return nil
}

// ExportEventIDs returns the event ids the export step may reference.
func (s *Session) ExportEventIDs() []int64 {
	return ExportableEventIDs(s.Results)
}

// Reset returns every piece of workflow state to its initial empty value.
// Nothing survives into the next time the workflow opens, not even for the
// same batch of bills.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Step = StepSource
	s.Source = nil
	s.Mode = ""
	s.Recipients = make(RecipientSet)
	s.Amounts = make(AmountMap)
	s.Note = ""
	s.Results = nil
	s.Export = NewExportState()
	s.submitting = false
}

// Lock exposes the session mutex for multi-field handler sequences (export
// negotiation mutates Export under one critical section).
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }
