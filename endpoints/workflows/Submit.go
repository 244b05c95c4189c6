package workflows

import (
	"encoding/json"
	"errors"
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/endpoints"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type paymentLine struct {
	BillId    string         `json:"bill_id"`
	Amount    string         `json:"amount"`
	Currency  string         `json:"currency"`
	Recipient *recipientLine `json:"recipient,omitempty"`
}

type recipientLine struct {
	Phone         string `json:"phone,omitempty"`
	BankId        string `json:"bank_id,omitempty"`
	Swift         string `json:"swift,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
}

type payBillsEnvelope struct {
	SourceAccountId string        `json:"source_account_id"`
	SourceKind      string        `json:"source_kind"`
	Note            string        `json:"note,omitempty"`
	Payments        []paymentLine `json:"payments"`
}

type payBillsResponse struct {
	Results []workflow.PaymentResult `json:"results"`
	Message string                   `json:"message"`
}

// buildEnvelope snapshots the session into the single batched pay request.
// The recipient line carries only the fields of the active delivery mode;
// the tagged variant upstream makes cross-mode leakage unrepresentable here.
func buildEnvelope(s *workflow.Session, countryCode string) payBillsEnvelope {
	s.Lock()
	defer s.Unlock()

	env := payBillsEnvelope{
		SourceAccountId: s.Source.ID,
		SourceKind:      string(s.Source.Kind),
		Note:            s.Note,
		Payments:        make([]paymentLine, 0, len(s.Bills)),
	}

	for _, b := range s.Bills {
		line := paymentLine{
			BillId:   b.ID,
			Amount:   s.Amounts.Resolved(b).String(),
			Currency: b.Currency,
		}
		if r, ok := s.Recipients[b.ID]; ok {
			switch {
			case r.Mode == workflow.ModeMobile && r.Mobile != nil:
				line.Recipient = &recipientLine{
					Phone: workflow.FormatPhone(countryCode, r.Mobile.Phone),
				}
			case r.Mode == workflow.ModeBank && r.Bank != nil:
				line.Recipient = &recipientLine{
					BankId:        r.Bank.BankID,
					Swift:         r.Bank.Swift,
					AccountNumber: r.Bank.AccountNumber,
					AccountName:   r.Bank.AccountName,
				}
			}
		}
		env.Payments = append(env.Payments, line)
	}
	return env
}

// alignResults matches the backend's result rows to the submitted bills by
// bill id. The backend makes no ordering promise, and a bill the response
// never mentions is treated as failed rather than silently dropped.
func alignResults(s *workflow.Session, raw []workflow.PaymentResult) []workflow.PaymentResult {
	set := workflow.NewResultSet(raw)

	results := make([]workflow.PaymentResult, 0, len(s.Bills))
	for _, b := range s.Bills {
		if r, ok := set[b.ID]; ok {
			results = append(results, r)
			continue
		}
		results = append(results, workflow.PaymentResult{
			BillID:  b.ID,
			Success: false,
			Error:   "the backend returned no result for this bill",
		})
	}
	return results
}

// persistResults writes one PaymentRecord per bill for the history screen.
// A synthesized all-bills failure fans out into one failed row per bill.
func persistResults(rt *kernel.RequestRuntime, s *workflow.Session, results []workflow.PaymentResult) {
	rt.NewChildTracer("workflow_submit.persist").Advance()

	s.Lock()
	defer s.Unlock()

	set := workflow.NewResultSet(results)
	all, synthesized := set[workflow.AllBillsID]

	records := make([]models.PaymentRecord, 0, len(s.Bills))
	for _, b := range s.Bills {
		r, ok := set[b.ID]
		if !ok && synthesized {
			r = workflow.PaymentResult{BillID: b.ID, Success: false, Error: all.Error}
		}

		record := models.PaymentRecord{
			TokenID:       rt.Token.ID,
			CompanyID:     rt.Token.CompanyID,
			WorkflowID:    s.ID,
			BillID:        b.ID,
			VendorName:    b.VendorName,
			InvoiceRef:    b.InvoiceRef,
			Amount:        s.Amounts.Resolved(b).String(),
			Currency:      b.Currency,
			Note:          s.Note,
			SourceID:      s.Source.ID,
			SourceKind:    string(s.Source.Kind),
			Succeeded:     r.Success,
			Reference:     r.Reference,
			FailureReason: r.Error,
		}
		if r.PaymentEventID != nil {
			record.PaymentEventID = *r.PaymentEventID
		}
		records = append(records, record)
	}

	if tx := rt.DB.Create(&records); tx.Error != nil {
		log.Error().Err(tx.Error).Msg("could not persist payment records")
	}
	rt.EndBlock()
}

// Submit sends the whole batch as one call to the finance backend. The call
// carries a fresh idempotency key, so a retried submission after an
// ambiguous transport failure cannot double-pay on the backend side.
func Submit(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_submit.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	if err := s.BeginSubmit(); err != nil {
		switch {
		case errors.Is(err, workflow.ErrSubmissionInFlight),
			errors.Is(err, workflow.ErrAlreadySubmitted):
			rt.Ef(409, "cannot submit: %v", err)
		default:
			rt.Ef(400, "cannot submit: %v", err)
		}
		return
	}

	idempotencyKey, err := kernel.UuidV7()
	if err != nil {
		s.FailSubmit("could not generate an idempotency key")
		rt.Ef(500, "could not generate idempotency key: %v", err)
		return
	}

	env := buildEnvelope(s, rt.AppRuntime.CountryCode)
	status, body, err := endpoints.FoRequestHeaders(rt, http.MethodPost,
		"/v1/organizations/"+s.OrganizationID+"/bills/pay", env,
		map[string]string{"Idempotency-Key": idempotencyKey})

	endpoints.InvalidateBillCache(rt, s.OrganizationID)

	if err != nil {
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			s.FailSubmit("session expired during submission")
			persistResults(rt, s, workflow.SynthesizeFailure("session expired during submission"))
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		s.FailSubmit("the payment service could not be reached")
		persistResults(rt, s, workflow.SynthesizeFailure("the payment service could not be reached"))
		c.JSON(200, stateView(s))
		return
	}

	var payload payBillsResponse
	if uErr := json.Unmarshal(body, &payload); uErr != nil || (status != http.StatusOK && len(payload.Results) == 0) {
		message := payload.Message
		if message == "" {
			message = "the payment submission was rejected"
		}
		s.FailSubmit(message)
		persistResults(rt, s, workflow.SynthesizeFailure(message))
		c.JSON(200, stateView(s))
		return
	}

	results := alignResults(s, payload.Results)
	persistResults(rt, s, results)
	s.FinishSubmit(results)

	c.JSON(200, stateView(s))
	rt.EndBlock()
}
