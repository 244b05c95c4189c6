package workflows

import (
	"encoding/json"
	"errors"
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/endpoints"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
)

type ExportDto struct {
	Format  string `json:"format"`
	Consent bool   `json:"consent"`
}

type exportEnvelope struct {
	PaymentEventIds []int64 `json:"payment_event_ids"`
	Format          string  `json:"format"`
	AllowConversion bool    `json:"allow_currency_conversion"`
	SourceAccountId string  `json:"source_account_id"`
}

type exportResponse struct {
	RequiresConversion bool                         `json:"requires_conversion"`
	Status             string                       `json:"status"`
	Filename           string                       `json:"filename"`
	Count              int                          `json:"payment_count"`
	Prompt             string                       `json:"prompt"`
	Mismatches         []workflow.MismatchedPayment `json:"mismatched_payments"`
	Message            string                       `json:"message"`
}

// requiresConversion reads the backend's re-prompt signal. The documented
// shape is the `requires_conversion` boolean; some deployments put the same
// token in a `status` field, so both are accepted.
func (r exportResponse) requiresConversion() bool {
	return r.RequiresConversion || r.Status == "requires_conversion"
}

// Export drives the bank-file negotiation. The first call sends
// allow_conversion=false; a requires_conversion answer parks the session
// awaiting consent and is surfaced as a re-prompt, not an error. A second
// call with consent=true re-attempts once with conversion allowed; if the
// backend still requires conversion after that, the attempt fails outright.
func Export(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_export.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto ExportDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}

	s.Lock()
	if s.Step != workflow.StepExport {
		s.Unlock()
		rt.Ef(409, "workflow is not at the export step")
		return
	}

	eventIds := workflow.ExportableEventIDs(s.Results)
	if len(eventIds) == 0 {
		s.Unlock()
		rt.Ef(409, "nothing to export: no successful payment carries an event id")
		return
	}

	var sourceId string
	if s.Source != nil {
		sourceId = s.Source.ID
	}

	allowConversion := false
	if dto.Consent {
		if err := s.Export.Conceded(); err != nil {
			s.Unlock()
			rt.Ef(409, "cannot consent: %v", err)
			return
		}
		allowConversion = true
	} else {
		format, err := workflow.ParseExportFormat(dto.Format)
		if err != nil {
			s.Unlock()
			rt.Ef(400, "%v", err)
			return
		}
		if err := s.Export.Begin(format); err != nil {
			s.Unlock()
			rt.Ef(409, "cannot export: %v", err)
			return
		}
	}
	format := s.Export.Format
	s.Unlock()

	env := exportEnvelope{
		PaymentEventIds: eventIds,
		Format:          string(format),
		AllowConversion: allowConversion,
		SourceAccountId: sourceId,
	}

	status, body, err := endpoints.FoRequest(rt, http.MethodPost,
		"/v1/organizations/"+s.OrganizationID+"/bill-payments/export", env)
	if err != nil {
		s.Lock()
		s.Export.Fail()
		s.Unlock()
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(502, "could not reach the export service: %v", err)
		return
	}

	var payload exportResponse
	if uErr := json.Unmarshal(body, &payload); uErr != nil {
		s.Lock()
		s.Export.Fail()
		s.Unlock()
		rt.Ef(502, "could not unmarshal export response: %v", uErr)
		return
	}

	if payload.requiresConversion() {
		s.Lock()
		convErr := s.Export.RequireConversion(payload.Mismatches, payload.Prompt)
		snapshot := s.Export
		s.Unlock()

		if convErr != nil {
			c.JSON(200, gin.H{
				"status": "failed",
				"error":  "the export service still requires conversion after consent",
				"export": snapshot,
			})
			return
		}

		c.JSON(200, gin.H{
			"status": "awaiting_consent",
			"export": snapshot,
		})
		rt.EndBlock()
		return
	}

	if status != http.StatusOK {
		s.Lock()
		s.Export.Fail()
		s.Unlock()
		message := payload.Message
		if message == "" {
			message = "the export was rejected"
		}
		rt.Ef(502, "export failed: %s", message)
		return
	}

	file := workflow.ExportFile{
		Filename:     payload.Filename,
		PaymentCount: payload.Count,
	}
	if err := s.FinishExport(file); err != nil {
		rt.Ef(409, "cannot finish export: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

// SkipExport declines the export outright and moves to the result screen.
// Declining a pending conversion prompt lands here too.
func SkipExport(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_export_skip.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	if err := s.SkipExport(); err != nil {
		rt.Ef(409, "cannot skip export: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}
