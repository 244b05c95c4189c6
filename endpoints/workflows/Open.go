package workflows

import (
	"errors"
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/endpoints"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	val "github.com/go-ozzo/ozzo-validation"
)

type OpenWorkflowDto struct {
	BillIds []string `json:"billIds"`
}

func (dto OpenWorkflowDto) Validate() error {
	return val.ValidateStruct(&dto,
		val.Field(&dto.BillIds, val.Required, val.Length(1, 0)),
	)
}

// OpenWorkflow starts a session over a batch of payable bills. Bill data is
// snapshotted from the backend listing at open time and never mutated.
func OpenWorkflow(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_open.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	var dto OpenWorkflowDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}
	if err := dto.Validate(); err != nil {
		rt.E(http.StatusBadRequest, err)
		return
	}

	organizationId, err := endpoints.OrganizationForToken(rt)
	if err != nil {
		rt.Ef(404, "could not resolve organization: %v", err)
		return
	}

	rows, err := endpoints.FetchBills(rt, organizationId)
	if err != nil {
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(500, "could not load bills: %v", err)
		return
	}

	bills, err := endpoints.SnapshotBills(rows, dto.BillIds)
	if err != nil {
		rt.Ef(400, "invalid bill selection: %v", err)
		return
	}

	s, err := rt.AppRuntime.Workflows.Open(rt.Token.CompanyID, organizationId, bills)
	if err != nil {
		rt.Ef(500, "could not open workflow: %v", err)
		return
	}

	c.JSON(201, stateView(s))
	rt.EndBlock()
}

// WorkflowState reports the current step, readiness predicates, and totals.
func WorkflowState(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_state.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

// CloseWorkflow discards the session and every piece of its state. Nothing
// survives into the next open, even for the same batch.
func CloseWorkflow(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_close.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	if err := rt.AppRuntime.Workflows.Close(c.Param("id"), rt.Token.CompanyID); err != nil {
		rt.Ef(404, "workflow '%s' not found", c.Param("id"))
		return
	}

	c.JSON(200, gin.H{"status": "closed"})
	rt.EndBlock()
}

func stateView(s *workflow.Session) gin.H {
	s.Lock()
	defer s.Unlock()

	partials := make(map[string]bool, len(s.Bills))
	currency := ""
	for _, b := range s.Bills {
		partials[b.ID] = s.Amounts.IsPartial(b)
		currency = b.Currency
	}

	view := gin.H{
		"id":              s.ID,
		"step":            s.Step,
		"bills":           s.Bills,
		"deliveryMode":    s.Mode,
		"recipients":      s.Recipients,
		"amounts":         s.Amounts,
		"note":            s.Note,
		"totalAmount":     s.Amounts.Total(s.Bills).String(),
		"totalDisplay":    workflow.FormatAmount(currency, s.Amounts.Total(s.Bills)),
		"partialBills":    partials,
		"partialCount":    s.Amounts.PartialCount(s.Bills),
		"recipientsReady": s.RecipientsReady(),
		"canConfirm":      s.CanConfirm(),
		"export":          s.Export,
	}
	if s.Source != nil {
		view["source"] = s.Source
	}
	if s.Results != nil {
		view["results"] = s.Results
	}
	return view
}
