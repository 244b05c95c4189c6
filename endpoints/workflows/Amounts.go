package workflows

import (
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	val "github.com/go-ozzo/ozzo-validation"
)

type SetAmountDto struct {
	Amount string `json:"amount"`
}

func (dto SetAmountDto) Validate() error {
	return val.ValidateStruct(&dto,
		val.Field(&dto.Amount, val.Required),
	)
}

// SetAmount overrides the amount paid for one bill. The bounds
// 0 < amount <= amountDue are enforced here; an override at exactly the
// amount due is fine, one cent over is not.
func SetAmount(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_set_amount.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto SetAmountDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}
	if err := dto.Validate(); err != nil {
		rt.E(http.StatusBadRequest, err)
		return
	}

	if err := s.SetAmount(c.Param("billId"), dto.Amount); err != nil {
		rt.Ef(400, "invalid amount: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

// ClearAmount removes an override, reverting the bill to its full amount
// due.
func ClearAmount(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_clear_amount.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	if err := s.ClearAmount(c.Param("billId")); err != nil {
		rt.Ef(404, "unknown bill: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

type SetNoteDto struct {
	Note string `json:"note"`
}

func SetNote(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_set_note.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto SetNoteDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}

	s.SetNote(dto.Note)

	c.JSON(200, stateView(s))
	rt.EndBlock()
}

// ConfirmSummary is the review screen feed: per-bill resolved amounts with
// partial badges, and the batch total. Reachable only once every bill has
// complete recipient details (or the source needs none). Partial bills are
// flagged, never blocked.
func ConfirmSummary(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_confirm.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	if !s.CanConfirm() {
		rt.Ef(409, "workflow is not ready to confirm: every bill needs a payment source and recipient details")
		return
	}

	lines := make([]gin.H, 0, len(s.Bills))
	for _, b := range s.Bills {
		resolved := s.Amounts.Resolved(b)
		lines = append(lines, gin.H{
			"billId":        b.ID,
			"vendorName":    b.VendorName,
			"invoiceRef":    b.InvoiceRef,
			"amountDue":     b.AmountDue.String(),
			"amountToPay":   resolved.String(),
			"amountDisplay": workflow.FormatAmount(b.Currency, resolved),
			"partial":       s.Amounts.IsPartial(b),
		})
	}

	currency := ""
	if len(s.Bills) > 0 {
		currency = s.Bills[0].Currency
	}
	total := s.Total()

	c.JSON(200, gin.H{
		"lines":        lines,
		"totalAmount":  total.String(),
		"totalDisplay": workflow.FormatAmount(currency, total),
		"partialCount": s.PartialCount(),
		"note":         s.Note,
	})
	rt.EndBlock()
}
