package workflows

import (
	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
)

// Result is the final screen's feed: per-bill outcomes joined with the bill
// snapshot for display. The synthesized all-bills row, when present, is
// reported as a batch-level error alongside the per-bill lines.
func Result(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_result.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.Step != workflow.StepResult {
		rt.Ef(409, "workflow is not at the result step")
		return
	}

	set := workflow.NewResultSet(s.Results)
	batchError := ""
	if all, ok := set[workflow.AllBillsID]; ok {
		batchError = all.Error
	}

	lines := make([]gin.H, 0, len(s.Bills))
	succeeded := 0
	for _, b := range s.Bills {
		line := gin.H{
			"billId":        b.ID,
			"vendorName":    b.VendorName,
			"invoiceRef":    b.InvoiceRef,
			"amountPaid":    s.Amounts.Resolved(b).String(),
			"amountDisplay": workflow.FormatAmount(b.Currency, s.Amounts.Resolved(b)),
			"partial":       s.Amounts.IsPartial(b),
		}
		if r, ok := set[b.ID]; ok {
			line["success"] = r.Success
			if r.Reference != "" {
				line["reference"] = r.Reference
			}
			if r.Error != "" {
				line["error"] = r.Error
			}
			if r.Success {
				succeeded++
			}
		} else {
			line["success"] = false
			if batchError != "" {
				line["error"] = batchError
			}
		}
		lines = append(lines, line)
	}

	view := gin.H{
		"lines":          lines,
		"succeededCount": succeeded,
		"failedCount":    len(s.Bills) - succeeded,
		"allFailed":      !workflow.AnySucceeded(s.Results),
	}
	if batchError != "" {
		view["batchError"] = batchError
	}
	if s.Export.File != nil {
		view["exportFile"] = s.Export.File
	}

	c.JSON(200, view)
	rt.EndBlock()
}
