package workflows

import (
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
)

func RegisterController(rg *gin.RouterGroup) {
	g := rg.Group("/workflows")

	g.POST("", OpenWorkflow)
	g.GET("/:id", WorkflowState)
	g.DELETE("/:id", CloseWorkflow)

	g.GET("/:id/sources", WorkflowSources)
	g.POST("/:id/source", SelectSource)

	g.POST("/:id/delivery-mode", SwitchDeliveryMode)
	g.PUT("/:id/recipients/:billId", SetRecipient)
	g.POST("/:id/recipients/:billId/autofill", AutofillRecipient)

	g.PUT("/:id/amounts/:billId", SetAmount)
	g.DELETE("/:id/amounts/:billId", ClearAmount)
	g.PUT("/:id/note", SetNote)
	g.GET("/:id/confirm", ConfirmSummary)

	g.POST("/:id/submit", Submit)

	g.POST("/:id/export", Export)
	g.POST("/:id/export/skip", SkipExport)

	g.GET("/:id/result", Result)
}

// session resolves the :id path parameter against the registry, scoped to
// the authorized company. Writes the 404 itself on a miss.
func session(rt *kernel.RequestRuntime, c *gin.Context) (*workflow.Session, bool) {
	id := c.Param("id")

	s, err := rt.AppRuntime.Workflows.Get(id, rt.Token.CompanyID)
	if err != nil {
		rt.Ef(404, "workflow '%s' not found", id)
		return nil, false
	}
	return s, true
}
