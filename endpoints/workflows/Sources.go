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

// WorkflowSources lists the payment sources for the session's organization,
// annotated with a per-source sufficiency hint against the current batch
// total. The hint is advisory for cross-currency sources; the backend has
// the final word at submission time.
func WorkflowSources(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_sources.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	sources, err := endpoints.ListPaymentSources(rt, s.OrganizationID)
	if err != nil {
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}

		c.JSON(200, gin.H{
			"sources": []gin.H{},
			"error":   "could not load payment sources",
		})
		rt.EndBlock()
		return
	}

	total := s.Total()
	currency := ""
	if len(s.Bills) > 0 {
		currency = s.Bills[0].Currency
	}

	annotated := make([]gin.H, 0, len(sources))
	for _, src := range sources {
		annotated = append(annotated, gin.H{
			"source":     src,
			"sufficient": workflow.HasSufficientBalance(src, total, currency),
		})
	}

	c.JSON(200, gin.H{"sources": annotated})
	rt.EndBlock()
}

type SelectSourceDto struct {
	SourceId string `json:"sourceId"`
}

func (dto SelectSourceDto) Validate() error {
	return val.ValidateStruct(&dto,
		val.Field(&dto.SourceId, val.Required),
	)
}

// SelectSource pins the batch to an explicitly chosen source; the workflow
// never advances on an implicit default.
func SelectSource(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("workflow_select_source.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	s, ok := session(rt, c)
	if !ok {
		return
	}

	var dto SelectSourceDto
	rt.BindJSON(&dto)
	if rt.Error != nil {
		rt.Ef(400, "could not bind body: %v", rt.Error)
		return
	}
	if err := dto.Validate(); err != nil {
		rt.E(http.StatusBadRequest, err)
		return
	}

	sources, err := endpoints.ListPaymentSources(rt, s.OrganizationID)
	if err != nil {
		if errors.Is(err, endpoints.ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(500, "could not load payment sources: %v", err)
		return
	}

	src, found := workflow.FindSource(sources, dto.SourceId)
	if !found {
		rt.Ef(404, "payment source '%s' not found", dto.SourceId)
		return
	}

	if err := s.SelectSource(src); err != nil {
		rt.Ef(409, "cannot select source: %v", err)
		return
	}

	c.JSON(200, stateView(s))
	rt.EndBlock()
}
