package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
)

func ListPaymentSources(rt *kernel.RequestRuntime, organizationId string) ([]workflow.PaymentSource, error) {
	rt.NewChildTracer("sources.list").Advance()

	status, body, err := FoRequest(rt, http.MethodGet,
		fmt.Sprintf("/v1/organizations/%s/payment-sources", organizationId), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, rt.MakeErrorf("finops backend returned a non-OK status code: %d", status)
	}

	var payload workflow.SourceListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, rt.MakeErrorf("could not unmarshal response body: %v", err)
	}

	rt.EndBlock()
	return workflow.NormalizeSources(payload), nil
}

// OrganizationForToken resolves the backend organization the authorized
// company maps to.
func OrganizationForToken(rt *kernel.RequestRuntime) (string, error) {
	var company models.Company
	found, err := rt.First(&company, "id = ?", rt.Token.CompanyID)
	if err != nil {
		return "", err
	}
	if !found || company.OrganizationID == "" {
		return "", fmt.Errorf("company '%s' has no backend organization", rt.Token.CompanyID)
	}
	return company.OrganizationID, nil
}

// Sources lists the accounts the operator can pay from. An upstream failure
// degrades to an empty list with a surfaced error rather than a hard 5xx:
// the workflow screen renders, just with nothing to pick.
func Sources(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("sources.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	organizationId, err := OrganizationForToken(rt)
	if err != nil {
		rt.Ef(404, "could not resolve organization: %v", err)
		return
	}

	sources, err := ListPaymentSources(rt, organizationId)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}

		c.JSON(200, gin.H{
			"sources": []workflow.PaymentSource{},
			"error":   "could not load payment sources",
		})
		rt.EndBlock()
		return
	}

	c.JSON(200, gin.H{"sources": sources})
	rt.EndBlock()
}
