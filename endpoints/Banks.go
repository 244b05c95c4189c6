package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
)

type bankListPayload struct {
	Banks []workflow.Bank `json:"banks"`
	Count int             `json:"count"`
}

func GetBanks(rt *kernel.RequestRuntime, countryCode, searchText string) ([]workflow.Bank, error) {
	rt.NewChildTracer("banks.list").Advance()

	q := url.Values{}
	q.Set("country", countryCode)
	if searchText != "" {
		q.Set("search", searchText)
	}

	status, body, err := FoRequest(rt, http.MethodGet,
		fmt.Sprintf("/v1/banks?%s", q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, rt.MakeErrorf("finops backend returned a non-OK status code: %d", status)
	}

	var payload bankListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, rt.MakeErrorf("could not unmarshal response body: %v", err)
	}

	rt.EndBlock()
	return payload.Banks, nil
}

// Banks exposes the searchable bank directory for the recipient step.
func Banks(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("banks.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	banks, err := GetBanks(rt, rt.AppRuntime.CountryCode, c.Query("search"))
	if err != nil {
		if errors.Is(err, ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(500, "could not list banks: %v", err)
		return
	}

	c.JSON(200, gin.H{
		"banks": banks,
		"count": len(banks),
	})
	rt.EndBlock()
}
