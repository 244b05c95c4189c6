package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.nhat.io/otelsql/attribute"
)

const billCacheTTL = 5 * time.Minute

func billCacheKey(organizationId string) string {
	return "bills:" + organizationId
}

type BillPayload struct {
	ID         string `json:"id"`
	VendorName string `json:"vendor_name"`
	InvoiceRef string `json:"invoice_ref"`
	Currency   string `json:"currency"`
	AmountDue  string `json:"amount_due"`
	ContactID  string `json:"contact_id"`
	Status     string `json:"status"`
}

func FetchBills(rt *kernel.RequestRuntime, organizationId string) ([]BillPayload, error) {
	rt.NewChildTracer("bills.fetch").Advance()

	cacheKey := billCacheKey(organizationId)
	cached, err := rt.AppRuntime.RedisClient.Get(rt.SpanContext, cacheKey).Result()
	if err == nil {
		var bills []BillPayload
		if err := json.Unmarshal([]byte(cached), &bills); err == nil {
			rt.Span.SetAttributes(attribute.KeyValue("bills.cache_hit", true))
			rt.EndBlock()
			return bills, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		rt.Span.SetAttributes(attribute.KeyValue("bills.cache_error", err.Error()))
	}

	status, body, err := FoRequest(rt, http.MethodGet,
		fmt.Sprintf("/v1/organizations/%s/bills?status=payable", organizationId), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, rt.MakeErrorf("finops backend returned a non-OK status code: %d", status)
	}

	var payload struct {
		Bills []BillPayload `json:"bills"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, rt.MakeErrorf("could not unmarshal response body: %v", err)
	}

	if raw, err := json.Marshal(payload.Bills); err == nil {
		rt.AppRuntime.RedisClient.Set(rt.SpanContext, cacheKey, raw, billCacheTTL)
	}

	rt.EndBlock()
	return payload.Bills, nil
}

// InvalidateBillCache drops the cached listing so views after a submission
// reflect updated payable/paid status. Called on success and on failure.
func InvalidateBillCache(rt *kernel.RequestRuntime, organizationId string) {
	rt.AppRuntime.RedisClient.Del(rt.SpanContext, billCacheKey(organizationId))
}

// SnapshotBills turns upstream rows into immutable workflow snapshots for
// the requested subset of bill ids.
func SnapshotBills(rows []BillPayload, billIds []string) ([]workflow.BillToPay, error) {
	byId := make(map[string]BillPayload, len(rows))
	for _, row := range rows {
		byId[row.ID] = row
	}

	bills := make([]workflow.BillToPay, 0, len(billIds))
	for _, id := range billIds {
		row, ok := byId[id]
		if !ok {
			return nil, fmt.Errorf("bill '%s' is not payable", id)
		}
		due, err := decimal.NewFromString(row.AmountDue)
		if err != nil {
			return nil, fmt.Errorf("bill '%s' has an unparsable amount due: %q", id, row.AmountDue)
		}
		bills = append(bills, workflow.BillToPay{
			ID:         row.ID,
			VendorName: row.VendorName,
			InvoiceRef: row.InvoiceRef,
			Currency:   row.Currency,
			AmountDue:  due,
			ContactID:  row.ContactID,
		})
	}
	return bills, nil
}

// Bills lists the organization's payable bills, cached briefly in redis.
func Bills(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("bills.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	organizationId, err := OrganizationForToken(rt)
	if err != nil {
		rt.Ef(404, "could not resolve organization: %v", err)
		return
	}

	bills, err := FetchBills(rt, organizationId)
	if err != nil {
		if errors.Is(err, ErrUpstreamUnauthorized) {
			rt.Ef(http.StatusUnauthorized, "session expired, re-authorize")
			return
		}
		rt.Ef(500, "could not list bills: %v", err)
		return
	}

	c.JSON(200, gin.H{"bills": bills})
	rt.EndBlock()
}
