package workflows

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestExportResponseUnmarshal(t *testing.T) {
	// the documented collaborator shape: a requires_conversion boolean, no
	// status field
	body := `{"requires_conversion":true,"mismatched_payments":[{"bill_ref":"INV-9","amount":"120.00","from_currency":"USD","to_currency":"UGX"}],"message":"currency mismatch","prompt":"1 payment is not in UGX. Convert it?"}`

	var payload exportResponse
	require.NoError(t, json.Unmarshal([]byte(body), &payload))

	assert.True(t, payload.requiresConversion())
	require.Len(t, payload.Mismatches, 1)
	assert.Equal(t, "INV-9", payload.Mismatches[0].BillRef)
	assert.Equal(t, "USD", payload.Mismatches[0].FromCurrency)
	assert.NotEmpty(t, payload.Prompt)

	// the status-token variant is accepted too
	var alt exportResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"requires_conversion"}`), &alt))
	assert.True(t, alt.requiresConversion())

	var file exportResponse
	require.NoError(t, json.Unmarshal([]byte(`{"filename":"payments.csv","payment_count":2}`), &file))
	assert.False(t, file.requiresConversion())
}

// exportTestRig wires a real gin engine over a session parked on the export
// step, with the backend faked by the given handler.
func exportTestRig(t *testing.T, upstream http.HandlerFunc) (*gin.Engine, *workflow.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	art := &kernel.AppRuntime{
		FoUrl:       server.URL,
		CountryCode: "UG",
		Workflows:   workflow.NewRegistry(),
		Diagnostic: &kernel.AppDiagnostic{
			Tracer: otel.Tracer("test"),
			Meter:  otel.Meter("test"),
		},
	}

	s, err := art.Workflows.Open("company-1", "org-1", []workflow.BillToPay{
		{ID: "b1", VendorName: "Vendor One", InvoiceRef: "INV-1", Currency: "UGX",
			AmountDue: decimal.RequireFromString("100")},
	})
	require.NoError(t, err)
	require.NoError(t, s.SelectSource(workflow.PaymentSource{
		ID: "bk1", Kind: workflow.KindBankAccount, Currency: "UGX",
		Balance: decimal.RequireFromString("1000"),
	}))
	eventId := int64(501)
	require.Equal(t, workflow.StepExport, s.FinishSubmit([]workflow.PaymentResult{
		{BillID: "b1", Success: true, PaymentEventID: &eventId},
	}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		rt := kernel.InitRequest(art, c)
		rt.Token = &models.Token{
			CompanyID:   "company-1",
			AccessToken: "access-token",
			CsrfToken:   "csrf-token",
		}
		c.Set("rt", rt)
		c.Next()
	})
	RegisterController(r.Group("/"))

	return r, s
}

func postExport(t *testing.T, r *gin.Engine, id, body string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workflows/"+id+"/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var rsp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	return w.Code, rsp
}

func TestExportConversionNegotiation(t *testing.T) {
	var allowFlags []bool
	upstream := func(w http.ResponseWriter, r *http.Request) {
		var env exportEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		allowFlags = append(allowFlags, env.AllowConversion)

		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"requires_conversion":true,"mismatched_payments":[{"bill_ref":"INV-1","amount":"100","from_currency":"USD","to_currency":"UGX"}],"prompt":"1 payment is not in UGX. Convert it?"}`))
	}

	r, s := exportTestRig(t, upstream)

	// first attempt: the 400-class requires_conversion answer is a
	// re-prompt, not an error
	code, rsp := postExport(t, r, s.ID, `{"format":"csv"}`)
	require.Equal(t, 200, code)
	assert.Equal(t, "awaiting_consent", rsp["status"])
	assert.True(t, s.Export.AwaitingConsent)
	require.Len(t, s.Export.Mismatches, 1)
	assert.Equal(t, "INV-1", s.Export.Mismatches[0].BillRef)
	assert.Equal(t, workflow.StepExport, s.Step)

	// consenting re-attempts exactly once with conversion allowed; a second
	// requires_conversion after that is a plain failure
	code, rsp = postExport(t, r, s.ID, `{"consent":true}`)
	require.Equal(t, 200, code)
	assert.Equal(t, "failed", rsp["status"])
	assert.Equal(t, []bool{false, true}, allowFlags)
	assert.False(t, s.Export.AwaitingConsent)
	assert.Equal(t, workflow.StepExport, s.Step, "failed export stays parked; skipping is the way out")

	// no pending prompt left: a second consent is refused without an
	// upstream call
	code, _ = postExport(t, r, s.ID, `{"consent":true}`)
	assert.Equal(t, 409, code)
	assert.Len(t, allowFlags, 2)
}

func TestExportConsentedRetrySucceeds(t *testing.T) {
	calls := 0
	upstream := func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"requires_conversion":true,"mismatched_payments":[{"bill_ref":"INV-1","amount":"100","from_currency":"USD","to_currency":"UGX"}],"prompt":"Convert?"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"filename":"payments-2026-09.csv","payment_count":1}`))
	}

	r, s := exportTestRig(t, upstream)

	code, rsp := postExport(t, r, s.ID, `{"format":"csv"}`)
	require.Equal(t, 200, code)
	require.Equal(t, "awaiting_consent", rsp["status"])

	code, _ = postExport(t, r, s.ID, `{"consent":true}`)
	require.Equal(t, 200, code)

	assert.Equal(t, workflow.StepResult, s.Step)
	require.NotNil(t, s.Export.File)
	assert.Equal(t, "payments-2026-09.csv", s.Export.File.Filename)
	assert.Equal(t, 1, s.Export.File.PaymentCount)
}
