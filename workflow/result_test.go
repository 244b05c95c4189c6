package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64p(v int64) *int64 { return &v }

func TestExportableEventIDs(t *testing.T) {
	results := []PaymentResult{
		{BillID: "b1", Success: true, PaymentEventID: int64p(501)},
		{BillID: "b2", Success: false, Error: "insufficient funds"},
		{BillID: "b3", Success: true}, // success without an event id is not exportable
		{BillID: "b4", Success: true, PaymentEventID: int64p(502)},
		{BillID: "b5", Success: false, PaymentEventID: int64p(999)}, // failure never exports
	}

	assert.Equal(t, []int64{501, 502}, ExportableEventIDs(results))
}

func TestExportableEventIDsPreservesResponseOrder(t *testing.T) {
	results := []PaymentResult{
		{BillID: "b9", Success: true, PaymentEventID: int64p(7)},
		{BillID: "b1", Success: true, PaymentEventID: int64p(3)},
	}
	assert.Equal(t, []int64{7, 3}, ExportableEventIDs(results))
}

func TestResultSet(t *testing.T) {
	set := NewResultSet([]PaymentResult{
		{BillID: "b1", Success: true},
		{BillID: "b2", Success: false},
	})

	assert.False(t, set.AllFailed())
	assert.True(t, set["b1"].Success)

	allDown := NewResultSet([]PaymentResult{
		{BillID: "b1", Success: false},
		{BillID: "b2", Success: false},
	})
	assert.True(t, allDown.AllFailed())

	assert.True(t, NewResultSet(nil).AllFailed())
}

func TestSynthesizeFailure(t *testing.T) {
	results := SynthesizeFailure("the payment service could not be reached")

	assert.Len(t, results, 1)
	assert.Equal(t, AllBillsID, results[0].BillID)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	assert.False(t, AnySucceeded(results))
}
