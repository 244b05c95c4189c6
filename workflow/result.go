package workflow

// PaymentResult is the per-bill outcome of one batch submission. The
// PaymentEventID pointer distinguishes "absent" from zero: only results that
// actually carry an event id can be exported.
type PaymentResult struct {
	BillID         string `json:"bill_id"`
	Success        bool   `json:"success"`
	Reference      string `json:"reference,omitempty"`
	PaymentEventID *int64 `json:"payment_event_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// AllBillsID marks the synthesized row produced when the whole submission
// fails before any per-bill result exists.
const AllBillsID = "all"

// SynthesizeFailure builds the single failing row shown when transport or
// validation kills a submission outright, so the result screen is never
// blank.
func SynthesizeFailure(message string) []PaymentResult {
	return []PaymentResult{{
		BillID:  AllBillsID,
		Success: false,
		Error:   message,
	}}
}

// ResultSet indexes results by bill id. The backend makes no ordering
// promise relative to the submitted bill list, so positional alignment is
// never assumed.
type ResultSet map[string]PaymentResult

func NewResultSet(results []PaymentResult) ResultSet {
	set := make(ResultSet, len(results))
	for _, r := range results {
		set[r.BillID] = r
	}
	return set
}

func (rs ResultSet) AllFailed() bool {
	if len(rs) == 0 {
		return true
	}
	for _, r := range rs {
		if r.Success {
			return false
		}
	}
	return true
}

// ExportableEventIDs extracts the event ids eligible for file export:
// successful results only, and of those only the ones the backend actually
// assigned an event id. A success without an event id cannot be exported and
// is dropped here. Response order is preserved.
func ExportableEventIDs(results []PaymentResult) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		if r.Success && r.PaymentEventID != nil {
			ids = append(ids, *r.PaymentEventID)
		}
	}
	return ids
}

// AnySucceeded reports whether at least one bill went through.
func AnySucceeded(results []PaymentResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}
