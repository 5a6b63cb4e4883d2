package instrumentation

import "strconv"

// StatusClass collapses an HTTP status code to its class ("2xx", "4xx", ...)
// so that API metrics carry a bounded label set.
//
// Example:
//
//	StatusClass(200)  // "2xx"
//	StatusClass(429)  // "4xx"
//	StatusClass(0)    // "none"
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "none"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Upstream operation names used in metrics, spans and audit records.
const (
	OperationSearch      = "search"
	OperationFetchBlocks = "fetch_blocks"
	OperationCreatePage  = "create_page"
	OperationRunFlow     = "run_flow"
)

// Aggregation outcomes for RecordAggregation.
const (
	OutcomeComplete  = "complete"
	OutcomeTruncated = "truncated"
	OutcomeNoMatch   = "no_match"
)
