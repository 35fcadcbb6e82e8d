package domain

import "fmt"

// InvalidDateRangeError reports bad or out-of-bounds input dates. It is
// surfaced to the caller immediately and never retried.
type InvalidDateRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s]: %s", e.Start, e.End, e.Reason)
}

// RateLimitedError reports upstream throttling for a symbol. It is handled
// internally by the data manager's retry loop and never surfaces directly;
// exhaustion leads to the synthetic fallback instead.
type RateLimitedError struct {
	Symbol string
	Cause  error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited fetching %s: %v", e.Symbol, e.Cause)
}

func (e *RateLimitedError) Unwrap() error { return e.Cause }

// DataUnavailableError reports that the upstream has no usable data for a
// valid symbol and range, or that validation rejected every row.
type DataUnavailableError struct {
	Symbol string
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no data available for %s: %s", e.Symbol, e.Reason)
}

// ExecutionError reports a fatal replay failure: an evaluator error or a
// violated account invariant. The run aborts and partial results are
// discarded.
type ExecutionError struct {
	Op    string
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("execution failed during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("execution failed during %s", e.Op)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
