package ttlock

import "fmt"

// ErrorKind classifies what went wrong on a vendor call.
type ErrorKind int

const (
	// KindTransport covers connection failures, timeouts and non-2xx
	// HTTP statuses.
	KindTransport ErrorKind = iota
	// KindDecode means a 2xx response whose body is not valid JSON.
	KindDecode
	// KindSemantic means valid JSON that lacks the operation's success
	// marker; the vendor signals application errors this way even on
	// HTTP 200.
	KindSemantic
)

// APIError carries the structured cause of a failed vendor call. Status is
// zero unless the failure came with an HTTP status; Body holds the raw
// response text (or the underlying transport error message).
type APIError struct {
	Op     string
	Kind   ErrorKind
	Status int
	Body   string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindTransport:
		if e.Status != 0 {
			return fmt.Sprintf("%s failed: HTTP %d - %s", e.Op, e.Status, e.Body)
		}
		return fmt.Sprintf("%s failed: %s", e.Op, e.Body)
	case KindDecode:
		return fmt.Sprintf("%s failed: Non-JSON response: %s", e.Op, e.Body)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Body)
	}
}
