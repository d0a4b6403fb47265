package clubapi

// Class buckets a call result by how the caller should react to it.
type Class int

const (
	// ClassOK indicates the action succeeded.
	ClassOK Class = iota
	// ClassRateLimited indicates the platform throttled the action; suspend
	// and re-issue, never terminal.
	ClassRateLimited
	// ClassAbsorbed indicates a terminal client error (bad request, not
	// found): the desired end state is unreachable or already holds, so the
	// caller treats it as a success-equivalent no-op.
	ClassAbsorbed
	// ClassRetryable covers transport failures and all remaining non-2xx
	// statuses: retry a bounded number of times, then give up.
	ClassRetryable
)

// String returns a human-readable name for the class.
func (c Class) String() string {
	switch c {
	case ClassOK:
		return "ok"
	case ClassRateLimited:
		return "rate_limited"
	case ClassAbsorbed:
		return "absorbed"
	case ClassRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// Classify maps an HTTP status (or StatusNone) onto a reaction class.
//
// Retryable:
// - StatusNone (connection failure, timeout, unreadable body)
// - 5xx and any other unexpected status
//
// Rate limited:
// - 429, resolved by suspension and re-issue rather than bounded retry
//
// Absorbed (treated as success-equivalent, never retried):
// - 400 bad request, 404 not found
func Classify(status int) Class {
	switch {
	case status >= 200 && status < 300:
		return ClassOK
	case status == 429:
		return ClassRateLimited
	case status == 400 || status == 404:
		return ClassAbsorbed
	default:
		return ClassRetryable
	}
}

// IsSuccess reports whether a status needs no further action: either the call
// succeeded or its failure is absorbed as already-satisfied.
func IsSuccess(status int) bool {
	c := Classify(status)
	return c == ClassOK || c == ClassAbsorbed
}
