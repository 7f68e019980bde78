package core

import "fmt"

// FailureKind classifies a fetch failure. The kind decides whether the
// orchestrator re-schedules the task in a later round or finalizes it as
// a permanent failure.
type FailureKind int

const (
	KindTimeout FailureKind = iota
	KindRateLimited
	KindServerError
	KindMalformedRequest
	KindNotFound
	KindPermissionDenied
)

func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindMalformedRequest:
		return "malformed_request"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Retryable reports whether a failure of this kind may succeed on a
// later attempt.
func (k FailureKind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}

// FetchError is a classified per-task failure. Status carries the
// upstream status string or HTTP status when one exists.
type FetchError struct {
	Kind   FailureKind
	Status string
	Msg    string
}

func (e *FetchError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Retryable reports whether the task that produced this error is
// eligible for a later round.
func (e *FetchError) Retryable() bool { return e.Kind.Retryable() }

// Errf builds a FetchError with a formatted message.
func Errf(kind FailureKind, status, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Status: status, Msg: fmt.Sprintf(format, args...)}
}
