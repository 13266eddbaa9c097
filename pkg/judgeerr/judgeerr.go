// Package judgeerr defines the system-level error taxonomy the core
// surfaces to its RPC caller, distinct from per-case verdicts (which
// never escape as errors — see pkg/types.VerdictCode).
package judgeerr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind tags the broad category of a system-level error.
type Kind int

const (
	KindBadRequest Kind = iota
	KindInternal
	KindAuthRejected
)

// Reason is the specific cause within a Kind.
type Reason int

const (
	ReasonNone Reason = iota

	// BadRequest reasons.
	ReasonLangNotFound
	ReasonImpossibleMemory

	// Internal reasons.
	ReasonCgroupSetupFailed
	ReasonMountFailed
	ReasonSpawnFailed
	ReasonHostIO
)

func (r Reason) String() string {
	switch r {
	case ReasonLangNotFound:
		return "lang_not_found"
	case ReasonImpossibleMemory:
		return "impossible_memory"
	case ReasonCgroupSetupFailed:
		return "cgroup_setup_failed"
	case ReasonMountFailed:
		return "mount_failed"
	case ReasonSpawnFailed:
		return "spawn_failed"
	case ReasonHostIO:
		return "host_io"
	default:
		return "none"
	}
}

// Error is a system-level error: one that terminates a judge stream
// before or between cases, as opposed to a per-case verdict.
type Error struct {
	Kind   Kind
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", kindString(e.Kind), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", kindString(e.Kind), e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindString(k Kind) string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindInternal:
		return "internal"
	case KindAuthRejected:
		return "auth_rejected"
	default:
		return "unknown"
	}
}

// BadRequest wraps err as a KindBadRequest error with the given reason.
func BadRequest(reason Reason, err error) *Error {
	return &Error{Kind: KindBadRequest, Reason: reason, Err: err}
}

// Internal wraps err as a KindInternal error with the given reason.
func Internal(reason Reason, err error) *Error {
	return &Error{Kind: KindInternal, Reason: reason, Err: err}
}

// AuthRejected builds the error returned when the shared-secret check
// in request metadata fails.
func AuthRejected() *Error {
	return &Error{Kind: KindAuthRejected, Reason: ReasonNone}
}

// LangNotFound is shorthand for BadRequest(ReasonLangNotFound, ...).
func LangNotFound(languageID string) *Error {
	return BadRequest(ReasonLangNotFound, fmt.Errorf("unknown language id %q", languageID))
}

// ImpossibleMemory is shorthand for BadRequest(ReasonImpossibleMemory, ...).
func ImpossibleMemory(requested, capacity uint64) *Error {
	return BadRequest(ReasonImpossibleMemory, fmt.Errorf("requested %d bytes exceeds capacity %d", requested, capacity))
}

// ToStatus maps a system-level Error onto the gRPC status code the RPC
// surface returns to the caller. Any other error is reported as
// codes.Unknown so a caller never sees an uncategorized internal
// detail leak through as Internal by accident.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	var je *Error
	if !errors.As(err, &je) {
		return status.Error(codes.Unknown, err.Error())
	}
	switch je.Kind {
	case KindBadRequest:
		return status.Error(codes.InvalidArgument, je.Error())
	case KindAuthRejected:
		return status.Error(codes.Unauthenticated, je.Error())
	case KindInternal:
		return status.Error(codes.Internal, je.Error())
	default:
		return status.Error(codes.Unknown, je.Error())
	}
}
