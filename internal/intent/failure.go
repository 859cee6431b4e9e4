package intent

import (
	"errors"
	"fmt"
)

// FailureKind separates replies that could not be decoded from calls that
// never produced a reply.
type FailureKind int

const (
	// FailureMalformed means the completion text was not a valid action.
	FailureMalformed FailureKind = iota
	// FailureUnreachable means the completion service errored or timed out.
	FailureUnreachable
)

func (k FailureKind) String() string {
	switch k {
	case FailureMalformed:
		return "malformed"
	case FailureUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Failure is the only error Parse returns.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", f.Kind, f.Reason, f.Err)
	}
	return fmt.Sprintf("parse %s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func malformed(reason string, err error) *Failure {
	return &Failure{Kind: FailureMalformed, Reason: reason, Err: err}
}

// IsUnreachable reports whether err is a Failure caused by the completion service.
func IsUnreachable(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == FailureUnreachable
}
