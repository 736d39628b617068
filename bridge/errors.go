package bridge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by every operation on a closed Registry.
	ErrClosed = errors.New("bridge: registry closed")
	// ErrNotResolved is returned when a member table is read before the
	// type was resolved.
	ErrNotResolved = errors.New("bridge: type not resolved")
	// ErrReleased is returned when a released Instance is used.
	ErrReleased = errors.New("bridge: instance released")
)

// NotFoundError reports an unknown class or member.
type NotFoundError struct {
	What  string // "class", "member", "constructor"
	Name  string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bridge: %s %s not found: %v", e.What, e.Name, e.Cause)
	}
	return fmt.Sprintf("bridge: %s %s not found", e.What, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// AllocationError reports that the foreign runtime could not provide a
// handle or frame while building a type or descriptor.
type AllocationError struct {
	What  string
	Cause error
}

func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bridge: cannot allocate %s: %v", e.What, e.Cause)
	}
	return fmt.Sprintf("bridge: cannot allocate %s", e.What)
}

func (e *AllocationError) Unwrap() error { return e.Cause }

// ResolutionError reports that a type could not be cataloged. The type is
// left in StateNew with an empty member table.
type ResolutionError struct {
	Type   string
	Member string // empty when the failure is not tied to one member
	Cause  error
}

func (e *ResolutionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("bridge: cannot resolve %s (member %s): %v", e.Type, e.Member, e.Cause)
	}
	return fmt.Sprintf("bridge: cannot resolve %s: %v", e.Type, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// NoMatchError reports that no overload accepts the arguments.
type NoMatchError struct {
	Name string
	Args []any
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("bridge: no %s overload matches (%s)", e.Name, argTypes(e.Args))
}

// AmbiguousOverloadError reports that two or more overloads share the best
// score for the arguments.
type AmbiguousOverloadError struct {
	Name       string
	Args       []any
	Candidates []*Method
	Score      int
}

func (e *AmbiguousOverloadError) Error() string {
	sigs := make([]string, len(e.Candidates))
	for i, m := range e.Candidates {
		sigs[i] = m.Signature()
	}
	return fmt.Sprintf("bridge: ambiguous %s call with (%s): %s all score %d",
		e.Name, argTypes(e.Args), strings.Join(sigs, ", "), e.Score)
}

// ConversionError reports a value that cannot be coerced to the required
// representation, including buffer size mismatches.
type ConversionError struct {
	Value  any
	Target string
	Reason string
	Cause  error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("bridge: cannot convert %T to %s", e.Value, e.Target)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// UnsupportedMemberWarning describes a member the cataloger skipped or a
// policy that failed. It is logged, never returned.
type UnsupportedMemberWarning struct {
	Type   string
	Member string
	Reason string
}

func (w UnsupportedMemberWarning) Error() string {
	return fmt.Sprintf("%s.%s: %s", w.Type, w.Member, w.Reason)
}

func warn(w UnsupportedMemberWarning) {
	log.Warning(w.Error())
}

func argTypes(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case nil:
			parts[i] = "nil"
		case *Instance:
			parts[i] = v.typ.name
		default:
			parts[i] = fmt.Sprintf("%T", a)
		}
	}
	return strings.Join(parts, ", ")
}
