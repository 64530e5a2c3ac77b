package types

import "fmt"

// ErrorKind enumerates the type-level error taxonomy of spec.md §7.
type ErrorKind string

const (
	ErrTypeMismatch    ErrorKind = "type_mismatch"
	ErrArityMismatch   ErrorKind = "arity_mismatch"
	ErrOccursCheck     ErrorKind = "occurs_check"
	ErrUnresolvedTrait ErrorKind = "unresolved_trait"
	ErrAmbiguousImpl   ErrorKind = "ambiguous_impl"
	ErrRecursionLimit  ErrorKind = "recursion_limit"
	ErrInvalidPattern  ErrorKind = "invalid_irrefutable_pattern"
)

// CheckError is a single inference-time diagnostic (spec.md §6
// "Diagnostics": "a single line keyed by a source location").
type CheckError struct {
	Kind ErrorKind
	Pos  string
	Msg  string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// NewInvalidPatternError reports a non-variable/tuple/annotation pattern
// appearing where only irrefutable bindings are allowed (spec.md §7).
func NewInvalidPatternError(pos, desc string) *CheckError {
	return &CheckError{Kind: ErrInvalidPattern, Pos: pos, Msg: fmt.Sprintf("invalid irrefutable pattern: %s", desc)}
}
