package quil

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrInvalidArity              = errors.New("invalid arity")
	ErrDuplicateQubit            = errors.New("duplicate qubit")
	ErrParameterCountMismatch    = errors.New("parameter count mismatch")
	ErrInvalidSpecificationShape = errors.New("invalid specification shape")
	ErrUnresolvedParameter       = errors.New("unresolved parameter")
	ErrUnknownGate               = errors.New("unknown gate")
	ErrUnresolvedQubit           = errors.New("unresolved qubit")
	ErrQubitOutOfRange           = errors.New("qubit out of range")
	ErrNotUnitary                = errors.New("matrix is not unitary")
	ErrDuplicateDefinition       = errors.New("duplicate gate definition")
	ErrUnknownArgument           = errors.New("unknown argument")
)

// GateError reports a failure to build, transform, or synthesize a gate.
type GateError struct {
	Gate   string
	Err    error
	Detail string
}

func (e *GateError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gate %s: %v", e.Gate, e.Err)
	}
	return fmt.Sprintf("gate %s: %v: %s", e.Gate, e.Err, e.Detail)
}

func (e *GateError) Unwrap() error { return e.Err }

func gateErrorf(gate string, kind error, format string, args ...any) *GateError {
	return &GateError{Gate: gate, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// SyntaxError reports malformed text handed to one of the parse functions.
type SyntaxError struct {
	Kind   string
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Input, e.Reason)
}

// PauliSumError reports a term that references an argument its sum does not declare.
type PauliSumError struct {
	Argument  string
	Arguments []string
	Err       error
}

func (e *PauliSumError) Error() string {
	return fmt.Sprintf("pauli sum: %v %q (declared %v)", e.Err, e.Argument, e.Arguments)
}

func (e *PauliSumError) Unwrap() error { return e.Err }
