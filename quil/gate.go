package quil

import (
	"fmt"
	"strings"
)

// maxForks bounds the FORKED modifiers on one gate; each doubles the
// parameter list.
const maxForks = 62

// GateModifier is one recorded structural transformation of a gate.
type GateModifier int

const (
	Controlled GateModifier = iota
	Dagger
	Forked
)

func (m GateModifier) String() string {
	switch m {
	case Controlled:
		return "CONTROLLED"
	case Dagger:
		return "DAGGER"
	case Forked:
		return "FORKED"
	default:
		return fmt.Sprintf("GateModifier(%d)", int(m))
	}
}

// Gate is a named quantum operation applied to qubits.
//
// Modifiers is a stack in push order: Modifiers[0] was applied first and is
// the innermost. Qubits is in textual order, so the most recently added
// control or fork qubit comes first. Methods never mutate the receiver.
type Gate struct {
	Name       string
	Parameters []Expression
	Qubits     []Qubit
	Modifiers  []GateModifier
}

// NewGate validates and builds a gate. Operand counts are checked against
// the standard catalog for known names; custom names only need at least
// one qubit. Repeated qubits are rejected.
func NewGate(name string, parameters []Expression, qubits []Qubit, modifiers []GateModifier) (Gate, error) {
	if len(qubits) == 0 {
		return Gate{}, gateErrorf(name, ErrInvalidArity, "no qubits given")
	}
	for i, q := range qubits {
		if containsQubit(qubits[:i], q) {
			return Gate{}, gateErrorf(name, ErrDuplicateQubit, "qubit %s appears more than once", q)
		}
	}

	added := 0
	forks := 0
	for _, m := range modifiers {
		switch m {
		case Controlled:
			added++
		case Forked:
			added++
			forks++
		case Dagger:
		default:
			return Gate{}, gateErrorf(name, ErrInvalidArity, "unknown modifier %s", m)
		}
	}
	if added >= len(qubits) {
		return Gate{}, gateErrorf(name, ErrInvalidArity, "%d modifiers need more than %d qubits", added, len(qubits))
	}
	if forks > maxForks {
		return Gate{}, gateErrorf(name, ErrInvalidArity, "%d forks exceed the limit of %d", forks, maxForks)
	}
	if len(parameters)%(1<<forks) != 0 {
		return Gate{}, gateErrorf(name, ErrInvalidArity, "%d parameters cannot be split across %d forks", len(parameters), forks)
	}

	if std, ok := lookupStandardGate(name); ok {
		baseQubits := len(qubits) - added
		baseParams := len(parameters) >> forks
		if baseQubits != std.qubits {
			return Gate{}, gateErrorf(name, ErrInvalidArity, "expected %d qubits, got %d", std.qubits, baseQubits)
		}
		if baseParams != std.parameters {
			return Gate{}, gateErrorf(name, ErrInvalidArity, "expected %d parameters, got %d", std.parameters, baseParams)
		}
	}

	g := Gate{
		Name:       name,
		Parameters: append([]Expression(nil), parameters...),
		Qubits:     append([]Qubit(nil), qubits...),
		Modifiers:  append([]GateModifier(nil), modifiers...),
	}
	return g, nil
}

// Clone returns a deep copy whose slices do not alias g.
func (g Gate) Clone() Gate {
	return Gate{
		Name:       g.Name,
		Parameters: append([]Expression(nil), g.Parameters...),
		Qubits:     append([]Qubit(nil), g.Qubits...),
		Modifiers:  append([]GateModifier(nil), g.Modifiers...),
	}
}

// Dagger returns g with DAGGER pushed. Repeated daggers are kept, not cancelled.
func (g Gate) Dagger() Gate {
	out := g.Clone()
	out.Modifiers = append(out.Modifiers, Dagger)
	return out
}

// Controlled returns g controlled on q: q is prepended to the operands
// and CONTROLLED is pushed.
func (g Gate) Controlled(q Qubit) (Gate, error) {
	if containsQubit(g.Qubits, q) {
		return Gate{}, gateErrorf(g.Name, ErrDuplicateQubit, "control qubit %s is already an operand", q)
	}
	out := g.Clone()
	out.Qubits = append([]Qubit{q}, out.Qubits...)
	out.Modifiers = append(out.Modifiers, Controlled)
	return out, nil
}

// Forked returns g forked on q: when q is 1 the gate runs with params
// instead of its current parameters. params must match the current
// parameter count; it is appended, doubling the parameter list.
func (g Gate) Forked(q Qubit, params []Expression) (Gate, error) {
	if len(params) != len(g.Parameters) {
		return Gate{}, gateErrorf(g.Name, ErrParameterCountMismatch, "fork needs %d parameters, got %d", len(g.Parameters), len(params))
	}
	if containsQubit(g.Qubits, q) {
		return Gate{}, gateErrorf(g.Name, ErrDuplicateQubit, "fork qubit %s is already an operand", q)
	}
	out := g.Clone()
	out.Parameters = append(out.Parameters, params...)
	out.Qubits = append([]Qubit{q}, out.Qubits...)
	out.Modifiers = append(out.Modifiers, Forked)
	return out, nil
}

// Equal reports exact equality of name, parameters, qubits and modifier stack.
func (g Gate) Equal(o Gate) bool {
	if g.Name != o.Name || len(g.Qubits) != len(o.Qubits) || len(g.Modifiers) != len(o.Modifiers) {
		return false
	}
	if !EqualExpressions(g.Parameters, o.Parameters) {
		return false
	}
	for i := range g.Qubits {
		if g.Qubits[i] != o.Qubits[i] {
			return false
		}
	}
	for i := range g.Modifiers {
		if g.Modifiers[i] != o.Modifiers[i] {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal.
func (g Gate) Hash() uint64 { return hashString(g.String()) }

// String renders the gate as Quil, modifiers outermost first.
func (g Gate) String() string {
	var sb strings.Builder
	for i := len(g.Modifiers) - 1; i >= 0; i-- {
		sb.WriteString(g.Modifiers[i].String())
		sb.WriteString(" ")
	}
	sb.WriteString(g.Name)
	if len(g.Parameters) > 0 {
		fmt.Fprintf(&sb, "(%s)", joinExpressions(g.Parameters, ", "))
	}
	for _, q := range g.Qubits {
		sb.WriteString(" ")
		sb.WriteString(q.String())
	}
	return sb.String()
}
