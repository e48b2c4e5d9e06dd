package quil

import (
	"fmt"
	"math/bits"
	"strings"
)

// GateSpecification is the body of a gate definition. It is a closed sum of
// MatrixSpecification, PermutationSpecification and PauliSumSpecification;
// consumers dispatch on it with a type switch.
type GateSpecification interface {
	fmt.Stringer
	// Kind is the keyword that follows AS in a DEFGATE header.
	Kind() string
	gateSpecification()
}

// MatrixSpecification is a square matrix of expressions, row by row.
type MatrixSpecification [][]Expression

// PermutationSpecification maps basis state j to basis state p[j].
type PermutationSpecification []uint64

// PauliSumSpecification defines the gate exp(-i * sum).
type PauliSumSpecification struct {
	PauliSum
}

func (MatrixSpecification) gateSpecification()      {}
func (PermutationSpecification) gateSpecification() {}
func (PauliSumSpecification) gateSpecification()    {}

func (MatrixSpecification) Kind() string      { return "MATRIX" }
func (PermutationSpecification) Kind() string { return "PERMUTATION" }
func (PauliSumSpecification) Kind() string    { return "PAULI-SUM" }

func (m MatrixSpecification) String() string {
	rows := make([]string, len(m))
	for i, row := range m {
		rows[i] = "\t" + joinExpressions(row, ", ")
	}
	return strings.Join(rows, "\n")
}

func (p PermutationSpecification) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprint(v)
	}
	return "\t" + strings.Join(parts, ", ")
}

// EqualSpecifications reports structural equality of two specifications.
func EqualSpecifications(a, b GateSpecification) bool {
	switch x := a.(type) {
	case MatrixSpecification:
		y, ok := b.(MatrixSpecification)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualExpressions(x[i], y[i]) {
				return false
			}
		}
		return true
	case PermutationSpecification:
		y, ok := b.(PermutationSpecification)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case PauliSumSpecification:
		y, ok := b.(PauliSumSpecification)
		return ok && x.PauliSum.Equal(y.PauliSum)
	case nil:
		return b == nil
	}
	return false
}

// GateDefinition names a reusable, parameterised gate.
type GateDefinition struct {
	Name          string
	Parameters    []string
	Specification GateSpecification
}

// NewGateDefinition checks the shape of spec: a matrix must be square with
// a power-of-two side, a permutation must have power-of-two length, and a
// Pauli sum must have at least one argument. Unitarity and bijectivity are
// checked when the gate is synthesized.
func NewGateDefinition(name string, parameters []string, spec GateSpecification) (GateDefinition, error) {
	if err := validateSpecificationShape(spec); err != nil {
		return GateDefinition{}, &GateError{Gate: name, Err: ErrInvalidSpecificationShape, Detail: err.Error()}
	}
	return GateDefinition{
		Name:          name,
		Parameters:    append([]string(nil), parameters...),
		Specification: cloneSpecification(spec),
	}, nil
}

// cloneSpecification returns a copy of spec that shares no slices with it.
func cloneSpecification(spec GateSpecification) GateSpecification {
	switch s := spec.(type) {
	case MatrixSpecification:
		out := make(MatrixSpecification, len(s))
		for i, row := range s {
			out[i] = append([]Expression(nil), row...)
		}
		return out
	case PermutationSpecification:
		return append(PermutationSpecification(nil), s...)
	case PauliSumSpecification:
		sum := PauliSum{
			Arguments: append([]string(nil), s.Arguments...),
			Terms:     make([]PauliTerm, len(s.Terms)),
		}
		for i, term := range s.Terms {
			sum.Terms[i] = NewPauliTerm(term.Arguments, term.Expression)
		}
		return PauliSumSpecification{sum}
	}
	return spec
}

func validateSpecificationShape(spec GateSpecification) error {
	switch s := spec.(type) {
	case MatrixSpecification:
		side := len(s)
		if !isPowerOfTwo(side) || side < 2 {
			return fmt.Errorf("matrix side %d is not a power of two", side)
		}
		for i, row := range s {
			if len(row) != side {
				return fmt.Errorf("row %d has %d entries, want %d", i, len(row), side)
			}
			for j, e := range row {
				if e == nil {
					return fmt.Errorf("entry (%d, %d) is empty", i, j)
				}
			}
		}
	case PermutationSpecification:
		if !isPowerOfTwo(len(s)) || len(s) < 2 {
			return fmt.Errorf("permutation length %d is not a power of two", len(s))
		}
	case PauliSumSpecification:
		if len(s.Arguments) == 0 {
			return fmt.Errorf("pauli sum has no arguments")
		}
	case nil:
		return fmt.Errorf("missing specification")
	}
	return nil
}

func (d GateDefinition) Equal(o GateDefinition) bool {
	if d.Name != o.Name || len(d.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range d.Parameters {
		if d.Parameters[i] != o.Parameters[i] {
			return false
		}
	}
	return EqualSpecifications(d.Specification, o.Specification)
}

func (d GateDefinition) Hash() uint64 { return hashString(d.String()) }

// String renders the DEFGATE header and its indented body.
func (d GateDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("DEFGATE ")
	sb.WriteString(d.Name)
	if len(d.Parameters) > 0 {
		params := make([]string, len(d.Parameters))
		for i, p := range d.Parameters {
			params[i] = Variable(p).String()
		}
		fmt.Fprintf(&sb, "(%s)", strings.Join(params, ", "))
	}
	if ps, ok := d.Specification.(PauliSumSpecification); ok {
		for _, a := range ps.Arguments {
			sb.WriteString(" ")
			sb.WriteString(a)
		}
	}
	if d.Specification == nil {
		return sb.String()
	}
	fmt.Fprintf(&sb, " AS %s:\n%s", d.Specification.Kind(), d.Specification)
	return sb.String()
}

// QubitCount is the number of operands a gate built from d takes.
func (d GateDefinition) QubitCount() int {
	switch s := d.Specification.(type) {
	case MatrixSpecification:
		return bits.TrailingZeros(uint(len(s)))
	case PermutationSpecification:
		return bits.TrailingZeros(uint(len(s)))
	case PauliSumSpecification:
		return len(s.Arguments)
	}
	return 0
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
