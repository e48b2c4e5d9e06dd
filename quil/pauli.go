package quil

import (
	"fmt"
	"strings"
)

// PauliGate is one of the single-qubit operators I, X, Y, Z.
type PauliGate int

const (
	PauliI PauliGate = iota
	PauliX
	PauliY
	PauliZ
)

func (p PauliGate) String() string {
	switch p {
	case PauliI:
		return "I"
	case PauliX:
		return "X"
	case PauliY:
		return "Y"
	case PauliZ:
		return "Z"
	default:
		return fmt.Sprintf("PauliGate(%d)", int(p))
	}
}

// ParsePauliGate reads a single letter I, X, Y or Z.
func ParsePauliGate(s string) (PauliGate, error) {
	switch s {
	case "I":
		return PauliI, nil
	case "X":
		return PauliX, nil
	case "Y":
		return PauliY, nil
	case "Z":
		return PauliZ, nil
	}
	return 0, &SyntaxError{Kind: "pauli gate", Input: s, Reason: "expected one of I, X, Y, Z"}
}

// PauliPair applies Gate to the qubit bound to Argument.
type PauliPair struct {
	Gate     PauliGate
	Argument string
}

// PauliTerm is Expression times the tensor product of its pairs.
type PauliTerm struct {
	Arguments  []PauliPair
	Expression Expression
}

func NewPauliTerm(arguments []PauliPair, expression Expression) PauliTerm {
	return PauliTerm{Arguments: append([]PauliPair(nil), arguments...), Expression: expression}
}

func (t PauliTerm) Equal(o PauliTerm) bool {
	if t.Expression != o.Expression || len(t.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range t.Arguments {
		if t.Arguments[i] != o.Arguments[i] {
			return false
		}
	}
	return true
}

// String renders the term as `ZZ(coefficient) p q`.
func (t PauliTerm) String() string {
	var gates, args strings.Builder
	for _, pair := range t.Arguments {
		gates.WriteString(pair.Gate.String())
		args.WriteString(" ")
		args.WriteString(pair.Argument)
	}
	return fmt.Sprintf("%s(%s)%s", gates.String(), t.Expression, args.String())
}

// PauliSum is a linear combination of PauliTerms over the formal
// Arguments. Equality is ordered: no reordering or merging of terms is done.
type PauliSum struct {
	Arguments []string
	Terms     []PauliTerm
}

// NewPauliSum fails with ErrUnknownArgument when a term names an argument
// that is not in arguments.
func NewPauliSum(arguments []string, terms []PauliTerm) (PauliSum, error) {
	declared := make(map[string]struct{}, len(arguments))
	for _, a := range arguments {
		declared[a] = struct{}{}
	}
	for _, term := range terms {
		for _, pair := range term.Arguments {
			if _, ok := declared[pair.Argument]; !ok {
				return PauliSum{}, &PauliSumError{
					Argument:  pair.Argument,
					Arguments: append([]string(nil), arguments...),
					Err:       ErrUnknownArgument,
				}
			}
		}
	}

	sum := PauliSum{
		Arguments: append([]string(nil), arguments...),
		Terms:     make([]PauliTerm, len(terms)),
	}
	for i, term := range terms {
		sum.Terms[i] = NewPauliTerm(term.Arguments, term.Expression)
	}
	return sum, nil
}

func (s PauliSum) Equal(o PauliSum) bool {
	if len(s.Arguments) != len(o.Arguments) || len(s.Terms) != len(o.Terms) {
		return false
	}
	for i := range s.Arguments {
		if s.Arguments[i] != o.Arguments[i] {
			return false
		}
	}
	for i := range s.Terms {
		if !s.Terms[i].Equal(o.Terms[i]) {
			return false
		}
	}
	return true
}

// String renders one indented term per line, as in a DEFGATE body.
func (s PauliSum) String() string {
	lines := make([]string, len(s.Terms))
	for i, term := range s.Terms {
		lines[i] = "\t" + term.String()
	}
	return strings.Join(lines, "\n")
}
