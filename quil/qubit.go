package quil

import "strconv"

// Qubit is a gate operand: either a fixed register index or a named
// variable (as used inside DEFCIRCUIT bodies). Qubit is comparable.
type Qubit struct {
	index    uint64
	variable string
	fixed    bool
}

// NewQubit returns the fixed qubit at register index i.
func NewQubit(i uint64) Qubit { return Qubit{index: i, fixed: true} }

// NewQubitVariable returns a qubit that is only known by name.
func NewQubitVariable(name string) Qubit { return Qubit{variable: name} }

// Qubits is shorthand for a list of fixed qubits.
func Qubits(indices ...uint64) []Qubit {
	qs := make([]Qubit, len(indices))
	for i, idx := range indices {
		qs[i] = NewQubit(idx)
	}
	return qs
}

// Index returns the register index and whether the qubit is fixed.
func (q Qubit) Index() (uint64, bool) { return q.index, q.fixed }

func (q Qubit) String() string {
	if q.fixed {
		return strconv.FormatUint(q.index, 10)
	}
	return q.variable
}

func containsQubit(qubits []Qubit, q Qubit) bool {
	for _, existing := range qubits {
		if existing == q {
			return true
		}
	}
	return false
}
