package main

import (
	"fmt"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// StateVector holds the amplitudes of an n-qubit register. Basis index
// bit q is the value of qubit q.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

// NewStateVector returns |0...0> on numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]complex128, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Apply multiplies the state by u in place.
func (s *StateVector) Apply(u mat.CMatrix) error {
	r, c := u.Dims()
	n := len(s.Amplitudes)
	if r != n || c != n {
		return fmt.Errorf("unitary is %dx%d but the state has %d amplitudes", r, c, n)
	}
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		for j := 0; j < n; j++ {
			if s.Amplitudes[j] != 0 {
				sum += u.At(i, j) * s.Amplitudes[j]
			}
		}
		out[i] = sum
	}
	s.Amplitudes = out
	return nil
}

type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) GetQubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	n := len(s.Amplitudes)

	for i := 0; i < n; i++ {
		prob := real(s.Amplitudes[i] * cmplx.Conj(s.Amplitudes[i]))
		for q := 0; q < s.NumQubits; q++ {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}

	return probs
}

// BasisState is one basis component with non-negligible weight.
type BasisState struct {
	BasisState int
	Amplitude  complex128
	Prob       float64
	Phase      float64
	Hamming    int
}

// Label renders the basis state as a ket, qubit 0 rightmost.
func (b BasisState) Label(numQubits int) string {
	return fmt.Sprintf("|%0*b⟩", numQubits, b.BasisState)
}

// BasisStates lists the components whose probability exceeds 1e-10.
func (s *StateVector) BasisStates() []BasisState {
	n := len(s.Amplitudes)
	states := make([]BasisState, 0, n)

	for i := 0; i < n; i++ {
		amp := s.Amplitudes[i]
		prob := real(amp * cmplx.Conj(amp))

		if prob > 1e-10 {
			states = append(states, BasisState{
				BasisState: i,
				Amplitude:  amp,
				Prob:       prob,
				Phase:      cmplx.Phase(amp),
				Hamming:    bits.OnesCount(uint(i)),
			})
		}
	}

	return states
}
