package quil

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// standardGate is a built-in gate: its arity and a constructor for its
// matrix from already evaluated parameters. The first operand is the most
// significant bit of the matrix index.
type standardGate struct {
	qubits     int
	parameters int
	matrix     func(params []complex128) *mat.CDense
}

func fixed(rows ...[]complex128) func([]complex128) *mat.CDense {
	return func([]complex128) *mat.CDense { return denseFromRows(rows) }
}

func diagonal(entries func(p []complex128) []complex128) func([]complex128) *mat.CDense {
	return func(p []complex128) *mat.CDense {
		d := entries(p)
		m := mat.NewCDense(len(d), len(d), nil)
		for i, v := range d {
			m.Set(i, i, v)
		}
		return m
	}
}

func phase(angle complex128) complex128 { return cmplx.Exp(complex(0, 1) * angle) }

var (
	iUnit   = complex(0, 1)
	invRoot = complex(1/math.Sqrt2, 0)
)

var standardGates = map[string]standardGate{
	"I": {1, 0, fixed([]complex128{1, 0}, []complex128{0, 1})},
	"X": {1, 0, fixed([]complex128{0, 1}, []complex128{1, 0})},
	"Y": {1, 0, fixed([]complex128{0, -iUnit}, []complex128{iUnit, 0})},
	"Z": {1, 0, fixed([]complex128{1, 0}, []complex128{0, -1})},
	"H": {1, 0, fixed([]complex128{invRoot, invRoot}, []complex128{invRoot, -invRoot})},
	"S": {1, 0, fixed([]complex128{1, 0}, []complex128{0, iUnit})},
	"T": {1, 0, fixed([]complex128{1, 0}, []complex128{0, phase(math.Pi / 4)})},

	"PHASE": {1, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{1, phase(p[0])}
	})},
	"RX": {1, 1, func(p []complex128) *mat.CDense {
		c, s := cmplx.Cos(p[0]/2), cmplx.Sin(p[0]/2)
		return denseFromRows([][]complex128{{c, -iUnit * s}, {-iUnit * s, c}})
	}},
	"RY": {1, 1, func(p []complex128) *mat.CDense {
		c, s := cmplx.Cos(p[0]/2), cmplx.Sin(p[0]/2)
		return denseFromRows([][]complex128{{c, -s}, {s, c}})
	}},
	"RZ": {1, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{phase(-p[0] / 2), phase(p[0] / 2)}
	})},

	"CNOT": {2, 0, fixed(
		[]complex128{1, 0, 0, 0},
		[]complex128{0, 1, 0, 0},
		[]complex128{0, 0, 0, 1},
		[]complex128{0, 0, 1, 0},
	)},
	"CZ": {2, 0, diagonal(func([]complex128) []complex128 { return []complex128{1, 1, 1, -1} })},
	"SWAP": {2, 0, fixed(
		[]complex128{1, 0, 0, 0},
		[]complex128{0, 0, 1, 0},
		[]complex128{0, 1, 0, 0},
		[]complex128{0, 0, 0, 1},
	)},
	"ISWAP": {2, 0, fixed(
		[]complex128{1, 0, 0, 0},
		[]complex128{0, 0, iUnit, 0},
		[]complex128{0, iUnit, 0, 0},
		[]complex128{0, 0, 0, 1},
	)},

	"CPHASE": {2, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{1, 1, 1, phase(p[0])}
	})},
	"CPHASE00": {2, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{phase(p[0]), 1, 1, 1}
	})},
	"CPHASE01": {2, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{1, phase(p[0]), 1, 1}
	})},
	"CPHASE10": {2, 1, diagonal(func(p []complex128) []complex128 {
		return []complex128{1, 1, phase(p[0]), 1}
	})},
	"PSWAP": {2, 1, func(p []complex128) *mat.CDense {
		e := phase(p[0])
		return denseFromRows([][]complex128{
			{1, 0, 0, 0},
			{0, 0, e, 0},
			{0, e, 0, 0},
			{0, 0, 0, 1},
		})
	}},

	"CCNOT": {3, 0, func([]complex128) *mat.CDense { return permutationMatrix([]uint64{0, 1, 2, 3, 4, 5, 7, 6}) }},
	"CSWAP": {3, 0, func([]complex128) *mat.CDense { return permutationMatrix([]uint64{0, 1, 2, 3, 4, 6, 5, 7}) }},
}

func lookupStandardGate(name string) (standardGate, bool) {
	g, ok := standardGates[name]
	return g, ok
}

// IsStandardGate reports whether name is one of the built-in gates.
func IsStandardGate(name string) bool {
	_, ok := standardGates[name]
	return ok
}

// StandardGateArity returns the base qubit and parameter counts of a built-in gate.
func StandardGateArity(name string) (qubits, parameters int, ok bool) {
	g, ok := standardGates[name]
	return g.qubits, g.parameters, ok
}

// StandardGateNames lists the built-in gates in sorted order.
func StandardGateNames() []string {
	names := make([]string, 0, len(standardGates))
	for name := range standardGates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// permutationMatrix maps basis state j to p[j]. p must be a bijection.
func permutationMatrix(p []uint64) *mat.CDense {
	m := mat.NewCDense(len(p), len(p), nil)
	for j, target := range p {
		m.Set(int(target), j, 1)
	}
	return m
}
