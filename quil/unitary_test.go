package quil

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const testTolerance = 1e-9

func assertMatrix(t *testing.T, want, got mat.CMatrix) {
	t.Helper()
	if !mat.CEqualApprox(want, got, testTolerance) {
		t.Errorf("matrices differ:\nwant\n%s got\n%s", formatRows(want), formatRows(got))
	}
}

func formatRows(m mat.CMatrix) string {
	var sb strings.Builder
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			fmt.Fprintf(&sb, " %.4g", m.At(i, j))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func newTestSynthesizer(t *testing.T, defs ...GateDefinition) *Synthesizer {
	t.Helper()
	return NewSynthesizer(testRegistry(t, defs...), zerolog.Nop())
}

func TestToUnitary_PauliX(t *testing.T) {
	s := newTestSynthesizer(t)
	u, err := s.ToUnitary(mustGate(t, "X", nil, Qubits(0)), 1)
	require.NoError(t, err)
	assertMatrix(t, denseFromRows([][]complex128{{0, 1}, {1, 0}}), u)
}

func TestToUnitary_EmbeddingIsLittleEndian(t *testing.T) {
	s := newTestSynthesizer(t)

	// X on qubit 1 swaps |00>,|10> and |01>,|11>.
	u, err := s.ToUnitary(mustGate(t, "X", nil, Qubits(1)), 2)
	require.NoError(t, err)
	assertMatrix(t, permutationMatrix([]uint64{2, 3, 0, 1}), u)

	// CNOT with control 0 and target 1 swaps basis states 1 and 3.
	u, err = s.ToUnitary(mustGate(t, "CNOT", nil, Qubits(0, 1)), 2)
	require.NoError(t, err)
	assertMatrix(t, permutationMatrix([]uint64{0, 3, 2, 1}), u)

	// Identity on the untouched qubit of a three-qubit register.
	u, err = s.ToUnitary(mustGate(t, "Z", nil, Qubits(2)), 3)
	require.NoError(t, err)
	want := identity(8)
	for i := 4; i < 8; i++ {
		want.Set(i, i, -1)
	}
	assertMatrix(t, want, u)
}

func TestToUnitary_ControlledXIsCNOT(t *testing.T) {
	s := newTestSynthesizer(t)
	x := mustGate(t, "X", nil, Qubits(0))
	cx, err := x.Controlled(NewQubit(1))
	require.NoError(t, err)

	got, err := s.ToUnitary(cx, 2)
	require.NoError(t, err)
	assertMatrix(t, permutationMatrix([]uint64{0, 1, 3, 2}), got)

	cnot, err := s.ToUnitary(mustGate(t, "CNOT", nil, Qubits(1, 0)), 2)
	require.NoError(t, err)
	assertMatrix(t, cnot, got)
}

func TestToUnitary_DoubleDaggerIsIdentityOperation(t *testing.T) {
	s := newTestSynthesizer(t)
	for _, g := range []Gate{
		mustGate(t, "RX", []Expression{RealNumber(0.3)}, Qubits(0)),
		mustGate(t, "T", nil, Qubits(1)),
		mustGate(t, "ISWAP", nil, Qubits(1, 0)),
	} {
		plain, err := s.ToUnitary(g, 2)
		require.NoError(t, err)
		twice, err := s.ToUnitary(g.Dagger().Dagger(), 2)
		require.NoError(t, err)
		assert.True(t, EqualUpToPhase(plain, twice, testTolerance), g.String())
	}
}

func TestToUnitary_Dagger(t *testing.T) {
	s := newTestSynthesizer(t)
	u, err := s.ToUnitary(mustGate(t, "T", nil, Qubits(0)).Dagger(), 1)
	require.NoError(t, err)
	want := identity(2)
	want.Set(1, 1, cmplx.Exp(complex(0, -math.Pi/4)))
	assertMatrix(t, want, u)
}

func TestToUnitary_Forked(t *testing.T) {
	s := newTestSynthesizer(t)
	rz := mustGate(t, "RZ", []Expression{RealNumber(0.4)}, Qubits(0))
	f, err := rz.Forked(NewQubit(1), []Expression{RealNumber(1.1)})
	require.NoError(t, err)

	u, err := s.ToUnitary(f, 2)
	require.NoError(t, err)

	want := mat.NewCDense(4, 4, nil)
	want.Set(0, 0, cmplx.Exp(complex(0, -0.2)))
	want.Set(1, 1, cmplx.Exp(complex(0, 0.2)))
	want.Set(2, 2, cmplx.Exp(complex(0, -0.55)))
	want.Set(3, 3, cmplx.Exp(complex(0, 0.55)))
	assertMatrix(t, want, u)
}

func TestToUnitary_ModifierOrder(t *testing.T) {
	s := newTestSynthesizer(t)
	s1 := mustGate(t, "S", nil, Qubits(0))

	// CONTROLLED applied after DAGGER: the control sees S^H.
	inner, err := s1.Dagger().Controlled(NewQubit(1))
	require.NoError(t, err)
	u, err := s.ToUnitary(inner, 2)
	require.NoError(t, err)
	assert.InDelta(t, -1, imag(u.At(3, 3)), testTolerance)
	assert.InDelta(t, 1, real(u.At(0, 0)), testTolerance)

	// DAGGER outermost gives the same operator here since CONTROLLED
	// commutes with DAGGER.
	outer, err := s1.Controlled(NewQubit(1))
	require.NoError(t, err)
	u2, err := s.ToUnitary(outer.Dagger(), 2)
	require.NoError(t, err)
	assertMatrix(t, u, u2)
}

func TestToUnitary_NestedForkSplitsParameters(t *testing.T) {
	s := newTestSynthesizer(t)
	g := mustGate(t, "PHASE", []Expression{RealNumber(0.1)}, Qubits(0))
	f1, err := g.Forked(NewQubit(1), []Expression{RealNumber(0.2)})
	require.NoError(t, err)
	f2, err := f1.Forked(NewQubit(2), []Expression{RealNumber(0.3), RealNumber(0.4)})
	require.NoError(t, err)
	assert.Len(t, f2.Parameters, 4)

	u, err := s.ToUnitary(f2, 3)
	require.NoError(t, err)
	// Basis index b2 b1 b0: the phase on |b0=1> is chosen by (b2, b1).
	angles := map[int]float64{1: 0.1, 3: 0.2, 5: 0.3, 7: 0.4}
	for i := 0; i < 8; i++ {
		want := complex(1, 0)
		if a, ok := angles[i]; ok {
			want = cmplx.Exp(complex(0, a))
		}
		assert.InDelta(t, real(want), real(u.At(i, i)), testTolerance, "state %d", i)
		assert.InDelta(t, imag(want), imag(u.At(i, i)), testTolerance, "state %d", i)
	}
}

func TestToUnitary_StandardGatesAreUnitary(t *testing.T) {
	s := newTestSynthesizer(t)
	for _, name := range StandardGateNames() {
		qubits, params, ok := StandardGateArity(name)
		require.True(t, ok)
		exprs := make([]Expression, params)
		for i := range exprs {
			exprs[i] = RealNumber(0.7)
		}
		indices := make([]uint64, qubits)
		for i := range indices {
			indices[i] = uint64(qubits - 1 - i)
		}
		u, err := s.ToUnitary(mustGate(t, name, exprs, Qubits(indices...)), uint64(qubits))
		require.NoError(t, err, name)
		assert.True(t, IsUnitary(u, testTolerance), name)
	}
}

func TestToUnitary_MatrixDefinition(t *testing.T) {
	def, err := NewGateDefinition("MYRX", []string{"theta"}, rxMatrix())
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	got, err := s.ToUnitary(mustGate(t, "MYRX", []Expression{RealNumber(0.9)}, Qubits(0)), 1)
	require.NoError(t, err)
	want, err := s.ToUnitary(mustGate(t, "RX", []Expression{RealNumber(0.9)}, Qubits(0)), 1)
	require.NoError(t, err)
	assertMatrix(t, want, got)
}

func TestToUnitary_MatrixDefinitionNotUnitary(t *testing.T) {
	def, err := NewGateDefinition("LEAK", nil, MatrixSpecification{
		{RealNumber(1), RealNumber(0)},
		{RealNumber(0), RealNumber(0.5)},
	})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	_, err = s.ToUnitary(mustGate(t, "LEAK", nil, Qubits(0)), 1)
	assert.ErrorIs(t, err, ErrNotUnitary)
}

func TestToUnitary_PermutationDefinition(t *testing.T) {
	def, err := NewGateDefinition("MYCNOT", nil, PermutationSpecification{0, 1, 3, 2})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	got, err := s.ToUnitary(mustGate(t, "MYCNOT", nil, Qubits(0, 1)), 2)
	require.NoError(t, err)
	want, err := s.ToUnitary(mustGate(t, "CNOT", nil, Qubits(0, 1)), 2)
	require.NoError(t, err)
	assertMatrix(t, want, got)
}

func TestToUnitary_InvalidPermutation(t *testing.T) {
	tests := []struct {
		name string
		perm PermutationSpecification
	}{
		{"length three", PermutationSpecification{0, 2, 1}},
		{"not a bijection", PermutationSpecification{0, 0}},
		{"out of range", PermutationSpecification{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Built directly so the registry holds a shape NewGateDefinition would reject.
			def := GateDefinition{Name: "PERM", Specification: tt.perm}
			s := newTestSynthesizer(t, def)
			_, err := s.ToUnitary(mustGate(t, "PERM", nil, Qubits(0)), 2)
			assert.ErrorIs(t, err, ErrInvalidSpecificationShape)
		})
	}
}

func TestToUnitary_PauliSumDefinition(t *testing.T) {
	term := NewPauliTerm(
		[]PauliPair{{Gate: PauliZ, Argument: "p"}, {Gate: PauliZ, Argument: "q"}},
		Infix{Left: Variable("theta"), Operator: Slash, Right: RealNumber(2)},
	)
	sum, err := NewPauliSum([]string{"p", "q"}, []PauliTerm{term})
	require.NoError(t, err)
	def, err := NewGateDefinition("ZZ", []string{"theta"}, PauliSumSpecification{sum})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	theta := 0.8
	u, err := s.ToUnitary(mustGate(t, "ZZ", []Expression{RealNumber(theta)}, Qubits(1, 0)), 2)
	require.NoError(t, err)

	minus, plus := cmplx.Exp(complex(0, -theta/2)), cmplx.Exp(complex(0, theta/2))
	want := mat.NewCDense(4, 4, nil)
	want.Set(0, 0, minus)
	want.Set(1, 1, plus)
	want.Set(2, 2, plus)
	want.Set(3, 3, minus)
	assertMatrix(t, want, u)
}

func TestToUnitary_PauliSumMatchesRotation(t *testing.T) {
	term := NewPauliTerm(
		[]PauliPair{{Gate: PauliX, Argument: "p"}},
		Infix{Left: Variable("theta"), Operator: Slash, Right: RealNumber(2)},
	)
	sum, err := NewPauliSum([]string{"p"}, []PauliTerm{term})
	require.NoError(t, err)
	def, err := NewGateDefinition("XROT", []string{"theta"}, PauliSumSpecification{sum})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	got, err := s.ToUnitary(mustGate(t, "XROT", []Expression{RealNumber(2.5)}, Qubits(0)), 1)
	require.NoError(t, err)
	want, err := s.ToUnitary(mustGate(t, "RX", []Expression{RealNumber(2.5)}, Qubits(0)), 1)
	require.NoError(t, err)
	assertMatrix(t, want, got)
}

func TestToUnitary_PauliSumArgumentOrder(t *testing.T) {
	// exp(-i pi/2 X_p) = -i X on the operand bound to p.
	term := NewPauliTerm([]PauliPair{{Gate: PauliX, Argument: "p"}}, Infix{Left: PiConstant{}, Operator: Slash, Right: RealNumber(2)})
	sum, err := NewPauliSum([]string{"p", "q"}, []PauliTerm{term})
	require.NoError(t, err)
	def, err := NewGateDefinition("XFIRST", nil, PauliSumSpecification{sum})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	got, err := s.ToUnitary(mustGate(t, "XFIRST", nil, Qubits(0, 1)), 2)
	require.NoError(t, err)
	want, err := s.ToUnitary(mustGate(t, "X", nil, Qubits(0)), 2)
	require.NoError(t, err)
	assert.True(t, EqualUpToPhase(want, got, testTolerance))
}

func TestToUnitary_PauliSumRepeatedArgument(t *testing.T) {
	// X_p X_p is the identity, so the result is a global phase.
	term := NewPauliTerm([]PauliPair{{Gate: PauliX, Argument: "p"}, {Gate: PauliX, Argument: "p"}}, RealNumber(0.6))
	sum, err := NewPauliSum([]string{"p"}, []PauliTerm{term})
	require.NoError(t, err)
	def, err := NewGateDefinition("XX1", nil, PauliSumSpecification{sum})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)

	got, err := s.ToUnitary(mustGate(t, "XX1", nil, Qubits(0)), 1)
	require.NoError(t, err)
	assert.True(t, EqualUpToPhase(identity(2), got, testTolerance))
	assert.InDelta(t, math.Cos(0.6), real(got.At(0, 0)), testTolerance)
}

func TestToUnitary_Errors(t *testing.T) {
	perm, err := NewGateDefinition("FLIP", nil, PermutationSpecification{1, 0})
	require.NoError(t, err)
	s := newTestSynthesizer(t, perm)

	tests := []struct {
		name string
		gate Gate
		n    uint64
		want error
	}{
		{"unknown gate", Gate{Name: "NOPE", Qubits: Qubits(0)}, 1, ErrUnknownGate},
		{"unresolved parameter", Gate{Name: "RX", Parameters: []Expression{Variable("theta")}, Qubits: Qubits(0)}, 1, ErrUnresolvedParameter},
		{"unresolved qubit", Gate{Name: "X", Qubits: []Qubit{NewQubitVariable("q")}}, 1, ErrUnresolvedQubit},
		{"qubit out of range", Gate{Name: "X", Qubits: Qubits(3)}, 2, ErrQubitOutOfRange},
		{"duplicate qubit", Gate{Name: "CNOT", Qubits: Qubits(0, 0)}, 2, ErrDuplicateQubit},
		{"standard arity", Gate{Name: "CNOT", Qubits: Qubits(0)}, 2, ErrInvalidArity},
		{"definition arity", Gate{Name: "FLIP", Qubits: Qubits(0, 1)}, 2, ErrInvalidArity},
		{"definition parameters", Gate{Name: "FLIP", Parameters: []Expression{PiConstant{}}, Qubits: Qubits(0)}, 1, ErrInvalidArity},
		{"register too large", Gate{Name: "X", Qubits: Qubits(0)}, MaxRegisterQubits + 1, ErrQubitOutOfRange},
		{"register overflows", Gate{Name: "X", Qubits: Qubits(0)}, 63, ErrQubitOutOfRange},
		{"register wraps", Gate{Name: "X", Qubits: Qubits(0)}, 64, ErrQubitOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := s.ToUnitary(tt.gate, tt.n)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, u)
		})
	}
}

func TestToUnitary_UnknownGateWithoutRegistry(t *testing.T) {
	s := NewSynthesizer(nil, zerolog.Nop())
	_, err := s.ToUnitary(Gate{Name: "NOPE", Qubits: Qubits(0)}, 1)
	assert.ErrorIs(t, err, ErrUnknownGate)

	_, err = s.ToUnitary(mustGate(t, "H", nil, Qubits(0)), 1)
	assert.NoError(t, err)
}

func TestToUnitary_LeavesGateUntouched(t *testing.T) {
	s := newTestSynthesizer(t)
	g := mustGate(t, "RX", []Expression{Infix{Left: PiConstant{}, Operator: Slash, Right: RealNumber(2)}}, Qubits(0))
	_, err := s.ToUnitary(g, 1)
	require.NoError(t, err)
	assert.Equal(t, "RX(pi/2) 0", g.String())
}

func TestToUnitaryMut_NormalizesParameters(t *testing.T) {
	s := newTestSynthesizer(t)
	g := mustGate(t, "RX", []Expression{Infix{Left: PiConstant{}, Operator: Slash, Right: RealNumber(2)}}, Qubits(0))

	_, err := s.ToUnitaryMut(&g, 1)
	require.NoError(t, err)
	require.Len(t, g.Parameters, 1)
	n, ok := g.Parameters[0].(Number)
	require.True(t, ok)
	assert.InDelta(t, math.Pi/2, real(n), 1e-12)
}

func TestToUnitaryMut_NegatedZeroHashesLikeZero(t *testing.T) {
	s := newTestSynthesizer(t)
	g := mustGate(t, "RX", []Expression{Prefix{Operator: PrefixMinus, Operand: RealNumber(0)}}, Qubits(0))
	_, err := s.ToUnitaryMut(&g, 1)
	require.NoError(t, err)

	zero := mustGate(t, "RX", []Expression{RealNumber(0)}, Qubits(0))
	require.True(t, g.Equal(zero))
	assert.Equal(t, zero.Hash(), g.Hash())
}

func TestToUnitaryMut_UnchangedOnError(t *testing.T) {
	s := newTestSynthesizer(t)
	g := Gate{Name: "RX", Parameters: []Expression{PiConstant{}}, Qubits: Qubits(5)}
	before := g.Clone()

	_, err := s.ToUnitaryMut(&g, 2)
	require.ErrorIs(t, err, ErrQubitOutOfRange)
	assert.True(t, before.Equal(g))
}

func TestSynthesizerWithBindings(t *testing.T) {
	ref := NewMemoryReference("theta", 0)
	s := newTestSynthesizer(t).WithBindings(Bindings{Memory: map[MemoryReference]float64{ref: 0.5}})

	got, err := s.ToUnitary(mustGate(t, "RZ", []Expression{ref}, Qubits(0)), 1)
	require.NoError(t, err)
	want, err := s.ToUnitary(mustGate(t, "RZ", []Expression{RealNumber(0.5)}, Qubits(0)), 1)
	require.NoError(t, err)
	assertMatrix(t, want, got)
}

func TestSynthesizerWithTolerance(t *testing.T) {
	def, err := NewGateDefinition("ROUGH", nil, MatrixSpecification{
		{RealNumber(0.7071), RealNumber(0.7071)},
		{RealNumber(0.7071), RealNumber(-0.7071)},
	})
	require.NoError(t, err)
	s := newTestSynthesizer(t, def)
	g := mustGate(t, "ROUGH", nil, Qubits(0))

	_, err = s.ToUnitary(g, 1)
	assert.ErrorIs(t, err, ErrNotUnitary)

	_, err = s.WithTolerance(1e-3).ToUnitary(g, 1)
	assert.NoError(t, err)
}

func TestGateMatrix(t *testing.T) {
	s := newTestSynthesizer(t)
	cx, err := mustGate(t, "X", nil, Qubits(5)).Controlled(NewQubit(9))
	require.NoError(t, err)

	m, err := s.GateMatrix(cx)
	require.NoError(t, err)
	assertMatrix(t, permutationMatrix([]uint64{0, 1, 3, 2}), m)
}

func TestGateMatrix_TooManyOperands(t *testing.T) {
	s := newTestSynthesizer(t)
	g := mustGate(t, "X", nil, Qubits(0))
	for q := uint64(1); q <= MaxRegisterQubits; q++ {
		var err error
		g, err = g.Controlled(NewQubit(q))
		require.NoError(t, err)
	}
	_, err := s.GateMatrix(g)
	assert.ErrorIs(t, err, ErrQubitOutOfRange)
}

func TestToUnitaries(t *testing.T) {
	s := newTestSynthesizer(t)
	gates := []Gate{
		mustGate(t, "X", nil, Qubits(0)),
		mustGate(t, "H", nil, Qubits(1)),
		mustGate(t, "CNOT", nil, Qubits(1, 0)),
	}
	got, err := s.ToUnitaries(context.Background(), gates, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, g := range gates {
		want, err := s.ToUnitary(g, 2)
		require.NoError(t, err)
		assertMatrix(t, want, got[i])
	}

	gates = append(gates, Gate{Name: "NOPE", Qubits: Qubits(0)})
	_, err = s.ToUnitaries(context.Background(), gates, 2)
	assert.ErrorIs(t, err, ErrUnknownGate)
}

func TestToUnitaries_Cancelled(t *testing.T) {
	s := newTestSynthesizer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ToUnitaries(ctx, []Gate{mustGate(t, "X", nil, Qubits(0))}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEqualUpToPhase(t *testing.T) {
	a := denseFromRows([][]complex128{{0, 1}, {1, 0}})
	b := scale(a, cmplx.Exp(complex(0, 0.3)))
	assert.True(t, EqualUpToPhase(a, b, testTolerance))
	assert.False(t, EqualUpToPhase(a, identity(2), testTolerance))
	assert.False(t, EqualUpToPhase(a, scale(a, 2), testTolerance))
}
