package quil

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance bounds the error allowed when checking that a matrix
// definition is unitary.
const DefaultTolerance = 1e-8

// MaxRegisterQubits is the largest register a dense unitary is built for.
const MaxRegisterQubits = 12

// Synthesizer turns gates into unitary matrices over an n-qubit register.
//
// Register qubit 0 is the least significant bit of a basis index. Inside a
// gate's own matrix the first operand is the most significant bit.
type Synthesizer struct {
	registry  DefinitionRegistry
	tolerance float64
	bindings  Bindings
	log       zerolog.Logger
}

// NewSynthesizer creates a synthesizer. registry may be nil, in which case
// only standard gates resolve.
func NewSynthesizer(registry DefinitionRegistry, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		registry:  registry,
		tolerance: DefaultTolerance,
		log:       log.With().Str("component", "synthesizer").Logger(),
	}
}

// WithTolerance returns a copy using tol for unitarity checks.
func (s *Synthesizer) WithTolerance(tol float64) *Synthesizer {
	c := *s
	c.tolerance = tol
	return &c
}

// WithBindings returns a copy that resolves gate parameters against b.
func (s *Synthesizer) WithBindings(b Bindings) *Synthesizer {
	c := *s
	c.bindings = b
	return &c
}

// ToUnitary synthesizes g over n qubits without touching g.
func (s *Synthesizer) ToUnitary(g Gate, n uint64) (*mat.CDense, error) {
	c := g.Clone()
	return s.ToUnitaryMut(&c, n)
}

// ToUnitaryMut synthesizes g over n qubits. On success every parameter of g
// is replaced by the Number it evaluated to. On error g is unchanged.
func (s *Synthesizer) ToUnitaryMut(g *Gate, n uint64) (*mat.CDense, error) {
	if n > MaxRegisterQubits {
		return nil, gateErrorf(g.Name, ErrQubitOutOfRange, "a %d-qubit register exceeds the %d-qubit limit", n, MaxRegisterQubits)
	}
	values, err := s.evaluateParameters(g)
	if err != nil {
		return nil, err
	}
	indices, err := resolveQubits(g, n)
	if err != nil {
		return nil, err
	}
	local, err := s.localMatrix(g, values)
	if err != nil {
		return nil, err
	}

	u := embed(local, indices, n)
	for i, v := range values {
		g.Parameters[i] = Number(v)
	}
	s.log.Debug().
		Str("gate", g.Name).
		Int("operands", len(indices)).
		Uint64("register", n).
		Msg("Synthesized gate")
	return u, nil
}

// GateMatrix returns the matrix of g over its own operands, first operand
// most significant. Qubits are not resolved against a register.
func (s *Synthesizer) GateMatrix(g Gate) (*mat.CDense, error) {
	if len(g.Qubits) > MaxRegisterQubits {
		return nil, gateErrorf(g.Name, ErrQubitOutOfRange, "%d operands exceed the %d-qubit limit", len(g.Qubits), MaxRegisterQubits)
	}
	values, err := s.evaluateParameters(&g)
	if err != nil {
		return nil, err
	}
	return s.localMatrix(&g, values)
}

// ToUnitaries synthesizes gates concurrently. Results keep input order; the
// first failure cancels the remaining work.
func (s *Synthesizer) ToUnitaries(ctx context.Context, gates []Gate, n uint64) ([]*mat.CDense, error) {
	out := make([]*mat.CDense, len(gates))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range gates {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := s.ToUnitary(g, n)
			if err != nil {
				return fmt.Errorf("gate %d: %w", i, err)
			}
			out[i] = u
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Synthesizer) evaluateParameters(g *Gate) ([]complex128, error) {
	values := make([]complex128, len(g.Parameters))
	for i, p := range g.Parameters {
		v, err := Evaluate(p, s.bindings)
		if err != nil {
			return nil, &GateError{Gate: g.Name, Err: ErrUnresolvedParameter, Detail: err.Error()}
		}
		values[i] = v
	}
	return values, nil
}

func resolveQubits(g *Gate, n uint64) ([]uint64, error) {
	indices := make([]uint64, len(g.Qubits))
	seen := make(map[uint64]struct{}, len(g.Qubits))
	for i, q := range g.Qubits {
		idx, ok := q.Index()
		if !ok {
			return nil, gateErrorf(g.Name, ErrUnresolvedQubit, "qubit %s has no index", q)
		}
		if idx >= n {
			return nil, gateErrorf(g.Name, ErrQubitOutOfRange, "qubit %d outside a %d-qubit register", idx, n)
		}
		if _, dup := seen[idx]; dup {
			return nil, gateErrorf(g.Name, ErrDuplicateQubit, "qubit %d appears more than once", idx)
		}
		seen[idx] = struct{}{}
		indices[i] = idx
	}
	return indices, nil
}

// baseGate builds the unmodified matrix from its own parameters.
type baseGate func(params []complex128) (*mat.CDense, error)

// localMatrix resolves the base gate and folds the modifier stack over it.
func (s *Synthesizer) localMatrix(g *Gate, values []complex128) (*mat.CDense, error) {
	added, forks := 0, 0
	for _, m := range g.Modifiers {
		switch m {
		case Controlled:
			added++
		case Forked:
			added++
			forks++
		}
	}
	if len(g.Qubits) == 0 || added >= len(g.Qubits) {
		return nil, gateErrorf(g.Name, ErrInvalidArity, "%d modifiers need more than %d qubits", added, len(g.Qubits))
	}
	if forks > maxForks || len(values)%(1<<forks) != 0 {
		return nil, gateErrorf(g.Name, ErrInvalidArity, "%d parameters cannot be split across %d forks", len(values), forks)
	}
	baseQubits := len(g.Qubits) - added
	baseParams := len(values) >> forks

	base, wantQubits, wantParams, err := s.resolveBase(g.Name)
	if err != nil {
		return nil, err
	}
	if baseQubits != wantQubits {
		return nil, gateErrorf(g.Name, ErrInvalidArity, "expected %d qubits, got %d", wantQubits, baseQubits)
	}
	if baseParams != wantParams {
		return nil, gateErrorf(g.Name, ErrInvalidArity, "expected %d parameters, got %d", wantParams, baseParams)
	}
	return applyModifiers(g.Name, base, values, g.Modifiers)
}

func (s *Synthesizer) resolveBase(name string) (baseGate, int, int, error) {
	if std, ok := lookupStandardGate(name); ok {
		return func(p []complex128) (*mat.CDense, error) { return std.matrix(p), nil }, std.qubits, std.parameters, nil
	}
	if s.registry == nil {
		return nil, 0, 0, gateErrorf(name, ErrUnknownGate, "no definitions registered")
	}
	def, ok := s.registry.Definition(name)
	if !ok {
		return nil, 0, 0, &GateError{Gate: name, Err: ErrUnknownGate}
	}
	if err := validateSpecificationShape(def.Specification); err != nil {
		return nil, 0, 0, &GateError{Gate: name, Err: ErrInvalidSpecificationShape, Detail: err.Error()}
	}
	s.log.Debug().
		Str("gate", name).
		Str("kind", kindOf(def.Specification)).
		Msg("Expanding gate definition")
	base := func(p []complex128) (*mat.CDense, error) { return s.expand(def, p) }
	return base, def.QubitCount(), len(def.Parameters), nil
}

// applyModifiers folds mods over the base gate. The last modifier is the
// outermost, so it is applied to the result of the ones before it.
func applyModifiers(name string, base baseGate, params []complex128, mods []GateModifier) (*mat.CDense, error) {
	if len(mods) == 0 {
		return base(params)
	}
	outer, inner := mods[len(mods)-1], mods[:len(mods)-1]
	switch outer {
	case Dagger:
		m, err := applyModifiers(name, base, params, inner)
		if err != nil {
			return nil, err
		}
		return conjTranspose(m), nil
	case Controlled:
		m, err := applyModifiers(name, base, params, inner)
		if err != nil {
			return nil, err
		}
		dim, _ := m.Dims()
		return blockDiag(identity(dim), m), nil
	case Forked:
		half := len(params) / 2
		m0, err := applyModifiers(name, base, params[:half], inner)
		if err != nil {
			return nil, err
		}
		m1, err := applyModifiers(name, base, params[half:], inner)
		if err != nil {
			return nil, err
		}
		return blockDiag(m0, m1), nil
	}
	return nil, gateErrorf(name, ErrInvalidArity, "unknown modifier %s", outer)
}

// expand evaluates a definition's body with its formal parameters bound to p.
func (s *Synthesizer) expand(def GateDefinition, p []complex128) (*mat.CDense, error) {
	b := Bindings{Variables: make(map[string]complex128, len(def.Parameters)), Memory: s.bindings.Memory}
	for i, name := range def.Parameters {
		b.Variables[name] = p[i]
	}

	switch spec := def.Specification.(type) {
	case MatrixSpecification:
		return s.expandMatrix(def.Name, spec, b)
	case PermutationSpecification:
		return expandPermutation(def.Name, spec)
	case PauliSumSpecification:
		return expandPauliSum(def.Name, spec.PauliSum, b)
	}
	return nil, gateErrorf(def.Name, ErrInvalidSpecificationShape, "missing specification")
}

func (s *Synthesizer) expandMatrix(name string, spec MatrixSpecification, b Bindings) (*mat.CDense, error) {
	if err := validateSpecificationShape(spec); err != nil {
		return nil, &GateError{Gate: name, Err: ErrInvalidSpecificationShape, Detail: err.Error()}
	}
	side := len(spec)
	m := mat.NewCDense(side, side, nil)
	for i, row := range spec {
		for j, entry := range row {
			v, err := Evaluate(entry, b)
			if err != nil {
				return nil, &GateError{Gate: name, Err: ErrUnresolvedParameter, Detail: err.Error()}
			}
			m.Set(i, j, v)
		}
	}
	if !IsUnitary(m, s.tolerance) {
		return nil, &GateError{Gate: name, Err: ErrNotUnitary}
	}
	return m, nil
}

func expandPermutation(name string, spec PermutationSpecification) (*mat.CDense, error) {
	if err := validateSpecificationShape(spec); err != nil {
		return nil, &GateError{Gate: name, Err: ErrInvalidSpecificationShape, Detail: err.Error()}
	}
	seen := make([]bool, len(spec))
	for j, target := range spec {
		if target >= uint64(len(spec)) {
			return nil, gateErrorf(name, ErrInvalidSpecificationShape, "entry %d maps to %d, outside 0..%d", j, target, len(spec)-1)
		}
		if seen[target] {
			return nil, gateErrorf(name, ErrInvalidSpecificationShape, "%d is the image of more than one entry", target)
		}
		seen[target] = true
	}
	return permutationMatrix(spec), nil
}

// expandPauliSum returns exp(-i * sum_k c_k P_k). Argument k of the sum is
// operand k of the gate.
func expandPauliSum(name string, sum PauliSum, b Bindings) (*mat.CDense, error) {
	if len(sum.Arguments) == 0 {
		return nil, gateErrorf(name, ErrInvalidSpecificationShape, "pauli sum has no arguments")
	}
	width := uint64(len(sum.Arguments))
	position := make(map[string]uint64, len(sum.Arguments))
	for k, a := range sum.Arguments {
		position[a] = width - 1 - uint64(k)
	}

	dim := 1 << width
	hamiltonian := mat.NewCDense(dim, dim, nil)
	for _, term := range sum.Terms {
		c, err := Evaluate(term.Expression, b)
		if err != nil {
			return nil, &GateError{Gate: name, Err: ErrUnresolvedParameter, Detail: err.Error()}
		}
		op := identity(dim)
		for _, pair := range term.Arguments {
			bit, ok := position[pair.Argument]
			if !ok {
				return nil, &GateError{
					Gate:   name,
					Err:    ErrUnknownArgument,
					Detail: fmt.Sprintf("term %s names %q", term, pair.Argument),
				}
			}
			op = mul(op, embed(pauliMatrix(pair.Gate), []uint64{bit}, width), false)
		}
		addInPlace(hamiltonian, scale(op, c))
	}
	return expm(scale(hamiltonian, complex(0, -1))), nil
}

func pauliMatrix(p PauliGate) *mat.CDense {
	std, _ := lookupStandardGate(p.String())
	return std.matrix(nil)
}

// embed lifts m, acting on qubits (first entry most significant within m),
// to the full 2^n register. Rows and columns that differ on a non-operand
// bit are zero.
func embed(m *mat.CDense, qubits []uint64, n uint64) *mat.CDense {
	dim := 1 << n
	k := len(qubits)
	sub := 1 << k

	var mask int
	spread := make([]int, sub)
	for x := 0; x < sub; x++ {
		for j, q := range qubits {
			if x&(1<<(k-1-j)) != 0 {
				spread[x] |= 1 << q
			}
		}
	}
	for _, q := range qubits {
		mask |= 1 << q
	}

	out := mat.NewCDense(dim, dim, nil)
	for rest := 0; rest < dim; rest++ {
		if rest&mask != 0 {
			continue
		}
		for i := 0; i < sub; i++ {
			for j := 0; j < sub; j++ {
				if v := m.At(i, j); v != 0 {
					out.Set(rest|spread[i], rest|spread[j], v)
				}
			}
		}
	}
	return out
}

func kindOf(spec GateSpecification) string {
	if spec == nil {
		return "NONE"
	}
	return spec.Kind()
}
