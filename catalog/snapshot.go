package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"quildeck/quil"
)

const snapshotVersion = 1

type snapshot struct {
	Version int          `msgpack:"version"`
	Gates   []gateRecord `msgpack:"gates"`
}

type gateRecord struct {
	Name        string         `msgpack:"name"`
	Parameters  []string       `msgpack:"parameters,omitempty"`
	Kind        string         `msgpack:"kind"`
	Matrix      [][]exprRecord `msgpack:"matrix,omitempty"`
	Permutation []uint64       `msgpack:"permutation,omitempty"`
	Arguments   []string       `msgpack:"arguments,omitempty"`
	Terms       []termRecord   `msgpack:"terms,omitempty"`
}

type termRecord struct {
	Paulis      string     `msgpack:"paulis"`
	Arguments   []string   `msgpack:"arguments"`
	Coefficient exprRecord `msgpack:"coefficient"`
}

// exprRecord is one expression node. Op selects the variant: num, pi, var,
// mem, call, a prefix sign, or an infix operator.
type exprRecord struct {
	Op       string       `msgpack:"op"`
	Re       float64      `msgpack:"re,omitempty"`
	Im       float64      `msgpack:"im,omitempty"`
	Name     string       `msgpack:"name,omitempty"`
	Index    uint64       `msgpack:"index,omitempty"`
	Operands []exprRecord `msgpack:"operands,omitempty"`
}

// WriteSnapshot encodes defs in the binary catalog format.
func WriteSnapshot(w io.Writer, defs []quil.GateDefinition) error {
	snap := snapshot{Version: snapshotVersion, Gates: make([]gateRecord, 0, len(defs))}
	for _, def := range defs {
		rec, err := encodeGate(def)
		if err != nil {
			return err
		}
		snap.Gates = append(snap.Gates, rec)
	}
	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes defs to path, replacing any existing file.
func WriteSnapshotFile(path string, defs []quil.GateDefinition) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	if err := WriteSnapshot(f, defs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot decodes definitions written by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]quil.GateDefinition, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	defs := make([]quil.GateDefinition, 0, len(snap.Gates))
	for _, rec := range snap.Gates {
		def, err := decodeGateRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", rec.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ReadSnapshotFile reads the snapshot stored at path.
func ReadSnapshotFile(path string) ([]quil.GateDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

func encodeGate(def quil.GateDefinition) (gateRecord, error) {
	rec := gateRecord{Name: def.Name, Parameters: def.Parameters}
	switch spec := def.Specification.(type) {
	case quil.MatrixSpecification:
		rec.Matrix = make([][]exprRecord, len(spec))
		for i, row := range spec {
			rec.Matrix[i] = make([]exprRecord, len(row))
			for j, e := range row {
				er, err := encodeExpression(e)
				if err != nil {
					return gateRecord{}, fmt.Errorf("gate %s: %w", def.Name, err)
				}
				rec.Matrix[i][j] = er
			}
		}
	case quil.PermutationSpecification:
		rec.Permutation = spec
	case quil.PauliSumSpecification:
		rec.Arguments = spec.Arguments
		for _, term := range spec.Terms {
			tr := termRecord{}
			for _, pair := range term.Arguments {
				tr.Paulis += pair.Gate.String()
				tr.Arguments = append(tr.Arguments, pair.Argument)
			}
			coef, err := encodeExpression(term.Expression)
			if err != nil {
				return gateRecord{}, fmt.Errorf("gate %s: %w", def.Name, err)
			}
			tr.Coefficient = coef
			rec.Terms = append(rec.Terms, tr)
		}
	default:
		return gateRecord{}, fmt.Errorf("gate %s: %w", def.Name, quil.ErrInvalidSpecificationShape)
	}
	rec.Kind = def.Specification.Kind()
	return rec, nil
}

func decodeGateRecord(rec gateRecord) (quil.GateDefinition, error) {
	var spec quil.GateSpecification
	switch rec.Kind {
	case quil.MatrixSpecification(nil).Kind():
		m := make(quil.MatrixSpecification, len(rec.Matrix))
		for i, row := range rec.Matrix {
			m[i] = make([]quil.Expression, len(row))
			for j, er := range row {
				e, err := decodeExpression(er)
				if err != nil {
					return quil.GateDefinition{}, err
				}
				m[i][j] = e
			}
		}
		spec = m
	case quil.PermutationSpecification(nil).Kind():
		spec = quil.PermutationSpecification(rec.Permutation)
	case quil.PauliSumSpecification{}.Kind():
		terms := make([]quil.PauliTerm, 0, len(rec.Terms))
		for _, tr := range rec.Terms {
			if len(tr.Paulis) != len(tr.Arguments) {
				return quil.GateDefinition{}, fmt.Errorf("term %q has %d arguments", tr.Paulis, len(tr.Arguments))
			}
			pairs := make([]quil.PauliPair, len(tr.Arguments))
			for i := range tr.Arguments {
				gate, err := quil.ParsePauliGate(tr.Paulis[i : i+1])
				if err != nil {
					return quil.GateDefinition{}, err
				}
				pairs[i] = quil.PauliPair{Gate: gate, Argument: tr.Arguments[i]}
			}
			coef, err := decodeExpression(tr.Coefficient)
			if err != nil {
				return quil.GateDefinition{}, err
			}
			terms = append(terms, quil.NewPauliTerm(pairs, coef))
		}
		sum, err := quil.NewPauliSum(rec.Arguments, terms)
		if err != nil {
			return quil.GateDefinition{}, err
		}
		spec = quil.PauliSumSpecification{PauliSum: sum}
	default:
		return quil.GateDefinition{}, fmt.Errorf("unknown specification kind %q", rec.Kind)
	}
	return quil.NewGateDefinition(rec.Name, rec.Parameters, spec)
}

func encodeExpression(e quil.Expression) (exprRecord, error) {
	switch v := e.(type) {
	case quil.Number:
		return exprRecord{Op: "num", Re: real(v), Im: imag(v)}, nil
	case quil.PiConstant:
		return exprRecord{Op: "pi"}, nil
	case quil.Variable:
		return exprRecord{Op: "var", Name: string(v)}, nil
	case quil.MemoryReference:
		return exprRecord{Op: "mem", Name: v.Name, Index: v.Index}, nil
	case quil.FunctionCall:
		arg, err := encodeExpression(v.Argument)
		if err != nil {
			return exprRecord{}, err
		}
		return exprRecord{Op: "call", Name: string(v.Function), Operands: []exprRecord{arg}}, nil
	case quil.Prefix:
		operand, err := encodeExpression(v.Operand)
		if err != nil {
			return exprRecord{}, err
		}
		return exprRecord{Op: "prefix" + string(v.Operator), Operands: []exprRecord{operand}}, nil
	case quil.Infix:
		left, err := encodeExpression(v.Left)
		if err != nil {
			return exprRecord{}, err
		}
		right, err := encodeExpression(v.Right)
		if err != nil {
			return exprRecord{}, err
		}
		return exprRecord{Op: string(v.Operator), Operands: []exprRecord{left, right}}, nil
	}
	return exprRecord{}, fmt.Errorf("cannot encode expression %T", e)
}

func decodeExpression(r exprRecord) (quil.Expression, error) {
	operands := make([]quil.Expression, len(r.Operands))
	for i, o := range r.Operands {
		e, err := decodeExpression(o)
		if err != nil {
			return nil, err
		}
		operands[i] = e
	}
	want := func(n int) error {
		if len(operands) != n {
			return fmt.Errorf("expression %q needs %d operands, got %d", r.Op, n, len(operands))
		}
		return nil
	}

	switch r.Op {
	case "num":
		return quil.Number(complex(r.Re, r.Im)), nil
	case "pi":
		return quil.PiConstant{}, nil
	case "var":
		return quil.Variable(r.Name), nil
	case "mem":
		return quil.NewMemoryReference(r.Name, r.Index), nil
	case "call":
		if err := want(1); err != nil {
			return nil, err
		}
		fn, ok := quil.LookupFunction(r.Name)
		if !ok {
			return nil, fmt.Errorf("unknown function %q", r.Name)
		}
		return quil.FunctionCall{Function: fn, Argument: operands[0]}, nil
	case "prefix" + string(quil.PrefixPlus), "prefix" + string(quil.PrefixMinus):
		if err := want(1); err != nil {
			return nil, err
		}
		return quil.Prefix{Operator: quil.PrefixOperator(r.Op[len("prefix"):]), Operand: operands[0]}, nil
	case string(quil.Plus), string(quil.Minus), string(quil.Star), string(quil.Slash), string(quil.Caret):
		if err := want(2); err != nil {
			return nil, err
		}
		return quil.Infix{Left: operands[0], Operator: quil.InfixOperator(r.Op), Right: operands[1]}, nil
	}
	return nil, fmt.Errorf("unknown expression op %q", r.Op)
}
