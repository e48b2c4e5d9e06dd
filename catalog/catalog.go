package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"quildeck/quil"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "gate", LabelNames: []string{"name"}},
	},
}

var gateSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "parameters"},
		{Name: "matrix"},
		{Name: "permutation"},
		{Name: "arguments"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "term"},
	},
}

var termSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "paulis", Required: true},
		{Name: "arguments", Required: true},
		{Name: "coefficient", Required: true},
	},
}

// LoadFile reads the gate definitions in one catalog file.
func LoadFile(path string, log zerolog.Logger) ([]quil.GateDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path, log)
}

// LoadPath reads a catalog file, or every .hcl file below a directory in
// lexical order.
func LoadPath(path string, log zerolog.Logger) ([]quil.GateDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		return LoadFile(path, log)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", path, err)
	}
	sort.Strings(files)

	var defs []quil.GateDefinition
	for _, file := range files {
		loaded, err := LoadFile(file, log)
		if err != nil {
			return nil, err
		}
		defs = append(defs, loaded...)
	}
	return defs, nil
}

// Load parses gate blocks from r. filename is used in diagnostics.
func Load(r io.Reader, filename string, log zerolog.Logger) ([]quil.GateDefinition, error) {
	log = log.With().Str("component", "catalog").Logger()

	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", filename, err)
	}
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", filename, diags)
	}
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", filename, diags)
	}

	defs := make([]quil.GateDefinition, 0, len(content.Blocks))
	seen := make(map[string]hcl.Range)
	for _, block := range content.Blocks {
		name := block.Labels[0]
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s: gate %s already defined at %s: %w", block.DefRange, name, prev, quil.ErrDuplicateDefinition)
		}
		seen[name] = block.DefRange

		def, diags := decodeGate(name, block)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode gate %s: %w", name, diags)
		}
		log.Debug().
			Str("gate", def.Name).
			Str("kind", def.Specification.Kind()).
			Int("qubits", def.QubitCount()).
			Msg("Loaded gate definition")
		defs = append(defs, def)
	}

	log.Info().Str("file", filename).Int("definitions", len(defs)).Msg("Catalog loaded")
	return defs, nil
}

// LoadInto adds defs to reg, stopping at the first rejected definition.
func LoadInto(reg *quil.Registry, defs []quil.GateDefinition) error {
	for _, def := range defs {
		if err := reg.Add(def); err != nil {
			return fmt.Errorf("failed to register %s: %w", def.Name, err)
		}
	}
	return nil
}

func decodeGate(name string, block *hcl.Block) (quil.GateDefinition, hcl.Diagnostics) {
	content, diags := block.Body.Content(gateSchema)
	if diags.HasErrors() {
		return quil.GateDefinition{}, diags
	}

	var params []string
	if attr, ok := content.Attributes["parameters"]; ok {
		params, diags = stringList(attr)
		if diags.HasErrors() {
			return quil.GateDefinition{}, diags
		}
		for _, p := range params {
			if p == "pi" || p == "i" {
				return quil.GateDefinition{}, errorAt(attr.Range, "Reserved parameter name", fmt.Sprintf("%q names a constant", p))
			}
		}
	}

	matrix, hasMatrix := content.Attributes["matrix"]
	perm, hasPerm := content.Attributes["permutation"]
	hasTerms := len(content.Blocks) > 0
	bodies := 0
	for _, present := range []bool{hasMatrix, hasPerm, hasTerms} {
		if present {
			bodies++
		}
	}
	if bodies != 1 {
		return quil.GateDefinition{}, errorAt(block.DefRange, "Invalid gate body", "exactly one of matrix, permutation or term blocks is required")
	}

	var spec quil.GateSpecification
	switch {
	case hasMatrix:
		spec, diags = decodeMatrix(matrix)
	case hasPerm:
		spec, diags = decodePermutation(perm)
	default:
		spec, diags = decodePauliSum(block, content)
	}
	if diags.HasErrors() {
		return quil.GateDefinition{}, diags
	}
	if diags := checkVariables(spec, params, block.DefRange); diags.HasErrors() {
		return quil.GateDefinition{}, diags
	}

	def, err := quil.NewGateDefinition(name, params, spec)
	if err != nil {
		return quil.GateDefinition{}, errorAt(block.DefRange, "Invalid gate definition", err.Error())
	}
	return def, nil
}

func decodeMatrix(attr *hcl.Attribute) (quil.GateSpecification, hcl.Diagnostics) {
	rows, ok := attr.Expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		return nil, errorAt(attr.Range, "Invalid matrix", "matrix must be a list of rows")
	}
	m := make(quil.MatrixSpecification, len(rows.Exprs))
	for i, rowExpr := range rows.Exprs {
		row, ok := rowExpr.(*hclsyntax.TupleConsExpr)
		if !ok {
			return nil, errorAt(rowExpr.Range(), "Invalid matrix", fmt.Sprintf("row %d must be a list of entries", i))
		}
		m[i] = make([]quil.Expression, len(row.Exprs))
		for j, entry := range row.Exprs {
			e, diags := fromHCL(entry)
			if diags.HasErrors() {
				return nil, diags
			}
			m[i][j] = e
		}
	}
	return m, nil
}

func decodePermutation(attr *hcl.Attribute) (quil.GateSpecification, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if !val.CanIterateElements() {
		return nil, errorAt(attr.Range, "Invalid permutation", "permutation must be a list of integers")
	}
	perm := make(quil.PermutationSpecification, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		var target uint64
		if err := gocty.FromCtyValue(v, &target); err != nil {
			return nil, errorAt(attr.Range, "Invalid permutation", err.Error())
		}
		perm = append(perm, target)
	}
	return perm, nil
}

func decodePauliSum(block *hcl.Block, content *hcl.BodyContent) (quil.GateSpecification, hcl.Diagnostics) {
	argsAttr, ok := content.Attributes["arguments"]
	if !ok {
		return nil, errorAt(block.DefRange, "Missing arguments", "a pauli sum gate needs an arguments list")
	}
	arguments, diags := stringList(argsAttr)
	if diags.HasErrors() {
		return nil, diags
	}

	terms := make([]quil.PauliTerm, 0, len(content.Blocks))
	for _, termBlock := range content.Blocks {
		term, diags := decodeTerm(termBlock)
		if diags.HasErrors() {
			return nil, diags
		}
		terms = append(terms, term)
	}

	sum, err := quil.NewPauliSum(arguments, terms)
	if err != nil {
		return nil, errorAt(block.DefRange, "Invalid pauli sum", err.Error())
	}
	return quil.PauliSumSpecification{PauliSum: sum}, nil
}

func decodeTerm(block *hcl.Block) (quil.PauliTerm, hcl.Diagnostics) {
	content, diags := block.Body.Content(termSchema)
	if diags.HasErrors() {
		return quil.PauliTerm{}, diags
	}

	paulisAttr := content.Attributes["paulis"]
	paulisVal, diags := paulisAttr.Expr.Value(nil)
	if diags.HasErrors() {
		return quil.PauliTerm{}, diags
	}
	var paulis string
	if err := gocty.FromCtyValue(paulisVal, &paulis); err != nil {
		return quil.PauliTerm{}, errorAt(paulisAttr.Range, "Invalid paulis", err.Error())
	}

	argsAttr := content.Attributes["arguments"]
	arguments, diags := stringList(argsAttr)
	if diags.HasErrors() {
		return quil.PauliTerm{}, diags
	}
	if len(arguments) != len(paulis) {
		return quil.PauliTerm{}, errorAt(block.DefRange, "Invalid term",
			fmt.Sprintf("%d pauli letters but %d arguments", len(paulis), len(arguments)))
	}

	pairs := make([]quil.PauliPair, len(arguments))
	for i, letter := range paulis {
		gate, err := quil.ParsePauliGate(string(letter))
		if err != nil {
			return quil.PauliTerm{}, errorAt(paulisAttr.Range, "Invalid paulis", err.Error())
		}
		pairs[i] = quil.PauliPair{Gate: gate, Argument: arguments[i]}
	}

	coefAttr := content.Attributes["coefficient"]
	syntaxExpr, ok := coefAttr.Expr.(hclsyntax.Expression)
	if !ok {
		return quil.PauliTerm{}, errorAt(coefAttr.Range, "Invalid coefficient", "coefficient must be an expression")
	}
	coefficient, diags := fromHCL(syntaxExpr)
	if diags.HasErrors() {
		return quil.PauliTerm{}, diags
	}
	return quil.NewPauliTerm(pairs, coefficient), nil
}

// stringList evaluates attr as a list of strings.
func stringList(attr *hcl.Attribute) ([]string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if !val.CanIterateElements() {
		return nil, errorAt(attr.Range, "Invalid list", fmt.Sprintf("%s must be a list of strings", attr.Name))
	}
	out := make([]string, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if !v.Type().Equals(cty.String) || v.IsNull() {
			return nil, errorAt(attr.Range, "Invalid list", fmt.Sprintf("%s must be a list of strings", attr.Name))
		}
		out = append(out, v.AsString())
	}
	return out, nil
}

// checkVariables rejects references to names that are not formal parameters.
func checkVariables(spec quil.GateSpecification, params []string, rng hcl.Range) hcl.Diagnostics {
	used := make(map[string]struct{})
	switch s := spec.(type) {
	case quil.MatrixSpecification:
		for _, row := range s {
			for _, e := range row {
				variablesOf(e, used)
			}
		}
	case quil.PauliSumSpecification:
		for _, term := range s.Terms {
			variablesOf(term.Expression, used)
		}
	}
	declared := make(map[string]struct{}, len(params))
	for _, p := range params {
		declared[p] = struct{}{}
	}
	names := make([]string, 0, len(used))
	for name := range used {
		if _, ok := declared[name]; !ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return errorAt(rng, "Undeclared parameter", fmt.Sprintf("%v used but not listed in parameters", names))
}

func errorAt(rng hcl.Range, summary, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  &rng,
	}}
}
