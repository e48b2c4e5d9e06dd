package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"quildeck/quil"
)

var (
	percentVariable = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)`)
	imaginaryNumber = regexp.MustCompile(`(^|[^A-Za-z0-9_.])((?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][-+]?[0-9]+)?)i\b`)
)

// imaginaryCall is the call an imaginary literal such as 2.5i is rewritten to.
const imaginaryCall = "imaginary"

// ParseExpression reads a single arithmetic expression. It accepts the HCL
// expression grammar: + - * /, unary minus, parentheses, the functions sin,
// cos, exp, sqrt, cis and pow(a, b), the constants pi and i, imaginary
// literals such as 2i, variables written bare or as %name, and memory
// references written name[index]. A minus sign always separates tokens, so
// every String form of an expression reads back as the same expression.
func ParseExpression(text string) (quil.Expression, error) {
	src := percentVariable.ReplaceAllString(text, "$1")
	src = imaginaryNumber.ReplaceAllString(src, "${1}"+imaginaryCall+"(${2})")
	src = separateMinus(src)
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &quil.SyntaxError{Kind: "expression", Input: text, Reason: diags.Error()}
	}
	e, diags := fromHCL(expr)
	if diags.HasErrors() {
		return nil, &quil.SyntaxError{Kind: "expression", Input: text, Reason: diags.Error()}
	}
	return e, nil
}

// fromHCL converts an HCL syntax tree into an expression.
func fromHCL(expr hclsyntax.Expression) (quil.Expression, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		if !e.Val.Type().Equals(cty.Number) || e.Val.IsNull() {
			return nil, unsupported(expr, "only numeric literals are allowed")
		}
		f, _ := e.Val.AsBigFloat().Float64()
		return quil.RealNumber(f), nil

	case *hclsyntax.ParenthesesExpr:
		return fromHCL(e.Expression)

	case *hclsyntax.ScopeTraversalExpr:
		return fromTraversal(e)

	case *hclsyntax.UnaryOpExpr:
		operand, diags := fromHCL(e.Val)
		if diags.HasErrors() {
			return nil, diags
		}
		if e.Op != hclsyntax.OpNegate {
			return nil, unsupported(expr, "only unary minus is allowed")
		}
		if n, ok := operand.(quil.Number); ok && isNumericLiteral(e.Val) {
			return -n, nil
		}
		return quil.Prefix{Operator: quil.PrefixMinus, Operand: operand}, nil

	case *hclsyntax.BinaryOpExpr:
		op, ok := infixOperators[e.Op]
		if !ok {
			return nil, unsupported(expr, "only + - * / are allowed")
		}
		left, diags := fromHCL(e.LHS)
		if diags.HasErrors() {
			return nil, diags
		}
		right, diags := fromHCL(e.RHS)
		if diags.HasErrors() {
			return nil, diags
		}
		if n, ok := foldComplex(e, left, op, right); ok {
			return n, nil
		}
		return quil.Infix{Left: left, Operator: op, Right: right}, nil

	case *hclsyntax.FunctionCallExpr:
		return fromCall(e)
	}
	return nil, unsupported(expr, fmt.Sprintf("unsupported expression %T", expr))
}

var infixOperators = map[*hclsyntax.Operation]quil.InfixOperator{
	hclsyntax.OpAdd:      quil.Plus,
	hclsyntax.OpSubtract: quil.Minus,
	hclsyntax.OpMultiply: quil.Star,
	hclsyntax.OpDivide:   quil.Slash,
}

// isNumericLiteral reports whether expr is a number written in place,
// possibly negated or imaginary.
func isNumericLiteral(expr hclsyntax.Expression) bool {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return e.Val.Type().Equals(cty.Number)
	case *hclsyntax.UnaryOpExpr:
		return e.Op == hclsyntax.OpNegate && isNumericLiteral(e.Val)
	case *hclsyntax.FunctionCallExpr:
		return e.Name == imaginaryCall
	}
	return false
}

// foldComplex joins a real literal and an imaginary literal written as
// a+bi or a-bi into one Number.
func foldComplex(e *hclsyntax.BinaryOpExpr, left quil.Expression, op quil.InfixOperator, right quil.Expression) (quil.Number, bool) {
	if op != quil.Plus && op != quil.Minus {
		return 0, false
	}
	call, ok := e.RHS.(*hclsyntax.FunctionCallExpr)
	if !ok || call.Name != imaginaryCall || !isNumericLiteral(e.LHS) {
		return 0, false
	}
	l, lok := left.(quil.Number)
	r, rok := right.(quil.Number)
	if !lok || !rok || imag(complex128(l)) != 0 {
		return 0, false
	}
	if op == quil.Minus {
		return l - r, true
	}
	return l + r, true
}

// separateMinus puts spaces around every minus sign that is not part of a
// number's exponent. HCL identifiers may contain '-', so a-b would
// otherwise read as one name.
func separateMinus(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && !inExponent(s, i) {
			sb.WriteString(" - ")
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// inExponent reports whether the '-' at s[i] follows the e of a number
// such as 1e-5.
func inExponent(s string, i int) bool {
	if i < 2 || (s[i-1] != 'e' && s[i-1] != 'E') {
		return false
	}
	j := i - 2
	digits := 0
	for j >= 0 && (isDigit(s[j]) || s[j] == '.') {
		if isDigit(s[j]) {
			digits++
		}
		j--
	}
	return digits > 0 && (j < 0 || !isNameByte(s[j]))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c)
}

func fromTraversal(e *hclsyntax.ScopeTraversalExpr) (quil.Expression, hcl.Diagnostics) {
	name := e.Traversal.RootName()
	if strings.Contains(name, "-") {
		return nil, unsupported(e, fmt.Sprintf("%q is not a name: put spaces around the minus sign", name))
	}
	switch len(e.Traversal) {
	case 1:
		switch name {
		case "pi":
			return quil.PiConstant{}, nil
		case "i":
			return quil.Number(complex(0, 1)), nil
		}
		return quil.Variable(name), nil
	case 2:
		step, ok := e.Traversal[1].(hcl.TraverseIndex)
		if !ok || !step.Key.Type().Equals(cty.Number) {
			break
		}
		index, accuracy := step.Key.AsBigFloat().Uint64()
		if accuracy != 0 {
			return nil, unsupported(e, "memory index must be a non-negative integer")
		}
		return quil.NewMemoryReference(name, index), nil
	}
	return nil, unsupported(e, "expected a name or name[index]")
}

func fromCall(e *hclsyntax.FunctionCallExpr) (quil.Expression, hcl.Diagnostics) {
	args := make([]quil.Expression, len(e.Args))
	for i, a := range e.Args {
		arg, diags := fromHCL(a)
		if diags.HasErrors() {
			return nil, diags
		}
		args[i] = arg
	}
	if e.Name == imaginaryCall {
		if len(e.Args) != 1 || !isNumericLiteral(e.Args[0]) {
			return nil, unsupported(e, "imaginary literals must be written as a number followed by i")
		}
		n, ok := args[0].(quil.Number)
		if !ok || imag(complex128(n)) != 0 {
			return nil, unsupported(e, "imaginary literals must be written as a number followed by i")
		}
		return quil.Number(complex(0, real(complex128(n)))), nil
	}
	if e.Name == "pow" {
		if len(args) != 2 {
			return nil, unsupported(e, "pow takes two arguments")
		}
		return quil.Infix{Left: args[0], Operator: quil.Caret, Right: args[1]}, nil
	}
	fn, ok := quil.LookupFunction(e.Name)
	if !ok {
		return nil, unsupported(e, fmt.Sprintf("unknown function %q", e.Name))
	}
	if len(args) != 1 {
		return nil, unsupported(e, fmt.Sprintf("%s takes one argument", e.Name))
	}
	return quil.FunctionCall{Function: fn, Argument: args[0]}, nil
}

func unsupported(expr hcl.Expression, detail string) hcl.Diagnostics {
	return errorAt(expr.Range(), "Invalid expression", detail)
}

// variablesOf collects the variable names e refers to.
func variablesOf(e quil.Expression, into map[string]struct{}) {
	switch v := e.(type) {
	case quil.Variable:
		into[string(v)] = struct{}{}
	case quil.FunctionCall:
		variablesOf(v.Argument, into)
	case quil.Prefix:
		variablesOf(v.Operand, into)
	case quil.Infix:
		variablesOf(v.Left, into)
		variablesOf(v.Right, into)
	}
}
