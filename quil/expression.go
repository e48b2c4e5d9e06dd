package quil

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// Expression is an arithmetic expression appearing as a gate parameter,
// a matrix entry, or a Pauli term coefficient. The variants are Number,
// PiConstant, Variable, MemoryReference, FunctionCall, Prefix and Infix.
//
// All variants are comparable, so two expressions are structurally equal
// exactly when they are ==.
type Expression interface {
	fmt.Stringer
	expression()
}

// Number is a complex literal.
type Number complex128

// PiConstant is the symbol pi.
type PiConstant struct{}

// Variable is a named formal parameter, written %name.
type Variable string

// Function is one of the functions an expression may call.
type Function string

const (
	Cis  Function = "cis"
	Cos  Function = "cos"
	Exp  Function = "exp"
	Sin  Function = "sin"
	Sqrt Function = "sqrt"
)

// FunctionCall applies a Function to one argument.
type FunctionCall struct {
	Function Function
	Argument Expression
}

// PrefixOperator is a unary sign.
type PrefixOperator string

const (
	PrefixPlus  PrefixOperator = "+"
	PrefixMinus PrefixOperator = "-"
)

// Prefix applies a unary sign to its operand.
type Prefix struct {
	Operator PrefixOperator
	Operand  Expression
}

// InfixOperator is a binary arithmetic operator.
type InfixOperator string

const (
	Plus  InfixOperator = "+"
	Minus InfixOperator = "-"
	Star  InfixOperator = "*"
	Slash InfixOperator = "/"
	Caret InfixOperator = "^"
)

// Infix combines two operands.
type Infix struct {
	Left     Expression
	Operator InfixOperator
	Right    Expression
}

func (Number) expression()          {}
func (PiConstant) expression()      {}
func (Variable) expression()        {}
func (MemoryReference) expression() {}
func (FunctionCall) expression()    {}
func (Prefix) expression()          {}
func (Infix) expression()           {}

// RealNumber is shorthand for a purely real Number.
func RealNumber(f float64) Number { return Number(complex(f, 0)) }

func (n Number) String() string { return formatComplex(complex128(n)) }

func (PiConstant) String() string { return "pi" }

func (v Variable) String() string { return "%" + string(v) }

func (f FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", f.Function, f.Argument)
}

func (p Prefix) String() string {
	if needsParens(p.Operand, true) {
		return fmt.Sprintf("%s(%s)", p.Operator, p.Operand)
	}
	return string(p.Operator) + p.Operand.String()
}

func (i Infix) String() string {
	left := i.Left.String()
	if needsParens(i.Left, false) {
		left = "(" + left + ")"
	}
	right := i.Right.String()
	if needsParens(i.Right, true) {
		right = "(" + right + ")"
	}
	return left + string(i.Operator) + right
}

// needsParens reports whether e must be wrapped when it appears as an
// operand. Signed operands are wrapped only on the right-hand side.
func needsParens(e Expression, rightSide bool) bool {
	switch v := e.(type) {
	case Infix:
		return true
	case Prefix:
		return rightSide
	case Number:
		if real(v) != 0 && imag(v) != 0 {
			return true
		}
		return rightSide && strings.HasPrefix(v.String(), "-")
	}
	return false
}

// formatReal prints f in its shortest form. Negative zero prints as 0 so
// that equal numbers share one text form.
func formatReal(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatComplex(c complex128) string {
	re, im := real(c), imag(c)
	switch {
	case im == 0:
		return formatReal(re)
	case re == 0:
		return formatReal(im) + "i"
	case im < 0 || math.IsNaN(im):
		return formatReal(re) + formatReal(im) + "i"
	default:
		return formatReal(re) + "+" + formatReal(im) + "i"
	}
}

// Bindings supplies the values an expression may refer to.
type Bindings struct {
	Variables map[string]complex128
	Memory    map[MemoryReference]float64
}

// Evaluate reduces e to a number. A variable or memory reference without a
// binding fails with ErrUnresolvedParameter.
func Evaluate(e Expression, b Bindings) (complex128, error) {
	switch v := e.(type) {
	case Number:
		return complex128(v), nil
	case PiConstant:
		return complex(math.Pi, 0), nil
	case Variable:
		if value, ok := b.Variables[string(v)]; ok {
			return value, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedParameter, v)
	case MemoryReference:
		if value, ok := b.Memory[v]; ok {
			return complex(value, 0), nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedParameter, v)
	case FunctionCall:
		arg, err := Evaluate(v.Argument, b)
		if err != nil {
			return 0, err
		}
		return applyFunction(v.Function, arg)
	case Prefix:
		operand, err := Evaluate(v.Operand, b)
		if err != nil {
			return 0, err
		}
		if v.Operator == PrefixMinus {
			return -operand, nil
		}
		return operand, nil
	case Infix:
		left, err := Evaluate(v.Left, b)
		if err != nil {
			return 0, err
		}
		right, err := Evaluate(v.Right, b)
		if err != nil {
			return 0, err
		}
		return applyInfix(v.Operator, left, right)
	case nil:
		return 0, fmt.Errorf("%w: missing expression", ErrUnresolvedParameter)
	default:
		return 0, fmt.Errorf("%w: unsupported expression %T", ErrUnresolvedParameter, e)
	}
}

// Substitute replaces every variable named in values and returns the new
// tree. Variables without a replacement are kept.
func Substitute(e Expression, values map[string]Expression) Expression {
	switch v := e.(type) {
	case Variable:
		if r, ok := values[string(v)]; ok {
			return r
		}
		return v
	case FunctionCall:
		return FunctionCall{Function: v.Function, Argument: Substitute(v.Argument, values)}
	case Prefix:
		return Prefix{Operator: v.Operator, Operand: Substitute(v.Operand, values)}
	case Infix:
		return Infix{Left: Substitute(v.Left, values), Operator: v.Operator, Right: Substitute(v.Right, values)}
	}
	return e
}

func applyFunction(f Function, arg complex128) (complex128, error) {
	switch f {
	case Cis:
		return cmplx.Exp(complex(0, 1) * arg), nil
	case Cos:
		return cmplx.Cos(arg), nil
	case Exp:
		return cmplx.Exp(arg), nil
	case Sin:
		return cmplx.Sin(arg), nil
	case Sqrt:
		return cmplx.Sqrt(arg), nil
	}
	return 0, fmt.Errorf("%w: unknown function %q", ErrUnresolvedParameter, string(f))
}

func applyInfix(op InfixOperator, left, right complex128) (complex128, error) {
	switch op {
	case Plus:
		return left + right, nil
	case Minus:
		return left - right, nil
	case Star:
		return left * right, nil
	case Slash:
		return left / right, nil
	case Caret:
		return cmplx.Pow(left, right), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrUnresolvedParameter, string(op))
}

// LookupFunction maps a function name to a Function.
func LookupFunction(name string) (Function, bool) {
	switch f := Function(strings.ToLower(name)); f {
	case Cis, Cos, Exp, Sin, Sqrt:
		return f, true
	}
	return "", false
}

// EqualExpressions reports whether a and b hold pairwise equal expressions in the same order.
func EqualExpressions(a, b []Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinExpressions(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}
