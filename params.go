package main

import (
	"fmt"
	"math"
	"strings"

	"quildeck/catalog"
	"quildeck/quil"
)

// formatParam formats a float64 parameter value, using pi notation when possible.
// Recognizes common pi fractions: pi, pi/2, pi/4, pi/3, pi/6, pi/8, 2pi, 3pi/4, etc.
func formatParam(val float64) string {
	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 6, "pi/6"},
		{math.Pi / 8, "pi/8"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}

	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}

	return fmt.Sprintf("%g", val)
}

// formatExpression renders a parameter for display and for re-editing.
// Real numbers get pi notation, everything else its Quil form.
func formatExpression(e quil.Expression) string {
	if n, ok := e.(quil.Number); ok && imag(complex128(n)) == 0 {
		return formatParam(real(complex128(n)))
	}
	return e.String()
}

// formatParams joins parameters the way parseParams reads them.
func formatParams(params []quil.Expression) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatExpression(p)
	}
	return strings.Join(parts, ", ")
}

// parseParams parses a comma separated parameter list. Commas inside
// parentheses or brackets belong to the enclosing expression.
func parseParams(input string) ([]quil.Expression, error) {
	var params []quil.Expression
	for _, part := range splitTopLevel(input) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		e, err := catalog.ParseExpression(part)
		if err != nil {
			return nil, err
		}
		params = append(params, e)
	}
	return params, nil
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
