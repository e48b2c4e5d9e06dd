package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quildeck/quil"
)

func TestFormatParam(t *testing.T) {
	tests := []struct {
		val  float64
		want string
	}{
		{math.Pi, "pi"},
		{-math.Pi / 2, "-pi/2"},
		{3 * math.Pi / 4, "3*pi/4"},
		{2 * math.Pi, "2*pi"},
		{0.5, "0.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatParam(tt.val))
	}
}

func TestFormatExpression(t *testing.T) {
	assert.Equal(t, "pi/4", formatExpression(quil.RealNumber(math.Pi/4)))
	assert.Equal(t, "%theta", formatExpression(quil.Variable("theta")))
	assert.Equal(t, "1+2i", formatExpression(quil.Number(complex(1, 2))))
	assert.Equal(t, "ro[1]", formatExpression(quil.NewMemoryReference("ro", 1)))
}

func TestParseParams(t *testing.T) {
	params, err := parseParams("pi/2, %theta, pow(2, 3), ro[0]")
	require.NoError(t, err)
	require.Len(t, params, 4)

	v, err := quil.Evaluate(params[0], quil.Bindings{})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, real(v), 1e-12)
	assert.Equal(t, quil.Variable("theta"), params[1])
	assert.Equal(t, quil.Infix{Left: quil.RealNumber(2), Operator: quil.Caret, Right: quil.RealNumber(3)}, params[2])
	assert.Equal(t, quil.NewMemoryReference("ro", 0), params[3])
}

func TestParseParams_EmptyInput(t *testing.T) {
	params, err := parseParams("  ")
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestParseParams_Invalid(t *testing.T) {
	_, err := parseParams("pi/2, tan(1)")
	require.Error(t, err)
}

func TestFormatParamsRoundTrip(t *testing.T) {
	in := []quil.Expression{
		quil.RealNumber(-math.Pi / 4),
		quil.RealNumber(0.125),
		quil.Infix{Left: quil.Variable("a"), Operator: quil.Star, Right: quil.RealNumber(2)},
		quil.Infix{Left: quil.Variable("a"), Operator: quil.Minus, Right: quil.PiConstant{}},
		quil.Number(complex(0, 1)),
		quil.Number(complex(1.5, -2)),
		quil.Infix{Left: quil.RealNumber(2), Operator: quil.Star, Right: quil.Number(complex(0, 1))},
	}
	out, err := parseParams(formatParams(in))
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		want, err := quil.Evaluate(in[i], quil.Bindings{Variables: map[string]complex128{"a": 1}})
		require.NoError(t, err)
		got, err := quil.Evaluate(out[i], quil.Bindings{Variables: map[string]complex128{"a": 1}})
		require.NoError(t, err)
		assert.InDelta(t, real(want), real(got), 1e-12)
		assert.InDelta(t, imag(want), imag(got), 1e-12)
	}
}

func TestParseParams_ComplexAndSubtraction(t *testing.T) {
	for _, text := range []string{"i", "2*i", "pi/2+i", "pi-1"} {
		t.Run(text, func(t *testing.T) {
			first, err := parseParams(text)
			require.NoError(t, err)
			again, err := parseParams(formatParams(first))
			require.NoError(t, err)
			require.Len(t, again, 1)

			want, err := quil.Evaluate(first[0], quil.Bindings{})
			require.NoError(t, err)
			got, err := quil.Evaluate(again[0], quil.Bindings{})
			require.NoError(t, err)
			assert.InDelta(t, real(want), real(got), 1e-12)
			assert.InDelta(t, imag(want), imag(got), 1e-12)
		})
	}
}
