package main

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPadCenter(t *testing.T) {
	assert.Equal(t, "  H  ", padCenter("H", 5))
	assert.Equal(t, " X† ", padCenter("X†", 4))
	assert.Equal(t, "CPHA", padCenter("CPHASE", 4))
}

func TestFormatAmplitude(t *testing.T) {
	tests := []struct {
		in   complex128
		want string
	}{
		{0, "0"},
		{1, "1"},
		{complex(0, -1), "-1i"},
		{complex(0.70710678, 0), "0.707"},
		{complex(0.5, 0.5), "0.5+0.5i"},
		{complex(1e-12, -2), "-2i"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmplitude(tt.in))
	}
}

func TestRenderCell_Widths(t *testing.T) {
	infos := []cellInfo{
		{},
		{role: roleControl, vertBelow: true},
		{role: roleFork, vertAbove: true},
		{role: roleOperand, vertAbove: true, vertBelow: true},
		{passThrough: true, vertAbove: true, vertBelow: true},
	}
	for _, info := range infos {
		for _, hl := range []cellHighlight{hlNone, hlCursor, hlTargetSelect} {
			top, mid, bot := renderCell(info, hl, "RX", gateNameW)
			for _, line := range []string{top, mid, bot} {
				assert.Equal(t, gateNameW+6, visibleLen(line), "role %d highlight %d: %q", info.role, hl, line)
			}
		}
	}
}

func TestRenderCell_OperandConnectors(t *testing.T) {
	top, mid, bot := renderCell(cellInfo{role: roleOperand, vertAbove: true}, hlNone, "CNOT", gateNameW)
	assert.Contains(t, top, "┴")
	assert.Contains(t, mid, "CNOT")
	assert.NotContains(t, bot, "┬")
}

func TestOverlayAt(t *testing.T) {
	bg := "aaaaaaaa\nbbbbbbbb\ncccccccc"
	out := overlayAt(bg, "XY\nZW", 2, 1)
	assert.Equal(t, "aaaaaaaa\nbbXYbbbb\nccZWcccc", out)
}

func TestSpliceLineAt_SkipsEscapes(t *testing.T) {
	bg := "\x1b[1mab\x1b[0mcdef"
	out := spliceLineAt(bg, "XY", 1)
	assert.Equal(t, 6, visibleLen(out))
	assert.Equal(t, "aXYdef", stripEscapes(out))
}

func TestSpliceLineAt_PadsShortLines(t *testing.T) {
	assert.Equal(t, "ab  XY", spliceLineAt("ab", "XY", 4))
}

func stripEscapes(s string) string {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscEnd(r) {
				inEsc = false
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
