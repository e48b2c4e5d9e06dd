package main

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width, counting runes.
func padCenter(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// formatAmplitude renders a matrix entry or amplitude compactly.
func formatAmplitude(c complex128) string {
	re, im := real(c), imag(c)
	if math.Abs(re) < 1e-9 {
		re = 0
	}
	if math.Abs(im) < 1e-9 {
		im = 0
	}
	switch {
	case im == 0:
		return fmt.Sprintf("%.3g", re)
	case re == 0:
		return fmt.Sprintf("%.3gi", im)
	default:
		return fmt.Sprintf("%.3g%+.3gi", re, im)
	}
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlTargetSelect
)

// renderCell returns 3 lines (top, mid, bot) for one qubit of the gate.
// Each line is nameW+6 visual characters wide.
func renderCell(info cellInfo, hl cellHighlight, label string, nameW int) (top, mid, bot string) {
	cw := nameW + 6
	emptyRow := strings.Repeat(" ", cw)
	halfW := cw / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cw-halfW-1)

	symbol := ""
	switch info.role {
	case roleControl:
		symbol = gateStyle.Render("●")
	case roleFork:
		symbol = forkStyle.Render("◆")
	}

	// ── Highlighted cell (cursor or qubit selection) ──
	if hl == hlCursor || hl == hlTargetSelect {
		bdr := cursorBoxStyle
		if hl == hlTargetSelect {
			bdr = targetSelectStyle
		}
		innerW := cw - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")

		switch {
		case symbol != "":
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + symbol + strings.Repeat("─", dashR) + bdr.Render("║")
		case info.role == roleOperand:
			mid = bdr.Render("║") + "─┤" + gateStyle.Render(padCenter(label, nameW)) + "├─" + bdr.Render("║")
		case info.passThrough:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR) + bdr.Render("║")
		default:
			mid = bdr.Render("║") + strings.Repeat("─", innerW) + bdr.Render("║")
		}
		return
	}

	// ── Normal cells ──
	dashL := (cw - 1) / 2
	dashR := cw - dashL - 1

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch {
	case symbol != "":
		mid = strings.Repeat("─", dashL) + symbol + strings.Repeat("─", dashR)

	case info.role == roleOperand:
		boxW := nameW + 2
		margin := (cw - boxW) / 2
		rightMargin := cw - margin - boxW
		boxTop := []rune("┌" + strings.Repeat("─", nameW) + "┐")
		boxBot := []rune("└" + strings.Repeat("─", nameW) + "┘")
		if info.vertAbove {
			boxTop[halfW-margin] = '┴'
		}
		if info.vertBelow {
			boxBot[halfW-margin] = '┬'
		}
		top = strings.Repeat(" ", margin) + gateStyle.Render(string(boxTop)) + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+padCenter(label, nameW)+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateStyle.Render(string(boxBot)) + strings.Repeat(" ", rightMargin)

	case info.passThrough:
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)

	default:
		mid = strings.Repeat("─", cw)
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderWirePanel draws every register qubit and the gate's operands on it.
func (m Model) renderWirePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Gate"))
	sb.WriteString("\n\n")

	cells := gateLayout(m.gate, m.numQubits)
	nameW := gateNameW
	if m.gate != nil {
		for i := range m.gate.Qubits {
			nameW = max(nameW, utf8.RuneCountInString(gateDisplayName(m.gate, i)))
		}
	}

	selecting := m.focus == focusSelectTarget || m.focus == focusSelectControl || m.focus == focusSelectFork
	for qubit := range m.numQubits {
		info := cells[qubit]
		label := ""
		if info.role == roleOperand {
			label = gateDisplayName(m.gate, info.operand)
		}
		if m.focus == focusSelectTarget {
			if i := slices.Index(m.pendingQubits, qubit); i >= 0 {
				info = cellInfo{role: roleOperand, operand: i}
				label = fmt.Sprintf("%s·%d", m.pendingItem.gateType, i)
			}
		}

		hl := hlNone
		switch {
		case selecting && qubit == m.targetQubit:
			hl = hlTargetSelect
		case !selecting && qubit == m.cursorQubit && (m.focus == focusGate || m.focus == focusMenu):
			hl = hlCursor
		}

		top, mid, bot := renderCell(info, hl, label, nameW)
		sb.WriteString(strings.Repeat(" ", labelVisualW) + top + "\n")
		sb.WriteString(qubitLabelStyle.Render(fmt.Sprintf("%-5s", fmt.Sprintf("q[%d]", qubit))) + "──" + mid + "\n")
		sb.WriteString(strings.Repeat(" ", labelVisualW) + bot + "\n")
	}

	// Status line
	if selecting {
		what := "operand"
		switch m.focus {
		case focusSelectControl:
			what = "control"
		case focusSelectFork:
			what = "fork"
		}
		fmt.Fprintf(&sb, "\n  Select %s qubit: %s", what, targetSelectStyle.Render(fmt.Sprintf("q[%d]", m.targetQubit)))
		sb.WriteString(dimStyle.Render("   ↑↓ Move  Enter Confirm  Esc Cancel"))
	} else {
		fmt.Fprintf(&sb, "\n  Qubit %d of %d", m.cursorQubit, m.numQubits)
		if m.statusMsg != "" {
			fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
		}
	}

	return wireStyle.Width(width).Height(height).Render(sb.String())
}

// renderQuilPanel renders the Quil text of the gate and its definition.
func (m Model) renderQuilPanel(width, height int) string {
	var sb strings.Builder

	title := "Quil"
	if m.focus == focusQuil {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.quilEditor.View())

	return quilStyle.Width(width).Height(height).Render(sb.String())
}

// renderUnitaryPanel renders the synthesized matrix, truncated to what fits.
func (m Model) renderUnitaryPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Unitary"))
	sb.WriteString("\n")

	switch {
	case m.gate == nil:
		sb.WriteString(dimStyle.Render("No gate. Press a to choose one."))
	case m.synthErr != nil:
		sb.WriteString(errorStyle.Render(m.synthErr.Error()))
	default:
		r, c := m.unitary.Dims()
		rows := min(r, maxMatrixDim, max(height-2, 1))
		cols := min(c, maxMatrixDim, max((width-2)/matrixCellW, 1))
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%d×%d", r, c)))
		sb.WriteString("\n")
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := m.unitary.At(i, j)
				cell := fmt.Sprintf("%*s", matrixCellW, formatAmplitude(v))
				if v == 0 {
					sb.WriteString(dimStyle.Render(cell))
				} else {
					sb.WriteString(cell)
				}
			}
			if cols < c {
				sb.WriteString(dimStyle.Render(" …"))
			}
			sb.WriteString("\n")
		}
		if rows < r {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("⋮ %d of %d rows", rows, r)))
		}
	}

	return unitaryStyle.Width(width).Height(height).Render(sb.String())
}

// renderStatePanel shows what the gate does to |0...0>.
func (m Model) renderStatePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("U|" + strings.Repeat("0", m.numQubits) + "⟩"))
	sb.WriteString("\n")

	state := NewStateVector(m.numQubits)
	if m.unitary != nil {
		if err := state.Apply(m.unitary); err != nil {
			sb.WriteString(errorStyle.Render(err.Error()))
			return stateStyle.Width(width).Height(height).Render(sb.String())
		}
	}

	barW := max(min(width-24, 20), 4)
	for q, p := range state.GetQubitProbabilities() {
		filled := int(math.Round(p.Prob1 * float64(barW)))
		fmt.Fprintf(&sb, "%s %s%s P(1)=%.3f\n",
			qubitLabelStyle.Render(fmt.Sprintf("q[%d]", q)),
			probBarStyle.Render(strings.Repeat("█", filled)),
			dimStyle.Render(strings.Repeat("░", barW-filled)),
			p.Prob1)
	}

	lines := max(height-m.numQubits-2, 0)
	for i, b := range state.BasisStates() {
		if i >= lines {
			sb.WriteString(dimStyle.Render("…"))
			break
		}
		fmt.Fprintf(&sb, "%s  %-12s p=%.3f ∠%s\n",
			activeGateStyle.Render(b.Label(m.numQubits)),
			formatAmplitude(b.Amplitude),
			b.Prob,
			formatParam(b.Phase))
	}

	return stateStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Gate:     "))
	sb.WriteString("a Set  d Dagger  c Control  f Fork  p Params  u Undo\n")

	sb.WriteString(activeGateStyle.Render("Register: "))
	sb.WriteString("↑↓/jk Move  +/- Qubits  Tab Quil  ^R Reset  ^S Save  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// isEscEnd reports whether r terminates a CSI escape sequence.
func isEscEnd(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at position x in bgLine with overlay content.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder

	col := 0
	i := 0

	// Collect prefix: everything up to visible column x
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				prefix.WriteRune(runes[i])
				i++
				if runes[i-1] != '\x1b' && runes[i-1] != '[' && isEscEnd(runes[i-1]) {
					break
				}
			}
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}

	// Pad prefix if bg line is shorter than x
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	// Skip over ovWidth visible columns in the background
	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				i++
				if runes[i-1] != '\x1b' && runes[i-1] != '[' && isEscEnd(runes[i-1]) {
					break
				}
			}
			continue
		}
		skipped++
		i++
	}

	for i < len(runes) {
		suffix.WriteRune(runes[i])
		i++
	}

	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
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
		n++
	}
	return n
}
