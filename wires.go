package main

import (
	"fmt"
	"strings"

	"quildeck/quil"
)

// wireRole says what a register qubit does for the gate.
type wireRole int

const (
	roleNone wireRole = iota
	roleControl
	roleFork
	roleOperand
)

// cellInfo describes what occupies a qubit's cell in the wire diagram.
type cellInfo struct {
	role        wireRole
	operand     int // index among the base operands when role is roleOperand
	vertAbove   bool
	vertBelow   bool
	passThrough bool
}

// gateLayout returns one cellInfo per register qubit. Qubits[k] for k
// below the number of CONTROLLED/FORKED modifiers belongs to the k-th such
// modifier counted from the outermost; the rest are base operands.
func gateLayout(g *quil.Gate, numQubits int) []cellInfo {
	cells := make([]cellInfo, numQubits)
	if g == nil {
		return cells
	}

	var roles []wireRole
	for i := len(g.Modifiers) - 1; i >= 0; i-- {
		switch g.Modifiers[i] {
		case quil.Controlled:
			roles = append(roles, roleControl)
		case quil.Forked:
			roles = append(roles, roleFork)
		}
	}

	minQ, maxQ := numQubits, -1
	for k, q := range g.Qubits {
		idx, ok := q.Index()
		if !ok || int(idx) >= numQubits {
			continue
		}
		i := int(idx)
		if k < len(roles) {
			cells[i].role = roles[k]
		} else {
			cells[i].role = roleOperand
			cells[i].operand = k - len(roles)
		}
		minQ, maxQ = min(minQ, i), max(maxQ, i)
	}

	for q := minQ + 1; q <= maxQ; q++ {
		cells[q].vertAbove = true
		cells[q-1].vertBelow = true
		if q < maxQ && cells[q].role == roleNone {
			cells[q].passThrough = true
		}
	}
	return cells
}

// daggerCount returns how many DAGGER modifiers g carries.
func daggerCount(g *quil.Gate) int {
	n := 0
	for _, m := range g.Modifiers {
		if m == quil.Dagger {
			n++
		}
	}
	return n
}

// gateDisplayName returns the box label for base operand i.
func gateDisplayName(g *quil.Gate, operand int) string {
	name := g.Name + strings.Repeat("†", daggerCount(g))
	if operand > 0 {
		name = fmt.Sprintf("%s·%d", g.Name, operand)
	}
	return name
}

// operandsFor lists the fixed register indices of g's operands.
func operandsFor(g *quil.Gate) []int {
	if g == nil {
		return nil
	}
	out := make([]int, 0, len(g.Qubits))
	for _, q := range g.Qubits {
		if idx, ok := q.Index(); ok {
			out = append(out, int(idx))
		}
	}
	return out
}
