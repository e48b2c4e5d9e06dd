package main

import (
	"fmt"
	"strings"

	"quildeck/quil"
)

// menuItem represents a single gate choice in the menu.
type menuItem struct {
	name     string
	gateType string
	qubits   int
	params   int
}

func (it menuItem) needsTarget() bool { return it.qubits > 1 }
func (it menuItem) needsParams() bool { return it.params > 0 }

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// gateDescriptions gives friendly names for the standard gates.
var gateDescriptions = map[string]string{
	"I":        "Identity",
	"X":        "Pauli-X (NOT)",
	"Y":        "Pauli-Y",
	"Z":        "Pauli-Z",
	"H":        "Hadamard",
	"S":        "Phase (S)",
	"T":        "T Gate",
	"PHASE":    "Phase Shift",
	"RX":       "Rotate X",
	"RY":       "Rotate Y",
	"RZ":       "Rotate Z",
	"CNOT":     "CNOT",
	"CZ":       "Controlled-Z",
	"SWAP":     "SWAP",
	"ISWAP":    "iSWAP",
	"CPHASE":   "C-Phase",
	"CPHASE00": "C-Phase |00⟩",
	"CPHASE01": "C-Phase |01⟩",
	"CPHASE10": "C-Phase |10⟩",
	"PSWAP":    "Phase SWAP",
	"CCNOT":    "Toffoli",
	"CSWAP":    "Fredkin",
}

// buildMenu lays out the standard catalog plus the registry's definitions.
func buildMenu(reg *quil.Registry) []menuCategory {
	single := menuCategory{name: "Single Qubit"}
	rotation := menuCategory{name: "Rotation"}
	multi := menuCategory{name: "Multi Qubit"}

	for _, name := range quil.StandardGateNames() {
		qubits, params, _ := quil.StandardGateArity(name)
		item := menuItem{name: gateDescriptions[name], gateType: name, qubits: qubits, params: params}
		if item.name == "" {
			item.name = name
		}
		switch {
		case params > 0:
			rotation.items = append(rotation.items, item)
		case qubits > 1:
			multi.items = append(multi.items, item)
		default:
			single.items = append(single.items, item)
		}
	}

	menu := []menuCategory{single, rotation, multi}
	if reg == nil {
		return menu
	}

	defined := menuCategory{name: "Defined"}
	for _, def := range reg.Definitions() {
		defined.items = append(defined.items, menuItem{
			name:     fmt.Sprintf("%s (%s)", def.Name, strings.ToLower(def.Specification.Kind())),
			gateType: def.Name,
			qubits:   def.QubitCount(),
			params:   len(def.Parameters),
		})
	}
	if len(defined.items) > 0 {
		menu = append(menu, defined)
	}
	return menu
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Set Gate"))
	sb.WriteString("\n")

	for i, cat := range m.menu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(m.menu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	cat := m.menu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-22s", item.name)))
			sb.WriteString(gateStyle.Render(item.gateType))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-22s", item.name)))
			sb.WriteString(dimStyle.Render(item.gateType))
		}
		if item.needsTarget() {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" %dq", item.qubits)))
		}
		if item.needsParams() {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" (%d params)", item.params)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
