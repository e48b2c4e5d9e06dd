package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"quildeck/quil"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusGate focus = iota
	focusQuil
	focusMenu
	focusInputParam
	focusSelectTarget
	focusSelectControl
	focusSelectFork
	focusInputForkParam
	focusEditParam
)

// Model is the workbench state: one gate on an n-qubit register.
type Model struct {
	registry *quil.Registry
	synth    *quil.Synthesizer
	log      zerolog.Logger
	menu     []menuCategory

	numQubits   int
	cursorQubit int
	width       int
	height      int

	gate     *quil.Gate
	history  []quil.Gate // earlier gates, for undo
	unitary  *mat.CDense
	synthErr error

	quilEditor textarea.Model
	paramInput textinput.Model
	focus      focus
	statusMsg  string

	// Menu state
	menuCat  int
	menuItem int

	// Selection state while building or modifying a gate
	pendingItem   menuItem
	pendingParams []quil.Expression
	pendingQubits []int
	targetQubit   int

	outputPath   string
	snapshotPath string
}

func newModel(cfg *Config, reg *quil.Registry, log zerolog.Logger) Model {
	if reg == nil {
		reg = quil.NewRegistry()
	}

	ta := textarea.New()
	ta.Placeholder = "No gate yet"
	ta.SetWidth(40)
	ta.SetHeight(10)
	ta.ShowLineNumbers = true

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "pi/2, %theta"

	m := Model{
		registry:     reg,
		synth:        quil.NewSynthesizer(reg, log).WithTolerance(cfg.Tolerance),
		log:          log.With().Str("component", "workbench").Logger(),
		menu:         buildMenu(reg),
		numQubits:    cfg.Qubits,
		quilEditor:   ta,
		paramInput:   ti,
		focus:        focusGate,
		outputPath:   cfg.OutputPath,
		snapshotPath: cfg.SnapshotPath,
	}
	m.resync()
	return m
}

// resync recomputes the unitary and the Quil text after any change to the
// gate or the register size.
func (m *Model) resync() {
	m.unitary, m.synthErr = nil, nil
	if m.gate != nil {
		m.unitary, m.synthErr = m.synth.ToUnitary(*m.gate, uint64(m.numQubits))
		if m.synthErr != nil {
			m.log.Debug().Err(m.synthErr).Str("gate", m.gate.String()).Msg("Synthesis failed")
		}
	}
	m.quilEditor.SetValue(m.quilText())
}

// quilText renders the gate and the definition it refers to.
func (m *Model) quilText() string {
	if m.gate == nil {
		return ""
	}
	var sb strings.Builder
	if def, ok := m.registry.Definition(m.gate.Name); ok {
		sb.WriteString(def.String())
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.gate.String())
	sb.WriteString("\n")
	return sb.String()
}

// push replaces the gate, keeping the old one for undo.
func (m *Model) push(g quil.Gate) {
	if m.gate != nil {
		m.history = append(m.history, *m.gate)
	}
	m.gate = &g
	m.resync()
}

// undo restores the gate as it was before the last change.
func (m *Model) undo() {
	if len(m.history) == 0 {
		m.statusMsg = "Nothing to undo"
		return
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.gate = &prev
	m.resync()
}

func (m *Model) reset() {
	m.gate = nil
	m.history = nil
	m.clearPending()
	m.resync()
}

func (m *Model) clearPending() {
	m.pendingItem = menuItem{}
	m.pendingParams = nil
	m.pendingQubits = nil
	m.paramInput.SetValue("")
	m.paramInput.Blur()
}

// placeGate builds the pending base gate and makes it the current gate.
// History is cleared: undo only walks back modifiers and edits.
func (m *Model) placeGate() bool {
	qubits := make([]quil.Qubit, len(m.pendingQubits))
	for i, q := range m.pendingQubits {
		qubits[i] = quil.NewQubit(uint64(q))
	}
	g, err := quil.NewGate(m.pendingItem.gateType, m.pendingParams, qubits, nil)
	if err != nil {
		m.statusMsg = err.Error()
		return false
	}
	m.history = nil
	m.gate = nil
	m.push(g)
	m.clearPending()
	m.log.Debug().Str("gate", g.String()).Msg("Gate set")
	return true
}

// usedQubits returns the register qubits that may not be picked next.
func (m *Model) usedQubits() []int {
	if m.focus == focusSelectTarget {
		return m.pendingQubits
	}
	return operandsFor(m.gate)
}

// nextFree returns the nearest qubit from start in direction dir that is
// not in used, or -1.
func (m *Model) nextFree(start, dir int, used []int) int {
	for q := start; q >= 0 && q < m.numQubits; q += dir {
		if !slices.Contains(used, q) {
			return q
		}
	}
	return -1
}

// firstFree picks a starting selection near the cursor.
func (m *Model) firstFree(used []int) int {
	if q := m.nextFree(m.cursorQubit, 1, used); q >= 0 {
		return q
	}
	return m.nextFree(m.cursorQubit, -1, used)
}

// beginSelect enters a qubit selection mode. It fails when every register
// qubit is already taken.
func (m *Model) beginSelect(f focus) bool {
	m.focus = f
	q := m.firstFree(m.usedQubits())
	if q < 0 {
		m.focus = focusGate
		m.statusMsg = "No free qubit: press + to grow the register"
		return false
	}
	m.targetQubit = q
	return true
}

func (m *Model) moveSelection(dir int) {
	if q := m.nextFree(m.targetQubit+dir, dir, m.usedQubits()); q >= 0 {
		m.targetQubit = q
	}
}

// startParamInput opens the parameter prompt prefilled with value.
func (m *Model) startParamInput(value string, f focus) tea.Cmd {
	m.paramInput.SetValue(value)
	m.paramInput.CursorEnd()
	m.focus = f
	return m.paramInput.Focus()
}

// chooseMenuItem starts building the selected base gate.
func (m *Model) chooseMenuItem() tea.Cmd {
	item := m.menu[m.menuCat].items[m.menuItem]
	if item.qubits > m.numQubits {
		m.statusMsg = fmt.Sprintf("%s needs %d qubits", item.gateType, item.qubits)
		m.focus = focusGate
		return nil
	}
	m.clearPending()
	m.pendingItem = item
	m.pendingQubits = []int{m.cursorQubit}
	if item.needsParams() {
		return m.startParamInput("", focusInputParam)
	}
	m.afterParams()
	return nil
}

// afterParams moves on to operand selection or places the gate.
func (m *Model) afterParams() {
	if len(m.pendingQubits) < m.pendingItem.qubits {
		m.beginSelect(focusSelectTarget)
		return
	}
	if !m.placeGate() {
		m.clearPending()
	}
	m.focus = focusGate
}

// readParams parses the prompt, requiring want values when want >= 0.
func (m *Model) readParams(want int) ([]quil.Expression, bool) {
	params, err := parseParams(m.paramInput.Value())
	if err != nil {
		m.statusMsg = err.Error()
		return nil, false
	}
	if want >= 0 && len(params) != want {
		m.statusMsg = fmt.Sprintf("Expected %d parameters, got %d", want, len(params))
		return nil, false
	}
	return params, true
}

func (m *Model) addControl(q int) {
	g, err := m.gate.Controlled(quil.NewQubit(uint64(q)))
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.push(g)
}

func (m *Model) addFork(q int, params []quil.Expression) {
	g, err := m.gate.Forked(quil.NewQubit(uint64(q)), params)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.push(g)
}

func (m *Model) editParams(params []quil.Expression) {
	g, err := quil.NewGate(m.gate.Name, params, m.gate.Qubits, m.gate.Modifiers)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.push(g)
}

func (m *Model) resize(delta int) {
	n := m.numQubits + delta
	if n < 1 || n > maxQubits {
		return
	}
	for _, q := range operandsFor(m.gate) {
		if q >= n {
			m.statusMsg = fmt.Sprintf("Qubit %d is in use", q)
			return
		}
	}
	m.numQubits = n
	m.cursorQubit = min(m.cursorQubit, n-1)
	m.resync()
}

func (m *Model) save() {
	if m.gate == nil {
		m.statusMsg = "Nothing to save"
		return
	}
	if err := saveWorkspace(m.outputPath, m.quilText(), m.snapshotPath, m.registry); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		m.log.Error().Err(err).Msg("Save failed")
		return
	}
	m.statusMsg = "Saved " + m.outputPath
	m.log.Info().Str("path", m.outputPath).Str("gate", m.gate.String()).Msg("Saved gate")
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.quilEditor.SetWidth(max(msg.Width/2-8, 20))
		m.quilEditor.SetHeight(max((msg.Height-4)/2-6, 4))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusGate:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQuil
				cmds = append(cmds, m.quilEditor.Focus())
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.numQubits-1 {
					m.cursorQubit++
				}
			case "+", "=":
				m.resize(1)
			case "-":
				m.resize(-1)
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "ctrl+r":
				m.reset()
			case "ctrl+s":
				m.save()
			case "d", "c", "f", "p", "u":
				if m.gate == nil {
					m.statusMsg = "No gate: press a to choose one"
					break
				}
				switch key {
				case "d":
					m.push(m.gate.Dagger())
				case "c":
					m.beginSelect(focusSelectControl)
				case "f":
					m.beginSelect(focusSelectFork)
				case "p":
					if len(m.gate.Parameters) == 0 {
						m.statusMsg = m.gate.Name + " has no parameters"
						break
					}
					cmds = append(cmds, m.startParamInput(formatParams(m.gate.Parameters), focusEditParam))
				case "u":
					m.undo()
				}
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusGate
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				cat := m.menu[m.menuCat]
				if m.menuItem < len(cat.items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(m.menu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				cmds = append(cmds, m.chooseMenuItem())
			}

		case focusSelectTarget, focusSelectControl, focusSelectFork:
			switch key {
			case "esc":
				m.focus = focusGate
				m.clearPending()
			case "up", "k":
				m.moveSelection(-1)
			case "down", "j":
				m.moveSelection(1)
			case "enter":
				q := m.targetQubit
				switch m.focus {
				case focusSelectTarget:
					m.pendingQubits = append(m.pendingQubits, q)
					m.afterParams()
				case focusSelectControl:
					m.focus = focusGate
					m.addControl(q)
				case focusSelectFork:
					if len(m.gate.Parameters) == 0 {
						m.focus = focusGate
						m.addFork(q, nil)
						break
					}
					cmds = append(cmds, m.startParamInput(formatParams(m.gate.Parameters), focusInputForkParam))
				}
			}

		case focusInputParam, focusInputForkParam, focusEditParam:
			switch key {
			case "esc":
				m.focus = focusGate
				m.clearPending()
			case "enter":
				switch m.focus {
				case focusInputParam:
					params, ok := m.readParams(m.pendingItem.params)
					if !ok {
						break
					}
					m.pendingParams = params
					m.paramInput.Blur()
					m.afterParams()
				case focusInputForkParam:
					params, ok := m.readParams(len(m.gate.Parameters))
					if !ok {
						break
					}
					m.focus = focusGate
					m.paramInput.Blur()
					m.addFork(m.targetQubit, params)
				case focusEditParam:
					params, ok := m.readParams(len(m.gate.Parameters))
					if !ok {
						break
					}
					m.focus = focusGate
					m.paramInput.Blur()
					m.editParams(params)
				}
			default:
				var cmd tea.Cmd
				m.paramInput, cmd = m.paramInput.Update(msg)
				cmds = append(cmds, cmd)
			}

		case focusQuil:
			switch key {
			case "tab", "esc":
				m.focus = focusGate
				m.quilEditor.Blur()
			case "up", "down", "left", "right", "pgup", "pgdown", "home", "end":
				var cmd tea.Cmd
				m.quilEditor, cmd = m.quilEditor.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	leftW := m.width/2 - 2
	rightW := m.width - leftW - 4
	controlsHeight := 2
	rest := m.height - controlsHeight - 2
	topH := max(rest/2-2, 6)
	bottomH := max(rest-rest/2-2, 4)

	wirePanel := m.renderWirePanel(leftW, topH)
	quilPanel := m.renderQuilPanel(rightW, topH)
	unitaryPanel := m.renderUnitaryPanel(leftW, bottomH)
	statePanel := m.renderStatePanel(rightW, bottomH)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, wirePanel, quilPanel)
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, unitaryPanel, statePanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, controlsPanel)

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusInputParam, focusInputForkParam, focusEditParam:
		frame = overlayAt(frame, m.renderParamInput(), 2, 2)
	}

	return frame
}

// renderParamInput renders parameter input overlay.
func (m Model) renderParamInput() string {
	var sb strings.Builder
	title := "Enter Parameters"
	switch m.focus {
	case focusInputParam:
		title = fmt.Sprintf("%s Parameters (%d)", m.pendingItem.gateType, m.pendingItem.params)
	case focusInputForkParam:
		title = fmt.Sprintf("Fork Parameters on q[%d]", m.targetQubit)
	case focusEditParam:
		title = "Edit " + m.gate.Name + " Parameters"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.paramInput.View())
	sb.WriteString("\n\n")
	if m.statusMsg != "" {
		sb.WriteString(errorStyle.Render(m.statusMsg))
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render("Examples: pi/2, 3*pi/4, cos(%theta), ro[0]"))
	return menuBorderStyle.Render(sb.String())
}
