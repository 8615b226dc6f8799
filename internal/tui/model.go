// Package tui implements the full-screen review interface for a pending
// batch: cursor movement over the rows, in-place field editing, drop
// toggling, and the final commit-or-cancel verdict.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/clinicops/etransfer-sync/internal/engine"
	"github.com/clinicops/etransfer-sync/internal/model"
)

// Mode is the screen's input mode.
type Mode int

// Input modes.
const (
	// ModeList navigates the pending rows.
	ModeList Mode = iota
	// ModeEdit types into one field of the selected row.
	ModeEdit
)

// Row fields, in editing order.
const (
	fieldDate = iota
	fieldSender
	fieldAmount
	fieldPayee
	fieldCount
)

var fieldNames = [fieldCount]string{"Date", "Sender", "Amount", "Payee"}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E8B57"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E8B57"))
	droppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Strikethrough(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Model holds the review screen state. The batch is shared with the
// caller and edited in place; the caller reads the verdict after the
// program exits.
type Model struct {
	batch     *engine.Batch
	keymap    KeyMap
	input     textinput.Model
	fieldErr  string
	mode      Mode
	cursor    int
	field     int
	width     int
	height    int
	committed bool
	quitting  bool
}

// NewModel creates a review model over the batch.
func NewModel(batch *engine.Batch) Model {
	input := textinput.New()
	input.CharLimit = 64
	input.Prompt = "> "

	return Model{
		batch:  batch,
		keymap: DefaultKeyMap(),
		input:  input,
	}
}

// Committed reports whether the operator chose to append the batch.
func (m Model) Committed() bool {
	return m.committed
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			return m.updateList(msg)
		case ModeEdit:
			return m.updateEdit(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.batch.Pending)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keymap.Drop):
		if len(m.batch.Pending) > 0 {
			m.batch.Pending[m.cursor].Dropped = !m.batch.Pending[m.cursor].Dropped
		}

	case key.Matches(msg, m.keymap.Edit):
		if len(m.batch.Pending) > 0 {
			return m.startEdit()
		}

	case key.Matches(msg, m.keymap.Commit):
		m.committed = true
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Cancel):
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	m.mode = ModeEdit
	m.field = fieldDate
	m.fieldErr = ""
	m.input.SetValue(m.fieldValue(m.field))
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		m.mode = ModeList
		m.fieldErr = ""
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if err := validateField(m.field, value); err != nil {
			m.fieldErr = err.Error()
			return m, nil
		}
		m.applyField(value)
		m.fieldErr = ""

		m.field++
		if m.field >= fieldCount {
			m.mode = ModeList
			m.input.Blur()
			return m, nil
		}
		m.input.SetValue(m.fieldValue(m.field))
		m.input.CursorEnd()
		return m, nil

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) fieldValue(field int) string {
	row := m.batch.Pending[m.cursor].Row
	switch field {
	case fieldDate:
		return row.Date
	case fieldSender:
		return row.Sender
	case fieldAmount:
		return row.Amount
	case fieldPayee:
		return row.Payee
	}
	return ""
}

// applyField writes the validated value back to the selected row. A
// changed amount clears the low-confidence marker: the operator has
// vouched for the figure.
func (m *Model) applyField(value string) {
	pending := &m.batch.Pending[m.cursor]
	switch m.field {
	case fieldDate:
		pending.Row.Date = value
	case fieldSender:
		pending.Row.Sender = value
	case fieldAmount:
		if value != pending.Row.Amount {
			pending.Row.Amount = value
			pending.Payment.LowConfidence = false
		}
	case fieldPayee:
		pending.Row.Payee = value
	}
}

func validateField(field int, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", strings.ToLower(fieldNames[field]))
	}
	switch field {
	case fieldDate:
		if _, err := time.Parse(model.LedgerTimeLayout, value); err != nil {
			return fmt.Errorf("dates look like %s", model.LedgerTimeLayout)
		}
	case fieldAmount:
		cleaned := strings.ReplaceAll(strings.TrimPrefix(value, "$"), ",", "")
		if _, err := decimal.NewFromString(cleaned); err != nil {
			return fmt.Errorf("%q is not an amount", value)
		}
	}
	return nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Pending Payments") + "\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("    %-3s %-20s %-24s %10s  %-16s",
		"#", "Date", "Sender", "Amount", "Payee")) + "\n")

	for i, row := range m.batch.Pending {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("❯ ")
		}

		line := fmt.Sprintf("%-3d %-20s %-24s %10s  %-16s",
			i+1, row.Row.Date, row.Row.Sender, row.Row.Amount, row.Row.Payee)

		switch {
		case row.Dropped:
			line = droppedStyle.Render(line + "  (dropped)")
		case row.LowConfidence():
			line += "  " + warnStyle.Render("⚠ needs review")
		}

		b.WriteString("  " + marker + line + "\n")
	}

	b.WriteString("\n" + m.summaryLine() + "\n")

	if m.mode == ModeEdit {
		b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("Editing row %d: %s", m.cursor+1, fieldNames[m.field])) + "\n")
		b.WriteString(m.input.View() + "\n")
		if m.fieldErr != "" {
			b.WriteString(errorStyle.Render("✗ "+m.fieldErr) + "\n")
		}
		b.WriteString(helpStyle.Render("enter next field • esc back") + "\n")
	} else {
		b.WriteString("\n" + helpStyle.Render("↑/k up • ↓/j down • e edit • d drop/restore • y append • q cancel") + "\n")
	}

	return b.String()
}

func (m Model) summaryLine() string {
	kept := len(m.batch.Rows())
	dropped := len(m.batch.Pending) - kept

	parts := []string{fmt.Sprintf("%d to append", kept)}
	if dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", dropped))
	}
	if n := m.batch.LowConfidenceCount(); n > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%d need review", n)))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
