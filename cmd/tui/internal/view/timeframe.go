package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Period is a preset sales window.
type Period int

const (
	PeriodToday Period = iota
	PeriodThisWeek
	PeriodThisMonth
	PeriodLastMonth
	PeriodAll
	PeriodCustom
)

var periodLabels = map[Period]string{
	PeriodToday:     "Today",
	PeriodThisWeek:  "This Week",
	PeriodThisMonth: "This Month",
	PeriodLastMonth: "Last Month",
	PeriodAll:       "All Time",
	PeriodCustom:    "Custom Range",
}

func (p Period) String() string {
	if s, ok := periodLabels[p]; ok {
		return s
	}

	return "Unknown"
}

// Range returns the inclusive day range of p relative to now. Both bounds
// are nil for PeriodAll.
func (p Period) Range(now time.Time) (start, end *time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var from, to time.Time

	switch p {
	case PeriodToday:
		from, to = day, day
	case PeriodThisWeek:
		// Weeks start on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		from, to = day.AddDate(0, 0, -offset), day
	case PeriodThisMonth:
		from, to = day.AddDate(0, 0, 1-day.Day()), day
	case PeriodLastMonth:
		first := day.AddDate(0, 0, 1-day.Day())
		from, to = first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
	default:
		return nil, nil
	}

	return spanDays(from, to)
}

// spanDays widens [from, to] to whole days.
func spanDays(from, to time.Time) (*time.Time, *time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())

	return &start, &end
}

// PeriodSelectedMsg is emitted once a range has been chosen.
type PeriodSelectedMsg struct {
	Period Period
	Start  *time.Time
	End    *time.Time
}

// PeriodPicker lets the user choose a preset period or type a custom range.
type PeriodPicker struct {
	custom   bool
	selected Period

	inputs [2]textinput.Model
	focus  int

	err error
	now func() time.Time
}

func NewPeriodPicker(initial Period) PeriodPicker {
	var inputs [2]textinput.Model

	for i, prompt := range []string{"From: ", "To:   "} {
		in := textinput.New()
		in.Placeholder = "YYYY-MM-DD"
		in.CharLimit = 10
		in.Width = 12
		in.Prompt = prompt
		inputs[i] = in
	}

	return PeriodPicker{selected: initial, inputs: inputs, now: time.Now}
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.custom {
			return m.updateInputs(msg)
		}

		return m, nil
	}

	if m.custom {
		return m.updateCustom(keyMsg)
	}

	switch keyMsg.Type {
	case tea.KeyUp:
		if m.selected > PeriodToday {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < PeriodCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == PeriodCustom {
			m.custom = true
			m.focus = 0
			m.inputs[0].Focus()

			return m, textinput.Blink
		}

		start, end := m.selected.Range(m.now())
		selected := PeriodSelectedMsg{Period: m.selected, Start: start, End: end}

		return m, func() tea.Msg { return selected }
	}

	return m, nil
}

func (m PeriodPicker) updateCustom(msg tea.KeyMsg) (PeriodPicker, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.inputs[m.focus].Blur()
		m.focus = 1 - m.focus
		m.inputs[m.focus].Focus()

		return m, textinput.Blink
	case "esc":
		m.custom = false
		m.err = nil

		return m, nil
	case "enter":
		from, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(m.inputs[0].Value()), time.Local)
		if err != nil {
			m.err = fmt.Errorf("invalid start date (YYYY-MM-DD)")
			return m, nil
		}

		to, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(m.inputs[1].Value()), time.Local)
		if err != nil {
			m.err = fmt.Errorf("invalid end date (YYYY-MM-DD)")
			return m, nil
		}

		if to.Before(from) {
			m.err = fmt.Errorf("end date is before start date")
			return m, nil
		}

		m.err = nil
		start, end := spanDays(from, to)
		selected := PeriodSelectedMsg{Period: PeriodCustom, Start: start, End: end}

		return m, func() tea.Msg { return selected }
	}

	return m.updateInputs(msg)
}

func (m PeriodPicker) updateInputs(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	var cmds [2]tea.Cmd

	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}

	return m, tea.Batch(cmds[0], cmds[1])
}

func (m PeriodPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.custom {
		return fmt.Sprintf("Custom range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.inputs[0].View(), m.inputs[1].View(), errStr)
	}

	var sb strings.Builder

	sb.WriteString("Select period:\n\n")

	for p := PeriodToday; p <= PeriodCustom; p++ {
		cursor := " "
		if p == m.selected {
			cursor = ">"
		}

		fmt.Fprintf(&sb, "%s %s\n", cursor, p)
	}

	sb.WriteString("\n(Enter to select, Esc to back)")

	return sb.String() + errStr
}

// Choosing reports whether the picker shows the preset list rather than the
// custom range inputs.
func (m PeriodPicker) Choosing() bool {
	return !m.custom
}

func (m *PeriodPicker) Reset() {
	m.custom = false
	m.err = nil
	m.inputs[0].SetValue("")
	m.inputs[1].SetValue("")
}
