package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
)

const importTimeout = 2 * time.Minute

// maxSkippedShown caps the skipped rows listed on the result screen.
const maxSkippedShown = 10

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

type ImportModel struct {
	CommonModel
	importService *importer.Service

	state      importState
	filePicker filepicker.Model

	path   string
	result *importer.Result
	err    error
}

func NewImportModel(common CommonModel, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		CommonModel:   common,
		importService: impSvc,
		filePicker:    fp,
	}
}

func (m ImportModel) Title() string { return "Import Products" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateResult {
		return "Esc: import another file"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == importStateResult {
				m.state = importStateFilePick
				m.result, m.err = nil, nil

				return m, m.filePicker.Init()
			}

			if m.state == importStateFilePick {
				return m, Back
			}
		}

	case importResultMsg:
		m.state = importStateResult
		m.result, m.err = msg.result, msg.err

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.path = path

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select a product sheet (CSV):\n\n" + m.filePicker.View(),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Importing products from %s...", m.path))
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)

	// A failure part way through still reports the rows created before it.
	var sb strings.Builder

	if m.err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n\n")
	}

	if m.result != nil {
		r := m.result

		if m.err == nil {
			sb.WriteString(successStyle.Render(fmt.Sprintf("Imported %d products.", len(r.Created))))
		} else {
			fmt.Fprintf(&sb, "%d products were created before the failure.", len(r.Created))
		}

		if r.Profile != "" {
			sb.WriteString(faintStyle.Render(fmt.Sprintf("  (layout: %s)", r.Profile)))
		}

		if len(r.Skipped) > 0 {
			fmt.Fprintf(&sb, "\n\nSkipped %d rows:\n", len(r.Skipped))

			for i, s := range r.Skipped {
				if i == maxSkippedShown {
					fmt.Fprintf(&sb, "  ... and %d more\n", len(r.Skipped)-maxSkippedShown)
					break
				}

				fmt.Fprintf(&sb, "  line %d: %s\n", s.Line, s.Reason)
			}
		}
	}

	return style.Render(sb.String() + "\n\n(Esc to import another file)")
}

type importResultMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importService.Import(ctx, f, m.Operator)

		return importResultMsg{result: result, err: err}
	}
}
