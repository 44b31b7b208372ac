package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
)

const stockLogLimit = 10

type adjustFields struct {
	delta  string
	reason string
}

type StockModel struct {
	CommonModel
	catalog   *catalog.Service
	inventory *inventory.Service

	table    table.Model
	products []*catalog.Product

	form    *huh.Form
	fields  *adjustFields
	product *catalog.Product

	logs     []*inventory.LogEntry
	showLogs bool

	loading bool
	err     error
	status  string
}

func NewStockModel(common CommonModel, catalogSvc *catalog.Service, inventorySvc *inventory.Service) StockModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "SKU", Width: 12},
		{Title: "Stock", Width: 8},
		{Title: "Unit", Width: 6},
		{Title: "Updated", Width: 16},
	}

	return StockModel{
		CommonModel: common,
		catalog:     catalogSvc,
		inventory:   inventorySvc,
		table:       newTable(columns, 15),
		loading:     true,
	}
}

func (m StockModel) Title() string { return "Adjust Stock" }

func (m StockModel) ShortHelp() string {
	if m.form != nil {
		return "Enter: next | Esc: cancel"
	}

	return "Esc: back | Enter: adjust | l: history | a: audit | f: repair | r: refresh"
}

func (m StockModel) Init() tea.Cmd {
	return loadProducts(m.catalog)
}

func (m StockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProductsMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.products = msg.products
			m.refreshTable()
		}

		return m, m.loadLogsCmd()

	case stockAdjustedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Adjustment failed: %v", msg.err))
			return m, nil
		}

		e := msg.entry
		m.status = successStyle.Render(fmt.Sprintf("Stock %d → %d (%+d).", e.PreviousStock, e.NewStock, e.Change))

		return m, loadProducts(m.catalog)

	case auditMsg:
		m.status = renderAudit(msg)
		if msg.err == nil && msg.report.Repaired {
			return m, loadProducts(m.catalog)
		}

		return m, nil

	case stockLogsMsg:
		if msg.err == nil {
			m.logs = msg.logs
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, loadProducts(m.catalog)
		case "enter", "e":
			return m.startAdjust()
		case "l":
			m.showLogs = !m.showLogs
			return m, m.loadLogsCmd()
		case "a":
			return m, m.auditCmd(false)
		case "f":
			return m, m.auditCmd(true)
		}
	}

	prev := m.table.Cursor()

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	if m.showLogs && m.table.Cursor() != prev {
		return m, tea.Batch(cmd, m.loadLogsCmd())
	}

	return m, cmd
}

func (m StockModel) selected() *catalog.Product {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.products) {
		return nil
	}

	return m.products[idx]
}

func (m StockModel) startAdjust() (tea.Model, tea.Cmd) {
	p := m.selected()
	if p == nil {
		return m, nil
	}

	m.product = p
	m.fields = &adjustFields{}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Change for %s (current %d)", p.Name, p.Stock)).
				Description("Positive to receive stock, negative to remove it").
				Placeholder("+10").
				Value(&m.fields.delta).
				Validate(func(s string) error {
					_, err := parseDelta(s)
					return err
				}),
			huh.NewInput().
				Title("Reason").
				Placeholder("Supplier delivery").
				Value(&m.fields.reason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("reason is required")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	m.table.Blur()
	m.status = ""

	return m, m.form.Init()
}

func parseDelta(s string) (int64, error) {
	d, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "+"), 10, 64)
	if err != nil {
		return 0, errors.New("enter a whole number")
	}

	if d == 0 {
		return 0, errors.New("change must not be zero")
	}

	return d, nil
}

func (m StockModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	delta, _ := parseDelta(m.fields.delta)
	params := inventory.AdjustParams{
		ProductID: m.product.ID,
		Delta:     delta,
		Reason:    strings.TrimSpace(m.fields.reason),
		ActorID:   m.Operator,
	}

	m.form = nil
	m.table.Focus()

	return m, m.adjustCmd(params)
}

func (m StockModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading products...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to back)")
	}

	content := tableBorder.Render(m.table.View())

	switch {
	case m.form != nil:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.form.View()))
	case m.showLogs:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Render(m.viewLogs()))
	}

	if m.status != "" {
		content += "\n" + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m StockModel) viewLogs() string {
	var sb strings.Builder

	sb.WriteString("Stock history\n\n")

	if len(m.logs) == 0 {
		sb.WriteString(faintStyle.Render("No movements recorded."))
		return sb.String()
	}

	for _, e := range m.logs {
		fmt.Fprintf(&sb, "%+6d  %5d → %-5d %-22s %s\n",
			e.Change, e.PreviousStock, e.NewStock, e.Reason, faintStyle.Render(FormatAgo(e.CreatedAt)))
	}

	return sb.String()
}

func (m *StockModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.products))
	for _, p := range m.products {
		updated := p.CreatedAt
		if p.UpdatedAt != nil {
			updated = *p.UpdatedAt
		}

		rows = append(rows, table.Row{
			p.Name,
			p.SKU,
			FormatCount(p.Stock),
			p.Unit,
			FormatAgo(updated),
		})
	}

	m.table.SetRows(rows)
}

func renderAudit(msg auditMsg) string {
	if msg.err != nil {
		return errorStyle.Render(fmt.Sprintf("Audit failed: %v", msg.err))
	}

	r := msg.report

	switch {
	case r.Repaired:
		return successStyle.Render(fmt.Sprintf("Repaired: stock reset to ledger total %d (drift was %+d).", r.LedgerSum, r.Drift))
	case r.Consistent():
		return successStyle.Render(fmt.Sprintf("Consistent: stock %d matches the ledger.", r.Stock))
	}

	return errorStyle.Render(fmt.Sprintf("Drift %+d: stock %d, ledger total %d. Press f to repair.", r.Drift, r.Stock, r.LedgerSum))
}

// Messages

type stockAdjustedMsg struct {
	entry *inventory.LogEntry
	err   error
}

func (m StockModel) adjustCmd(params inventory.AdjustParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entry, err := m.inventory.AddStock(ctx, params)

		return stockAdjustedMsg{entry: entry, err: err}
	}
}

type auditMsg struct {
	report *inventory.AuditReport
	err    error
}

func (m StockModel) auditCmd(repair bool) tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			report *inventory.AuditReport
			err    error
		)

		if repair {
			report, err = m.inventory.Repair(ctx, p.ID, m.Operator)
		} else {
			report, err = m.inventory.Audit(ctx, p.ID)
		}

		return auditMsg{report: report, err: err}
	}
}

type stockLogsMsg struct {
	logs []*inventory.LogEntry
	err  error
}

func (m StockModel) loadLogsCmd() tea.Cmd {
	p := m.selected()
	if !m.showLogs || p == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		logs, err := m.inventory.ListLogs(ctx, inventory.LogFilter{ProductID: &p.ID, Limit: stockLogLimit})

		return stockLogsMsg{logs: logs, err: err}
	}
}
