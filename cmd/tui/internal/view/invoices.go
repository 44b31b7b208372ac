package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

// statusFilters is the cycle order of the status filter; nil shows everything.
var statusFilters = []*invoice.Status{
	nil,
	new(invoice.StatusDraft),
	new(invoice.StatusPending),
	new(invoice.StatusSent),
	new(invoice.StatusPaid),
}

type InvoicesModel struct {
	CommonModel
	svc *invoice.Service

	table    table.Model
	invoices []*invoice.Invoice

	statusIdx  int
	period     Period
	start, end *time.Time
	picker     PeriodPicker
	showPicker bool

	loading bool
	err     error
	status  string
}

func NewInvoicesModel(common CommonModel, svc *invoice.Service) InvoicesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Buyer", Width: 24},
		{Title: "Status", Width: 9},
		{Title: "Payment", Width: 14},
		{Title: "Items", Width: 6},
		{Title: "Total", Width: 16},
		{Title: "Created", Width: 16},
	}

	return InvoicesModel{
		CommonModel: common,
		svc:         svc,
		table:       newTable(columns, 15),
		period:      PeriodAll,
		picker:      NewPeriodPicker(PeriodAll),
		loading:     true,
	}
}

func (m InvoicesModel) Title() string { return "Invoices" }

func (m InvoicesModel) ShortHelp() string {
	if m.showPicker {
		return "Enter: select | Esc: cancel"
	}

	return "Esc: back | s: status | d: period | p: mark paid | n: mark sent | r: refresh"
}

func (m InvoicesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadInvoicesMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.invoices = msg.invoices
			m.refreshTable()
		}

		return m, nil

	case invoiceUpdatedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Update failed: %v", msg.err))
			return m, nil
		}

		m.status = successStyle.Render(fmt.Sprintf("Invoice for %s marked %s.", msg.invoice.Buyer.Name, msg.invoice.Buyer.Status))

		return m, m.loadCmd()

	case PeriodSelectedMsg:
		m.showPicker = false
		m.period = msg.Period
		m.start, m.end = msg.Start, msg.End
		m.loading = true
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	if m.showPicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.picker.Choosing() {
			m.showPicker = false
			m.table.Focus()

			return m, nil
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
			m.loading = true

			return m, m.loadCmd()
		case "d":
			m.showPicker = true
			m.picker = NewPeriodPicker(m.period)
			m.table.Blur()

			return m, nil
		case "p":
			return m, m.updateStatusCmd(invoice.StatusPaid)
		case "n":
			return m, m.updateStatusCmd(invoice.StatusSent)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m InvoicesModel) View() string {
	if m.showPicker {
		return lipgloss.NewStyle().Padding(2).Render(m.picker.View())
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to back)")
	}

	statusLabel := "all"
	if s := statusFilters[m.statusIdx]; s != nil {
		statusLabel = string(*s)
	}

	header := fmt.Sprintf("Status: %s   Period: %s   %s invoices",
		activeStyle(statusLabel), activeStyle(m.period.String()), FormatCount(int64(len(m.invoices))))

	if m.loading {
		header += faintStyle.Render("  loading...")
	}

	content := header + "\n\n" + tableBorder.Render(m.table.View())
	if m.status != "" {
		content += "\n" + m.status
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *InvoicesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.invoices))
	for _, inv := range m.invoices {
		rows = append(rows, table.Row{
			FormatDate(inv.EffectiveDate()),
			inv.Buyer.Name,
			string(inv.Buyer.Status),
			string(inv.PaymentMethod),
			FormatCount(inv.TotalQuantity()),
			FormatMoney(inv.Total, inv.Currency),
			FormatAgo(inv.CreatedAt),
		})
	}

	m.table.SetRows(rows)
}

func (m InvoicesModel) selected() *invoice.Invoice {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.invoices) {
		return nil
	}

	return m.invoices[idx]
}

type loadInvoicesMsg struct {
	invoices []*invoice.Invoice
	err      error
}

func (m InvoicesModel) loadCmd() tea.Cmd {
	filter := invoice.ListFilter{
		SellerID:  m.Operator,
		Status:    statusFilters[m.statusIdx],
		StartDate: m.start,
		EndDate:   m.end,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		invoices, err := m.svc.List(ctx, filter)

		return loadInvoicesMsg{invoices: invoices, err: err}
	}
}

type invoiceUpdatedMsg struct {
	invoice *invoice.Invoice
	err     error
}

func (m InvoicesModel) updateStatusCmd(status invoice.Status) tea.Cmd {
	inv := m.selected()
	if inv == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.svc.UpdateStatus(ctx, inv.ID, status)

		return invoiceUpdatedMsg{invoice: updated, err: err}
	}
}
