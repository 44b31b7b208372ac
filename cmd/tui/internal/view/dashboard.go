package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/dashboard"
)

const barWidth = 30

var cardStyle = lipgloss.NewStyle().Padding(0, 2).Width(22).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))

type DashboardModel struct {
	CommonModel
	svc      *dashboard.Service
	currency string

	summary *dashboard.Summary
	loading bool
	err     error
}

func NewDashboardModel(common CommonModel, svc *dashboard.Service, currency string) DashboardModel {
	return DashboardModel{
		CommonModel: common,
		svc:         svc,
		currency:    currency,
		loading:     true,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		m.loading = false
		m.summary, m.err = msg.summary, msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to back)")
	}

	if m.summary == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading dashboard...")
	}

	s := m.summary

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total sales", FormatMoney(s.TotalSales, m.currency)),
		card("Invoices", FormatCount(int64(s.InvoiceCount))),
		card("Awaiting payment", FormatCount(int64(s.PendingInvoices))),
		card("Items sold", FormatCount(s.TotalItems)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.viewMonthly()),
		panelStyle.Render(m.viewRecent()),
	)

	footer := faintStyle.Render("Updated " + FormatAgo(s.GeneratedAt))
	if m.loading {
		footer = faintStyle.Render("Refreshing...")
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, cards, body, footer))
}

func card(label, value string) string {
	return cardStyle.Render(faintStyle.Render(label) + "\n" + activeStyle(value))
}

// viewMonthly draws one bar per month scaled against the best month.
func (m DashboardModel) viewMonthly() string {
	var sb strings.Builder

	sb.WriteString("Monthly sales\n\n")

	peak := decimal.Zero
	for _, mt := range m.summary.Monthly {
		peak = decimal.Max(peak, mt.Total)
	}

	for _, mt := range m.summary.Monthly {
		n := 0
		if peak.IsPositive() {
			n = int(mt.Total.Mul(decimal.NewFromInt(barWidth)).Div(peak).Round(0).IntPart())
		}

		fmt.Fprintf(&sb, "%-9s %-*s %s\n", mt.Label, barWidth, strings.Repeat("█", n), FormatMoney(mt.Total, m.currency))
	}

	return sb.String()
}

func (m DashboardModel) viewRecent() string {
	var sb strings.Builder

	sb.WriteString("Recent invoices\n\n")

	if len(m.summary.Recent) == 0 {
		sb.WriteString(faintStyle.Render("No invoices yet."))
		return sb.String()
	}

	for _, inv := range m.summary.Recent {
		fmt.Fprintf(&sb, "%s  %-20s %8s  %s\n",
			FormatDate(inv.EffectiveDate()), inv.Buyer.Name, inv.Buyer.Status, FormatMoney(inv.Total, inv.Currency))
	}

	return sb.String()
}

type summaryMsg struct {
	summary *dashboard.Summary
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		summary, err := m.svc.Summary(ctx, m.Operator)

		return summaryMsg{summary: summary, err: err}
	}
}
