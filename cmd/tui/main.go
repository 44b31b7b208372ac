package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/SahilSarmalkar99/MumbaiHacks/cmd/tui/internal/view"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/app"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(1)
)

type model struct {
	svc      *app.Services
	common   view.CommonModel
	appName  string
	currency string

	// active is nil while the menu is shown.
	active view.View
}

func initialModel(cfg *config.Config, svc *app.Services) model {
	return model{
		svc:      svc,
		common:   view.CommonModel{Operator: cfg.App.OperatorID},
		appName:  cfg.App.Name,
		currency: cfg.App.Currency,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.active == nil {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.active = nil
		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	next, cmd := m.active.Update(msg)
	if v, ok := next.(view.View); ok {
		m.active = v
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.active = view.NewPosModel(m.common, m.svc.Catalog, m.svc.Transactor)
	case "2":
		m.active = view.NewStockModel(m.common, m.svc.Catalog, m.svc.Inventory)
	case "3":
		m.active = view.NewInvoicesModel(m.common, m.svc.Invoices)
	case "4":
		m.active = view.NewDashboardModel(m.common, m.svc.Dashboard, m.currency)
	case "5":
		m.active = view.NewImportModel(m.common, m.svc.Importer)
	case "6":
		m.active = view.NewExportModel(m.common, m.svc.Export)
	default:
		return m, nil
	}

	return m, m.active.Init()
}

func (m model) View() string {
	if m.active != nil {
		return titleStyle.PaddingLeft(1).Render(m.active.Title()) + "\n" +
			m.active.View() + "\n" +
			helpStyle.Render(m.active.ShortHelp())
	}

	return lipgloss.NewStyle().Padding(2).Render(
		titleStyle.Render(m.appName) + "  " + helpStyle.Render("operator "+m.common.Operator) + "\n\n" +
			"1. Point of Sale\n" +
			"2. Adjust Stock\n" +
			"3. Invoices\n" +
			"4. Dashboard\n" +
			"5. Import Products\n" +
			"6. Export Invoices\n\n" +
			"q. Quit",
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error("tui failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := tea.LogToFile("billbook-tui.log", "")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	svc, err := app.New(context.Background(), cfg, nil)
	if err != nil {
		return fmt.Errorf("starting services: %w", err)
	}
	defer svc.Close()

	if _, err := tea.NewProgram(initialModel(cfg, svc), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}
