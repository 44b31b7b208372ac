package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

type posState int

const (
	posStateBrowse posState = iota
	posStateCheckout
	posStateResult
)

type cartLine struct {
	product *catalog.Product
	qty     int64
}

// checkoutFields holds the huh form bindings. It lives behind a pointer so
// the bindings survive bubbletea copying the model.
type checkoutFields struct {
	name    string
	contact string
	address string
	payment invoice.PaymentMethod
	status  invoice.Status
	confirm bool
}

type PosModel struct {
	CommonModel
	catalog    *catalog.Service
	transactor *checkout.Transactor

	state    posState
	table    table.Model
	products []*catalog.Product
	cart     []cartLine

	form   *huh.Form
	fields *checkoutFields

	loading bool
	err     error
	status  string
	result  string
}

func NewPosModel(common CommonModel, catalogSvc *catalog.Service, transactor *checkout.Transactor) PosModel {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "SKU", Width: 12},
		{Title: "Price", Width: 16},
		{Title: "Tax %", Width: 7},
		{Title: "Stock", Width: 8},
	}

	return PosModel{
		CommonModel: common,
		catalog:     catalogSvc,
		transactor:  transactor,
		table:       newTable(columns, 15),
		loading:     true,
	}
}

func (m PosModel) Title() string { return "Point of Sale" }

func (m PosModel) ShortHelp() string {
	switch m.state {
	case posStateCheckout:
		return "Navigate form | Esc: cancel"
	case posStateResult:
		return "Enter: new sale | Esc: back"
	}

	return "Esc: back | a: add | -: remove | x: clear cart | c: checkout | r: refresh"
}

func (m PosModel) Init() tea.Cmd {
	return m.loadProductsCmd()
}

func (m PosModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProductsMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.products = msg.products
			m.refreshTable()
			m.refreshCart()
		}

		return m, nil

	case checkoutResultMsg:
		m.state = posStateResult
		m.form = nil
		m.result = renderCheckoutResult(msg, m.cart)

		if msg.err == nil {
			m.cart = nil
		}

		return m, m.loadProductsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-14, 5))
		return m, nil
	}

	switch m.state {
	case posStateCheckout:
		return m.updateCheckout(msg)
	case posStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.Type {
			case tea.KeyEsc:
				return m, Back
			case tea.KeyEnter:
				m.state = posStateBrowse
				m.result = ""
				m.table.Focus()
			}
		}

		return m, nil
	}

	return m.updateBrowse(msg)
}

func (m PosModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadProductsCmd()
		case "a", "enter":
			m.addSelected(1)
			return m, nil
		case "-":
			m.addSelected(-1)
			return m, nil
		case "x":
			m.cart = nil
			m.status = "Cart cleared."

			return m, nil
		case "c":
			if len(m.cart) == 0 {
				m.status = "Cart is empty."
				return m, nil
			}

			return m.startCheckout()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *PosModel) addSelected(delta int64) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.products) {
		return
	}

	p := m.products[idx]

	for i := range m.cart {
		if m.cart[i].product.ID != p.ID {
			continue
		}

		m.cart[i].qty += delta
		if m.cart[i].qty <= 0 {
			m.cart = append(m.cart[:i], m.cart[i+1:]...)
		}

		m.status = ""

		return
	}

	if delta > 0 {
		m.cart = append(m.cart, cartLine{product: p, qty: delta})
		m.status = ""
	}
}

// refreshCart swaps cart products for freshly loaded ones so the preview uses
// current prices, and drops products that disappeared from the catalog.
func (m *PosModel) refreshCart() {
	byID := make(map[uuid.UUID]*catalog.Product, len(m.products))
	for _, p := range m.products {
		byID[p.ID] = p
	}

	kept := m.cart[:0]

	for _, line := range m.cart {
		if p, ok := byID[line.product.ID]; ok {
			line.product = p
			kept = append(kept, line)
		}
	}

	m.cart = kept
}

func (m PosModel) startCheckout() (tea.Model, tea.Cmd) {
	m.fields = &checkoutFields{payment: invoice.PaymentCash, status: invoice.StatusPaid, confirm: true}

	required := func(label string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", label)
			}

			return nil
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Buyer name").
				Value(&m.fields.name).
				Validate(required("buyer name")),
			huh.NewInput().
				Title("Contact").
				Description("Phone number or email").
				Value(&m.fields.contact).
				Validate(required("contact")),
			huh.NewInput().
				Title("Address").
				Value(&m.fields.address),
		),
		huh.NewGroup(
			huh.NewSelect[invoice.PaymentMethod]().
				Title("Payment method").
				Options(
					huh.NewOption("Cash", invoice.PaymentCash),
					huh.NewOption("Card", invoice.PaymentCard),
					huh.NewOption("UPI", invoice.PaymentUPI),
					huh.NewOption("Bank transfer", invoice.PaymentBankTransfer),
				).
				Value(&m.fields.payment),
			huh.NewSelect[invoice.Status]().
				Title("Invoice status").
				Options(
					huh.NewOption("Paid", invoice.StatusPaid),
					huh.NewOption("Pending", invoice.StatusPending),
					huh.NewOption("Sent", invoice.StatusSent),
					huh.NewOption("Draft", invoice.StatusDraft),
				).
				Value(&m.fields.status),
			huh.NewConfirm().
				Title("Complete sale?").
				Value(&m.fields.confirm),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = posStateCheckout
	m.table.Blur()

	return m, m.form.Init()
}

func (m PosModel) updateCheckout(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = posStateBrowse
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

	if !m.fields.confirm {
		m.state = posStateBrowse
		m.form = nil
		m.status = "Sale cancelled."
		m.table.Focus()

		return m, nil
	}

	return m, m.checkoutCmd()
}

func (m PosModel) cartTotal() (decimal.Decimal, string) {
	total := decimal.Zero
	currency := ""

	for _, line := range m.cart {
		p := line.product
		total = total.Add(invoice.NewLineItem(p.ID, p.Name, p.SKU, p.UnitPrice, line.qty, p.TaxPercent).LineTotal)
		currency = p.Currency
	}

	return total, currency
}

func (m PosModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading products...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.state == posStateResult {
		return lipgloss.NewStyle().Padding(2).Render(m.result + "\n\n(Enter for a new sale, Esc to back)")
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		tableBorder.Render(m.table.View()),
		panelStyle.Width(44).Render(m.viewCart()),
	)

	if m.state == posStateCheckout && m.form != nil {
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(44).Render(m.viewCart()),
			panelStyle.Width(54).Render("Checkout\n\n"+m.form.View()),
		)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m PosModel) viewCart() string {
	if len(m.cart) == 0 {
		return "Cart\n\n" + faintStyle.Render("empty, press a to add the selected product")
	}

	var sb strings.Builder

	sb.WriteString("Cart\n\n")

	for _, line := range m.cart {
		fmt.Fprintf(&sb, "%3d x %s\n", line.qty, line.product.Name)
	}

	total, currency := m.cartTotal()
	fmt.Fprintf(&sb, "\nTotal incl. tax: %s", activeStyle(FormatMoney(total, currency)))

	return sb.String()
}

func (m *PosModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.products))
	for _, p := range m.products {
		rows = append(rows, table.Row{
			p.Name,
			p.SKU,
			FormatMoney(p.UnitPrice, p.Currency),
			p.TaxPercent.String(),
			FormatCount(p.Stock),
		})
	}

	m.table.SetRows(rows)
}

func renderCheckoutResult(msg checkoutResultMsg, cart []cartLine) string {
	if msg.err == nil {
		inv := msg.invoice

		return successStyle.Render("Sale complete!") + fmt.Sprintf(
			"\n\nInvoice: %s\nBuyer:   %s\nItems:   %d\nTotal:   %s\nStatus:  %s",
			inv.ID, inv.Buyer.Name, inv.TotalQuantity(), FormatMoney(inv.Total, inv.Currency), inv.Buyer.Status,
		)
	}

	var e *apperr.Error
	if !errors.As(msg.err, &e) || len(e.FailedItems) == 0 {
		return errorStyle.Render(fmt.Sprintf("Sale failed: %v", msg.err))
	}

	names := make(map[uuid.UUID]string, len(cart))
	for _, line := range cart {
		names[line.product.ID] = line.product.Name
	}

	var sb strings.Builder

	sb.WriteString(errorStyle.Render("Sale failed: " + e.Message))
	sb.WriteString("\n")

	for _, it := range e.FailedItems {
		name, ok := names[it.ProductID]
		if !ok {
			name = it.ProductID.String()
		}

		fmt.Fprintf(&sb, "\n  %s: requested %d, available %d", name, it.Requested, it.Available)
	}

	return sb.String()
}

// Messages

type loadProductsMsg struct {
	products []*catalog.Product
	err      error
}

func loadProducts(svc *catalog.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		products, err := svc.List(ctx, catalog.ListFilter{})

		return loadProductsMsg{products: products, err: err}
	}
}

func (m PosModel) loadProductsCmd() tea.Cmd {
	return loadProducts(m.catalog)
}

type checkoutResultMsg struct {
	invoice *invoice.Invoice
	err     error
}

func (m PosModel) checkoutCmd() tea.Cmd {
	f := *m.fields

	req := checkout.Request{
		SellerID: m.Operator,
		Buyer: invoice.BuyerInfo{
			Name:    f.name,
			Contact: f.contact,
			Address: f.address,
			Status:  f.status,
		},
		PaymentMethod: f.payment,
	}

	for _, line := range m.cart {
		req.Lines = append(req.Lines, checkout.Line{ProductID: line.product.ID, Quantity: line.qty})
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		inv, err := m.transactor.Checkout(ctx, req)

		return checkoutResultMsg{invoice: inv, err: err}
	}
}
