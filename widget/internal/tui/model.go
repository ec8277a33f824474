package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	qrcode "github.com/skip2/go-qrcode"

	"checkout/widget/internal/checkout"
	"checkout/widget/internal/exchange"
)

// Actions are the user operations of a checkout session. *checkout.Controller
// implements it.
type Actions interface {
	SelectPaymentMethod(id string) error
	ToggleLightningMode() bool
	SubmitEmail(ctx context.Context, email string) error
}

type actionResultMsg struct {
	err error
}

type emailResultMsg struct {
	err error
}

type exchangeMsg struct {
	state exchange.State
}

type keyMap struct {
	NextMethod key.Binding
	Lightning  key.Binding
	Email      key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Fiat       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	NextMethod: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next method")),
	Lightning:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lightning mode")),
	Email:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "e-mail")),
	Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Fiat:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "currency")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	paidStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	expiredStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	expiringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Underline(true).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type Model struct {
	ctx       context.Context
	invoiceID string
	actions   Actions
	exchange  *exchange.Widget

	state    checkout.State
	hasState bool

	qr        string
	qrPayload string

	spinner spinner.Model
	email   textinput.Model
	editing bool

	exchangeState exchange.State
	lastChange    *checkout.StatusChange
	err           string
}

// New builds the model. ex may be nil when no exchange rates are shown.
func New(ctx context.Context, invoiceID string, actions Actions, ex *exchange.Widget) Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Prompt = "e-mail: "

	m := Model{
		ctx:       ctx,
		invoiceID: invoiceID,
		actions:   actions,
		exchange:  ex,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		email:     email,
	}
	if ex != nil {
		m.exchangeState = ex.State()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadExchange())
}

func (m Model) loadExchange() tea.Cmd {
	if m.exchange == nil || !m.hasState {
		return nil
	}
	ex, ctx, method := m.exchange, m.ctx, m.state.SelectedPaymentMethodID
	return func() tea.Msg {
		return exchangeMsg{state: ex.Load(ctx, method)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEmail(msg)
		}
		return m.updateKeys(msg)

	case stateMsg:
		prevMethod := m.state.SelectedPaymentMethodID
		first := !m.hasState

		m.state = msg.state
		m.hasState = true
		m.refreshQR()

		if !m.state.EmailFormVisible && m.editing {
			m.editing = false
			m.email.Blur()
		}
		if first || prevMethod != m.state.SelectedPaymentMethodID {
			return m, m.loadExchange()
		}
		return m, nil

	case statusChangeMsg:
		change := msg.change
		m.lastChange = &change
		return m, nil

	case actionResultMsg:
		m.err = errString(msg.err)
		return m, nil

	case emailResultMsg:
		m.err = errString(msg.err)
		if msg.err == nil {
			m.editing = false
			m.email.Blur()
		}
		return m, nil

	case exchangeMsg:
		m.exchangeState = msg.state
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateKeys runs actions as commands: they render through the Bridge, which
// sends into this event loop.
func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.NextMethod):
		next, ok := nextMethod(m.state.AvailablePaymentMethods, m.state.SelectedPaymentMethodID)
		if !ok {
			return m, nil
		}
		actions := m.actions
		return m, func() tea.Msg {
			return actionResultMsg{err: actions.SelectPaymentMethod(next)}
		}

	case key.Matches(msg, keys.Lightning):
		actions := m.actions
		return m, func() tea.Msg {
			if !actions.ToggleLightningMode() {
				return actionResultMsg{err: fmt.Errorf("current method is not lightning")}
			}
			return actionResultMsg{}
		}

	case key.Matches(msg, keys.Email):
		if !m.state.EmailFormVisible || m.state.Display == checkout.DisplayExpired {
			return m, nil
		}
		m.editing = true
		cmd := m.email.Focus()
		return m, cmd

	case key.Matches(msg, keys.Fiat):
		if m.exchange == nil {
			return m, nil
		}
		m.exchange.NextFiat()
		m.exchangeState = m.exchange.State()
		return m, m.loadExchange()
	}

	return m, nil
}

func (m Model) updateEmail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.editing = false
		m.email.Blur()
		return m, nil

	case key.Matches(msg, keys.Submit):
		if m.state.EmailSubmitting {
			return m, nil
		}
		actions, ctx, email := m.actions, m.ctx, strings.TrimSpace(m.email.Value())
		return m, func() tea.Msg {
			return emailResultMsg{err: actions.SubmitEmail(ctx, email)}
		}
	}

	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	return m, cmd
}

func (m *Model) refreshQR() {
	if m.state.QRPayload == m.qrPayload {
		return
	}
	m.qrPayload = m.state.QRPayload
	m.qr = ""

	if m.qrPayload == "" {
		return
	}
	q, err := qrcode.New(m.qrPayload, qrcode.Medium)
	if err != nil {
		m.err = err.Error()
		return
	}
	m.qr = q.ToSmallString(false)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Invoice " + m.invoiceID))
	b.WriteString("\n\n")

	if !m.hasState {
		b.WriteString(m.spinner.View() + " loading invoice status\n")
		return b.String()
	}

	switch m.state.Display {
	case checkout.DisplayPaid:
		b.WriteString(paidStyle.Render("Paid") + "  " + mutedStyle.Render("status: "+m.state.LastKnownStatus.String()) + "\n")
	case checkout.DisplayExpired:
		b.WriteString(expiredStyle.Render("Expired") + "  " + mutedStyle.Render("status: "+m.state.LastKnownStatus.String()) + "\n")
	default:
		b.WriteString(m.viewPending())
	}

	if m.state.EmailFormVisible && m.state.Display != checkout.DisplayExpired {
		b.WriteString("\n" + m.viewEmail() + "\n")
	}

	if m.lastChange != nil {
		b.WriteString("\n" + mutedStyle.Render(fmt.Sprintf("status changed to %s", m.lastChange.Status)) + "\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err) + "\n")
	}

	b.WriteString("\n" + m.viewHelp())
	return b.String()
}

func (m Model) viewPending() string {
	var b strings.Builder

	if m.state.CurrencySelectionVisible {
		b.WriteString(m.viewMethods() + "\n")
	}

	if m.state.SpinnerVisible || m.state.QRPayload == "" {
		b.WriteString(m.spinner.View() + " waiting for payment details\n")
	} else {
		payload := m.state.QRPayload
		if m.state.Lightning != nil && m.state.Lightning.Mode == checkout.LightningNode {
			payload = m.state.PeerInfo
			b.WriteString(mutedStyle.Render("node") + "\n")
		} else if m.qr != "" {
			b.WriteString(m.qr)
		}
		b.WriteString(boxStyle.Render(payload) + "\n")
	}

	if m.state.CountdownRunning {
		countdown := fmt.Sprintf("expires in %s", formatRemaining(m.state.RemainingSeconds))
		if m.state.ExpiringSoon {
			countdown = expiringStyle.Render(countdown + " (expiring soon)")
		}
		b.WriteString(countdown + "\n")
	}

	if m.exchange != nil {
		b.WriteString(m.viewExchange() + "\n")
	}
	return b.String()
}

func (m Model) viewMethods() string {
	items := make([]string, 0, len(m.state.AvailablePaymentMethods))
	for _, id := range m.state.AvailablePaymentMethods {
		if id == m.state.SelectedPaymentMethodID {
			items = append(items, selectedStyle.Render(id))
			continue
		}
		items = append(items, mutedStyle.Render(id))
	}
	if m.state.Lightning != nil {
		mode := "on-chain"
		if m.state.Lightning.Mode == checkout.LightningNode {
			mode = "node"
		}
		items = append(items, mutedStyle.Render("["+mode+"]"))
	}
	return strings.Join(items, "  ")
}

func (m Model) viewEmail() string {
	if m.state.EmailSubmitting {
		return m.spinner.View() + " saving e-mail"
	}
	if m.editing {
		return m.email.View()
	}
	return mutedStyle.Render("press e to leave an e-mail for the receipt")
}

func (m Model) viewExchange() string {
	st := m.exchangeState
	switch st.Phase {
	case exchange.PhaseLoading:
		return m.spinner.View() + " loading " + st.Fiat + " rates"
	case exchange.PhaseError:
		return errorStyle.Render("rates unavailable: " + st.Err)
	}

	var parts []string
	if c := st.Conversion; c != nil {
		parts = append(parts, fmt.Sprintf("%s %s = %s %s", c.Amount.String(), strings.ToUpper(c.Fiat), c.Converted.String(), strings.ToUpper(c.Cryptocurrency)))
	}
	crypto := exchange.CryptoForMethod(m.state.SelectedPaymentMethodID)
	if rate, ok := st.Rates[crypto]; ok {
		parts = append(parts, fmt.Sprintf("1 %s = %s %s", crypto, rate.String(), st.Fiat))
	}
	return mutedStyle.Render(strings.Join(parts, " | "))
}

func (m Model) viewHelp() string {
	bindings := []key.Binding{keys.NextMethod, keys.Lightning, keys.Email, keys.Fiat, keys.Quit}
	if m.editing {
		bindings = []key.Binding{keys.Submit, keys.Cancel}
	}

	help := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return mutedStyle.Render(strings.Join(help, " • "))
}

func nextMethod(methods []string, current string) (string, bool) {
	if len(methods) < 2 {
		return "", false
	}
	i := slices.Index(methods, current)
	return methods[(i+1)%len(methods)], true
}

func formatRemaining(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
