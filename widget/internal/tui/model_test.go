package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"checkout/widget/internal/checkout"
	"checkout/widget/internal/exchange"
)

type fakeActions struct {
	selected  []string
	toggles   int
	emails    []string
	emailErr  error
	lightning bool
}

func (f *fakeActions) SelectPaymentMethod(id string) error {
	f.selected = append(f.selected, id)
	return nil
}

func (f *fakeActions) ToggleLightningMode() bool {
	f.toggles++
	return f.lightning
}

func (f *fakeActions) SubmitEmail(_ context.Context, email string) error {
	f.emails = append(f.emails, email)
	return f.emailErr
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func pendingState() checkout.State {
	return checkout.State{
		Display:                  checkout.DisplayNew,
		LastKnownStatus:          checkout.StatusNew,
		SelectedPaymentMethodID:  "btc",
		AvailablePaymentMethods:  []string{"btc", "ltc"},
		QRPayload:                "bitcoin:bc1qtest?amount=0.001",
		CurrencySelectionVisible: true,
		CountdownRunning:         true,
		RemainingSeconds:         125,
		EmailFormVisible:         true,
	}
}

func TestViewFollowsState(t *testing.T) {
	m := New(context.Background(), "inv-1", &fakeActions{}, nil)
	if !strings.Contains(m.View(), "loading invoice status") {
		t.Fatal("missing loading view before the first state")
	}

	m, _ = update(t, m, stateMsg{state: pendingState()})
	view := m.View()
	if !strings.Contains(view, "bitcoin:bc1qtest?amount=0.001") || !strings.Contains(view, "02:05") {
		t.Fatalf("pending view: %s", view)
	}
	if m.qr == "" {
		t.Fatal("qr code not rendered")
	}

	st := pendingState()
	st.ExpiringSoon = true
	m, _ = update(t, m, stateMsg{state: st})
	if !strings.Contains(m.View(), "expiring soon") {
		t.Fatal("expiring soon not shown")
	}

	st.Display = checkout.DisplayPaid
	st.LastKnownStatus = checkout.StatusPaid
	m, _ = update(t, m, stateMsg{state: st})
	if view := m.View(); !strings.Contains(view, "Paid") || strings.Contains(view, "expires in") {
		t.Fatalf("paid view: %s", view)
	}

	st.Display = checkout.DisplayExpired
	st.LastKnownStatus = checkout.StatusExpired
	m, _ = update(t, m, stateMsg{state: st})
	if view := m.View(); !strings.Contains(view, "Expired") || strings.Contains(view, "leave an e-mail") {
		t.Fatalf("expired view: %s", view)
	}
}

func TestKeysRunActions(t *testing.T) {
	actions := &fakeActions{}
	m := New(context.Background(), "inv-1", actions, nil)
	m, _ = update(t, m, stateMsg{state: pendingState()})

	_, cmd := update(t, m, keyMsg("tab"))
	if cmd == nil {
		t.Fatal("tab produced no command")
	}
	if msg := cmd().(actionResultMsg); msg.err != nil {
		t.Fatal(msg.err)
	}
	if len(actions.selected) != 1 || actions.selected[0] != "ltc" {
		t.Fatalf("selected = %v", actions.selected)
	}

	_, cmd = update(t, m, keyMsg("l"))
	m, _ = update(t, m, cmd())
	if actions.toggles != 1 || m.err == "" {
		t.Fatalf("toggle without lightning: toggles=%d err=%q", actions.toggles, m.err)
	}

	_, cmd = update(t, m, keyMsg("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestEmailSubmit(t *testing.T) {
	actions := &fakeActions{emailErr: errors.New("boom")}
	m := New(context.Background(), "inv-1", actions, nil)
	m, _ = update(t, m, stateMsg{state: pendingState()})

	m, _ = update(t, m, keyMsg("e"))
	if !m.editing {
		t.Fatal("e did not open the e-mail input")
	}
	for _, r := range "a@b.co" {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := update(t, m, keyMsg("enter"))
	m, _ = update(t, m, cmd())
	if !m.editing || m.err != "boom" {
		t.Fatalf("failed submit closed the input: editing=%v err=%q", m.editing, m.err)
	}

	actions.emailErr = nil
	m, cmd = update(t, m, keyMsg("enter"))
	m, _ = update(t, m, cmd())
	if m.editing || m.err != "" {
		t.Fatalf("successful submit: editing=%v err=%q", m.editing, m.err)
	}
	if len(actions.emails) != 2 || actions.emails[1] != "a@b.co" {
		t.Fatalf("emails = %v", actions.emails)
	}
}

type staticSource struct{}

func (staticSource) Rates(_ context.Context, fiat string) (*exchange.Rates, error) {
	return &exchange.Rates{Fiat: fiat, Rates: map[string]decimal.Decimal{"btc": decimal.NewFromInt(50000)}}, nil
}

func (staticSource) Convert(_ context.Context, fiat, crypto string, amount decimal.Decimal) (*exchange.Conversion, error) {
	return &exchange.Conversion{Fiat: fiat, Cryptocurrency: crypto, Amount: amount, Rate: decimal.NewFromInt(50000), Converted: amount.Div(decimal.NewFromInt(50000))}, nil
}

func TestExchangeLine(t *testing.T) {
	ex := exchange.NewWidget(staticSource{}, "USD", decimal.NewFromInt(100), []string{"USD", "EUR"})
	m := New(context.Background(), "inv-1", &fakeActions{}, ex)

	m, cmd := update(t, m, stateMsg{state: pendingState()})
	if cmd == nil {
		t.Fatal("first state did not load rates")
	}
	m, _ = update(t, m, cmd())

	if view := m.View(); !strings.Contains(view, "1 BTC = 50000 USD") || !strings.Contains(view, "0.002 BTC") {
		t.Fatalf("exchange line missing: %s", view)
	}

	m, cmd = update(t, m, keyMsg("c"))
	if m.exchangeState.Fiat != "EUR" || m.exchangeState.Phase != exchange.PhaseLoading {
		t.Fatalf("fiat switch: %+v", m.exchangeState)
	}
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "50000 EUR") {
		t.Fatal("rates not reloaded for the new fiat")
	}
}

func TestNextMethod(t *testing.T) {
	if _, ok := nextMethod([]string{"btc"}, "btc"); ok {
		t.Fatal("single method cycled")
	}
	if got, _ := nextMethod([]string{"btc", "ltc", "eth"}, "eth"); got != "btc" {
		t.Fatalf("got %s", got)
	}
	if got, _ := nextMethod([]string{"btc", "ltc"}, "doge"); got != "btc" {
		t.Fatalf("got %s", got)
	}
}
