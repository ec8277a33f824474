package exchange

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type Phase uint8

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseError
)

var Phases = [...]string{"loading", "loaded", "error"}

func (p Phase) ToString() string {
	return Phases[p]
}

type State struct {
	Phase      Phase
	Fiat       string
	Rates      map[string]decimal.Decimal
	Conversion *Conversion
	Err        string
}

type Source interface {
	Rates(ctx context.Context, fiat string) (*Rates, error)
	Convert(ctx context.Context, fiat, crypto string, amount decimal.Decimal) (*Conversion, error)
}

// Widget shows the invoice price in the selected payment method and the
// rates for one of the supported fiat currencies. It has no effect on the
// invoice status screen.
type Widget struct {
	source Source
	fiats  []string
	price  decimal.Decimal
	// currency the invoice is priced in
	currency string

	mu     sync.Mutex
	fiat   int
	crypto string
	state  State
}

func NewWidget(source Source, currency string, price decimal.Decimal, fiats []string) *Widget {
	currency = strings.ToUpper(currency)
	if !slices.Contains(fiats, currency) {
		fiats = append([]string{currency}, fiats...)
	}

	return &Widget{
		source:   source,
		fiats:    fiats,
		price:    price,
		currency: currency,
		state:    State{Phase: PhaseLoading, Fiat: currency},
	}
}

// CryptoForMethod maps a payment method id such as "btc-lightning" to its
// currency symbol.
func CryptoForMethod(methodID string) string {
	symbol, _, _ := strings.Cut(methodID, "-")
	return strings.ToUpper(symbol)
}

// Load fetches rates for the selected fiat and the price of the invoice in
// the method's cryptocurrency.
func (w *Widget) Load(ctx context.Context, methodID string) State {
	w.mu.Lock()
	w.crypto = CryptoForMethod(methodID)
	fiat, crypto := w.fiats[w.fiat], w.crypto
	w.state = State{Phase: PhaseLoading, Fiat: fiat}
	w.mu.Unlock()

	next := State{Phase: PhaseLoaded, Fiat: fiat}

	rates, err := w.source.Rates(ctx, fiat)
	if err == nil {
		next.Rates = upperKeys(rates.Rates)
		next.Conversion, err = w.source.Convert(ctx, w.currency, crypto, w.price)
	}
	if err != nil {
		next = State{Phase: PhaseError, Fiat: fiat, Err: err.Error()}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// a newer Load or NextFiat has replaced the request
	if w.fiats[w.fiat] != fiat || w.crypto != crypto {
		return w.state
	}
	w.state = next
	return next
}

// NextFiat selects the next supported fiat currency and returns it. Load must
// be called to refresh the rates.
func (w *Widget) NextFiat() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fiat = (w.fiat + 1) % len(w.fiats)
	w.state = State{Phase: PhaseLoading, Fiat: w.fiats[w.fiat]}
	return w.fiats[w.fiat]
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func upperKeys(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}
