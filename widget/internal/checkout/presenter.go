package checkout

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DisplayState is the mutually exclusive state of the checkout screen.
type DisplayState uint8

const (
	DisplayNew DisplayState = iota
	DisplayPaid
	DisplayExpired
)

var DisplayStates = [...]string{"new", "paid", "expired"}

func (d DisplayState) ToString() string {
	return DisplayStates[d]
}

const (
	LightningOnChain = 0
	LightningNode    = 1
)

const ExpiringSoonThreshold = 5 * time.Minute

// LightningToggle exists only while the snapshot says the method is
// Lightning.
type LightningToggle struct {
	Mode int
}

// State is everything the view needs. Views render it; they never keep
// state of their own.
type State struct {
	Display                  DisplayState
	LastKnownStatus          Status
	SelectedPaymentMethodID  string
	AvailablePaymentMethods  []string
	Lightning                *LightningToggle
	QRPayload                string
	PeerInfo                 string
	ExpiringSoon             bool
	CountdownRunning         bool
	RemainingSeconds         int64
	EmailFormVisible         bool
	EmailSubmitting          bool
	CurrencySelectionVisible bool
	SpinnerVisible           bool
}

func (s State) clone() State {
	c := s
	c.AvailablePaymentMethods = slices.Clone(s.AvailablePaymentMethods)
	if s.Lightning != nil {
		l := *s.Lightning
		c.Lightning = &l
	}
	return c
}

type View interface {
	Render(State)
}

type ViewFunc func(State)

func (f ViewFunc) Render(s State) { f(s) }

// StatusChange is sent to the embedder whenever the status changes.
type StatusChange struct {
	InvoiceID string `json:"invoiceId"`
	Status    Status `json:"status"`
}

// Notifier delivers a status change to the embedding host. Delivery is
// one-way: no acknowledgement, no retry.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

type Presenter struct {
	mu           sync.Mutex
	state        State
	lastSnapshot *Snapshot
	deadline     time.Time

	view     View
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

type PresenterOption func(*Presenter)

// WithEmailForm shows the purchaser e-mail panel until it is submitted or the
// invoice expires.
func WithEmailForm() PresenterOption {
	return func(p *Presenter) {
		p.state.EmailFormVisible = true
	}
}

func WithSelectedPaymentMethod(id string) PresenterOption {
	return func(p *Presenter) {
		p.state.SelectedPaymentMethodID = id
	}
}

func WithClock(now func() time.Time) PresenterOption {
	return func(p *Presenter) {
		p.now = now
	}
}

func NewPresenter(view View, notifier Notifier, log *slog.Logger, opts ...PresenterOption) *Presenter {
	if log == nil {
		log = slog.Default()
	}

	p := &Presenter{
		state: State{
			Display:        DisplayNew,
			SpinnerVisible: true,
		},
		view:     view,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a copy of the current presenter state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// Apply moves the screen according to the snapshot and notifies the
// embedder when the status differs from the previous one. An unset prior
// status counts as "new".
func (p *Presenter) Apply(ctx context.Context, snapshot *Snapshot) {
	p.mu.Lock()

	s := &p.state

	switch {
	case snapshot.Status.IsPaid():
		s.Display = DisplayPaid
		s.CountdownRunning = false
		s.ExpiringSoon = false
	case snapshot.Status.IsFailed():
		s.Display = DisplayExpired
		s.ExpiringSoon = false
		s.CountdownRunning = false
		s.RemainingSeconds = 0
		s.EmailFormVisible = false
	}

	prior := s.LastKnownStatus
	if prior == "" {
		prior = StatusNew
	}
	var change *StatusChange
	if prior != snapshot.Status {
		change = &StatusChange{InvoiceID: snapshot.InvoiceID, Status: snapshot.Status}
	}

	s.AvailablePaymentMethods = slices.Clone(snapshot.Methods())
	if s.SelectedPaymentMethodID == "" || !slices.Contains(s.AvailablePaymentMethods, s.SelectedPaymentMethodID) {
		if s.SelectedPaymentMethodID != snapshot.PaymentMethodID {
			s.QRPayload = ""
		}
		s.SelectedPaymentMethodID = snapshot.PaymentMethodID
	}

	if snapshot.PaymentMethodID == s.SelectedPaymentMethodID {
		if s.QRPayload == "" {
			s.QRPayload = snapshot.InvoiceBitcoinURLQR
		}
		s.CurrencySelectionVisible = true
		s.SpinnerVisible = false
	}

	if snapshot.IsLightning {
		if s.Lightning == nil {
			s.Lightning = &LightningToggle{Mode: LightningOnChain}
		}
		s.PeerInfo = snapshot.PeerInfo
	} else {
		s.Lightning = nil
		s.PeerInfo = ""
	}

	if s.Display == DisplayNew && snapshot.ExpirationSeconds > 0 {
		p.deadline = p.now().Add(time.Duration(snapshot.ExpirationSeconds) * time.Second)
		s.CountdownRunning = true
		p.updateCountdownLocked(p.now())
	}

	s.LastKnownStatus = snapshot.Status
	p.lastSnapshot = snapshot

	rendered := s.clone()
	p.mu.Unlock()

	p.render(rendered)

	if change != nil {
		p.notify(ctx, *change)
	}
}

func (p *Presenter) notify(ctx context.Context, change StatusChange) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyStatusChange(ctx, change); err != nil {
		p.log.Debug("status change notification failed", "invoice_id", change.InvoiceID, "status", change.Status.String(), "error", err.Error())
	}
}

func (p *Presenter) render(s State) {
	if p.view != nil {
		p.view.Render(s)
	}
}

// SelectPaymentMethod switches the displayed method. The QR payload is
// cleared so the next snapshot for that method fills it in.
func (p *Presenter) SelectPaymentMethod(id string) error {
	p.mu.Lock()

	if p.lastSnapshot == nil {
		p.mu.Unlock()
		return ErrNoSnapshotYet
	}
	if !slices.Contains(p.state.AvailablePaymentMethods, id) {
		p.mu.Unlock()
		return ErrUnknownMethod
	}
	if p.state.SelectedPaymentMethodID == id {
		p.mu.Unlock()
		return nil
	}

	p.state.SelectedPaymentMethodID = id
	p.state.QRPayload = ""
	p.state.SpinnerVisible = true

	rendered := p.state.clone()
	p.mu.Unlock()

	p.render(rendered)
	return nil
}

// ToggleLightningMode flips between on-chain and node display. It reports
// false when the current method is not Lightning.
func (p *Presenter) ToggleLightningMode() bool {
	p.mu.Lock()

	if p.state.Lightning == nil {
		p.mu.Unlock()
		return false
	}
	p.state.Lightning.Mode = 1 - p.state.Lightning.Mode

	rendered := p.state.clone()
	p.mu.Unlock()

	p.render(rendered)
	return true
}

func (p *Presenter) BeginEmailSubmit() {
	p.mu.Lock()
	p.state.EmailSubmitting = true
	rendered := p.state.clone()
	p.mu.Unlock()

	p.render(rendered)
}

// EndEmailSubmit removes the spinner; the form closes only on success.
func (p *Presenter) EndEmailSubmit(ok bool) {
	p.mu.Lock()
	p.state.EmailSubmitting = false
	if ok {
		p.state.EmailFormVisible = false
	}
	rendered := p.state.clone()
	p.mu.Unlock()

	p.render(rendered)
}

// Tick advances the countdown.
func (p *Presenter) Tick(now time.Time) {
	p.mu.Lock()

	if !p.state.CountdownRunning {
		p.mu.Unlock()
		return
	}

	before := p.state
	p.updateCountdownLocked(now)
	if before.RemainingSeconds == p.state.RemainingSeconds && before.ExpiringSoon == p.state.ExpiringSoon {
		p.mu.Unlock()
		return
	}

	rendered := p.state.clone()
	p.mu.Unlock()

	p.render(rendered)
}

func (p *Presenter) updateCountdownLocked(now time.Time) {
	remaining := p.deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	p.state.RemainingSeconds = int64(remaining / time.Second)
	p.state.ExpiringSoon = p.state.Display == DisplayNew && remaining <= ExpiringSoonThreshold
}
