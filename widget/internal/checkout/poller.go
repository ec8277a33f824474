package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultPollInterval = 2000 * time.Millisecond

// Fetcher reads one snapshot. *Client implements it.
type Fetcher interface {
	FetchStatus(ctx context.Context, invoiceID, paymentMethodID string) (*Snapshot, error)
}

// Poller keeps the presenter fed with snapshots. It polls on a fixed
// interval and can switch to a push channel; the two are never active at the
// same time.
type Poller struct {
	fetcher  Fetcher
	pushURL  func(invoiceID string) string
	dialer   *websocket.Dialer
	interval time.Duration
	log      *slog.Logger

	mu              sync.Mutex
	ctx             context.Context
	cancel          context.CancelFunc
	pollCancel      context.CancelFunc // nil while polling is inactive
	conn            *websocket.Conn    // nil while push is inactive
	invoiceID       string
	paymentMethodID string
	onSnapshot      func(*Snapshot)
	started         bool
	stopped         bool

	seq       atomic.Uint64
	deliverMu sync.Mutex
	delivered uint64
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithDialer sets the websocket dialer. A nil dialer disables push.
func WithDialer(d *websocket.Dialer) PollerOption {
	return func(p *Poller) {
		p.dialer = d
	}
}

func WithPushURL(f func(invoiceID string) string) PollerOption {
	return func(p *Poller) {
		p.pushURL = f
	}
}

func NewPoller(fetcher Fetcher, log *slog.Logger, opts ...PollerOption) *Poller {
	if log == nil {
		log = slog.Default()
	}

	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultPollInterval,
		dialer:   websocket.DefaultDialer,
		log:      log,
	}

	if c, ok := fetcher.(*Client); ok {
		p.pushURL = c.PushURL
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches once right away and then every interval. onSnapshot is
// called for every fetch that completes and passes validation, one call at
// a time and never with a snapshot older than one already delivered.
func (p *Poller) Start(ctx context.Context, invoiceID, paymentMethodID string, onSnapshot func(*Snapshot)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPollerStopped
	}
	if p.started {
		return errors.New("poller already started")
	}

	p.started = true
	p.invoiceID = invoiceID
	p.paymentMethodID = paymentMethodID
	p.onSnapshot = onSnapshot
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.startPollingLocked()
	return nil
}

func (p *Poller) startPollingLocked() {
	if p.stopped || p.pollCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.pollCancel = cancel

	go p.pollLoop(ctx)
}

func (p *Poller) stopPollingLocked() {
	if p.pollCancel != nil {
		p.pollCancel()
		p.pollCancel = nil
	}
}

func (p *Poller) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	go p.fetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.fetch(ctx)
		}
	}
}

// Refresh triggers one out-of-band fetch.
func (p *Poller) Refresh() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	if ctx == nil {
		return
	}
	go p.fetch(ctx)
}

// SetPaymentMethod changes the method used by subsequent fetches.
func (p *Poller) SetPaymentMethod(paymentMethodID string) {
	p.mu.Lock()
	p.paymentMethodID = paymentMethodID
	p.mu.Unlock()
}

func (p *Poller) fetch(ctx context.Context) {
	seq := p.seq.Add(1)

	p.mu.Lock()
	invoiceID, paymentMethodID := p.invoiceID, p.paymentMethodID
	p.mu.Unlock()

	snapshot, err := p.fetcher.FetchStatus(ctx, invoiceID, paymentMethodID)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Debug("status fetch failed", "invoice_id", invoiceID, "error", err.Error())
		}
		return
	}

	if err := snapshot.Validate(invoiceID); err != nil {
		p.log.Debug("snapshot rejected", "invoice_id", invoiceID, "error", err.Error())
		return
	}
	if snapshot.InvoiceID == "" {
		snapshot.InvoiceID = invoiceID
	}

	p.deliver(seq, snapshot)
}

func (p *Poller) deliver(seq uint64, snapshot *Snapshot) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	stopped, onSnapshot := p.stopped, p.onSnapshot
	p.mu.Unlock()

	if stopped || onSnapshot == nil {
		return
	}

	if seq <= p.delivered {
		p.log.Debug("stale snapshot dropped", "seq", seq, "delivered", p.delivered, "status", snapshot.Status.String())
		return
	}
	p.delivered = seq

	onSnapshot(snapshot)
}

// TryUpgradeToPush opens the push channel. Polling is cancelled only once
// the handshake has completed; if the dial fails polling keeps running, and
// if the channel later fails polling is restarted.
func (p *Poller) TryUpgradeToPush(ctx context.Context, invoiceID string) error {
	p.mu.Lock()
	switch {
	case p.stopped:
		p.mu.Unlock()
		return ErrPollerStopped
	case !p.started:
		p.mu.Unlock()
		return errors.New("poller not started")
	case p.dialer == nil || p.pushURL == nil:
		p.mu.Unlock()
		return ErrPushNotSupported
	case p.conn != nil:
		p.mu.Unlock()
		return nil
	}
	url := p.pushURL(invoiceID)
	p.mu.Unlock()

	conn, _, err := p.dialer.DialContext(ctx, url, nil)
	if err != nil {
		p.log.Error("push channel failed, staying on polling", "url", url, "error", err.Error())
		return err
	}

	p.mu.Lock()
	if p.stopped || p.conn != nil {
		p.mu.Unlock()
		conn.Close()
		if p.stopped {
			return ErrPollerStopped
		}
		return nil
	}
	p.conn = conn
	p.stopPollingLocked()
	p.mu.Unlock()

	p.log.Debug("push channel open, polling cancelled", "url", url)

	go p.readLoop(conn)
	return nil
}

func (p *Poller) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			p.log.Debug("push channel closed", "error", err.Error())
			break
		}

		p.mu.Lock()
		ctx := p.ctx
		p.mu.Unlock()

		// payload is only a trigger, the snapshot always comes from the status endpoint
		go p.fetch(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != conn {
		return
	}
	p.conn = nil
	conn.Close()

	if !p.stopped {
		p.log.Info("push channel lost, resuming polling")
		p.startPollingLocked()
	}
}

// Stop cancels whichever mechanism is active. It is idempotent, does not
// wait for in-flight fetches and may be called from onSnapshot.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	p.stopPollingLocked()
	if p.cancel != nil {
		p.cancel()
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Active reports which update mechanism is running.
func (p *Poller) Active() (polling, push bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pollCancel != nil, p.conn != nil
}
