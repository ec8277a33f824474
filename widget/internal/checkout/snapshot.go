package checkout

import (
	"errors"
	"fmt"
	"slices"
)

// Status is the invoice status reported by the status endpoint.
// The set of values is open: unknown statuses are carried through but never
// drive a display transition.
type Status string

const (
	StatusNew         Status = "new"
	StatusPaidPartial Status = "paidPartial"
	StatusPaid        Status = "paid"
	StatusConfirmed   Status = "confirmed"
	StatusComplete    Status = "complete"
	StatusExpired     Status = "expired"
	StatusInvalid     Status = "invalid"
)

var (
	paidStatuses   = [...]Status{StatusComplete, StatusConfirmed, StatusPaid}
	failedStatuses = [...]Status{StatusExpired, StatusInvalid}
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsPaid() bool {
	return slices.Contains(paidStatuses[:], s)
}

func (s Status) IsFailed() bool {
	return slices.Contains(failedStatuses[:], s)
}

// Snapshot is a point-in-time read of the invoice, created per fetch and
// dropped once applied.
type Snapshot struct {
	Status                  Status   `json:"status"`
	PaymentMethodID         string   `json:"paymentMethodId"`
	InvoiceID               string   `json:"invoiceId"`
	InvoiceBitcoinURLQR     string   `json:"invoiceBitcoinUrlQR"`
	PeerInfo                string   `json:"peerInfo,omitempty"`
	IsLightning             bool     `json:"isLightning"`
	AvailablePaymentMethods []string `json:"availablePaymentMethods,omitempty"`
	ExpirationSeconds       int64    `json:"expirationSeconds,omitempty"`
}

var (
	ErrEmptyStatus      = errors.New("snapshot has no status")
	ErrInvoiceMismatch  = errors.New("snapshot belongs to another invoice")
	ErrUnknownMethod    = errors.New("payment method is not offered by the invoice")
	ErrNoSnapshotYet    = errors.New("no snapshot applied yet")
	ErrPollerStopped    = errors.New("poller stopped")
	ErrPushNotSupported = errors.New("push channel not supported")
)

// Validate rejects snapshots that must not reach the presenter.
func (s *Snapshot) Validate(invoiceID string) error {
	if s.Status == "" {
		return ErrEmptyStatus
	}
	if invoiceID != "" && s.InvoiceID != "" && s.InvoiceID != invoiceID {
		return fmt.Errorf("%w: got %s, want %s", ErrInvoiceMismatch, s.InvoiceID, invoiceID)
	}
	return nil
}

// Methods returns the payment methods offered by the snapshot. When the
// server does not list them, the snapshot's own method is the only one.
func (s *Snapshot) Methods() []string {
	if len(s.AvailablePaymentMethods) > 0 {
		return s.AvailablePaymentMethods
	}
	if s.PaymentMethodID == "" {
		return nil
	}
	return []string{s.PaymentMethodID}
}
