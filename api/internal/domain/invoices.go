package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type Invoices struct {
	Model
	ID              uint             `gorm:"primaryKey"`
	InvoiceID       string           `gorm:"unique;not null"`
	Status          Status           `gorm:"type:int8"`
	Price           decimal.Decimal  `gorm:"type:numeric"`
	Currency        string           `gorm:"type:varchar(8)"` // fiat or crypto the price is set in (USD, BTC)
	ExpiresAt       time.Time
	BuyerEmail      string           `gorm:"type:text"`
	EmailRequired   bool             // show the purchaser e-mail form on the checkout page
	Webhook         string           `gorm:"type:text"` // merchant IPN url. used in webhook sender service
	PaymentMethods  []PaymentMethods `gorm:"foreignKey:InvoiceID;references:InvoiceID"`
	DefaultMethodID string           `gorm:"type:text"`
}

type Status uint8

const (
	STATUS_NEW Status = iota
	STATUS_PAID_PARTIAL
	STATUS_PAID
	STATUS_CONFIRMED
	STATUS_COMPLETE
	STATUS_EXPIRED
	STATUS_INVALID
)

// names as seen by the checkout page
var Statuses = [...]string{"new", "paidPartial", "paid", "confirmed", "complete", "expired", "invalid"}

// methods

func StrToStatus(s string) (Status, bool) {
	for i, statusName := range Statuses {
		if s == statusName {
			return Status(i), true
		}
	}
	return STATUS_NEW, false
}

func (s Status) ToString() string {
	if int(s) >= len(Statuses) {
		return NA
	}
	return Statuses[s]
}

func (s Status) IsPaid() bool {
	return s == STATUS_PAID || s == STATUS_CONFIRMED || s == STATUS_COMPLETE
}

func (s Status) IsFailed() bool {
	return s == STATUS_EXPIRED || s == STATUS_INVALID
}

// final statuses never change again
func (s Status) IsFinal() bool {
	return s == STATUS_COMPLETE || s.IsFailed()
}

func (s Status) IsNew() bool {
	return s == STATUS_NEW
}

// CanMoveTo reports whether the processor may move an invoice from s to next.
// Paid invoices only move forward, final ones never move.
func (s Status) CanMoveTo(next Status) bool {
	if s == next || s.IsFinal() {
		return false
	}
	if s.IsPaid() {
		return next.IsPaid() && next > s
	}
	return true
}

func (i *Invoices) IsExpired(now time.Time) bool {
	return i.Status.IsNew() && !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// remaining seconds until expiration, never negative
func (i *Invoices) ExpirationSeconds(now time.Time) int64 {
	if i.ExpiresAt.IsZero() || !now.Before(i.ExpiresAt) {
		return 0
	}
	return int64(i.ExpiresAt.Sub(now) / time.Second)
}

func (i *Invoices) FindMethod(methodId string) *PaymentMethods {
	for n := range i.PaymentMethods {
		if i.PaymentMethods[n].MethodID == methodId {
			return &i.PaymentMethods[n]
		}
	}
	return nil
}

func (i *Invoices) MethodIDs() []string {
	ids := make([]string, 0, len(i.PaymentMethods))
	for _, m := range i.PaymentMethods {
		ids = append(ids, m.MethodID)
	}
	return ids
}

const NA = "N/A"
