package repository

import (
	"time"

	"checkout/api/internal/domain"

	"gorm.io/gorm"
)

type Invoices interface {
	Create(tx *gorm.DB, invoice *domain.Invoices) error
	Update(tx *gorm.DB, invoice *domain.Invoices) error
	FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error)
	// moves the invoice from one status to another, false if it was not in from
	UpdateStatus(tx *gorm.DB, invoiceId string, from, to domain.Status) (bool, error)
	UpdateEmail(tx *gorm.DB, invoiceId string, email string) error
	FindExpired(tx *gorm.DB, now time.Time, limit int) ([]domain.Invoices, error)
}

type Events interface {
	// creates the event once per key, repeated keys are ignored
	Create(tx *gorm.DB, eventType string, eventRelationID uint, key string, payload string) error
	Done(tx *gorm.DB, eventID uint) error
	Retry(tx *gorm.DB, eventID uint) error
	FindNew(tx *gorm.DB, eventType string, limit int) ([]domain.Events, error)
	Find(tx *gorm.DB, key string) (*domain.Events, error)
}

type Repositories struct {
	Invoices Invoices
	Events   Events
}

func New() *Repositories {
	return &Repositories{
		Events:   InitEventsRepo(),
		Invoices: InitInvoicesRepo(),
	}
}
