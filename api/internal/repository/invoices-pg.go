package repository

import (
	"time"

	"checkout/api/internal/domain"

	"gorm.io/gorm"
)

type InvoicesRepo struct {
}

func InitInvoicesRepo() *InvoicesRepo {
	return &InvoicesRepo{}
}

// creates the invoice with its payment methods
func (r *InvoicesRepo) Create(tx *gorm.DB, invoice *domain.Invoices) error {
	return tx.Create(invoice).Error
}

func (r *InvoicesRepo) Update(tx *gorm.DB, invoice *domain.Invoices) error {
	return tx.Omit("PaymentMethods").Save(invoice).Error
}

func (r *InvoicesRepo) FindByID(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	var invoices domain.Invoices
	return &invoices, tx.Preload("PaymentMethods", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where(&domain.Invoices{InvoiceID: invoiceId}).First(&invoices).Error
}

func (r *InvoicesRepo) UpdateStatus(tx *gorm.DB, invoiceId string, from, to domain.Status) (bool, error) {
	res := tx.Model(&domain.Invoices{}).
		Where("invoice_id = ? AND status = ?", invoiceId, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *InvoicesRepo) UpdateEmail(tx *gorm.DB, invoiceId string, email string) error {
	return tx.Model(&domain.Invoices{}).Where("invoice_id = ?", invoiceId).Update("buyer_email", email).Error
}

// new invoices past their expiration time
func (r *InvoicesRepo) FindExpired(tx *gorm.DB, now time.Time, limit int) ([]domain.Invoices, error) {
	var invoices []domain.Invoices
	return invoices, tx.Where("status = ? AND expires_at < ?", domain.STATUS_NEW, now).Order("expires_at").Limit(limit).Find(&invoices).Error
}
