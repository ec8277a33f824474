package cache

import (
	"checkout/api/internal/domain"
	"time"
)

const InvoiceExpiration = 10 * time.Minute

// stores a copy, the caller keeps ownership of invoice
func SaveInvoice(invoiceId string, invoice *domain.Invoices) {
	cp := *invoice
	cp.PaymentMethods = append([]domain.PaymentMethods(nil), invoice.PaymentMethods...)
	InvoicesCache.Set(invoiceId, &cp, InvoiceExpiration)
}

// returns a copy of the cached invoice or nil
func FindInvoice(invoiceId string) *domain.Invoices {
	v, ok := InvoicesCache.Load(invoiceId).(*domain.Invoices)
	if !ok {
		return nil
	}

	cp := *v
	cp.PaymentMethods = append([]domain.PaymentMethods(nil), v.PaymentMethods...)
	return &cp
}

func DelInvoice(invoiceId string) {
	InvoicesCache.Del(invoiceId)
}
