package logger

import (
	"github.com/shopspring/decimal"
)

func (l Logger) TemplInvoiceErr(message string, errorId string, invoiceId string, price decimal.Decimal, currency string, uri string, ip string) string {
	l.Error(message, LS_INVOICES, true, "invoice_id", invoiceId, "price", price.String(), "currency", currency, "uri", uri, "error_id", errorId, "ip", ip)
	return errorId
}

func (l Logger) TemplInvoiceInfo(message string, invoiceId string, status string, uri string, ip string) {
	l.Info(message, LS_INVOICES, true, "invoice_id", invoiceId, "status", status, "uri", uri, "ip", ip)
}

// use only for fatal errors
func (l Logger) TemplHTTPError(message string, ipv4 string, err error) {
	l.Fatal(message, LS_FATAL, true, "error", err.Error(), "ipv4", ipv4)
}

func (l Logger) TemplNatsError(message, natsUrl string, err error) {
	l.Error(message, LS_NATS, true, "nats_url", natsUrl, "error", err.Error())
}

func (l Logger) TemplNatsInfo(message, natsUrl string) {
	l.Info(message, LS_NATS, true, "nats_url", natsUrl, "error", NA)
}

func (l Logger) TemplWebhookErr(message, url string, attempts int, proxy string, payload []byte) {
	l.Error(message, LS_WEBHOOKS, true, "url", url, "attempts", attempts, "proxy", proxy, "payload", string(payload))
}

func (l Logger) TemplWebhookInfo(message, url string, attempts int, proxy string) {
	l.Info(message, LS_WEBHOOKS, true, "url", url, "attempts", attempts, "proxy", proxy)
}

func (l Logger) TemplPushErr(message, invoiceId, remote string, err error) string {
	errorId := GenErrorId()
	l.Error(message, LS_PUSH, true, "invoice_id", invoiceId, "remote", remote, "error", err.Error(), "error_id", errorId)
	return errorId
}

func (l Logger) TemplRatesErr(message, fiat string, err error) string {
	errorId := GenErrorId()
	l.Error(message, LS_RATES, true, "fiat", fiat, "error", err.Error(), "error_id", errorId)
	return errorId
}
