package v1

import (
	"checkout/api/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type responseError struct {
	Error   bool   `json:"error"`
	ErrorID string `json:"error_id"`
	Msg     string `json:"msg"`
}

type responseOK struct {
	Error bool `json:"error"`
}

// /currency/convert
type responseConverterOK struct {
	Error          bool            `json:"error"`
	Fiat           string          `json:"fiat"`
	Amount         decimal.Decimal `json:"amount"`
	Cryptocurrency string          `json:"cryptocurrency"`
	Converted      decimal.Decimal `json:"converted"`
	Rate           decimal.Decimal `json:"rate"`
}

// /currency/rates
type responseRatesOK struct {
	Error bool                       `json:"error"`
	Fiat  string                     `json:"fiat"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type responseInvoiceCreatedMethod struct {
	MethodID    string          `json:"method_id"`
	Amount      decimal.Decimal `json:"amount"`
	Address     string          `json:"address"`
	PaymentURL  string          `json:"payment_url"`
	QrCode      string          `json:"qr_code"`
	IsLightning bool            `json:"is_lightning"`
}

// /invoice/create
type responseInvoiceCreatedInfo struct {
	Id        string                         `json:"id"`
	PageURL   string                         `json:"page_url"`
	ExpiresAt string                         `json:"expires_at"`
	Methods   []responseInvoiceCreatedMethod `json:"methods"`
}

type responseInvoiceCreated struct {
	Error   bool                       `json:"error"`
	Invoice responseInvoiceCreatedInfo `json:"invoice"`
}

// /invoice/status
type responseInvoiceStatusSet struct {
	Error bool                       `json:"error"`
	Info  domain.ResponseInvoiceInfo `json:"info"`
}

type responseProxyList struct {
	Error   bool     `json:"error"`
	Proxies []string `json:"proxies"`
}

func responseErr(c *gin.Context, statusCode int, msg, errorID string) {
	c.AbortWithStatusJSON(statusCode, responseError{true, errorID, msg})
}
