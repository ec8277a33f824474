package domain

import (
	"errors"
	"net/http"
)

type ResponseInvoiceInfo struct {
	Id         string `json:"id"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	IsPaid     bool   `json:"is_paid"`
	BuyerEmail string `json:"buyer_email,omitempty"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
}

// status snapshot read by the checkout page on every poll
type ResponseInvoiceStatus struct {
	Status                  string   `json:"status"`
	PaymentMethodID         string   `json:"paymentMethodId"`
	InvoiceID               string   `json:"invoiceId"`
	InvoiceBitcoinUrlQR     string   `json:"invoiceBitcoinUrlQR"`
	PeerInfo                string   `json:"peerInfo,omitempty"`
	IsLightning             bool     `json:"isLightning"`
	AvailablePaymentMethods []string `json:"availablePaymentMethods"`
	ExpirationSeconds       int64    `json:"expirationSeconds"`
}

// checkout page descriptor
type ResponseInvoicePage struct {
	InvoiceID         string   `json:"invoiceId"`
	Status            string   `json:"status"`
	Price             string   `json:"price"`
	Currency          string   `json:"currency"`
	PaymentMethodID   string   `json:"paymentMethodId"`
	PaymentMethods    []string `json:"paymentMethods"`
	ExpirationSeconds int64    `json:"expirationSeconds"`
	EmailRequired     bool     `json:"emailRequired"`
	StatusPath        string   `json:"statusPath"`
	PushPath          string   `json:"pushPath"`
}

const (
	ErrMsgRateLimitExceeded         = "rate limit exceeded"
	ErrMsgInternalServerError       = "internal server error"
	ErrMsgParamsInternalServerError = "internal server error: %s"
	ErrMsgBadRequest                = "bad request"
	ErrMsgParamsBadRequest          = "bad request: %s"
	ErrMsgAccessError               = "access error"

	ErrMsgInvalidInvoiceId      = "invalid invoice id"
	ErrMsgInvoiceNotFound       = "invoice not found"
	ErrMsgInvalidPaymentMethod  = "invalid payment method"
	ErrMsgInvalidEmail          = "invalid e-mail address"
	ErrMsgInvalidStatus         = "invalid status"
	ErrMsgStatusTransition      = "status transition not allowed"
	ErrMsgInvalidCrypto         = "invalid cryptocurrency"
	ErrMsgInvalidFiat           = "invalid fiat currency"
	ErrMsgRatesUnavailable      = "rates unavailable"
	ErrMsgPushUnavailable       = "push channel unavailable"
	ErrParamEmptyInvoiceId      = "invoice id is empty"
	ErrParamInvoiceIdMismatched = "invoice id does not match the page"
)

var (
	ErrInvalidInvoiceId     = errors.New(ErrMsgInvalidInvoiceId)
	ErrInternalServerError  = errors.New(ErrMsgInternalServerError)
	ErrInvoiceIdNotFound    = errors.New("invoice id not found")
	ErrInvalidPaymentMethod = errors.New(ErrMsgInvalidPaymentMethod)
	ErrInvalidEmail         = errors.New(ErrMsgInvalidEmail)
	ErrInvalidStatus        = errors.New(ErrMsgInvalidStatus)
	ErrStatusTransition     = errors.New(ErrMsgStatusTransition)
	ErrInvalidCrypto        = errors.New(ErrMsgInvalidCrypto)
	ErrInvalidFiat          = errors.New(ErrMsgInvalidFiat)
	ErrRatesUnavailable     = errors.New(ErrMsgRatesUnavailable)
)

func GetStatusByErr(err error) (status int) {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrInternalServerError):
		status = http.StatusInternalServerError
	case errors.Is(err, ErrInvalidInvoiceId),
		errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidCrypto),
		errors.Is(err, ErrInvalidFiat):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvoiceIdNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrStatusTransition):
		status = http.StatusConflict
	case errors.Is(err, ErrRatesUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	return status
}
