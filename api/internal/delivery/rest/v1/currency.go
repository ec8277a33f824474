package v1

import (
	"net/http"
	"strings"

	"checkout/api/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ratesErr(c *gin.Context, err error, fiat string) {
	status := domain.GetStatusByErr(err)
	if status == http.StatusBadRequest {
		responseErr(c, status, err.Error(), "")
		return
	}

	errid := h.log.TemplRatesErr("rates error", fiat, err)
	responseErr(c, status, domain.ErrMsgRatesUnavailable, errid)
}

// POST /v1/currency/convert
func (h *Handler) currencyConvert(c *gin.Context) {
	var data ConvertData
	if !bindAndValidate(c, &data) {
		return
	}

	// upper case, cause we accept lower case, but services only accept upper case
	data.Fiat = strings.ToUpper(data.Fiat)

	conv, err := h.services.Rates.Convert(c.Request.Context(), data.Fiat, data.Cryptocurrency, data.Amount)
	if err != nil {
		h.ratesErr(c, err, data.Fiat)
		return
	}

	c.JSON(http.StatusOK, responseConverterOK{
		Fiat:           conv.Fiat,
		Amount:         conv.Amount,
		Cryptocurrency: conv.Cryptocurrency,
		Converted:      conv.Converted,
		Rate:           conv.Rate,
	})
}

// POST /v1/currency/rates
func (h *Handler) currencyRates(c *gin.Context) {
	var data RatesData
	if !bindAndValidate(c, &data) {
		return
	}

	data.Fiat = strings.ToUpper(data.Fiat)

	rates, err := h.services.Rates.Get(c.Request.Context(), data.Fiat)
	if err != nil {
		h.ratesErr(c, err, data.Fiat)
		return
	}

	c.JSON(http.StatusOK, responseRatesOK{Fiat: data.Fiat, Rates: rates.Rates})
}

// GET /v1/currency/fiats
func (h *Handler) currencyFiats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error": false, "fiats": h.services.Rates.Fiats()})
}

func (h *Handler) initCurrencyRoutes(g *gin.RouterGroup) {
	g.POST("/currency/convert", h.rateLimitMiddleware(DEFAULT_LIMIT), h.currencyConvert)
	g.POST("/currency/rates", h.rateLimitMiddleware(DEFAULT_LIMIT), h.currencyRates)
	g.GET("/currency/fiats", h.currencyFiats)
}
