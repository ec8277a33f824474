// PRIVATE INVOICE ROUTES

package v1

import (
	"net/http"
	"strings"
	"time"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"
	"checkout/api/internal/logger"
	"checkout/api/internal/service"

	"github.com/gin-gonic/gin"
)

// POST /v1/invoice/create
func (h *Handler) invoiceCreate(c *gin.Context) {
	var data NewInvoiceData
	if !bindAndValidate(c, &data) {
		return
	}

	newInvoice := &service.NewInvoice{
		Price:         data.Price,
		Currency:      data.Currency,
		Lifetime:      time.Duration(data.Lifetime) * time.Minute,
		Webhook:       data.Webhook,
		EmailRequired: data.EmailRequired,
	}
	for _, m := range data.Methods {
		newInvoice.Methods = append(newInvoice.Methods, service.NewPaymentMethod{
			MethodID:    strings.ToLower(m.MethodID),
			Address:     m.Address,
			Amount:      m.Amount,
			PaymentURL:  m.PaymentURL,
			IsLightning: m.IsLightning,
			PeerInfo:    m.PeerInfo,
		})
	}

	invoice, err := h.services.Invoices.Create(newInvoice)
	if err != nil {
		h.errByService(c, err, logger.NA, "invoice create error: ")
		return
	}

	publicURL := strings.TrimSuffix(h.config.Checkout.PublicURL, "/")
	res := responseInvoiceCreated{
		Invoice: responseInvoiceCreatedInfo{
			Id:        invoice.InvoiceID,
			PageURL:   publicURL + "/i/" + invoice.InvoiceID + "/",
			ExpiresAt: invoice.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}
	for _, m := range invoice.PaymentMethods {
		res.Invoice.Methods = append(res.Invoice.Methods, responseInvoiceCreatedMethod{
			MethodID:    m.MethodID,
			Amount:      m.Amount,
			Address:     m.Address,
			PaymentURL:  m.PaymentURL,
			QrCode:      publicURL + "/v1/invoice/qr-code/" + invoice.InvoiceID + "?paymentMethodId=" + m.MethodID,
			IsLightning: m.IsLightning,
		})
	}

	c.JSON(http.StatusOK, res)
	h.log.TemplInvoiceInfo("new invoice created", invoice.InvoiceID, invoice.Status.ToString(), c.Request.RequestURI, c.ClientIP())
}

// POST /v1/invoice/status
// called by the payment processor when it observes a payment or a failure
func (h *Handler) invoiceSetStatus(c *gin.Context) {
	var data SetStatusData
	if !bindAndValidate(c, &data) {
		return
	}

	status, _ := domain.StrToStatus(data.Status)

	invoice, err := h.services.Invoices.SetStatus(c.Request.Context(), data.InvoiceId, status)
	if err != nil {
		h.errByService(c, err, data.InvoiceId, "set status error: ")
		return
	}

	c.JSON(http.StatusOK, responseInvoiceStatusSet{Info: service.InvoiceInfo(invoice)})
}

func (h *Handler) updateProxyList(c *gin.Context) {
	proxies, err := config.GetProxyList(h.config.ProxyPath)
	if err != nil {
		errid := logger.GenErrorId()
		h.log.Error("read proxy list error: "+err.Error(), logger.LS_WEBHOOKS, false, "path", h.config.ProxyPath, "error_id", errid)
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		return
	}

	h.services.WebhookSender.UpdateList(proxies)
	c.JSON(http.StatusOK, responseProxyList{Proxies: h.services.WebhookSender.GetList()})
}

func (h *Handler) getProxyList(c *gin.Context) {
	c.JSON(http.StatusOK, responseProxyList{Proxies: h.services.WebhookSender.GetList()})
}

func (h *Handler) initPrivInvoiceRoutes(g *gin.RouterGroup) {
	g.POST("/invoice/create", h.adminAccessMiddleware(), h.invoiceCreate)
	g.POST("/invoice/status", h.adminAccessMiddleware(), h.invoiceSetStatus)
	g.POST("/webhook/updateProxyList", h.adminAccessMiddleware(), h.updateProxyList)
	g.POST("/webhook/getProxyList", h.adminAccessMiddleware(), h.getProxyList)
}
