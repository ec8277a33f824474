// PUBLIC INVOICE ROUTES

package v1

import (
	"fmt"
	"net/http"
	"strings"

	"checkout/api/internal/domain"
	"checkout/api/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// the page may repeat the invoice id in the query, it has to match the path
func invoiceIdFromRequest(c *gin.Context) (string, bool) {
	invoiceId := c.Param("invoice_id")
	if invoiceId == "" {
		invoiceId = c.Query("invoiceId")
	}
	if invoiceId == "" {
		responseErr(c, http.StatusBadRequest, fmt.Sprintf(domain.ErrMsgParamsBadRequest, domain.ErrParamEmptyInvoiceId), "")
		return "", false
	}

	if q := c.Query("invoiceId"); q != "" && q != invoiceId {
		responseErr(c, http.StatusBadRequest, fmt.Sprintf(domain.ErrMsgParamsBadRequest, domain.ErrParamInvoiceIdMismatched), "")
		return "", false
	}
	return invoiceId, true
}

func (h *Handler) errByService(c *gin.Context, err error, invoiceId, message string) {
	status := domain.GetStatusByErr(err)
	if status != http.StatusInternalServerError {
		responseErr(c, status, err.Error(), "")
		return
	}

	errid := h.log.TemplInvoiceErr(message+err.Error(), logger.GenErrorId(), invoiceId, decimal.Zero, logger.NA, c.Request.RequestURI, c.ClientIP())
	responseErr(c, status, domain.ErrMsgInternalServerError, errid)
}

// GET /i/:invoice_id
func (h *Handler) page(c *gin.Context) {
	invoiceId, ok := invoiceIdFromRequest(c)
	if !ok {
		return
	}

	page, err := h.services.Invoices.Page(invoiceId)
	if err != nil {
		h.errByService(c, err, invoiceId, "page error: ")
		return
	}

	c.JSON(http.StatusOK, page)
}

// GET /i/:invoice_id/status?invoiceId=&paymentMethodId=
func (h *Handler) status(c *gin.Context) {
	invoiceId, ok := invoiceIdFromRequest(c)
	if !ok {
		return
	}

	snapshot, err := h.services.Invoices.Snapshot(invoiceId, c.Query("paymentMethodId"))
	if err != nil {
		h.errByService(c, err, invoiceId, "status error: ")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// POST /i/:invoice_id/UpdateCustomer?invoiceId=
func (h *Handler) updateCustomer(c *gin.Context) {
	var data struct {
		Email string `json:"Email"`
	}

	invoiceId, ok := invoiceIdFromRequest(c)
	if !ok {
		return
	}

	if err := c.ShouldBindJSON(&data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return
	}

	if err := h.services.Invoices.UpdateCustomer(invoiceId, data.Email); err != nil {
		h.errByService(c, err, invoiceId, "update customer error: ")
		return
	}

	c.JSON(http.StatusOK, responseOK{Error: false})
}

// GET /i/status/ws/?invoiceId=
func (h *Handler) statusPush(c *gin.Context) {
	invoiceId, ok := invoiceIdFromRequest(c)
	if !ok {
		return
	}

	// unknown invoices are refused before the upgrade
	if _, err := h.services.Invoices.FindGlobal(h.db, invoiceId); err != nil {
		h.errByService(c, err, invoiceId, "push subscribe error: ")
		return
	}

	if err := h.services.StatusHub.Serve(c.Writer, c.Request, invoiceId); err != nil {
		h.log.TemplPushErr("push upgrade error", invoiceId, c.ClientIP(), err)
	}
}

// GET /v1/invoice/qr-code/:invoice_id?paymentMethodId=
func (h *Handler) qrCode(c *gin.Context) {
	invoiceId, ok := invoiceIdFromRequest(c)
	if !ok {
		return
	}

	snapshot, err := h.services.Invoices.Snapshot(invoiceId, c.Query("paymentMethodId"))
	if err != nil {
		h.errByService(c, err, invoiceId, "qr code snapshot error: ")
		return
	}

	// lightning invoices are scanned upper case, it keeps the code in alphanumeric mode
	content := snapshot.InvoiceBitcoinUrlQR
	if snapshot.IsLightning {
		content = strings.ToUpper(content)
	}

	qrCode, err := h.services.QrCodes.FindOrNew(content)
	if err != nil {
		errid := h.log.TemplInvoiceErr("qr code find or new error: "+err.Error(), logger.GenErrorId(), invoiceId, decimal.Zero, logger.NA, c.Request.RequestURI, c.ClientIP())
		responseErr(c, http.StatusInternalServerError, domain.ErrMsgInternalServerError, errid)
		return
	}

	c.Data(http.StatusOK, "image/png", qrCode)
}

func (h *Handler) InitPageRoutes(g *gin.RouterGroup) {
	g.GET("/status/ws/", h.statusPush)
	g.GET("/:invoice_id", noStore(), h.page)
	g.GET("/:invoice_id/status", noStore(), h.rateLimitMiddleware(DEFAULT_LIMIT), h.status)
	g.POST("/:invoice_id/UpdateCustomer", h.rateLimitMiddleware(10), h.updateCustomer)
}

func (h *Handler) initPubInvoiceRoutes(g *gin.RouterGroup) {
	g.GET("/invoice/qr-code/:invoice_id", h.qrCode)
}
