package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"
	"checkout/api/internal/logger"
	"checkout/api/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeInvoices struct {
	id      string
	email   string
	created *service.NewInvoice
	status  domain.Status
}

func (f *fakeInvoices) Create(data *service.NewInvoice) (*domain.Invoices, error) {
	f.created = data
	invoice := &domain.Invoices{InvoiceID: f.id, Price: data.Price, Currency: data.Currency}
	for _, m := range data.Methods {
		invoice.PaymentMethods = append(invoice.PaymentMethods, domain.PaymentMethods{MethodID: m.MethodID, Address: m.Address})
	}
	return invoice, nil
}

func (f *fakeInvoices) FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	if invoiceId != f.id {
		return nil, domain.ErrInvoiceIdNotFound
	}
	return &domain.Invoices{InvoiceID: f.id}, nil
}

func (f *fakeInvoices) Snapshot(invoiceId, paymentMethodId string) (*domain.ResponseInvoiceStatus, error) {
	if invoiceId != f.id {
		return nil, domain.ErrInvoiceIdNotFound
	}
	if paymentMethodId == "" {
		paymentMethodId = "btc"
	}
	if paymentMethodId != "btc" {
		return nil, domain.ErrInvalidPaymentMethod
	}
	return &domain.ResponseInvoiceStatus{Status: "new", InvoiceID: f.id, PaymentMethodID: "btc", InvoiceBitcoinUrlQR: "bitcoin:addr?amount=1", ExpirationSeconds: 60}, nil
}

func (f *fakeInvoices) Page(invoiceId string) (*domain.ResponseInvoicePage, error) {
	if invoiceId != f.id {
		return nil, domain.ErrInvoiceIdNotFound
	}
	return &domain.ResponseInvoicePage{InvoiceID: f.id, Status: "new", PaymentMethodID: "btc"}, nil
}

func (f *fakeInvoices) UpdateCustomer(invoiceId, email string) error {
	if !strings.Contains(email, "@") {
		return domain.ErrInvalidEmail
	}
	f.email = email
	return nil
}

func (f *fakeInvoices) SetStatus(ctx context.Context, invoiceId string, status domain.Status) (*domain.Invoices, error) {
	if f.status.IsFinal() {
		return nil, domain.ErrStatusTransition
	}
	f.status = status
	return &domain.Invoices{InvoiceID: invoiceId, Status: status}, nil
}

func (f *fakeInvoices) RunFindEnd(ctx context.Context) {}

type fakeQr struct{}

func (fakeQr) New(content string) ([]byte, error)       { return []byte("png:" + content), nil }
func (fakeQr) FindOrNew(content string) ([]byte, error) { return []byte("png:" + content), nil }

type fakeRates struct{}

func (fakeRates) Get(ctx context.Context, fiat string) (*service.FiatRates, error) {
	if fiat != "USD" {
		return nil, domain.ErrInvalidFiat
	}
	return &service.FiatRates{Fiat: "usd", Rates: map[string]decimal.Decimal{"btc": decimal.NewFromInt(60000)}}, nil
}

func (fakeRates) Convert(ctx context.Context, fiat, crypto string, amount decimal.Decimal) (*service.Conversion, error) {
	return &service.Conversion{Fiat: fiat, Cryptocurrency: crypto, Amount: amount, Rate: decimal.NewFromInt(60000), Converted: amount.Div(decimal.NewFromInt(60000))}, nil
}

func (fakeRates) Fiats() []string { return []string{"USD"} }

func newTestRouter(t *testing.T) (*gin.Engine, *fakeInvoices) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	invoices := &fakeInvoices{id: gofakeit.UUID()}
	services := &service.Services{
		Invoices:  invoices,
		QrCodes:   fakeQr{},
		Rates:     fakeRates{},
		StatusHub: service.NewStatusHubService(logger.New(io.Discard)),
	}

	cfg := &config.Config{PrivateKey: "secret"}
	cfg.Checkout.PublicURL = "https://pay.example.com/"

	h := NewHandler(services, nil, cfg, logger.New(io.Discard))
	r := gin.New()
	h.InitPageRoutes(r.Group("/i"))
	h.InitRoutes(r.Group("/v1"))
	return r, invoices
}

func do(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStatusRoute(t *testing.T) {
	r, invoices := newTestRouter(t)

	rec := do(r, http.MethodGet, "/i/"+invoices.id+"/status?invoiceId="+invoices.id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("status response may be cached")
	}

	var snapshot domain.ResponseInvoiceStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Status != "new" || snapshot.ExpirationSeconds != 60 {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/i/" + invoices.id + "/status?invoiceId=" + gofakeit.UUID(), http.StatusBadRequest},
		{"/i/" + gofakeit.UUID() + "/status", http.StatusNotFound},
		{"/i/" + invoices.id + "/status?paymentMethodId=doge", http.StatusBadRequest},
		{"/i/" + invoices.id, http.StatusOK},
		{"/v1/invoice/qr-code/" + invoices.id, http.StatusOK},
	}
	for _, tt := range tests {
		if rec := do(r, http.MethodGet, tt.path, nil); rec.Code != tt.code {
			t.Fatalf("%s: code = %d, want %d, body = %s", tt.path, rec.Code, tt.code, rec.Body)
		}
	}
}

func TestUpdateCustomerRoute(t *testing.T) {
	r, invoices := newTestRouter(t)
	path := "/i/" + invoices.id + "/UpdateCustomer?invoiceId=" + invoices.id

	if rec := do(r, http.MethodPost, path, map[string]string{"Email": "nope"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: code = %d", rec.Code)
	}

	email := gofakeit.Email()
	if rec := do(r, http.MethodPost, path, map[string]string{"Email": email}); rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	if invoices.email != email {
		t.Fatalf("email = %q", invoices.email)
	}
}

func TestPushRouteUnknownInvoice(t *testing.T) {
	r, _ := newTestRouter(t)
	if rec := do(r, http.MethodGet, "/i/status/ws/?invoiceId="+gofakeit.UUID(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/i/status/ws/", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestPrivateRoutes(t *testing.T) {
	r, invoices := newTestRouter(t)

	body := map[string]any{
		"price":    "100.5",
		"currency": "usd",
		"lifetime": 30,
		"webhook":  "https://shop.example.com/ipn",
		"methods":  []map[string]any{{"method_id": "BTC", "address": gofakeit.BitcoinAddress()}},
	}

	if rec := do(r, http.MethodPost, "/v1/invoice/create", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no access header: code = %d", rec.Code)
	}

	rec := do(r, http.MethodPost, "/v1/invoice/create", body, "Access", "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	var created responseInvoiceCreated
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Invoice.PageURL != "https://pay.example.com/i/"+invoices.id+"/" {
		t.Fatalf("page url = %s", created.Invoice.PageURL)
	}
	if invoices.created.Methods[0].MethodID != "btc" || invoices.created.Lifetime.Minutes() != 30 {
		t.Fatalf("new invoice = %+v", invoices.created)
	}

	body["methods"] = []map[string]any{}
	rec = do(r, http.MethodPost, "/v1/invoice/create", body, "Access", "secret")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "methods") {
		t.Fatalf("empty methods: code = %d, body = %s", rec.Code, rec.Body)
	}

	status := map[string]string{"invoice_id": invoices.id, "status": "paid"}
	if rec := do(r, http.MethodPost, "/v1/invoice/status", status, "Access", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	status["status"] = "complete"
	do(r, http.MethodPost, "/v1/invoice/status", status, "Access", "secret")
	if rec := do(r, http.MethodPost, "/v1/invoice/status", status, "Access", "secret"); rec.Code != http.StatusConflict {
		t.Fatalf("final invoice: code = %d", rec.Code)
	}

	status["status"] = "lost"
	if rec := do(r, http.MethodPost, "/v1/invoice/status", status, "Access", "secret"); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: code = %d", rec.Code)
	}
}

func TestCurrencyRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/v1/currency/rates", map[string]string{"fiat": "usd"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	var rates responseRatesOK
	if err := json.Unmarshal(rec.Body.Bytes(), &rates); err != nil {
		t.Fatal(err)
	}
	if !rates.Rates["btc"].Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("rates = %v", rates.Rates)
	}

	if rec := do(r, http.MethodPost, "/v1/currency/rates", map[string]string{"fiat": "xxx"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported fiat: code = %d", rec.Code)
	}

	rec = do(r, http.MethodPost, "/v1/currency/convert", map[string]any{"fiat": "usd", "cryptocurrency": "btc", "amount": "120"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", rec.Code, rec.Body)
	}
	var conv responseConverterOK
	json.Unmarshal(rec.Body.Bytes(), &conv)
	if !conv.Converted.Equal(decimal.RequireFromString("0.002")) {
		t.Fatalf("converted = %s", conv.Converted)
	}

	if rec := do(r, http.MethodPost, "/v1/currency/convert", map[string]any{"fiat": "usd", "cryptocurrency": "btc", "amount": "-1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative amount: code = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	key := gofakeit.IPv4Address()
	for i := 0; i < 3; i++ {
		if invoiceRateLimit(key, 3) {
			t.Fatalf("limited at request %d", i+1)
		}
	}
	if !invoiceRateLimit(key, 3) {
		t.Fatal("fourth request not limited")
	}
}
