package service

import (
	"context"
	"net/http"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"
	"checkout/api/internal/infra/cache"
	"checkout/api/internal/logger"
	"checkout/api/internal/repository"
	"checkout/pkg/nats/natsdomain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoices interface {
	Create(data *NewInvoice) (*domain.Invoices, error)
	// Tries to find from cache, if not found, searches the database
	FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error)
	// status snapshot for the checkout page
	Snapshot(invoiceId, paymentMethodId string) (*domain.ResponseInvoiceStatus, error)
	Page(invoiceId string) (*domain.ResponseInvoicePage, error)
	UpdateCustomer(invoiceId, email string) error
	// moves the invoice to status, stores a webhook event and announces the change
	SetStatus(ctx context.Context, invoiceId string, status domain.Status) (*domain.Invoices, error)

	// for autostart only
	RunFindEnd(ctx context.Context)
}

type StatusHub interface {
	// upgrades the request and streams status changes of invoiceId until the peer leaves
	Serve(w http.ResponseWriter, r *http.Request, invoiceId string) error
	Broadcast(event *natsdomain.StatusChanged)
	Subscribers(invoiceId string) int
}

// *nats.NatsInfra
type StatusPublisher interface {
	PublishStatus(ctx context.Context, invoiceId, status string) error
}

type QrCodes interface {
	// generates png qr code and saves it to cache
	New(content string) ([]byte, error)
	// returns qr code from cache or generates new one
	FindOrNew(content string) ([]byte, error)
}

type Rates interface {
	Get(ctx context.Context, fiat string) (*FiatRates, error)
	Convert(ctx context.Context, fiat, crypto string, amount decimal.Decimal) (*Conversion, error)
	Fiats() []string
}

type Locker interface {
	// false if key is already locked
	TryLock(key string) bool
	Unlock(key string)
	IsLocked(key string) bool
}

type OutboxEvents interface {
	StartProcessEvents(ctx context.Context)
	ProcessEvents(ctx context.Context) (int, error)
}

type WebhookSender interface {
	Send(url string, info domain.ResponseInvoiceInfo) error
	UpdateList(proxies []string)
	GetList() []string
}

type Services struct {
	OutboxEvents  OutboxEvents
	Invoices      Invoices
	StatusHub     StatusHub
	QrCodes       QrCodes
	Rates         Rates
	WebhookSender WebhookSender
}

func HewServices(publisher StatusPublisher, db *gorm.DB, l logger.Logger, config *config.Config) *Services {
	repos := repository.New()

	rates := NewRatesService(cache.InitStorage(), nil, l, config)
	webhookSender := NewWebhookSenderService(config.ProxyList, l)
	lockerService := NewLockerService(cache.InitStorage())

	invoiceService := NewInvoicesService(db, repos.Invoices, repos.Events, lockerService, publisher, rates, l, config)

	return &Services{
		WebhookSender: webhookSender,
		OutboxEvents:  NewOutboxEventsService(db, l, repos.Events, webhookSender),
		Invoices:      invoiceService,
		StatusHub:     NewStatusHubService(l),
		QrCodes:       NewQrCodesService(),
		Rates:         rates,
	}
}
