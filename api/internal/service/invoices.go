package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout/api/internal/config"
	"checkout/api/internal/domain"
	"checkout/api/internal/infra/cache"
	"checkout/api/internal/infra/postgres"
	"checkout/api/internal/logger"
	"checkout/api/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoicesService struct {
	repo      repository.Invoices
	events    repository.Events
	locker    Locker
	publisher StatusPublisher
	rates     Rates
	db        *gorm.DB
	validate  *validator.Validate
	l         logger.Logger
	config    *config.Config
	now       func() time.Time
}

func NewInvoicesService(db *gorm.DB, repo repository.Invoices, events repository.Events, locker Locker, publisher StatusPublisher, rates Rates, l logger.Logger, config *config.Config) *InvoicesService {
	return &InvoicesService{
		repo:      repo,
		events:    events,
		locker:    locker,
		publisher: publisher,
		rates:     rates,
		db:        db,
		validate:  validator.New(),
		l:         l,
		config:    config,
		now:       time.Now,
	}
}

type NewPaymentMethod struct {
	MethodID    string
	Address     string
	Amount      decimal.Decimal // zero - converted from the invoice price
	PaymentURL  string          // empty - built from address and amount
	IsLightning bool
	PeerInfo    string
}

type NewInvoice struct {
	Price         decimal.Decimal
	Currency      string
	Lifetime      time.Duration // zero - default lifetime
	Webhook       string
	EmailRequired bool
	Methods       []NewPaymentMethod
}

func (s *InvoicesService) Create(data *NewInvoice) (*domain.Invoices, error) {
	if len(data.Methods) == 0 {
		return nil, domain.ErrInvalidPaymentMethod
	}

	lifetime := data.Lifetime
	if lifetime <= 0 {
		lifetime = s.config.Checkout.InvoiceLifetime
	}

	invoice := &domain.Invoices{
		InvoiceID:     uuid.NewString(),
		Status:        domain.STATUS_NEW,
		Price:         data.Price,
		Currency:      strings.ToUpper(data.Currency),
		ExpiresAt:     s.now().Add(lifetime).UTC(),
		EmailRequired: data.EmailRequired,
		Webhook:       data.Webhook,
	}

	seen := make(map[string]bool, len(data.Methods))
	for _, m := range data.Methods {
		crypto := domain.CryptoForMethod(m.MethodID)
		if crypto.IsNone() || seen[m.MethodID] {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPaymentMethod, m.MethodID)
		}
		seen[m.MethodID] = true

		amount := m.Amount
		if amount.IsZero() {
			conv, err := s.rates.Convert(context.Background(), invoice.Currency, crypto.ToString(), invoice.Price)
			if err != nil {
				return nil, err
			}
			amount = conv.Converted
		}

		paymentURL := m.PaymentURL
		if paymentURL == "" {
			paymentURL = PaymentURL(crypto, m.Address, amount, m.IsLightning)
		}

		invoice.PaymentMethods = append(invoice.PaymentMethods, domain.PaymentMethods{
			InvoiceID:   invoice.InvoiceID,
			MethodID:    m.MethodID,
			Crypto:      crypto.ToString(),
			Amount:      amount,
			Address:     m.Address,
			PaymentURL:  paymentURL,
			IsLightning: m.IsLightning,
			PeerInfo:    m.PeerInfo,
		})
	}
	invoice.DefaultMethodID = invoice.PaymentMethods[0].MethodID

	if err := s.repo.Create(s.db, invoice); err != nil {
		errid := logger.GenErrorId()
		s.l.TemplInvoiceErr("create invoice error: "+err.Error(), errid, invoice.InvoiceID, invoice.Price, invoice.Currency, logger.NA, logger.NA)
		return nil, domain.ErrInternalServerError
	}

	cache.SaveInvoice(invoice.InvoiceID, invoice)
	return invoice, nil
}

// qr payload: <scheme>:<address>?amount=<amount>, lightning:<BOLT11> for
// lightning invoices
func PaymentURL(crypto domain.Crypto, address string, amount decimal.Decimal, isLightning bool) string {
	if isLightning {
		return "lightning:" + strings.ToUpper(address)
	}
	return fmt.Sprintf("%s:%s?amount=%s", crypto.URIScheme(), address, amount.String())
}

func (s *InvoicesService) FindGlobal(tx *gorm.DB, invoiceId string) (*domain.Invoices, error) {
	// validate uuid (to avoid unnecessary database and cache queries)
	if uuid.Validate(invoiceId) != nil {
		return nil, domain.ErrInvalidInvoiceId
	}

	//  try to find in cache
	if invoice := cache.FindInvoice(invoiceId); invoice != nil {
		return invoice, nil
	}

	invoice, err := s.repo.FindByID(tx, invoiceId)
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, domain.ErrInvoiceIdNotFound
		}

		errid := logger.GenErrorId()
		s.l.TemplInvoiceErr("find invoice by id error: "+err.Error(), errid, invoiceId, decimal.Zero, logger.NA, logger.NA, logger.NA)
		return nil, domain.ErrInternalServerError
	}

	cache.SaveInvoice(invoiceId, invoice)
	return invoice, nil
}

// status reported to the page; a new invoice past its expiration is shown
// expired before RunFindEnd stores it
func (s *InvoicesService) displayStatus(invoice *domain.Invoices, now time.Time) domain.Status {
	if invoice.IsExpired(now) {
		return domain.STATUS_EXPIRED
	}
	return invoice.Status
}

func (s *InvoicesService) Snapshot(invoiceId, paymentMethodId string) (*domain.ResponseInvoiceStatus, error) {
	invoice, err := s.FindGlobal(s.db, invoiceId)
	if err != nil {
		return nil, err
	}

	if paymentMethodId == "" {
		paymentMethodId = invoice.DefaultMethodID
	}
	method := invoice.FindMethod(paymentMethodId)
	if method == nil {
		return nil, domain.ErrInvalidPaymentMethod
	}

	now := s.now()
	res := &domain.ResponseInvoiceStatus{
		Status:                  s.displayStatus(invoice, now).ToString(),
		PaymentMethodID:         method.MethodID,
		InvoiceID:               invoice.InvoiceID,
		InvoiceBitcoinUrlQR:     method.PaymentURL,
		IsLightning:             method.IsLightning,
		AvailablePaymentMethods: invoice.MethodIDs(),
		ExpirationSeconds:       invoice.ExpirationSeconds(now),
	}
	if method.IsLightning {
		res.PeerInfo = method.PeerInfo
	}
	return res, nil
}

func (s *InvoicesService) Page(invoiceId string) (*domain.ResponseInvoicePage, error) {
	invoice, err := s.FindGlobal(s.db, invoiceId)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &domain.ResponseInvoicePage{
		InvoiceID:         invoice.InvoiceID,
		Status:            s.displayStatus(invoice, now).ToString(),
		Price:             invoice.Price.String(),
		Currency:          invoice.Currency,
		PaymentMethodID:   invoice.DefaultMethodID,
		PaymentMethods:    invoice.MethodIDs(),
		ExpirationSeconds: invoice.ExpirationSeconds(now),
		EmailRequired:     invoice.EmailRequired && invoice.BuyerEmail == "",
		StatusPath:        "/i/" + invoice.InvoiceID + "/status",
		PushPath:          "/i/status/ws/?invoiceId=" + invoice.InvoiceID,
	}, nil
}

func (s *InvoicesService) UpdateCustomer(invoiceId, email string) error {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return domain.ErrInvalidEmail
	}

	invoice, err := s.FindGlobal(s.db, invoiceId)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEmail(s.db, invoiceId, email); err != nil {
		errid := logger.GenErrorId()
		s.l.TemplInvoiceErr("update customer error: "+err.Error(), errid, invoiceId, invoice.Price, invoice.Currency, logger.NA, logger.NA)
		return domain.ErrInternalServerError
	}

	invoice.BuyerEmail = email
	cache.SaveInvoice(invoiceId, invoice)
	return nil
}

func (s *InvoicesService) SetStatus(ctx context.Context, invoiceId string, status domain.Status) (*domain.Invoices, error) {
	if !s.locker.TryLock(invoiceId) {
		return nil, fmt.Errorf("%w: invoice is busy", domain.ErrStatusTransition)
	}
	defer s.locker.Unlock(invoiceId)

	invoice, err := s.FindGlobal(s.db, invoiceId)
	if err != nil {
		return nil, err
	}

	if !invoice.Status.CanMoveTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrStatusTransition, invoice.Status.ToString(), status.ToString())
	}

	from := invoice.Status
	invoice.Status = status

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatus(tx, invoiceId, from, status)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: status changed concurrently", domain.ErrStatusTransition)
		}

		if invoice.Webhook == "" {
			return nil
		}

		payload, err := json.Marshal(domain.WebhookPayload{InvoiceID: invoiceId, Url: invoice.Webhook, Info: InvoiceInfo(invoice)})
		if err != nil {
			return err
		}
		return s.events.Create(tx, domain.EVENT_WEBHOOK, invoice.ID, domain.NewEventKey(domain.EVENT_WEBHOOK, invoiceId, status.ToString()), string(payload))
	})
	if err != nil {
		// cached copy may be stale
		cache.DelInvoice(invoiceId)
		if errors.Is(err, domain.ErrStatusTransition) {
			return nil, err
		}
		errid := logger.GenErrorId()
		s.l.TemplInvoiceErr("set status error: "+err.Error(), errid, invoiceId, invoice.Price, invoice.Currency, logger.NA, logger.NA)
		return nil, domain.ErrInternalServerError
	}

	cache.SaveInvoice(invoiceId, invoice)
	s.l.TemplInvoiceInfo("status changed", invoiceId, status.ToString(), logger.NA, logger.NA)

	if err := s.publisher.PublishStatus(ctx, invoiceId, status.ToString()); err != nil {
		// pages still see the change on their next poll
		s.l.Error("publish status error: "+err.Error(), logger.LS_NATS, false, "invoice_id", invoiceId, "status", status.ToString())
	}

	return invoice, nil
}

func InvoiceInfo(invoice *domain.Invoices) domain.ResponseInvoiceInfo {
	return domain.ResponseInvoiceInfo{
		Id:         invoice.InvoiceID,
		Price:      invoice.Price.String(),
		Currency:   invoice.Currency,
		Status:     invoice.Status.ToString(),
		IsPaid:     invoice.Status.IsPaid(),
		BuyerEmail: invoice.BuyerEmail,
		CreatedAt:  invoice.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  invoice.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// RunFindEnd expires new invoices past their lifetime until ctx is done.
func (s *InvoicesService) RunFindEnd(ctx context.Context) {
	ticker := time.NewTicker(s.config.Checkout.FindEndInterval)
	defer ticker.Stop()

	for {
		s.expireEnded(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *InvoicesService) expireEnded(ctx context.Context) {
	invoices, err := s.repo.FindExpired(s.db, s.now(), 100)
	if err != nil {
		s.l.Error("find expired invoices error: "+err.Error(), logger.LS_INVOICES, false)
		return
	}

	for _, i := range invoices {
		if _, err := s.SetStatus(ctx, i.InvoiceID, domain.STATUS_EXPIRED); err != nil {
			s.l.Debug("expire invoice", "invoice_id", i.InvoiceID, "error", err.Error())
		}
	}
}
