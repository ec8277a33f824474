package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidEmail = errors.New("invalid e-mail address")

// CustomerUpdater stores the purchaser e-mail. *Client implements it.
type CustomerUpdater interface {
	UpdateCustomer(ctx context.Context, invoiceID, email string) error
}

// Controller owns the checkout session: one presenter, one poller and the
// customer endpoint. All user actions go through it.
type Controller struct {
	invoiceID string
	methodID  string
	push      bool

	presenter *Presenter
	poller    *Poller
	customers CustomerUpdater
	validate  *validator.Validate
	log       *slog.Logger
}

type ControllerConfig struct {
	InvoiceID       string
	PaymentMethodID string
	Push            bool
}

func NewController(cfg ControllerConfig, presenter *Presenter, poller *Poller, customers CustomerUpdater, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		invoiceID: cfg.InvoiceID,
		methodID:  cfg.PaymentMethodID,
		push:      cfg.Push,
		presenter: presenter,
		poller:    poller,
		customers: customers,
		validate:  validator.New(),
		log:       log,
	}
}

// Run starts the status loop and blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	err := c.poller.Start(ctx, c.invoiceID, c.methodID, func(s *Snapshot) {
		c.presenter.Apply(ctx, s)
	})
	if err != nil {
		return fmt.Errorf("start poller: %w", err)
	}
	defer c.poller.Stop()

	if c.push {
		if err := c.poller.TryUpgradeToPush(ctx, c.invoiceID); err != nil {
			c.log.Debug("push upgrade skipped", "invoice_id", c.invoiceID, "error", err.Error())
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.presenter.Tick(now)
		}
	}
}

func (c *Controller) SelectPaymentMethod(id string) error {
	if err := c.presenter.SelectPaymentMethod(id); err != nil {
		return err
	}
	c.poller.SetPaymentMethod(id)
	c.poller.Refresh()
	return nil
}

func (c *Controller) ToggleLightningMode() bool {
	return c.presenter.ToggleLightningMode()
}

// SubmitEmail sends the purchaser e-mail. On failure only the spinner is
// removed and the form stays open for another attempt.
func (c *Controller) SubmitEmail(ctx context.Context, email string) error {
	if err := c.validate.Var(email, "required,email,max=254"); err != nil {
		return ErrInvalidEmail
	}

	c.presenter.BeginEmailSubmit()
	err := c.customers.UpdateCustomer(ctx, c.invoiceID, email)
	c.presenter.EndEmailSubmit(err == nil)
	if err != nil {
		c.log.Debug("update customer failed", "invoice_id", c.invoiceID, "error", err.Error())
	}
	return err
}

func (c *Controller) State() State {
	return c.presenter.State()
}

func (c *Controller) Stop() {
	c.poller.Stop()
}
