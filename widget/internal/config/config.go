package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// invoice page, e.g. https://pay.example.com/i/<invoice>/
	PageURL         string        `envconfig:"PAGE_URL" required:"true"`
	InvoiceID       string        `envconfig:"INVOICE_ID"`
	PaymentMethodID string        `envconfig:"PAYMENT_METHOD_ID"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	Push            bool          `envconfig:"PUSH" default:"true"`

	// embedding host endpoint for status change messages, empty disables them
	NotifyURL string `envconfig:"NOTIFY_URL"`

	// exchange widget backend, empty disables the rates line
	ExchangeURL string   `envconfig:"EXCHANGE_URL"`
	Fiats       []string `envconfig:"FIATS" default:"USD,EUR"`

	LogFile string `envconfig:"LOG_FILE" default:"widget.log"`
	Debug   bool   `envconfig:"DEBUG"`
}

// Read loads the widget configuration from WIDGET_* environment variables.
func Read() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("widget", &cfg); err != nil {
		return nil, err
	}
	if cfg.PageURL == "" {
		return nil, errors.New("page url is empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	return &cfg, nil
}
