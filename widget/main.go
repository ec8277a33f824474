package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"checkout/pkg/dlog"
	"checkout/widget/internal/checkout"
	"checkout/widget/internal/config"
	"checkout/widget/internal/exchange"
	"checkout/widget/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional for the widget
	_ = godotenv.Load(os.Getenv("ENVPATH"))

	cfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	logOut, err := dlog.Open(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logOut.Close()

	log := dlog.Init(logOut, cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	client, err := checkout.NewClient(cfg.PageURL, httpClient)
	if err != nil {
		return err
	}

	page, err := client.FetchPage(ctx)
	if err != nil {
		return fmt.Errorf("load invoice page: %w", err)
	}

	invoiceID := cfg.InvoiceID
	if invoiceID == "" {
		invoiceID = page.InvoiceID
	}
	methodID := cfg.PaymentMethodID
	if methodID == "" {
		methodID = page.PaymentMethodID
	}

	bridge := &tui.Bridge{}

	httpNotifier, err := checkout.NewHTTPNotifier(cfg.NotifyURL, httpClient)
	if err != nil {
		return err
	}
	notifiers := []checkout.Notifier{bridge, httpNotifier}

	presenterOpts := []checkout.PresenterOption{checkout.WithSelectedPaymentMethod(methodID)}
	if page.EmailRequired {
		presenterOpts = append(presenterOpts, checkout.WithEmailForm())
	}

	presenter := checkout.NewPresenter(bridge, checkout.MultiNotifier(notifiers...), log.Logger, presenterOpts...)
	poller := checkout.NewPoller(client, log.Logger, checkout.WithInterval(cfg.PollInterval))
	controller := checkout.NewController(checkout.ControllerConfig{
		InvoiceID:       invoiceID,
		PaymentMethodID: methodID,
		Push:            cfg.Push,
	}, presenter, poller, client, log.Logger)

	var ex *exchange.Widget
	if cfg.ExchangeURL != "" {
		exClient, err := exchange.NewClient(cfg.ExchangeURL, httpClient)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(page.Price)
		if err != nil {
			log.Log("invoice price is not a number, exchange disabled", "price", page.Price)
		} else {
			ex = exchange.NewWidget(exClient, page.Currency, price, cfg.Fiats)
		}
	}

	p := tea.NewProgram(tui.New(ctx, invoiceID, controller, ex), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	go func() {
		if err := controller.Run(ctx); err != nil {
			log.Error("status loop stopped", "invoice_id", invoiceID, "error", err.Error())
			p.Quit()
		}
	}()

	_, err = p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	controller.Stop()

	if err != nil && !interrupted {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
