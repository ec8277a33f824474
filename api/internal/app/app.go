package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"checkout/api/internal/config"
	"checkout/api/internal/delivery"
	"checkout/api/internal/infra/nats"
	"checkout/api/internal/logger"
	"checkout/api/internal/service"

	"github.com/gin-gonic/gin"
	cors "github.com/rs/cors/wrapper/gin"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Db        *gorm.DB
	NatsInfra *nats.NatsInfra
	Log       logger.Logger
}

func (app *App) Start() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.Config.Prod_env {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	// checkout pages are embedded on merchant sites
	r.Use(cors.Default())

	services := service.HewServices(app.NatsInfra, app.Db, app.Log, app.Config)

	if err := app.Autostart(ctx, services); err != nil {
		app.Log.TemplNatsError("autostart failed", app.Config.Nats.Servers, err)
		return
	}

	{
		h := delivery.InitHandler(services, app.Db, app.Config, app.Log)

		h.InitAPI(r)
	}

	srv := &http.Server{
		Addr:              app.Config.Api.Ipv4,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eChan := make(chan error, 1)

	app.Log.Info("checkout web is starting", logger.LS_INVOICES, false, "addr", app.Config.Api.Ipv4)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			eChan <- err
		}
	}()

	select {
	case err := <-eChan:
		app.Log.TemplHTTPError("app fatal error", app.Config.Api.Ipv4, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		app.NatsInfra.Nc.Drain()
	}
}

// start autostart services
func (app *App) Autostart(ctx context.Context, services *service.Services) error {
	app.Log.Debug("Autostart: run find end invoices")
	go services.Invoices.RunFindEnd(ctx)

	app.Log.Debug("Autostart: start process events")
	go services.OutboxEvents.StartProcessEvents(ctx)

	app.Log.Debug("Autostart: subscribe to status changes")
	_, err := app.NatsInfra.SubscribeStatus(services.StatusHub.Broadcast)
	return err
}
