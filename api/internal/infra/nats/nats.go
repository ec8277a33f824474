package nats

import (
	"context"
	"fmt"
	"os"
	"time"

	"checkout/api/internal/config"
	"checkout/api/internal/logger"
	"checkout/pkg/nats/natsdomain"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type NatsInfra struct {
	*natsdomain.Ns
}

func Init(config *config.Config, log logger.Logger) *NatsInfra {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nc, err := nats.Connect(config.Nats.Servers,
		nats.MaxReconnects(100),
		nats.ReconnectWait(3*time.Second),
		nats.DisconnectHandler(func(nc *nats.Conn) {
			log.TemplNatsInfo("disconnected", nc.ConnectedUrl())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.TemplNatsInfo("reconnected", nc.ConnectedUrl())
		}))
	if err != nil {
		log.TemplNatsError("Connect failed", config.Nats.Servers, err)
		os.Exit(1)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		panic(err)
	}

	ns := &natsdomain.Ns{Nc: nc, Js: js}
	if err := ns.InitStreams(ctx); err != nil {
		panic("NATS: init streams: " + err.Error())
	}

	fmt.Println("nats: Connected to", nc.ConnectedAddr())
	return &NatsInfra{ns}
}
