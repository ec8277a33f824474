package natsdomain

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// nats struct
type Ns struct {
	Nc *nats.Conn
	Js jetstream.JetStream
}

// published when an invoice changes status
type StatusChanged struct {
	InvoiceID string    `json:"invoiceId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
