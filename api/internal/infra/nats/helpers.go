package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout/pkg/nats/natsdomain"
	"checkout/pkg/utils"

	"github.com/nats-io/nats.go"
)

// PublishStatus announces a status change. The msg id makes a repeated
// publish of the same change a no-op for the stream.
func (n *NatsInfra) PublishStatus(ctx context.Context, invoiceId, status string) error {
	data, err := json.Marshal(natsdomain.StatusChanged{InvoiceID: invoiceId, Status: status, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}

	return n.JsPublishMsgId(ctx, natsdomain.SubjJsStatus.For(invoiceId), data, natsdomain.NewMsgId(invoiceId, natsdomain.MsgActionStatus, status))
}

// SubscribeStatus delivers status changes of every invoice to handler.
func (n *NatsInfra) SubscribeStatus(handler func(*natsdomain.StatusChanged)) (*nats.Subscription, error) {
	return n.Nc.Subscribe(natsdomain.SubjJsStatus.All(), func(msg *nats.Msg) {
		event, err := ParseStatusChanged(msg.Data)
		if err != nil {
			return
		}
		handler(event)
	})
}

func ParseStatusChanged(data []byte) (*natsdomain.StatusChanged, error) {
	event, err := utils.Unmarshal[natsdomain.StatusChanged](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal status event: %w", err)
	}
	if event.InvoiceID == "" || event.Status == "" {
		return nil, fmt.Errorf("incomplete status event: %s", string(data))
	}
	return event, nil
}
