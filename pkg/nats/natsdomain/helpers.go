package natsdomain

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

func (ns *Ns) JsPublish(ctx context.Context, subj string, jsonMsg []byte) error {
	return ns.jsPublishOpts(ctx, subj, jsonMsg)
}

// jetstream publish with msgId
func (ns *Ns) JsPublishMsgId(ctx context.Context, subj string, jsonMsg []byte, msgId string) error {
	return ns.jsPublishOpts(ctx, subj, jsonMsg, jetstream.WithMsgID(msgId))
}

func (ns *Ns) jsPublishOpts(ctx context.Context, subj string, jsonMsg []byte, opts ...jetstream.PublishOpt) error {
	_, err := ns.Js.Publish(ctx, subj, jsonMsg, opts...)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subj, err)
	}
	return nil
}

func (ns *Ns) InitStreams(ctx context.Context) error {
	for i := range Streams {
		stream := StreamType(i)
		_, err := ns.Js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     stream.String(),
			Subjects: []string{SubjJsType(i).All()},
		})
		if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("stream %s: %w", stream, err)
		}
	}
	return nil
}

// for nats jetstream
func NewMsgId(invoiceId string, action ActionType, value string) string {
	return invoiceId + "_" + string(action) + "_" + value
}
