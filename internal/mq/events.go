package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/motorpool/apiserver/types"
)

const attrEventType = "event_type"

// AccountEvents publishes and consumes account events as JSON on one channel.
type AccountEvents struct {
	mq      *MQ
	channel string
}

func NewAccountEvents(mq *MQ, channel string) *AccountEvents {
	return &AccountEvents{mq: mq, channel: channel}
}

func (e *AccountEvents) PublishAccountEvent(ctx context.Context, event types.AccountEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := e.mq.Publish(ctx, e.channel, data, map[string]string{attrEventType: event.Type}); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, e.channel, err)
	}
	return nil
}

// Consume decodes every account event on the channel and passes it to fn.
// Undecodable messages are acknowledged and dropped.
func (e *AccountEvents) Consume(ctx context.Context, fn func(context.Context, types.AccountEvent) error) error {
	return e.mq.Subscribe(ctx, e.channel, func(ctx context.Context, msg Message) error {
		var event types.AccountEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}
