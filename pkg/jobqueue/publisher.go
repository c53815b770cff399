package jobqueue

import (
	"context"
	"fmt"

	"github.com/nyxlabs/recall/pkg/notify"
	"github.com/nyxlabs/recall/pkg/streams"
)

// NotifyPublisher satisfies Publisher by converting a NotificationEnvelope
// into a notify.Envelope and XADDing it onto the shared notify stream —
// the "fixed stream/marshal step" consumer.go's Publisher doc refers to.
type NotifyPublisher struct {
	broker *streams.Broker
}

// NewNotifyPublisher wraps an existing stream broker.
func NewNotifyPublisher(broker *streams.Broker) *NotifyPublisher {
	return &NotifyPublisher{broker: broker}
}

func (p *NotifyPublisher) Publish(ctx context.Context, envelope NotificationEnvelope) error {
	e := notify.Envelope{
		Type:   notify.Type(envelope.Type),
		UserID: envelope.UserID,
		Fields: envelope.Fields,
	}
	values, err := e.ToValues()
	if err != nil {
		return fmt.Errorf("rendering notification envelope: %w", err)
	}
	if _, err := p.broker.Publish(ctx, notify.Stream, values); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}
