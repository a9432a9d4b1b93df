package events

import (
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/jaxon/pkg/commsutil"
)

const subscriberLogPrefix = "events:subscriber"

// DecodeMessage decodes msg according to its event type header. The event is
// a *DispatchedEvent or an *UploadedEvent.
func DecodeMessage(msg *comms.Msg) (string, interface{}, error) {
	eventType := msg.Header.Get(commsutil.HeaderEventType)
	var event interface{}
	switch eventType {
	case TypeDispatched:
		event = &DispatchedEvent{}
	case TypeUploaded:
		event = &UploadedEvent{}
	default:
		return eventType, nil, fmt.Errorf("%s - unknown event type %q on %s", subscriberLogPrefix, eventType, msg.Subject)
	}
	if err := commsutil.DecodePayload(msg.Data, event); err != nil {
		return eventType, nil, fmt.Errorf("%s - failed to decode %s: %w", subscriberLogPrefix, eventType, err)
	}
	return eventType, event, nil
}

// Subscribe delivers the events published on subject to handle. Messages
// that cannot be decoded are logged and dropped.
func Subscribe(nc *comms.Conn, subject string, handle func(eventType string, event interface{})) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		eventType, event, err := DecodeMessage(msg)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - %v", subscriberLogPrefix, err))
			return
		}
		handle(eventType, event)
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", subscriberLogPrefix, subject, err)
	}
	return sub, nil
}
