package commsutil

import (
	"encoding/json"
	"fmt"

	comms "github.com/nats-io/nats.go"
)

// Message headers.
const (
	HeaderContentType = "Content-Type"
	HeaderEventType   = "Jaxon-Event"
	ContentTypeJSON   = "application/json"
)

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes a JSON message body into v.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("commsutil:codec - empty payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("commsutil:codec - invalid payload: %w", err)
	}
	return nil
}

// NewMessage encodes v as a JSON message tagged with its event type.
func NewMessage(subject, eventType string, v interface{}) (*comms.Msg, error) {
	data, err := EncodePayload(v)
	if err != nil {
		return nil, fmt.Errorf("commsutil:codec - failed to encode %s: %w", eventType, err)
	}
	msg := comms.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderContentType, ContentTypeJSON)
	if eventType != "" {
		msg.Header.Set(HeaderEventType, eventType)
	}
	return msg, nil
}
