package transcode

import (
	"encoding/json"
	"fmt"

	"eventsIngestion/internal/model"
)

const contentTypeJSON = "application/json"

// ToMessage converts a ChainEvent into a BrokerMessage keyed by the
// event's address.
func ToMessage(event model.ChainEvent) (model.BrokerMessage, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return model.BrokerMessage{}, fmt.Errorf("marshal event %s: %w", event.ID(), err)
	}

	return model.BrokerMessage{
		Key:   []byte(event.Address),
		Value: value,
		Headers: []model.Header{
			{Key: model.HeaderEvent, Value: []byte(event.EventName)},
			{Key: model.HeaderContentType, Value: []byte(contentTypeJSON)},
		},
	}, nil
}

// ToMessages converts events one to one, preserving order.
func ToMessages(events []model.ChainEvent) ([]model.BrokerMessage, error) {
	messages := make([]model.BrokerMessage, 0, len(events))
	for _, event := range events {
		msg, err := ToMessage(event)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// FromMessage decodes a message value back into its ChainEvent.
func FromMessage(msg model.BrokerMessage) (model.ChainEvent, error) {
	var event model.ChainEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return model.ChainEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
