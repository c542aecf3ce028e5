package protocol

import (
	"encoding/json"
	"fmt"
)

// InputMessageType defines client-to-feed message types
type InputMessageType string

const (
	// Subscription control
	InputSubscribe InputMessageType = "subscribe" // Select event types and replay position
)

// InputMessage represents a message from a monitor client
type InputMessage struct {
	Type      InputMessageType `json:"type"`
	ID        string           `json:"id"` // Client-generated message ID
	Payload   json.RawMessage  `json:"payload"`
	Timestamp int64            `json:"timestamp"`
}

// SubscribePayload for subscribe
type SubscribePayload struct {
	// Types lists the event types to stream. Empty means all.
	Types []string `json:"types,omitempty"`

	// SinceSeq asks for replay of recorded events with sequence numbers
	// greater than this. Zero replays from the oldest retained entry.
	SinceSeq uint64 `json:"sinceSeq,omitempty"`
}

// ParseSubscribe decodes a subscribe message
func ParseSubscribe(data []byte) (*SubscribePayload, error) {
	var msg InputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input message: %w", err)
	}
	if msg.Type != InputSubscribe {
		return nil, fmt.Errorf("expected %q message, got %q", InputSubscribe, msg.Type)
	}

	var payload SubscribePayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscribe payload: %w", err)
		}
	}
	return &payload, nil
}
