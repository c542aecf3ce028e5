package protocol

import (
	"time"

	"github.com/epochgc/gcpolicy/core"
)

// EventToMessage converts a policy event to an output message
func EventToMessage(event core.Event, streamID string) *OutputMessage {
	msg := &OutputMessage{
		ID:        generateMessageID(),
		StreamID:  streamID,
		Timestamp: time.Now().UnixMilli(),
	}

	switch e := event.(type) {
	case core.ChangeEvent:
		msg.Type = OutputPolicyChange
		payload := ChangePayload{
			ScopeID:   e.ScopeID,
			Label:     e.Label,
			Requested: e.Requested.String(),
			Outcome:   string(e.Outcome),
			Before:    SettingToPayload(e.Before),
			After:     SettingToPayload(e.After),
			Seq:       e.Seq,
		}
		if e.RequestedStrength != nil {
			strength := StrengthToPayload(*e.RequestedStrength)
			payload.RequestedStrength = &strength
		}
		msg.Payload = payload

	case core.ScopeBeginEvent:
		msg.Type = OutputScopeBegin
		msg.Payload = ScopeBeginPayload{
			ScopeID:   e.ScopeID,
			Label:     e.Label,
			Depth:     e.Depth,
			Inherited: SettingToPayload(e.Inherited),
		}

	case core.ScopeEndEvent:
		msg.Type = OutputScopeEnd
		msg.Payload = ScopeEndPayload{
			ScopeID:    e.ScopeID,
			Label:      e.Label,
			Depth:      e.Depth,
			Restored:   SettingToPayload(e.Restored),
			Mutations:  e.Mutations,
			OutOfOrder: e.OutOfOrder,
		}

	case core.CycleEvent:
		msg.Type = OutputCycleRun
		msg.Payload = CycleRunPayload{
			Number:     e.Number,
			DurationMs: float64(e.Duration.Microseconds()) / 1000.0,
		}

	case core.CycleSkippedEvent:
		msg.Type = OutputCycleSkipped
		msg.Payload = CycleSkippedPayload{
			Number:  e.Number,
			Blocked: SettingToPayload(e.Blocked),
		}

	case core.ErrorEvent:
		msg.Type = OutputError
		errMsg := ""
		if e.Error != nil {
			errMsg = e.Error.Error()
		}
		msg.Payload = ErrorPayload{
			Code:      "POLICY_ERROR",
			Message:   errMsg,
			Retryable: e.Retryable,
		}

	default:
		// Unknown event type, skip
		return nil
	}

	return msg
}

// NewStatusMessage creates a status message from the live cell state
func NewStatusMessage(streamID string, setting core.Setting[core.Collect], depth int, seq uint64) *OutputMessage {
	return &OutputMessage{
		Type:     OutputStatus,
		ID:       generateMessageID(),
		StreamID: streamID,
		Payload: StatusPayload{
			Setting:        SettingToPayload(setting),
			CollectAllowed: setting.Value == core.AllowCollect,
			Depth:          depth,
			Seq:            seq,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(streamID, code, message string, retryable bool) *OutputMessage {
	return &OutputMessage{
		Type:     OutputError,
		ID:       generateMessageID(),
		StreamID: streamID,
		Payload: ErrorPayload{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

// generateMessageID generates a unique message ID
func generateMessageID() string {
	return "msg-" + time.Now().Format("20060102150405.000000")
}
