package core

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// For any event type, the EventType() method SHALL return the correct EventType constant.
func TestPropertyEventTypeConsistency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		setting := Setting[Collect]{
			Value:    collectGen().Draw(rt, "value"),
			Strength: strengthGen().Draw(rt, "strength"),
		}

		// Test ScopeBeginEvent
		beginEvent := ScopeBeginEvent{
			ScopeID:   "scope_1",
			Label:     "startup",
			Depth:     1,
			Inherited: setting,
		}
		if beginEvent.EventType() != EventTypeScopeBegin {
			rt.Fatalf("ScopeBeginEvent returned wrong type: %s", beginEvent.EventType())
		}

		// Test ScopeEndEvent
		endEvent := ScopeEndEvent{
			ScopeID:   "scope_1",
			Label:     "startup",
			Depth:     1,
			Restored:  setting,
			Mutations: 2,
		}
		if endEvent.EventType() != EventTypeScopeEnd {
			rt.Fatalf("ScopeEndEvent returned wrong type: %s", endEvent.EventType())
		}

		// Test ChangeEvent
		changeEvent := ChangeEvent{
			ScopeID:   "scope_1",
			Requested: NoCollect,
			Outcome:   OutcomeApplied,
			Before:    setting,
			After:     setting,
			Seq:       7,
		}
		if changeEvent.EventType() != EventTypeChange {
			rt.Fatalf("ChangeEvent returned wrong type: %s", changeEvent.EventType())
		}

		// Test CycleEvent
		cycleEvent := CycleEvent{
			Number:   3,
			Duration: 5 * time.Millisecond,
		}
		if cycleEvent.EventType() != EventTypeCycle {
			rt.Fatalf("CycleEvent returned wrong type: %s", cycleEvent.EventType())
		}

		// Test CycleSkippedEvent
		skippedEvent := CycleSkippedEvent{
			Number:  4,
			Blocked: setting,
		}
		if skippedEvent.EventType() != EventTypeCycleSkipped {
			rt.Fatalf("CycleSkippedEvent returned wrong type: %s", skippedEvent.EventType())
		}

		// Test ErrorEvent
		errorEvent := ErrorEvent{
			Error:     errors.New("cycle failed"),
			Retryable: false,
		}
		if errorEvent.EventType() != EventTypeError {
			rt.Fatalf("ErrorEvent returned wrong type: %s", errorEvent.EventType())
		}
	})
}

// For any event type constant, it SHALL have a non-empty string value and be known.
func TestPropertyEventTypeConstants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		eventTypes := []EventType{
			EventTypeScopeBegin,
			EventTypeScopeEnd,
			EventTypeChange,
			EventTypeCycle,
			EventTypeCycleSkipped,
			EventTypeError,
		}

		for _, et := range eventTypes {
			if et == "" {
				rt.Fatalf("Event type is empty")
			}
			if !KnownEventType(et) {
				rt.Fatalf("Event type %s not reported as known", et)
			}
		}

		if KnownEventType(EventType("bogus")) {
			rt.Fatalf("Unknown event type reported as known")
		}
	})
}

// For any outcome constant, it SHALL have a non-empty string value.
func TestPropertyOutcomeConstants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		outcomes := []Outcome{
			OutcomeApplied,
			OutcomeClamped,
			OutcomeRefused,
		}

		for _, o := range outcomes {
			if o == "" {
				rt.Fatalf("Outcome is empty")
			}
		}
	})
}
