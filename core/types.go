package core

// EventType categorizes policy events
type EventType string

const (
	EventTypeScopeBegin   EventType = "scope_begin"
	EventTypeScopeEnd     EventType = "scope_end"
	EventTypeChange       EventType = "change"
	EventTypeCycle        EventType = "cycle"
	EventTypeCycleSkipped EventType = "cycle_skipped"
	EventTypeError        EventType = "error"
)

// KnownEventType reports whether t is one of the defined event types.
func KnownEventType(t EventType) bool {
	switch t {
	case EventTypeScopeBegin, EventTypeScopeEnd, EventTypeChange,
		EventTypeCycle, EventTypeCycleSkipped, EventTypeError:
		return true
	}
	return false
}

// Outcome describes what the merge did with a change request
type Outcome string

const (
	// OutcomeApplied means the request took effect exactly as asked.
	OutcomeApplied Outcome = "applied"
	// OutcomeClamped means domination kept part of the stronger state in
	// place and only the rest of the request went through.
	OutcomeClamped Outcome = "clamped"
	// OutcomeRefused means a strict setting ignored the request entirely.
	OutcomeRefused Outcome = "refused"
)
