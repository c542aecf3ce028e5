package core

import "time"

// Event represents any policy event
type Event interface {
	EventType() EventType
}

// ScopeBeginEvent records a scope snapshotting the live settings
type ScopeBeginEvent struct {
	ScopeID   string
	Label     string
	Depth     int
	Inherited Setting[Collect]
}

func (e ScopeBeginEvent) EventType() EventType {
	return EventTypeScopeBegin
}

// ScopeEndEvent records a scope restoring its snapshot
type ScopeEndEvent struct {
	ScopeID   string
	Label     string
	Depth     int
	Restored  Setting[Collect]
	Mutations int
	// OutOfOrder is set when the scope did not end at the depth it began at,
	// meaning enclosing and enclosed scopes ended out of LIFO order.
	OutOfOrder bool
}

func (e ScopeEndEvent) EventType() EventType {
	return EventTypeScopeEnd
}

// ChangeEvent records one change request and what the merge did with it
type ChangeEvent struct {
	ScopeID   string
	Label     string
	Requested Collect
	// RequestedStrength is nil for value-only requests, which leave the
	// recorded strength untouched.
	RequestedStrength *Strength[Collect]
	Outcome           Outcome
	Before            Setting[Collect]
	After             Setting[Collect]
	Seq               uint64
}

func (e ChangeEvent) EventType() EventType {
	return EventTypeChange
}

// CycleEvent records a completed collection cycle
type CycleEvent struct {
	Number   uint64
	Duration time.Duration
}

func (e CycleEvent) EventType() EventType {
	return EventTypeCycle
}

// CycleSkippedEvent records a cycle the pacer refused to start
type CycleSkippedEvent struct {
	Number uint64
	// Blocked is the setting that forbade the cycle.
	Blocked Setting[Collect]
}

func (e CycleSkippedEvent) EventType() EventType {
	return EventTypeCycleSkipped
}

// ErrorEvent represents an error reported by a collaborator
type ErrorEvent struct {
	Error     error
	Retryable bool
}

func (e ErrorEvent) EventType() EventType {
	return EventTypeError
}
