package protocol

// OutputMessageType defines feed-to-client message types
type OutputMessageType string

const (
	// Policy changes
	OutputPolicyChange OutputMessageType = "policy.change" // Merge outcome for one request

	// Scope lifecycle
	OutputScopeBegin OutputMessageType = "scope.begin" // Scope snapshotted the cell
	OutputScopeEnd   OutputMessageType = "scope.end"   // Scope restored its snapshot

	// Collection cycles
	OutputCycleRun     OutputMessageType = "cycle.run"     // Cycle completed
	OutputCycleSkipped OutputMessageType = "cycle.skipped" // Cycle refused by the live policy

	// Snapshots
	OutputStatus OutputMessageType = "status" // Current cell state

	// Errors
	OutputError OutputMessageType = "error"
)

// OutputMessage represents a message to a monitor client
type OutputMessage struct {
	Type      OutputMessageType `json:"type"`
	ID        string            `json:"id"`            // Feed-generated message ID
	StreamID  string            `json:"streamId"`      // Monitor stream identifier
	Seq       uint64            `json:"seq,omitempty"` // Replay sequence, set for replayed events
	Payload   any               `json:"payload"`
	Timestamp int64             `json:"timestamp"`
}

// StrengthPayload renders a strength for the wire
type StrengthPayload struct {
	Level     string `json:"level"`               // "lenient", "as-strong-as", "strict"
	Threshold string `json:"threshold,omitempty"` // floor value, present for as-strong-as
}

// SettingPayload renders a setting for the wire
type SettingPayload struct {
	Value    string          `json:"value"` // "collect" or "nocollect"
	Strength StrengthPayload `json:"strength"`
}

// ChangePayload for policy.change
type ChangePayload struct {
	ScopeID           string           `json:"scopeId"`
	Label             string           `json:"label,omitempty"`
	Requested         string           `json:"requested"`
	RequestedStrength *StrengthPayload `json:"requestedStrength,omitempty"` // absent for value-only requests
	Outcome           string           `json:"outcome"`                     // "applied", "clamped", "refused"
	Before            SettingPayload   `json:"before"`
	After             SettingPayload   `json:"after"`
	Seq               uint64           `json:"seq"`
}

// ScopeBeginPayload for scope.begin
type ScopeBeginPayload struct {
	ScopeID   string         `json:"scopeId"`
	Label     string         `json:"label,omitempty"`
	Depth     int            `json:"depth"`
	Inherited SettingPayload `json:"inherited"`
}

// ScopeEndPayload for scope.end
type ScopeEndPayload struct {
	ScopeID    string         `json:"scopeId"`
	Label      string         `json:"label,omitempty"`
	Depth      int            `json:"depth"`
	Restored   SettingPayload `json:"restored"`
	Mutations  int            `json:"mutations"`
	OutOfOrder bool           `json:"outOfOrder,omitempty"`
}

// CycleRunPayload for cycle.run
type CycleRunPayload struct {
	Number     uint64  `json:"number"`
	DurationMs float64 `json:"durationMs"`
}

// CycleSkippedPayload for cycle.skipped
type CycleSkippedPayload struct {
	Number  uint64         `json:"number"`
	Blocked SettingPayload `json:"blocked"` // the setting that forbade the cycle
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}
