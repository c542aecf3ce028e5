package core

// DropPolicy defines how the dispatcher handles a subscriber whose buffer
// is full
type DropPolicy string

const (
	// DropPolicyNewest drops the incoming event for that subscriber and
	// counts the loss (default)
	DropPolicyNewest DropPolicy = "drop-newest"

	// DropPolicyBlock applies backpressure: the publisher waits until the
	// subscriber drains. A subscriber that never drains wedges the
	// dispatcher, so this is meant for tests and short-lived tooling.
	DropPolicyBlock DropPolicy = "block"
)

// SubscriberConfig describes a single event subscription
type SubscriberConfig struct {
	// Name identifies the subscriber in logs, metrics and drop counters
	Name string

	// Filter specifies which event types to forward to this subscriber.
	// Empty slice means forward all events.
	Filter []EventType

	// Buffer is the feed channel capacity. Zero means the default.
	Buffer int
}
