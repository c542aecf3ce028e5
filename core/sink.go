package core

import (
	"context"
	"time"
)

// EventSink receives policy events as they are published. Publish is called
// inline on the goroutine performing the change, so implementations must not
// block.
type EventSink interface {
	Publish(event Event)
}

// Sink consumes a subscribed event feed. Process returns when the feed
// closes, the context ends, or the sink gives up on its downstream.
type Sink interface {
	Name() string
	Process(ctx context.Context, input <-chan Event) error
}

// EventFeed is a channel of policy events delivered to one subscriber
type EventFeed <-chan Event

// LogEntry is one recorded event together with its replay coordinates.
type LogEntry struct {
	Seq   uint64
	Time  time.Time
	Event Event
}

// EventLog provides replayable access to recently published events.
type EventLog interface {
	Append(event Event)

	// Since returns the recorded entries with sequence numbers greater
	// than seq, oldest first.
	Since(seq uint64) []LogEntry
}

// StatusSource exposes a read-only view of the live cell state.
type StatusSource interface {
	Current() Setting[Collect]
	Depth() int
	Seq() uint64
}
