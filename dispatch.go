package gcpolicy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/telemetry"
)

// DefaultSubscriberBuffer is the feed capacity used when a subscription does
// not name one.
const DefaultSubscriberBuffer = 64

// DispatcherConfig holds configuration for event fan-out
type DispatcherConfig struct {
	// Logger receives a line for registrations and dropped events.
	// Defaults to a nop logger.
	Logger telemetry.Logger

	// History, when set, records every published event before fan-out so
	// late subscribers can replay what they missed.
	History core.EventLog

	// DropPolicy applies to subscribers whose buffers are full.
	// Defaults to DropPolicyNewest.
	DropPolicy core.DropPolicy
}

// Dispatcher fans published policy events out to named subscribers with
// per-subscriber event filtering and drop accounting
type Dispatcher struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	closed      bool

	policy  core.DropPolicy
	history core.EventLog
	logger  telemetry.Logger
}

// subscriber tracks a single registered feed
type subscriber struct {
	// name is the unique identifier for this subscriber
	name string

	// feed is the channel the subscriber consumes
	feed chan core.Event

	// filter maps event types to whether they should be forwarded
	// nil means forward all events
	filter map[core.EventType]bool

	// dropped counts events lost to a full feed
	dropped uint64
}

// NewDispatcher creates a dispatcher with the given configuration
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = telemetry.NewNop()
	}
	policy := config.DropPolicy
	if policy == "" {
		policy = core.DropPolicyNewest
	}
	return &Dispatcher{
		subscribers: make(map[string]*subscriber),
		policy:      policy,
		history:     config.History,
		logger:      logger.WithModule("dispatcher"),
	}
}

// Subscribe registers a named subscriber and returns its feed together with
// a cancel function that unregisters the subscriber and closes the feed.
// Cancel is safe to call more than once.
func (d *Dispatcher) Subscribe(config core.SubscriberConfig) (core.EventFeed, func(), error) {
	if config.Name == "" {
		return nil, nil, fmt.Errorf("subscriber name must not be empty")
	}

	buffer := config.Buffer
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	// Build event filter map
	var filterMap map[core.EventType]bool
	if len(config.Filter) > 0 {
		filterMap = make(map[core.EventType]bool)
		for _, et := range config.Filter {
			filterMap[et] = true
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, nil, fmt.Errorf("dispatcher is closed")
	}
	if _, exists := d.subscribers[config.Name]; exists {
		return nil, nil, fmt.Errorf("subscriber %q already exists", config.Name)
	}

	sub := &subscriber{
		name:   config.Name,
		feed:   make(chan core.Event, buffer),
		filter: filterMap,
	}
	d.subscribers[config.Name] = sub

	d.logger.Debug("subscriber registered",
		telemetry.String("name", sub.name),
		telemetry.Int("buffer", buffer))

	return sub.feed, func() { d.unsubscribe(config.Name) }, nil
}

func (d *Dispatcher) unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, exists := d.subscribers[name]
	if !exists {
		return
	}
	delete(d.subscribers, name)
	close(sub.feed)

	d.logger.Debug("subscriber unregistered", telemetry.String("name", name))
}

// Publish records the event and forwards it to every matching subscriber.
// Under the default drop policy it never blocks: a full feed loses the event
// and the loss is counted. Publishing after Close is a no-op.
func (d *Dispatcher) Publish(event core.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if d.history != nil {
		d.history.Append(event)
	}

	for _, sub := range d.subscribers {
		if !sub.shouldForward(event.EventType()) {
			continue
		}

		if d.policy == core.DropPolicyBlock {
			sub.feed <- event
			continue
		}

		select {
		case sub.feed <- event:
		default:
			// Feed is full, drop this event for this subscriber
			sub.dropped++
			droppedEvents.WithLabelValues(sub.name).Inc()
			d.logger.Debug("event dropped",
				telemetry.String("subscriber", sub.name),
				telemetry.String("event_type", string(event.EventType())))
		}
	}
}

// Dropped reports how many events the named subscriber has lost to a full
// feed. Unknown subscribers report zero.
func (d *Dispatcher) Dropped(name string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, exists := d.subscribers[name]
	if !exists {
		return 0
	}
	return sub.dropped
}

// Subscribers returns the names of all registered subscribers, sorted.
func (d *Dispatcher) Subscribers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.subscribers))
	for name := range d.subscribers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unregisters every subscriber and closes their feeds. Close is safe
// to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	for name, sub := range d.subscribers {
		delete(d.subscribers, name)
		close(sub.feed)
	}
}

// shouldForward checks if an event type should be forwarded to this
// subscriber based on its filter
func (sub *subscriber) shouldForward(eventType core.EventType) bool {
	if sub.filter == nil {
		return true
	}
	return sub.filter[eventType]
}
