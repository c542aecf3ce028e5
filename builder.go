package gcpolicy

import (
	"fmt"
	"time"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/profiles"
	"github.com/epochgc/gcpolicy/telemetry"
)

// Builder assembles a policy Runtime with a fluent API
type Builder struct {
	logger          telemetry.Logger
	dropPolicy      core.DropPolicy
	historySet      bool
	historyCapacity int
	sinks           []sinkConfig
	pacerSet        bool
	pacerInterval   time.Duration
	collect         CollectFunc
	bootProfile     *profiles.Profile
}

// sinkConfig holds configuration for an attached sink
type sinkConfig struct {
	name   string
	sink   core.Sink
	filter []core.EventType
	buffer int
}

// NewBuilder creates a new runtime builder
func NewBuilder() *Builder {
	return &Builder{
		sinks: make([]sinkConfig, 0),
	}
}

// SetLogger sets the logger shared by every component the builder creates
func (b *Builder) SetLogger(logger telemetry.Logger) *Builder {
	b.logger = logger
	return b
}

// SetHistory enables the replay ring for late subscribers.
// capacity <= 0 selects the default.
func (b *Builder) SetHistory(capacity int) *Builder {
	b.historySet = true
	b.historyCapacity = capacity
	return b
}

// SetDropPolicy sets how the dispatcher treats subscribers that fall behind
func (b *Builder) SetDropPolicy(policy core.DropPolicy) *Builder {
	b.dropPolicy = policy
	return b
}

// AddSink attaches a named sink fed by its own subscription with optional
// event filtering. An empty filter forwards all events.
func (b *Builder) AddSink(name string, sink core.Sink, filter ...core.EventType) *Builder {
	b.sinks = append(b.sinks, sinkConfig{
		name:   name,
		sink:   sink,
		filter: filter,
	})
	return b
}

// SetSinkBuffer overrides the feed capacity for a previously added sink
func (b *Builder) SetSinkBuffer(name string, buffer int) *Builder {
	for i := range b.sinks {
		if b.sinks[i].name == name {
			b.sinks[i].buffer = buffer
		}
	}
	return b
}

// SetPacer enables the pacing loop with the given cadence and cycle callback
func (b *Builder) SetPacer(interval time.Duration, collect CollectFunc) *Builder {
	b.pacerSet = true
	b.pacerInterval = interval
	b.collect = collect
	return b
}

// SetBootProfile applies a policy preset in a scope that Start opens and
// Stop ends
func (b *Builder) SetBootProfile(profile profiles.Profile) *Builder {
	b.bootProfile = &profile
	return b
}

// Build validates the configuration and assembles the runtime
func (b *Builder) Build() (*Runtime, error) {
	// Validate the accumulated configuration
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("runtime validation failed: %w", err)
	}

	logger := b.logger
	if logger == nil {
		logger = telemetry.NewNop()
	}

	// The replay ring doubles as the dispatcher's event log
	var history *History
	var eventLog core.EventLog
	if b.historySet {
		history = NewHistory(b.historyCapacity)
		eventLog = history
	}

	dispatcher := NewDispatcher(DispatcherConfig{
		Logger:     logger,
		History:    eventLog,
		DropPolicy: b.dropPolicy,
	})

	settings := NewSettings(SettingsConfig{
		Logger: logger,
		Events: dispatcher,
	})

	var pacer *Pacer
	if b.pacerSet {
		pacer = NewPacer(PacerConfig{
			Settings: settings,
			Collect:  b.collect,
			Interval: b.pacerInterval,
			Logger:   logger,
			Events:   dispatcher,
		})
	}

	return &Runtime{
		settings:    settings,
		dispatcher:  dispatcher,
		history:     history,
		pacer:       pacer,
		sinks:       b.sinks,
		bootProfile: b.bootProfile,
		logger:      logger.WithModule("runtime"),
	}, nil
}
