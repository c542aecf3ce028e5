package sinks

import (
	"context"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/telemetry"
)

// LogSinkConfig holds log sink configuration
type LogSinkConfig struct {
	Logger telemetry.Logger
}

// LogSink writes every policy event through the structured logger, giving a
// plain-text view of policy activity without a connected client.
type LogSink struct {
	config LogSinkConfig
}

// NewLogSink creates a new log sink
func NewLogSink(config LogSinkConfig) *LogSink {
	if config.Logger == nil {
		config.Logger = telemetry.NewNop()
	}
	return &LogSink{config: config}
}

// Name returns the sink name
func (ls *LogSink) Name() string {
	return "log_sink"
}

// Process implements the Sink interface
func (ls *LogSink) Process(ctx context.Context, input <-chan core.Event) error {
	logger := ls.config.Logger.WithModule(ls.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-input:
			if !ok {
				return nil
			}
			logEvent(logger, event)
		}
	}
}

// logEvent renders one event at a level matching its weight
func logEvent(logger telemetry.Logger, event core.Event) {
	switch e := event.(type) {
	case core.ChangeEvent:
		logger.Info("policy change",
			telemetry.String("scope", e.ScopeID),
			telemetry.String("label", e.Label),
			telemetry.String("requested", e.Requested.String()),
			telemetry.String("outcome", string(e.Outcome)),
			telemetry.String("after", e.After.String()))
	case core.ScopeBeginEvent:
		logger.Debug("scope begin",
			telemetry.String("scope", e.ScopeID),
			telemetry.String("label", e.Label),
			telemetry.Int("depth", e.Depth))
	case core.ScopeEndEvent:
		logger.Debug("scope end",
			telemetry.String("scope", e.ScopeID),
			telemetry.String("label", e.Label),
			telemetry.Int("mutations", e.Mutations),
			telemetry.Bool("out_of_order", e.OutOfOrder),
			telemetry.String("restored", e.Restored.String()))
	case core.CycleEvent:
		logger.Debug("collection cycle",
			telemetry.Int("number", int(e.Number)),
			telemetry.Float64("duration_seconds", e.Duration.Seconds()))
	case core.CycleSkippedEvent:
		logger.Info("collection cycle skipped",
			telemetry.Int("number", int(e.Number)),
			telemetry.String("blocked_by", e.Blocked.String()))
	case core.ErrorEvent:
		logger.Error("policy error",
			telemetry.Err(e.Error),
			telemetry.Bool("retryable", e.Retryable))
	default:
		logger.Debug("event", telemetry.String("type", string(event.EventType())))
	}
}
