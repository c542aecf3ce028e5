package gcpolicy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/telemetry"
)

// CollectFunc runs one collection cycle on behalf of the pacer.
type CollectFunc func(ctx context.Context) error

// PacerConfig holds configuration for the collection pacing loop
type PacerConfig struct {
	// Settings is the policy cell consulted before every cycle
	Settings *Settings

	// Collect runs one collection cycle
	Collect CollectFunc

	// Interval is the cadence between prospective cycles
	Interval time.Duration

	// Logger receives pacing decisions. Defaults to a nop logger.
	Logger telemetry.Logger

	// Events receives cycle events. Optional.
	Events core.EventSink
}

// Pacer drives collection cycles on a fixed cadence, honoring the live
// policy: a cycle only starts while the cell allows collection. A failed
// cycle is reported and pacing continues.
type Pacer struct {
	config PacerConfig
	logger telemetry.Logger
	number atomic.Uint64
}

// NewPacer creates a pacer. The builder validates PacerConfig; callers
// constructing one directly must supply Settings, Collect and a positive
// Interval.
func NewPacer(config PacerConfig) *Pacer {
	logger := config.Logger
	if logger == nil {
		logger = telemetry.NewNop()
	}
	return &Pacer{
		config: config,
		logger: logger.WithModule("pacer"),
	}
}

// Run paces cycles until the context ends.
func (p *Pacer) Run(ctx context.Context) error {
	p.logger.Info("starting pacer",
		telemetry.Float64("interval_seconds", p.config.Interval.Seconds()))

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pacer stopped")
			return ctx.Err()
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce consults the policy and runs at most one cycle, reporting whether
// one ran. A cycle error comes back after being logged and published; it
// never stops pacing.
func (p *Pacer) RunOnce(ctx context.Context) (bool, error) {
	number := p.number.Add(1)
	current := p.config.Settings.Current()

	if current.Value != core.AllowCollect {
		cycleResults.WithLabelValues("skipped").Inc()
		p.logger.Debug("cycle skipped",
			telemetry.Int("number", int(number)),
			telemetry.String("blocked_by", current.String()))
		p.emit(core.CycleSkippedEvent{Number: number, Blocked: current})
		return false, nil
	}

	start := time.Now()
	err := p.config.Collect(ctx)
	duration := time.Since(start)

	if err != nil {
		cycleResults.WithLabelValues("error").Inc()
		p.logger.Error("collection cycle failed",
			telemetry.Err(err),
			telemetry.Int("number", int(number)))
		p.emit(core.ErrorEvent{
			Error:     fmt.Errorf("collection cycle %d: %w", number, err),
			Retryable: true,
		})
		return true, err
	}

	cycleResults.WithLabelValues("run").Inc()
	cycleDuration.Observe(duration.Seconds())
	p.logger.Debug("cycle complete",
		telemetry.Int("number", int(number)),
		telemetry.Float64("duration_seconds", duration.Seconds()))
	p.emit(core.CycleEvent{Number: number, Duration: duration})
	return true, nil
}

func (p *Pacer) emit(event core.Event) {
	if p.config.Events != nil {
		p.config.Events.Publish(event)
	}
}
