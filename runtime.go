package gcpolicy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/profiles"
	"github.com/epochgc/gcpolicy/telemetry"
)

// Runtime ties a settings cell to its observers: the dispatcher fanning
// policy events out, the sinks consuming them, and the optional pacing loop
// driving collection cycles against the live policy.
type Runtime struct {
	settings    *Settings
	dispatcher  *Dispatcher
	history     *History
	pacer       *Pacer
	sinks       []sinkConfig
	bootProfile *profiles.Profile
	logger      telemetry.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	group     *errgroup.Group
	bootScope *Scope
}

// Settings returns the shared policy cell.
func (rt *Runtime) Settings() *Settings {
	return rt.settings
}

// Scope opens a scope against the runtime's settings cell.
func (rt *Runtime) Scope(label string) *Scope {
	return rt.settings.Scope(label)
}

// Dispatcher returns the event dispatcher. Further subscribers may attach
// while the runtime runs.
func (rt *Runtime) Dispatcher() *Dispatcher {
	return rt.dispatcher
}

// History returns the replay ring, nil when not enabled.
func (rt *Runtime) History() *History {
	return rt.history
}

// Start subscribes and launches the sinks, starts the pacer, and opens the
// boot profile scope when one is configured. The context bounds everything
// started here: cancelling it winds the runtime down as Stop does.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.started {
		return fmt.Errorf("runtime already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	// Launch each sink on its own subscription
	for _, sc := range rt.sinks {
		feed, cancelSub, err := rt.dispatcher.Subscribe(core.SubscriberConfig{
			Name:   sc.name,
			Filter: sc.filter,
			Buffer: sc.buffer,
		})
		if err != nil {
			cancel()
			return fmt.Errorf("failed to subscribe sink %q: %w", sc.name, err)
		}

		sink := sc.sink
		group.Go(func() error {
			defer cancelSub()
			return sink.Process(groupCtx, feed)
		})
	}

	if rt.pacer != nil {
		group.Go(func() error {
			return rt.pacer.Run(groupCtx)
		})
	}

	// The boot scope applies the preset and holds it until Stop
	if rt.bootProfile != nil {
		setting, err := rt.bootProfile.Setting()
		if err != nil {
			cancel()
			return fmt.Errorf("boot profile %q: %w", rt.bootProfile.Name, err)
		}
		rt.bootScope = rt.settings.Scope("profile:" + rt.bootProfile.Name)
		rt.bootScope.SetCollectStrength(setting.Value, setting.Strength)
		rt.logger.Info("boot profile applied",
			telemetry.String("profile", rt.bootProfile.Name),
			telemetry.String("setting", setting.String()))
	}

	rt.cancel = cancel
	rt.group = group
	rt.started = true
	rt.logger.Info("runtime started",
		telemetry.Int("sinks", len(rt.sinks)),
		telemetry.Bool("pacer", rt.pacer != nil))
	return nil
}

// Stop ends the boot scope so its restore is observable, stops the loops,
// waits for the sinks to drain, and closes the event feeds. A sink error
// surfaces here; plain context cancellation does not. Stop is safe to call
// more than once.
func (rt *Runtime) Stop() error {
	rt.mu.Lock()
	if !rt.started || rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	bootScope := rt.bootScope
	cancel := rt.cancel
	group := rt.group
	rt.mu.Unlock()

	if bootScope != nil {
		bootScope.End()
	}

	cancel()
	err := group.Wait()
	rt.dispatcher.Close()

	rt.logger.Info("runtime stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
