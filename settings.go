// Package gcpolicy provides a scoped, precedence-aware policy cell for
// garbage collector runtime behavior. Subsystems open scopes against a shared
// Settings cell and request changes; a domination order between requests
// decides which take effect, and every scope restores what it found when it
// ends.
package gcpolicy

import (
	"sync"

	"github.com/google/uuid"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/telemetry"
)

// SettingsConfig holds configuration for a settings cell
type SettingsConfig struct {
	// Logger receives a line for every request and scope transition.
	// Defaults to a nop logger.
	Logger telemetry.Logger

	// Events receives policy events as they happen. Optional.
	Events core.EventSink
}

// Settings is the shared cell holding the collector's live collect policy.
// It starts permissive, {collect, lenient}, and changes only through scopes:
// a scope snapshots the cell on entry, merges requests into it while active,
// and restores the snapshot when it ends. The collector side only ever reads
// the cell, typically through CollectAllowed.
//
// All methods are safe for concurrent use.
type Settings struct {
	mu      sync.Mutex
	collect core.Setting[core.Collect]
	depth   int
	seq     uint64

	logger telemetry.Logger
	events core.EventSink
}

// NewSettings creates a settings cell with the default policy: collection
// enabled and freely changeable.
func NewSettings(config SettingsConfig) *Settings {
	logger := config.Logger
	if logger == nil {
		logger = telemetry.NewNop()
	}
	return &Settings{
		collect: defaultCollectSetting(),
		logger:  logger.WithModule("settings"),
		events:  config.Events,
	}
}

func defaultCollectSetting() core.Setting[core.Collect] {
	return core.Setting[core.Collect]{
		Value:    core.AllowCollect,
		Strength: core.Lenient[core.Collect](),
	}
}

// Current returns a copy of the live collect setting.
func (s *Settings) Current() core.Setting[core.Collect] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect
}

// CollectAllowed reports whether a collection cycle may start right now.
// The collector's pacing loop polls this before each prospective cycle.
func (s *Settings) CollectAllowed() bool {
	return s.Current().Value == core.AllowCollect
}

// Depth returns the number of currently active scopes.
func (s *Settings) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// Seq returns the change sequence number. It increments every time a request
// or a scope exit actually alters the cell.
func (s *Settings) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Scope opens a nested region of policy influence. The returned scope has
// snapshotted the live setting; its setters merge requests into the cell, and
// its End restores the snapshot. The label is free-form context for events
// and logs and may be empty.
func (s *Settings) Scope(label string) *Scope {
	s.mu.Lock()
	snapshot := s.collect
	s.depth++
	depth := s.depth
	s.mu.Unlock()

	sc := &Scope{
		settings: s,
		snapshot: snapshot,
		id:       uuid.NewString()[:8],
		label:    label,
		depth:    depth,
	}

	scopeDepth.Set(float64(depth))
	s.logger.Debug("scope begin",
		telemetry.String("scope", sc.id),
		telemetry.String("label", label),
		telemetry.Int("depth", depth),
		telemetry.String("inherited", snapshot.String()))
	s.emit(core.ScopeBeginEvent{
		ScopeID:   sc.id,
		Label:     label,
		Depth:     depth,
		Inherited: snapshot,
	})
	return sc
}

// applyRequest merges one change request into the cell under the live
// setting's strength. The value lands clamped to any threshold; the strength,
// when requested, can only escalate.
func (s *Settings) applyRequest(sc *Scope, value core.Collect, strength *core.Strength[core.Collect]) {
	s.mu.Lock()
	before := s.collect
	next := before

	switch before.Strength.Kind() {
	case core.StrengthLenient:
		// A lenient setting accepts the request outright.
		next.Value = value
		if strength != nil {
			next.Strength = *strength
		}
	case core.StrengthAsStrongAs:
		threshold, _ := before.Strength.Threshold()
		next.Value = core.Strongest(value, threshold)
		if strength != nil {
			next.Strength = core.Strongest(before.Strength, *strength)
		}
	case core.StrengthStrict:
		// A strict setting ignores requests until the scope that pinned
		// it ends.
	}

	if next != before {
		s.collect = next
		s.seq++
	}
	seq := s.seq
	s.mu.Unlock()

	outcome := classifyOutcome(before, next, value, strength)
	changeRequests.WithLabelValues(string(outcome)).Inc()
	s.logger.Debug("change request",
		telemetry.String("scope", sc.id),
		telemetry.String("requested", value.String()),
		telemetry.String("outcome", string(outcome)),
		telemetry.String("before", before.String()),
		telemetry.String("after", next.String()))
	s.emit(core.ChangeEvent{
		ScopeID:           sc.id,
		Label:             sc.label,
		Requested:         value,
		RequestedStrength: strength,
		Outcome:           outcome,
		Before:            before,
		After:             next,
		Seq:               seq,
	})
}

// classifyOutcome decides how a request fared: refused under strict, applied
// under lenient, and under as-strong-as applied only when nothing in the
// request was held back.
func classifyOutcome(before, after core.Setting[core.Collect], value core.Collect, strength *core.Strength[core.Collect]) core.Outcome {
	switch before.Strength.Kind() {
	case core.StrengthStrict:
		return core.OutcomeRefused
	case core.StrengthLenient:
		return core.OutcomeApplied
	}
	if after.Value != value {
		return core.OutcomeClamped
	}
	if strength != nil && after.Strength != *strength {
		return core.OutcomeClamped
	}
	return core.OutcomeApplied
}

// endScope restores the scope's snapshot. Restoration bypasses the merge
// rules: whatever strength is live at the time, the cell returns to the
// snapshot.
func (s *Settings) endScope(sc *Scope) {
	s.mu.Lock()
	outOfOrder := s.depth != sc.depth
	if s.collect != sc.snapshot {
		s.seq++
	}
	s.collect = sc.snapshot
	s.depth--
	depth := s.depth
	s.mu.Unlock()

	scopeDepth.Set(float64(depth))
	if outOfOrder {
		s.logger.Warn("scope ended out of order",
			telemetry.String("scope", sc.id),
			telemetry.String("label", sc.label),
			telemetry.Int("began_at_depth", sc.depth),
			telemetry.Int("live_depth", depth+1))
	}
	s.logger.Debug("scope end",
		telemetry.String("scope", sc.id),
		telemetry.String("label", sc.label),
		telemetry.Int("mutations", sc.mutations),
		telemetry.String("restored", sc.snapshot.String()))
	s.emit(core.ScopeEndEvent{
		ScopeID:    sc.id,
		Label:      sc.label,
		Depth:      sc.depth,
		Restored:   sc.snapshot,
		Mutations:  sc.mutations,
		OutOfOrder: outOfOrder,
	})
}

func (s *Settings) emit(event core.Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
