package gcpolicy

import (
	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/telemetry"
)

// Scope is a transient handle over the shared settings cell. Opening it
// snapshots the live setting; End restores that snapshot. While the scope is
// active its setters merge requests into the cell under the domination rules,
// so a stronger choice made by an enclosing scope survives requests made
// further in.
//
// A scope belongs to the goroutine that opened it and is not safe for
// concurrent use. Scopes must end in LIFO order: open inner scopes end before
// their enclosing ones. Callers normally pair Scope with a deferred End:
//
//	scope := settings.Scope("checkpoint")
//	defer scope.End()
//	scope.SetCollectStrength(core.NoCollect, core.Strict[core.Collect]())
type Scope struct {
	settings  *Settings
	snapshot  core.Setting[core.Collect]
	id        string
	label     string
	depth     int
	mutations int
	ended     bool
}

// ID returns the scope's identifier as it appears in events and logs.
func (sc *Scope) ID() string {
	return sc.id
}

// Label returns the caller-supplied label, if any.
func (sc *Scope) Label() string {
	return sc.label
}

// Snapshot returns the setting captured when the scope began, the one End
// will restore.
func (sc *Scope) Snapshot() core.Setting[core.Collect] {
	return sc.snapshot
}

// SetCollect requests a new collect value, leaving the recorded strength
// alone. The request lands under the live setting's strength and may come out
// applied, clamped or refused.
func (sc *Scope) SetCollect(value core.Collect) *Scope {
	return sc.request(value, nil)
}

// SetCollectStrength requests a new collect value together with a new
// strength. The value merges like SetCollect; the strength can only escalate
// what is already recorded, never weaken it.
func (sc *Scope) SetCollectStrength(value core.Collect, strength core.Strength[core.Collect]) *Scope {
	return sc.request(value, &strength)
}

func (sc *Scope) request(value core.Collect, strength *core.Strength[core.Collect]) *Scope {
	if sc.ended {
		sc.settings.logger.Warn("request on ended scope ignored",
			telemetry.String("scope", sc.id),
			telemetry.String("label", sc.label))
		return sc
	}
	sc.mutations++
	sc.settings.applyRequest(sc, value, strength)
	return sc
}

// End restores the setting captured when the scope began and retires the
// scope. It runs at most once; repeated calls are no-ops. Restoration is
// unconditional: it happens whatever strength is live, so a scope that pinned
// the setting strict still unwinds cleanly on its own exit.
func (sc *Scope) End() {
	if sc.ended {
		return
	}
	sc.ended = true
	sc.settings.endScope(sc)
}
