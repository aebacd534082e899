package orchestrator

import (
	"context"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
	"github.com/fcchi/mcp-security-gateway/pkg/registry"
)

// Reaper periodically evicts terminal task records older than a retention
// window, per SPEC_FULL §4.6. It holds its own ticker so the orchestrator
// need not be running a scheduler of its own. It closes each reaped task's
// Output Hub topic in the same tick, since the hub's replay buffer is
// owned for exactly as long as the registry retains the record (§3
// Ownership).
type Reaper struct {
	registry        *registry.Registry
	hub             *outputhub.Hub
	interval        time.Duration
	retentionWindow time.Duration
	now             func() time.Time

	lastReaped  int
	lastRetained int
}

// NewReaper creates a Reaper over reg, reaping records whose CompletedAt
// is older than retentionWindow every interval and closing their topics on
// hub in step.
func NewReaper(reg *registry.Registry, hub *outputhub.Hub, interval, retentionWindow time.Duration, now func() time.Time) *Reaper {
	return &Reaper{registry: reg, hub: hub, interval: interval, retentionWindow: retentionWindow, now: now}
}

// Run blocks, reaping on each tick, until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Reaper) tick() {
	cutoff := r.now().Add(-r.retentionWindow)
	reaped := r.registry.Reap(cutoff)
	for _, id := range reaped {
		r.hub.Close(id)
	}
	r.lastReaped = len(reaped)
	r.lastRetained = r.registry.Count()
	log.WithField("reaped", r.lastReaped).WithField("retained", r.lastRetained).Debug("reaper tick")
}

// Stats returns the reaped/retained counts from the most recent tick, for
// metrics scraping.
func (r *Reaper) Stats() (reaped, retained int) {
	return r.lastReaped, r.lastRetained
}
