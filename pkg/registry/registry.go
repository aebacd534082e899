// Package registry implements the Task Registry: a sharded concurrent map
// from task id to task record with CAS-style state transition helpers.
// Unlike the on-disk container store it is adapted from, the registry
// holds no persistent state — task history does not survive a restart.
package registry

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

var log = logger.New("registry")

const shardCount = 16

type shard struct {
	mu      sync.RWMutex
	records map[string]*task.Record
}

// Registry is the sharded concurrent task store. Each shard serializes its
// own writes; reads take a per-shard read lock and return a detached
// Snapshot so callers never observe a torn or later-mutated record.
type Registry struct {
	shards [shardCount]*shard
	clock  clock.Clock
}

// New creates an empty registry using the given clock for timestamping
// Reap cutoffs. Pass clock.System in production.
func New(c clock.Clock) *Registry {
	r := &Registry{clock: c}
	for i := range r.shards {
		r.shards[i] = &shard{records: make(map[string]*task.Record)}
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return r.shards[h.Sum32()%shardCount]
}

// Insert adds a new record. Fails Internal if the id already exists.
func (r *Registry) Insert(rec *task.Record) error {
	s := r.shardFor(rec.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return errors.ErrInternal("task id collision", nil).WithField("task_id", rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Get returns a read-only snapshot of the task, or NotFound.
func (r *Registry) Get(id string) (task.Snapshot, error) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return task.Snapshot{}, errors.ErrNotFound("task " + id)
	}
	return rec.Snapshot(), nil
}

// GetRecord returns the live record pointer for internal use by the
// executor and orchestrator (e.g. to observe CancelSignal). Callers must
// not mutate fields outside of Transition.
func (r *Registry) GetRecord(id string) (*task.Record, error) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, errors.ErrNotFound("task " + id)
	}
	return rec, nil
}

// Setter mutates a record already confirmed to be in expectedFrom, applied
// atomically under the shard lock as part of Transition.
type Setter func(rec *task.Record)

// Transition performs a CAS-style state move: it fails FailedPrecondition
// if the current state is not expectedFrom, otherwise applies to plus any
// setters (timestamps, result) atomically.
func (r *Registry) Transition(id string, expectedFrom, to task.State, setters ...Setter) (task.Snapshot, error) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return task.Snapshot{}, errors.ErrNotFound("task " + id)
	}
	if rec.State != expectedFrom {
		return task.Snapshot{}, errors.ErrFailedPrecondition("task " + id + " is not in state " + string(expectedFrom)).
			WithField("current_state", string(rec.State)).
			WithField("requested_to", string(to))
	}
	if rec.State.Terminal() {
		return task.Snapshot{}, errors.ErrFailedPrecondition("task " + id + " already terminal").
			WithField("current_state", string(rec.State))
	}

	rec.State = to
	for _, set := range setters {
		set(rec)
	}

	return rec.Snapshot(), nil
}

// WithStartedAt stamps started_at, used when transitioning into Running.
func WithStartedAt(t time.Time) Setter {
	return func(rec *task.Record) { rec.StartedAt = t }
}

// WithCompleted stamps completed_at and the final result, used when
// transitioning into a terminal state.
func WithCompleted(t time.Time, result *task.Result) Setter {
	return func(rec *task.Record) {
		rec.CompletedAt = t
		rec.Result = result
	}
}

// Reap removes terminal records whose CompletedAt is before cutoff and
// returns the ids removed. Non-terminal records are never reaped. Callers
// that also own a resource keyed by task id (e.g. the Output Hub's replay
// buffer) use the returned ids to tear that down in step, since the
// registry is the sole authority on when a task's retention window has
// actually elapsed.
func (r *Registry) Reap(cutoff time.Time) []string {
	var removed []string
	for _, s := range r.shards {
		s.mu.Lock()
		for id, rec := range s.records {
			if rec.State.Terminal() && !rec.CompletedAt.IsZero() && rec.CompletedAt.Before(cutoff) {
				delete(s.records, id)
				removed = append(removed, id)
			}
		}
		s.mu.Unlock()
	}
	if len(removed) > 0 {
		log.WithField("removed", len(removed)).Debug("reaped terminal task records")
	}
	return removed
}

// Count returns the number of records currently held, for metrics.
func (r *Registry) Count() int {
	total := 0
	for _, s := range r.shards {
		s.mu.RLock()
		total += len(s.records)
		s.mu.RUnlock()
	}
	return total
}

// CountActive returns the number of records not yet in a terminal state,
// used by the orchestrator's admission quota check before a task is
// queued to the executor.
func (r *Registry) CountActive() int {
	active := 0
	for _, s := range r.shards {
		s.mu.RLock()
		for _, rec := range s.records {
			if !rec.State.Terminal() {
				active++
			}
		}
		s.mu.RUnlock()
	}
	return active
}
