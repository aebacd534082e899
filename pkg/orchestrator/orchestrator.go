// Package orchestrator glues the Registry, Policy Decision Engine,
// Sandbox Executor, and Output Hub into the gateway's public operations:
// submit, status, subscribe, cancel, the direct file operations, and
// health. It owns no execution logic of its own -- that lives in
// pkg/sandbox -- only the submit pipeline and state queries described in
// SPEC_FULL §4.5.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/observability"
	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
	"github.com/fcchi/mcp-security-gateway/pkg/plugin"
	"github.com/fcchi/mcp-security-gateway/pkg/policy"
	"github.com/fcchi/mcp-security-gateway/pkg/rbac"
	"github.com/fcchi/mcp-security-gateway/pkg/registry"
	"github.com/fcchi/mcp-security-gateway/pkg/sandbox"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
	"github.com/fcchi/mcp-security-gateway/pkg/version"
)

var log = logger.New("orchestrator")

// Metadata keys the submit pipeline reads the caller's asserted identity
// from, per SPEC_FULL §4.5 step 2. Authentication itself happens upstream
// of the gateway; these are trusted once they reach Submit.
const (
	MetadataCallerUser  = "caller.user"
	MetadataCallerRoles = "caller.roles"
)

// defaultConfinerName selects the Confiner every Command task runs under
// absent a future per-task override.
const defaultConfinerName = "local"

// Gateway is the orchestrator's concrete implementation.
type Gateway struct {
	registry *registry.Registry
	engine   *policy.Engine
	executor *sandbox.Executor
	hub      *outputhub.Hub
	auditor  *policy.Auditor
	plugins  *plugin.PluginManager
	clock    clock.Clock
	quota    *rbac.ResourceQuota
	hooks    observability.Hooks

	startedAt time.Time
}

// New wires a Gateway from its already-constructed collaborators. Callers
// (typically cmd/gatewayd) are responsible for constructing the Registry,
// Engine (with a loaded Bundle), Executor, Hub, and Auditor first. quota
// may be nil, in which case admission is bounded only by the executor's
// own semaphore. hooks may be nil, in which case it defaults to
// observability.NoopHooks{}.
func New(reg *registry.Registry, engine *policy.Engine, executor *sandbox.Executor, hub *outputhub.Hub, auditor *policy.Auditor, plugins *plugin.PluginManager, c clock.Clock, quota *rbac.ResourceQuota, hooks observability.Hooks) *Gateway {
	if hooks == nil {
		hooks = observability.NoopHooks{}
	}
	return &Gateway{
		registry:  reg,
		engine:    engine,
		executor:  executor,
		hub:       hub,
		auditor:   auditor,
		plugins:   plugins,
		clock:     c,
		quota:     quota,
		hooks:     hooks,
		startedAt: c.Now(),
	}
}

// Submit implements the five-step pipeline in SPEC_FULL §4.5: allocate an
// id, build the policy input, evaluate synchronously, and either fail the
// task immediately (deny) or hand it to the executor (allow). It always
// returns an id, even for a denied task, so the caller can retrieve the
// deny reasons via Status.
func (g *Gateway) Submit(ctx context.Context, spec task.CommandSpec, metadata map[string]string) (string, error) {
	id := clock.NewTaskID()
	now := g.clock.Now()

	rec := &task.Record{
		ID:        id,
		Kind:      task.KindCommand,
		Command:   &spec,
		Metadata:  metadata,
		State:     task.Created,
		CreatedAt: now,
		Cancel:    task.NewCancelSignal(),
	}
	if err := g.registry.Insert(rec); err != nil {
		return "", err
	}
	g.hooks.RecordTaskSubmitted(ctx, string(task.KindCommand))

	user := callerUser(metadata)
	input := policy.Input{
		Command: &policy.CommandInput{Name: spec.Program, Args: spec.Args},
		User:    policy.UserInput{Roles: callerRoles(metadata)},
	}

	spanCtx, endSpan := g.hooks.StartSpan(ctx, "orchestrator.Submit.evaluate")
	decision, err := g.engine.Evaluate(input)
	endSpan()
	if err != nil {
		return "", errors.ErrInternal("policy evaluation failed", err).WithField("task_id", id)
	}
	g.hooks.RecordPolicyDecision(spanCtx, decision.Allow)
	g.auditor.LogIfWarned(id, user, decision, metadata)

	if !decision.Allow {
		result := &task.Result{ExitCode: -1, Stderr: []byte(strings.Join(decision.DenyReasons, "; "))}
		if _, err := g.registry.Transition(id, task.Created, task.Failed, registry.WithCompleted(now, result)); err != nil {
			return "", err
		}
		log.WithField("task_id", id).WithField("reasons", decision.DenyReasons).Info("task denied by policy")
		return id, nil
	}

	if g.quota != nil {
		if err := g.quota.Check(&rbac.ResourceUsage{ConcurrentTasks: g.registry.CountActive() + 1}); err != nil {
			result := &task.Result{ExitCode: -1, Stderr: []byte(err.Error())}
			if _, tErr := g.registry.Transition(id, task.Created, task.Failed, registry.WithCompleted(now, result)); tErr != nil {
				return "", tErr
			}
			log.WithField("task_id", id).WithError(err).Warn("task denied by admission quota")
			return id, nil
		}
	}

	if _, err := g.registry.Transition(id, task.Created, task.Queued); err != nil {
		return "", err
	}
	if err := g.executor.Submit(ctx, id, spec, defaultConfinerName); err != nil {
		result := &task.Result{ExitCode: -1, Stderr: []byte(err.Error())}
		_, _ = g.registry.Transition(id, task.Queued, task.Failed, registry.WithCompleted(g.clock.Now(), result))
		return id, nil
	}

	return id, nil
}

// Status returns the current snapshot of a task.
func (g *Gateway) Status(id string) (task.Snapshot, error) {
	return g.registry.Get(id)
}

// Subscribe attaches a live output subscription to a task.
func (g *Gateway) Subscribe(id string) (*outputhub.Subscription, error) {
	if _, err := g.registry.Get(id); err != nil {
		return nil, err
	}
	return g.hub.Subscribe(id), nil
}

// Cancel fires the task's cancel signal and returns its (possibly still
// Running) snapshot; the caller observes the eventual Cancelled state via
// Status or Subscribe.
func (g *Gateway) Cancel(id string) (task.Snapshot, error) {
	rec, err := g.registry.GetRecord(id)
	if err != nil {
		return task.Snapshot{}, err
	}
	rec.Cancel.Fire()
	if err := g.executor.Cancel(id); err != nil && !errors.Is(err, errors.NotFound) {
		return task.Snapshot{}, err
	}
	return g.registry.Get(id)
}

// HealthStatus is the payload returned by Health.
type HealthStatus struct {
	Status         string
	Version        version.Info
	UptimeSeconds  float64
}

// Health reports liveness and build info, per SPEC_FULL §6.
func (g *Gateway) Health() HealthStatus {
	return HealthStatus{
		Status:        "ok",
		Version:       version.Get(),
		UptimeSeconds: g.clock.Now().Sub(g.startedAt).Seconds(),
	}
}

func callerUser(metadata map[string]string) string {
	return metadata[MetadataCallerUser]
}

func callerRoles(metadata map[string]string) []string {
	raw, ok := metadata[MetadataCallerRoles]
	if !ok || raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
