package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Hooks is the interface SPEC_FULL §2/§9 describes as "Metrics/Tracing
// hooks -- interfaces the [core] emit to (implementation is external)":
// pkg/orchestrator and pkg/sandbox depend only on this interface (pkg/policy
// takes no hooks), never on *Manager directly, so tests can wire a NoopHooks
// and production can wire a Manager-backed implementation.
type Hooks interface {
	// RecordTaskSubmitted is called once per Submit, after an id has been
	// allocated, tagged with the task kind ("command", "file",
	// "network_request").
	RecordTaskSubmitted(ctx context.Context, kind string)
	// RecordPolicyDecision is called once per policy evaluation, tagged
	// with whether the decision allowed the task.
	RecordPolicyDecision(ctx context.Context, allowed bool)
	// RecordSandboxExit is called once per sandboxed child's terminal
	// state, tagged with the task's final state ("completed", "failed",
	// "cancelled", "timed_out") and its execution duration in seconds.
	RecordSandboxExit(ctx context.Context, state string, durationSeconds float64)
	// StartSpan opens a span named name and returns the derived context
	// and a function that ends it; callers always invoke the returned
	// func, typically via defer.
	StartSpan(ctx context.Context, name string) (context.Context, func())
}

// NoopHooks implements Hooks with no observable effect, for tests and for
// any caller that has not wired a Manager.
type NoopHooks struct{}

func (NoopHooks) RecordTaskSubmitted(context.Context, string)            {}
func (NoopHooks) RecordPolicyDecision(context.Context, bool)             {}
func (NoopHooks) RecordSandboxExit(context.Context, string, float64)     {}
func (NoopHooks) StartSpan(ctx context.Context, _ string) (context.Context, func()) {
	return ctx, func() {}
}

// gatewayMetrics are the gateway-domain instruments a Manager-backed Hooks
// registers on the Manager's existing MeterProvider, alongside (not
// instead of) MetricsManager's own task/bundle/resource instruments -- a
// second named meter on the same provider and exporters, per
// MetricsManager.Meter's doc comment.
type gatewayMetrics struct {
	tasksSubmitted  metric.Int64Counter
	policyDecisions metric.Int64Counter
	sandboxExits    metric.Int64Counter
	sandboxDuration metric.Float64Histogram
}

// ManagerHooks adapts a *Manager into Hooks, recording onto its
// MeterProvider and TracerProvider. Task create/stop/error counts are
// recorded onto the Manager's own MetricsManager (the same MetricsManager
// pkg/policy's Reloader wiring in cmd/gatewayd/serve.go uses for bundle
// load/reload counts); allow/deny decisions get their own counter here
// since MetricsManager has no equivalent instrument for them.
type ManagerHooks struct {
	mgr     *Manager
	tracer  Tracer
	metrics gatewayMetrics
}

// NewManagerHooks builds a Hooks implementation over an already-built
// Manager. Returns NoopHooks-equivalent behavior (all fields zero-value
// but safe to call) if mgr's metrics/tracing were not enabled.
func NewManagerHooks(mgr *Manager) (*ManagerHooks, error) {
	h := &ManagerHooks{mgr: mgr, tracer: mgr.GetTracer("gatewayd")}

	if mm := mgr.GetMetrics(); mm != nil && mm.Meter() != nil {
		meter := mm.Meter()
		var err error
		if h.metrics.tasksSubmitted, err = meter.Int64Counter(
			"gateway_tasks_submitted_total",
			metric.WithDescription("Total number of tasks submitted to the orchestrator"),
		); err != nil {
			return nil, err
		}
		if h.metrics.policyDecisions, err = meter.Int64Counter(
			"gateway_policy_decisions_total",
			metric.WithDescription("Total number of policy decisions, tagged allowed=true/false"),
		); err != nil {
			return nil, err
		}
		if h.metrics.sandboxExits, err = meter.Int64Counter(
			"gateway_sandbox_exits_total",
			metric.WithDescription("Total number of sandboxed task terminations, tagged by final state"),
		); err != nil {
			return nil, err
		}
		if h.metrics.sandboxDuration, err = meter.Float64Histogram(
			"gateway_sandbox_duration_seconds",
			metric.WithDescription("Sandboxed task execution duration"),
			metric.WithUnit("s"),
		); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func (h *ManagerHooks) RecordTaskSubmitted(ctx context.Context, kind string) {
	attr := metric.WithAttributes(attribute.String("kind", kind))
	if h.metrics.tasksSubmitted != nil {
		h.metrics.tasksSubmitted.Add(ctx, 1, attr)
	}
	if mm := h.mgr.GetMetrics(); mm != nil && mm.Meter() != nil {
		mm.RecordTaskCreated(ctx, attr)
	}
}

func (h *ManagerHooks) RecordPolicyDecision(ctx context.Context, allowed bool) {
	if h.metrics.policyDecisions == nil {
		return
	}
	h.metrics.policyDecisions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("allowed", allowed)))
}

func (h *ManagerHooks) RecordSandboxExit(ctx context.Context, state string, durationSeconds float64) {
	stateAttr := attribute.String("state", state)
	if h.metrics.sandboxExits != nil {
		h.metrics.sandboxExits.Add(ctx, 1, metric.WithAttributes(stateAttr))
	}
	if h.metrics.sandboxDuration != nil {
		h.metrics.sandboxDuration.Record(ctx, durationSeconds, metric.WithAttributes(stateAttr))
	}
	if mm := h.mgr.GetMetrics(); mm != nil && mm.Meter() != nil {
		mm.RecordTaskStopped(ctx, metric.WithAttributes(stateAttr))
		if state == "failed" {
			mm.RecordTaskError(ctx, metric.WithAttributes(stateAttr))
		}
	}
}

func (h *ManagerHooks) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	spanCtx, span := h.tracer.Start(ctx, name)
	return spanCtx, span.End
}
