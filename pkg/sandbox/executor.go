// Package sandbox implements the Sandbox Executor: it takes a Command
// task whose policy decision was allow, confines it per its SandboxSpec
// using Linux namespaces, capabilities, cgroups and bind mounts (a seccomp
// profile is selected but not installed as a kernel filter),
// runs it to completion or to a timeout/cancellation, and reports the
// result back through the registry and the Output Hub. Confinement itself
// is pluggable behind the Confiner interface; Executor owns only
// admission, lifecycle, and output wiring.
package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/observability"
	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
	"github.com/fcchi/mcp-security-gateway/pkg/registry"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

var execLog = logger.New("sandbox.executor")

// Config bounds the Executor's concurrency and default timeouts, per
// SPEC_FULL §6.
type Config struct {
	MaxConcurrentTasks int
	DefaultTimeout     time.Duration
	MaxTimeout         time.Duration
	MaxCaptureBytes    int
}

func (c Config) normalized() Config {
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = 16
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = 10 * time.Minute
	}
	if c.MaxCaptureBytes <= 0 {
		c.MaxCaptureBytes = defaultMaxCaptureBytes
	}
	return c
}

// Executor admits, runs, and reaps sandboxed command tasks. It holds no
// task state of its own beyond an admission semaphore and the cancel funcs
// of running tasks; the Registry is
// the single source of truth for task state, matching the teacher's
// "container runtime owns no durable state" posture.
type Executor struct {
	cfg       Config
	registry  *registry.Registry
	hub       *outputhub.Hub
	confiners *ConfinerRegistry
	clock     clock.Clock
	hooks     observability.Hooks

	sem chan struct{}

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewExecutor wires an Executor against the shared Registry, Output Hub,
// and Confiner registry. Pass the same Registry and Hub instances the
// orchestrator uses so state and streaming stay consistent. hooks may be
// nil, in which case it defaults to observability.NoopHooks{}.
func NewExecutor(cfg Config, reg *registry.Registry, hub *outputhub.Hub, confiners *ConfinerRegistry, c clock.Clock, hooks observability.Hooks) *Executor {
	cfg = cfg.normalized()
	if hooks == nil {
		hooks = observability.NoopHooks{}
	}
	return &Executor{
		cfg:       cfg,
		registry:  reg,
		hub:       hub,
		confiners: confiners,
		clock:     c,
		hooks:     hooks,
		sem:       make(chan struct{}, cfg.MaxConcurrentTasks),
		running:   make(map[string]context.CancelFunc),
	}
}

// Submit admits a Queued command task for execution. It blocks only long
// enough to acquire an admission slot or observe ctx cancellation; actual
// confinement and execution happen in a background goroutine, and the
// task's terminal state is visible through the Registry and Output Hub.
func (e *Executor) Submit(ctx context.Context, id string, cmd task.CommandSpec, confinerName string) error {
	confiner, err := e.confiners.Get(confinerName)
	if err != nil {
		return err
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return errors.ErrResourceExhausted("executor is at max concurrent task capacity").WithField("task_id", id)
	}

	go e.run(id, cmd, confiner)
	return nil
}

// Cancel requests cooperative termination of a running task by firing its
// CancelSignal; run() observes this via the record's context derivation.
func (e *Executor) Cancel(id string) error {
	rec, err := e.registry.GetRecord(id)
	if err != nil {
		return err
	}
	rec.Cancel.Fire()
	return nil
}

func (e *Executor) run(id string, cmd task.CommandSpec, confiner Confiner) {
	defer func() { <-e.sem }()

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}
	if timeout > e.cfg.MaxTimeout {
		timeout = e.cfg.MaxTimeout
	}

	rec, err := e.registry.GetRecord(id)
	if err != nil {
		execLog.WithError(err).WithField("task_id", id).Error("task vanished from registry before execution")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	e.trackRunning(id, cancel)
	defer e.untrackRunning(id)

	go func() {
		select {
		case <-rec.Cancel.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	startedAt := e.clock.Now()
	if _, err := e.registry.Transition(id, task.Queued, task.Running, registry.WithStartedAt(startedAt)); err != nil {
		execLog.WithError(err).WithField("task_id", id).Error("failed to transition task to running")
		return
	}

	e.hub.CreateTopic(id)
	sink := newCapturingSink(e.hub, e.clock, id, e.cfg.MaxCaptureBytes)

	prepared, err := confiner.Prepare(cmd, id)
	if err != nil {
		e.finish(id, rec.Cancel, task.Failed, &task.Result{Duration: e.clock.Now().Sub(startedAt)}, err)
		return
	}

	result, runErr := confiner.Run(ctx, prepared, sink)
	duration := e.clock.Now().Sub(startedAt)

	stdout, stderr, stdoutLen, stderrLen, truncated := sink.Captured()
	taskResult := &task.Result{
		ExitCode:    result.ExitCode,
		Stdout:      stdout,
		Stderr:      stderr,
		StdoutBytes: stdoutLen,
		StderrBytes: stderrLen,
		Truncated:   truncated,
		Usage:       result.Usage,
		Duration:    duration,
	}

	final := task.Completed
	switch {
	case runErr != nil:
		final = task.Failed
	case rec.Cancel.Fired():
		final = task.Cancelled
	case ctx.Err() == context.DeadlineExceeded:
		final = task.TimedOut
	case result.ExitCode != 0:
		final = task.Failed
	}

	e.finish(id, rec.Cancel, final, taskResult, runErr)
}

func (e *Executor) finish(id string, cancelSignal *task.CancelSignal, final task.State, result *task.Result, cause error) {
	now := e.clock.Now()
	if _, err := e.registry.Transition(id, task.Running, final, registry.WithCompleted(now, result)); err != nil {
		execLog.WithError(err).WithField("task_id", id).Error("failed to transition task to terminal state")
	}

	switch final {
	case task.Cancelled:
		e.hub.PublishCancelled(id, now.UnixMilli())
	default:
		e.hub.Publish(id, outputhub.ExitCode, exitCodeBytes(result.ExitCode), now.UnixMilli())
	}
	// The topic itself -- and its replay buffer -- stays put: a new
	// subscriber joining minutes later, still within the retention window,
	// must be able to replay this task's output (§3 Ownership, §4.4). Only
	// the Reaper tears the topic down, in step with evicting the record.
	e.hooks.RecordSandboxExit(context.Background(), string(final), result.Duration.Seconds())

	logEntry := execLog.WithField("task_id", id).WithField("state", string(final))
	if cause != nil {
		logEntry = logEntry.WithError(cause)
	}
	logEntry.Info("sandboxed task finished")
}

func (e *Executor) trackRunning(id string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[id] = cancel
}

func (e *Executor) untrackRunning(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, id)
}

func exitCodeBytes(code int) []byte {
	return []byte{byte(code)}
}
