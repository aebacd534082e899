package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/config"
	"github.com/fcchi/mcp-security-gateway/pkg/observability"
	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
	"github.com/fcchi/mcp-security-gateway/pkg/plugin"
	"github.com/fcchi/mcp-security-gateway/pkg/policy"
	"github.com/fcchi/mcp-security-gateway/pkg/rbac"
	"github.com/fcchi/mcp-security-gateway/pkg/registry"
	"github.com/fcchi/mcp-security-gateway/pkg/sandbox"

	"github.com/fcchi/mcp-security-gateway/pkg/orchestrator"
)

// configFromFlags builds a config.Config from the process's global cobra
// flags, matching SPEC_FULL §6's "the core exposes a configuration
// struct" -- the flags are only the wire-level source for it.
func configFromFlags() (config.Config, error) {
	cfg := config.Default()
	cfg.BindAddress = bindAddress
	cfg.PolicyDir = policyDir
	cfg.MaxConcurrentTasks = maxConcurrentTasks
	cfg.SandboxPoolSize = sandboxPoolSize
	cfg.WorkspaceDir = workspaceDir
	cfg.LogLevel = logLevel

	var err error
	if cfg.DefaultTimeout, err = parseDurationFlag("--default-timeout", defaultTimeout); err != nil {
		return config.Config{}, err
	}
	if cfg.MaxTimeout, err = parseDurationFlag("--max-timeout", maxTimeout); err != nil {
		return config.Config{}, err
	}
	if cfg.RetentionWindow, err = parseDurationFlag("--retention-window", retentionWindow); err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parseDurationFlag(flag, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", flag, err)
	}
	return d, nil
}

// buildGateway wires a Gateway from the process's global flags. Every
// one-shot CLI invocation (exec, read-file, write-file, delete-file,
// health) is its own process, so the Registry and Output Hub it builds
// are scoped to this one invocation -- matching the module's explicit
// non-goal of cross-restart persistence: nothing here survives the
// process exiting. serve (cmd/gatewayd/serve.go) is the long-running
// counterpart that keeps these collaborators resident.
func buildGateway() (*orchestrator.Gateway, func(), error) {
	gw, _, _, _, cleanup, err := buildGatewayWithCollaborators(observability.NoopHooks{})
	return gw, cleanup, err
}

// buildGatewayWithCollaborators is buildGateway plus the Registry, Engine,
// and Output Hub handles serve needs to drive the Reaper and policy
// Reloader. hooks wires metrics/tracing emission into the submit pipeline;
// one-shot commands pass observability.NoopHooks{} since the process exits
// before any exporter would flush, serve wires a Manager-backed
// implementation.
func buildGatewayWithCollaborators(hooks observability.Hooks) (*orchestrator.Gateway, *registry.Registry, *policy.Engine, *outputhub.Hub, func(), error) {
	cfg, err := configFromFlags()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	engine := policy.NewEngine()
	if err := engine.Load(cfg.PolicyDir); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load policy bundle from %s: %w", cfg.PolicyDir, err)
	}

	reg := registry.New(clock.System)
	hub := outputhub.New(outputhub.Config{})

	confiners := sandbox.NewConfinerRegistry()
	if err := confiners.Register(sandbox.NewLocalConfiner(clock.System)); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	executor := sandbox.NewExecutor(sandbox.Config{
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		DefaultTimeout:     cfg.DefaultTimeout,
		MaxTimeout:         cfg.MaxTimeout,
	}, reg, hub, confiners, clock.System, hooks)

	if err := os.MkdirAll(cfg.WorkspaceDir, 0o755); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to create workspace dir %s: %w", cfg.WorkspaceDir, err)
	}
	auditor, err := policy.NewAuditor(filepath.Join(cfg.WorkspaceDir, "policy-audit.log"), clock.System)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	plugins := plugin.NewManager()
	if err := orchestrator.RegisterGatewayPlugins(plugins, auditor); err != nil {
		_ = auditor.Close()
		return nil, nil, nil, nil, nil, err
	}

	quota := rbac.NewResourceQuota(cfg.MaxConcurrentTasks, 0, 0)
	gw := orchestrator.New(reg, engine, executor, hub, auditor, plugins, clock.System, quota, hooks)
	cleanup := func() { _ = auditor.Close() }
	return gw, reg, engine, hub, cleanup, nil
}
