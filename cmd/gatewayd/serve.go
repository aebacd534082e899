package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/observability"
	"github.com/fcchi/mcp-security-gateway/pkg/orchestrator"
	"github.com/fcchi/mcp-security-gateway/pkg/policy"
)

// serveCmd runs the gateway as a long-lived process: the registry, output
// hub and executor stay resident in memory across many submissions
// (unlike exec/read-file/write-file/delete-file, which are one-shot
// submit-and-wait invocations of their own gatewayd process), the reaper
// evicts terminal records on a ticker, and SIGHUP reloads the policy
// bundle without a restart. Wire servers translating RPC/REST into the
// Gateway's methods are external to this module per spec.md §1; this
// command only keeps the in-process contract alive and observable.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway as a long-lived process",
	Long: `serve builds the Gateway's collaborators once and keeps them resident:
the task registry, output hub, executor pool and policy engine all persist
for the life of the process, the reaper periodically evicts terminal task
records past the retention window, and SIGHUP triggers an atomic policy
bundle reload. This command has no submission surface of its own -- the
wire servers (RPC/REST) that would accept external requests against this
running Gateway are outside this module's scope.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New("gatewayd-serve")

	gw, cleanup, reloader, reaper, err := buildServingGateway()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start policy reloader: %w", err)
	}
	defer reloader.Stop()

	go reaper.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal, stopping gateway...")
		cancel()
	}()

	h := gw.Health()
	log.WithField("version", h.Version.Version).WithField("policy_dir", policyDir).Info("gateway serving")
	log.Info("press Ctrl+C to stop")

	<-ctx.Done()
	log.Info("gateway stopped")
	return nil
}

// buildServingGateway is buildGateway's long-running variant: it returns
// the same Gateway plus the Reloader and Reaper that only make sense for
// a process that outlives a single submission. Unlike the one-shot
// commands, serve lives long enough to make exporting metrics/traces
// worthwhile, so it wires a real observability.Manager instead of
// observability.NoopHooks{}.
func buildServingGateway() (*orchestrator.Gateway, func(), *policy.Reloader, *orchestrator.Reaper, error) {
	cfg, err := configFromFlags()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	obsMgr, err := observability.NewManager(observability.DefaultConfig())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to build observability manager: %w", err)
	}
	hooks, err := observability.NewManagerHooks(obsMgr)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to build observability hooks: %w", err)
	}

	gw, reg, engine, hub, auditorCleanup, err := buildGatewayWithCollaborators(hooks)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		auditorCleanup()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obsMgr.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("observability manager shutdown: %v", err)
		}
	}

	if mm := obsMgr.GetMetrics(); mm != nil {
		mm.RecordBundleLoaded(context.Background())
	}

	reloader := policy.NewReloader(engine, cfg.PolicyDir)
	reloader.OnReload = func(fingerprint string) {
		logger.Infof("policy bundle reloaded: %s", fingerprint)
		if mm := obsMgr.GetMetrics(); mm != nil {
			mm.RecordBundleReloaded(context.Background())
		}
	}
	reloader.OnError = func(err error) {
		logger.Warnf("policy bundle reload failed, keeping previous bundle: %v", err)
		if mm := obsMgr.GetMetrics(); mm != nil {
			mm.RecordBundleReloadFailed(context.Background())
		}
	}

	reaper := orchestrator.NewReaper(reg, hub, cfg.RetentionWindow/12, cfg.RetentionWindow, time.Now)

	return gw, cleanup, reloader, reaper, nil
}
