package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

var (
	execTimeout string
	execRW      []string
	execRO      []string
	execDenied  []string
	execNetwork string
	execEnv     []string
)

var execCmd = &cobra.Command{
	Use:   "exec COMMAND [ARG...]",
	Short: "Submit a command task, stream its output, and wait for it to finish",
	Long: `exec submits a Command task to the gateway's orchestrator, subscribes to
its output from the start, and blocks until it reaches a terminal state.
Because each invocation of this binary is its own process, submission,
execution and streaming all happen within the single exec call.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVar(&execTimeout, "timeout", "", "Per-task timeout (defaults to --default-timeout)")
	execCmd.Flags().StringSliceVar(&execRW, "rw", nil, "Read-write sandbox path (repeatable)")
	execCmd.Flags().StringSliceVar(&execRO, "ro", nil, "Read-only sandbox path (repeatable)")
	execCmd.Flags().StringSliceVar(&execDenied, "deny", nil, "Denied sandbox path (repeatable)")
	execCmd.Flags().StringVar(&execNetwork, "network", "none", "Network access: none, host, restricted")
	execCmd.Flags().StringSliceVarP(&execEnv, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
}

func runExec(cmd *cobra.Command, args []string) error {
	gw, cleanup, err := buildGateway()
	if err != nil {
		return err
	}
	defer cleanup()

	var timeout time.Duration
	if execTimeout != "" {
		timeout, err = time.ParseDuration(execTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
	}

	rwPaths := execRW
	if len(rwPaths) == 0 {
		rwPaths = []string{workspaceDir}
	}

	spec := task.CommandSpec{
		Program: args[0],
		Args:    args[1:],
		Env:     parseEnv(execEnv),
		Timeout: timeout,
		Sandbox: task.SandboxSpec{
			Enabled:       true,
			NetworkAccess: task.NetworkAccess(execNetwork),
			RWPaths:       rwPaths,
			ROPaths:       execRO,
			DeniedPaths:   execDenied,
		},
	}

	id, err := gw.Submit(context.Background(), spec, nil)
	if err != nil {
		return err
	}

	sub, err := gw.Subscribe(id)
	if err != nil {
		return err
	}
	for chunk := range sub.Chunks() {
		switch chunk.Kind {
		case outputhub.Stdout:
			os.Stdout.Write(chunk.Bytes)
		case outputhub.Stderr:
			os.Stderr.Write(chunk.Bytes)
		case outputhub.Event:
			fmt.Fprintf(os.Stderr, "[event] %s\n", chunk.Bytes)
		}
	}

	snap, err := gw.Status(id)
	if err != nil {
		return err
	}
	if snap.Result != nil {
		if len(snap.Result.Stderr) > 0 && snap.State != task.Completed {
			fmt.Fprintln(os.Stderr, string(snap.Result.Stderr))
		}
		os.Exit(snap.Result.ExitCode)
	}
	return nil
}

func parseEnv(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				env[p[:i]] = p[i+1:]
				break
			}
		}
	}
	return env
}
