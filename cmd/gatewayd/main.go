package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/sandbox"
	"github.com/fcchi/mcp-security-gateway/pkg/version"
)

var (
	// Global flags, mapped 1:1 onto pkg/config.Config.
	bindAddress        string
	policyDir          string
	maxConcurrentTasks int
	sandboxPoolSize    int
	defaultTimeout     string
	maxTimeout         string
	workspaceDir       string
	retentionWindow    string
	logLevel           string
)

func main() {
	if len(os.Args) > 2 && os.Args[1] == sandbox.ReexecArg {
		if err := sandbox.RunChildSetup(os.Args[2], os.Args[3:]); err != nil {
			fmt.Fprintf(os.Stderr, "sandbox child setup failed: %v\n", err)
			os.Exit(1)
		}
		// RunChildSetup only returns on error; syscall.Exec replaces this
		// process on success.
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gatewayd",
	Short: "A policy-governed command, file and network execution gateway",
	Long: `gatewayd accepts command, file and network task submissions, evaluates
them against a declarative policy bundle, and runs allowed commands inside
a namespaced, seccomp-confined sandbox with bounded resources.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&bindAddress, "bind-address", "127.0.0.1:8443", "Address the gateway's RPC surface would bind (wiring external to this module)")
	rootCmd.PersistentFlags().StringVar(&policyDir, "policy-dir", "/etc/gatewayd/policy", "Directory containing the policy bundle")
	rootCmd.PersistentFlags().IntVar(&maxConcurrentTasks, "max-concurrent-tasks", 16, "Maximum concurrently running sandboxed tasks")
	rootCmd.PersistentFlags().IntVar(&sandboxPoolSize, "sandbox-pool-size", 16, "Sandbox confiner pool size")
	rootCmd.PersistentFlags().StringVar(&defaultTimeout, "default-timeout", "30s", "Default per-task timeout")
	rootCmd.PersistentFlags().StringVar(&maxTimeout, "max-timeout", "10m", "Maximum allowed per-task timeout")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "/var/lib/gatewayd/workspace", "Default rw workspace directory")
	rootCmd.PersistentFlags().StringVar(&retentionWindow, "retention-window", "1h", "How long terminal task records are retained before reaping")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Set log level (debug, info, warn, error)")

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(readFileCmd)
	rootCmd.AddCommand(writeFileCmd)
	rootCmd.AddCommand(deleteFileCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogger() {
	log := logger.GetLogger()
	switch logLevel {
	case "debug":
		log.SetLevel(logger.DebugLevel)
	case "warn":
		log.SetLevel(logger.WarnLevel)
	case "error":
		log.SetLevel(logger.ErrorLevel)
	default:
		log.SetLevel(logger.InfoLevel)
	}
	logger.Debugf("logger initialized at level %s", logLevel)
}

var (
	versionShort bool
	versionJSON  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		switch {
		case versionJSON:
			fmt.Printf(`{"version":"%s","gitCommit":"%s","buildDate":"%s","goVersion":"%s","platform":"%s"}`+"\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
		case versionShort:
			fmt.Println(info.Short())
		default:
			fmt.Println(info.String())
		}
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Print short version")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version in JSON format")
}
