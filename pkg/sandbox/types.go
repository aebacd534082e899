// Package sandbox implements the Sandbox Executor: it launches a child
// process for a Command task under a mount-namespaced, resource-capped
// environment and reports its exit, captured output, and
// resource usage. The concrete confinement primitives are adapted from
// the teacher repo's low-level packages (namespace, seccomp, capabilities,
// rootfs, cgroup, network); §4.3 of the design keeps the Confiner trait
// abstract so an alternate backend (gVisor, Firecracker) can register
// without the executor itself changing.
package sandbox

import (
	"context"

	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// PreparedInvocation is the serializable record a Confiner hands back from
// Prepare: everything the executor needs to actually spawn the child,
// independent of how the confiner built it.
type PreparedInvocation struct {
	Program string
	Argv    []string
	Env     []string

	// WorkingDir is guaranteed by Prepare to be inside one of the task's
	// rw_paths.
	WorkingDir string

	RWBindings    []Binding
	ROBindings    []Binding
	DeniedPaths   []string
	NamespaceFlag int
	NetworkAccess task.NetworkAccess
	Limits        task.ResourceLimits
}

// Binding is a single mount bind: Path is bound at the same path
// inside the sandbox (the gateway does not remap paths).
type Binding struct {
	Path     string
	ReadOnly bool
}

// OutputSink receives tagged output chunks as a child runs. The executor
// passes an adapter backed by pkg/outputhub; tests can pass a recording
// sink instead.
type OutputSink interface {
	Stdout(b []byte)
	Stderr(b []byte)
}

// RunResult is what a Confiner's Run reports once the child has exited,
// been killed on timeout, or been killed on cancellation.
type RunResult struct {
	ExitCode int
	Usage    task.ResourceUsage
	// Signaled is true when the child was terminated by the executor
	// (timeout or cancel) rather than exiting on its own.
	Signaled bool
}

// Confiner is the abstract host facility §4.3 and §6 describe: it prepares
// an invocation from a SandboxSpec/CommandSpec pair, then runs it to
// completion (or until ctx is cancelled), reporting exit code and
// resource usage. Implementations register themselves with a Registry by
// name; the executor looks one up per task rather than depending on a
// concrete type.
type Confiner interface {
	Name() string
	Prepare(cmd task.CommandSpec, taskID string) (*PreparedInvocation, error)
	Run(ctx context.Context, prepared *PreparedInvocation, sink OutputSink) (RunResult, error)
}
