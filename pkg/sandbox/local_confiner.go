package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

var localLog = logger.New("sandbox.local")

// ReexecArg is the argv[1] the gateway binary recognizes as "run the
// sandbox child setup, then exec the real program," mirroring the
// teacher's container.RunWithSetup/"child" re-exec convention.
const ReexecArg = "__sandbox_child"

// defaultGracePeriod is how long a child gets to exit after SIGTERM
// before the executor escalates to SIGKILL, per §4.3 step 5.
const defaultGracePeriod = 2 * time.Second

// localConfiner is the gateway's default, Linux-native Confiner, built
// from the namespace/capabilities/seccomp/rootfs/cgroup/network packages
// this module adapts from the teacher. Its Name is "local"; cmd/gatewayd
// registers it under that name.
type localConfiner struct {
	clock       clock.Clock
	gracePeriod time.Duration
}

// NewLocalConfiner creates the default Confiner. Pass clock.System in
// production; tests inject a fake clock.
func NewLocalConfiner(c clock.Clock) Confiner {
	return &localConfiner{clock: c, gracePeriod: defaultGracePeriod}
}

func (l *localConfiner) Name() string { return "local" }

// Prepare implements §4.3 step 1-2: validate the spec, then build the
// PreparedInvocation the executor will hand to Run.
func (l *localConfiner) Prepare(cmd task.CommandSpec, taskID string) (*PreparedInvocation, error) {
	if cmd.Program == "" {
		return nil, errors.ErrInvalidArgument("command program must not be empty")
	}
	if !filepath.IsAbs(cmd.Program) {
		if _, err := exec.LookPath(cmd.Program); err != nil {
			return nil, errors.ErrInvalidArgument("program is not absolute and not found on PATH: " + cmd.Program)
		}
	}
	for _, a := range cmd.Args {
		if strings.ContainsRune(a, 0) {
			return nil, errors.ErrInvalidArgument("argument contains a null byte")
		}
	}
	for k := range cmd.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return nil, errors.ErrInvalidArgument("malformed environment key: " + k)
		}
	}

	sandboxSpec := cmd.Sandbox
	if err := validatePaths(append(append(append([]string{}, sandboxSpec.RWPaths...), sandboxSpec.ROPaths...), sandboxSpec.DeniedPaths...)...); err != nil {
		return nil, err
	}

	workDir := cmd.WorkingDir
	if workDir == "" {
		if len(sandboxSpec.RWPaths) == 0 {
			return nil, errors.ErrInvalidArgument("sandbox requires at least one rw_path when no working directory is set")
		}
		workDir = sandboxSpec.RWPaths[0]
	}
	if !pathWithinAny(workDir, sandboxSpec.RWPaths) {
		return nil, errors.ErrInvalidArgument("working directory must be inside an rw_path: " + workDir)
	}

	env := make([]string, 0, len(cmd.Env))
	for k, v := range cmd.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	rw := make([]Binding, 0, len(sandboxSpec.RWPaths))
	for _, p := range sandboxSpec.RWPaths {
		rw = append(rw, Binding{Path: p})
	}
	ro := make([]Binding, 0, len(sandboxSpec.ROPaths))
	for _, p := range sandboxSpec.ROPaths {
		ro = append(ro, Binding{Path: p, ReadOnly: true})
	}

	return &PreparedInvocation{
		Program:       cmd.Program,
		Argv:          cmd.Args,
		Env:           env,
		WorkingDir:    workDir,
		RWBindings:    rw,
		ROBindings:    ro,
		DeniedPaths:   sandboxSpec.DeniedPaths,
		NamespaceFlag: namespaceFlags(sandboxSpec.NetworkAccess),
		NetworkAccess: sandboxSpec.NetworkAccess,
		Limits:        sandboxSpec.Limits,
	}, nil
}

func pathWithinAny(path string, roots []string) bool {
	for _, r := range roots {
		if path == r || strings.HasPrefix(path, strings.TrimRight(r, "/")+"/") {
			return true
		}
	}
	return false
}

// Run implements §4.3 steps 3-7: spawn the child via a re-exec into this
// same binary's sandbox-child mode, attach it to a cgroup, pump its
// output, and wait for it to exit or for ctx to end (timeout/cancel are
// both expressed as ctx cancellation by the executor, which distinguishes
// them afterward by which deadline fired).
func (l *localConfiner) Run(ctx context.Context, p *PreparedInvocation, sink OutputSink) (RunResult, error) {
	self, err := os.Executable()
	if err != nil {
		return RunResult{}, errors.ErrInternal("failed to resolve gateway executable for sandbox re-exec", err)
	}

	childArgs := append([]string{ReexecArg, p.Program}, p.Argv...)
	cmd := exec.Command(self, childArgs...)
	cmd.Env = append(append([]string{}, p.Env...), encodeChildConfig(p)...)
	cmd.Dir = p.WorkingDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Cloneflags: uintptr(p.NamespaceFlag)}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return RunResult{}, errors.ErrInternal("failed to open stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return RunResult{}, errors.ErrInternal("failed to open stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return RunResult{}, errors.ErrInternal("failed to start sandboxed child", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); pumpStream(stdoutPipe, sink.Stdout) }()
	go func() { defer wg.Done(); pumpStream(stderrPipe, sink.Stderr) }()

	cg, cgErr := newCgroup(fmt.Sprintf("gateway-%d", cmd.Process.Pid), p.Limits)
	if cgErr != nil {
		localLog.WithError(cgErr).Warn("failed to create cgroup for sandboxed child; proceeding without resource caps")
	} else {
		defer cg.remove()
		if err := cg.addProcess(cmd.Process.Pid); err != nil {
			localLog.WithError(err).Warn("failed to attach child to cgroup")
		}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	signaled := false
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		signaled = true
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case waitErr = <-waitCh:
		case <-time.After(l.gracePeriod):
			_ = cmd.Process.Kill()
			waitErr = <-waitCh
		}
	}
	wg.Wait()

	usage := task.ResourceUsage{}
	if cg != nil {
		usage = cg.usage()
	}

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return RunResult{Signaled: signaled}, errors.ErrInternal("sandboxed child wait failed", waitErr)
		}
	}

	return RunResult{ExitCode: exitCode, Usage: usage, Signaled: signaled}, nil
}

const childConfigEnvPrefix = "GATEWAY_SANDBOX_"

// encodeChildConfig serializes the bindings the child-setup path (see
// cmd/gatewayd's ReexecArg branch) needs to apply after unsharing
// namespaces but before exec'ing the real program, as environment
// variables -- the same "pass config via env across re-exec" idiom the
// teacher used for CONTAINER_ID/CONTAINER_ROOTFS/CONTAINER_HOSTNAME.
func encodeChildConfig(p *PreparedInvocation) []string {
	rw := make([]string, len(p.RWBindings))
	for i, b := range p.RWBindings {
		rw[i] = b.Path
	}
	ro := make([]string, len(p.ROBindings))
	for i, b := range p.ROBindings {
		ro[i] = b.Path
	}
	return []string{
		childConfigEnvPrefix + "RW=" + strings.Join(rw, ":"),
		childConfigEnvPrefix + "RO=" + strings.Join(ro, ":"),
		childConfigEnvPrefix + "DENIED=" + strings.Join(p.DeniedPaths, ":"),
		childConfigEnvPrefix + "NET=" + string(p.NetworkAccess),
		childConfigEnvPrefix + "WORKDIR=" + p.WorkingDir,
	}
}
