package sandbox

import (
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/security"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// RunChildSetup is invoked by cmd/gatewayd's re-exec branch after the
// runtime has already unshared namespaces via SysProcAttr.Cloneflags. It
// applies the bindings and network posture encoded by encodeChildConfig
// and the capability set for that posture, runs the seccomp step (which
// installs no kernel filter, see (*seccomp.Profile).Apply), then replaces the process image with the
// real program via exec -- mirroring the teacher's container.SetupChild,
// generalized from a fixed rootfs pivot to the gateway's bind-mount model.
func RunChildSetup(program string, argv []string) error {
	access := task.NetworkAccess(os.Getenv(childConfigEnvPrefix + "NET"))
	rw := splitNonEmpty(os.Getenv(childConfigEnvPrefix + "RW"))
	ro := splitNonEmpty(os.Getenv(childConfigEnvPrefix + "RO"))
	denied := splitNonEmpty(os.Getenv(childConfigEnvPrefix + "DENIED"))
	workDir := os.Getenv(childConfigEnvPrefix + "WORKDIR")

	rwBindings := make([]Binding, len(rw))
	for i, p := range rw {
		rwBindings[i] = Binding{Path: p}
	}
	roBindings := make([]Binding, len(ro))
	for i, p := range ro {
		roBindings[i] = Binding{Path: p, ReadOnly: true}
	}

	if err := applyBindings(rwBindings, roBindings, denied); err != nil {
		return err
	}
	if err := setupChildNetwork(access); err != nil {
		return errors.ErrInternal("failed to configure sandbox child network", err)
	}
	if err := capabilityConfig(access).Apply(); err != nil {
		return errors.ErrInternal("failed to apply sandbox child capabilities", err)
	}
	if err := seccompConfig(access).Apply(); err != nil {
		return errors.ErrInternal("failed to apply sandbox child seccomp filter", err)
	}
	// LSM confinement is best-effort on top of seccomp/capabilities: most
	// hosts running this gateway have neither AppArmor nor SELinux loaded,
	// and (*security.Config).Apply already no-ops when DetectLSM finds
	// neither, per its own doc comment.
	if err := (&security.Config{ProfileName: "gateway-sandbox"}).Apply(); err != nil {
		return errors.ErrInternal("failed to apply sandbox child LSM profile", err)
	}

	if workDir != "" {
		if err := os.Chdir(workDir); err != nil {
			return errors.ErrInternal("failed to chdir into sandbox working directory", err).WithField("path", workDir)
		}
	}

	resolved := program
	if !strings.HasPrefix(program, "/") {
		path, err := exec.LookPath(program)
		if err != nil {
			return errors.ErrInvalidArgument("program not found on PATH: " + program)
		}
		resolved = path
	}

	execArgv := append([]string{resolved}, argv...)
	return syscall.Exec(resolved, execArgv, childExecEnv())
}

// childExecEnv strips the GATEWAY_SANDBOX_* bindings encodeChildConfig
// added to cross the re-exec boundary, leaving only the task's own
// spec.env -- the sandboxed program must never observe the gateway's
// internal rw/ro/denied-path configuration, per §4.3's environment
// guarantee.
func childExecEnv() []string {
	full := os.Environ()
	out := make([]string, 0, len(full))
	for _, kv := range full {
		if strings.HasPrefix(kv, childConfigEnvPrefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
