package sandbox

import (
	"github.com/fcchi/mcp-security-gateway/pkg/seccomp"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// seccompConfig selects the syscall filter for a sandboxed child. Every
// task is given the teacher's DefaultProfile (already a faithful
// transcription of Docker's default profile, per §4.3(vi)); tasks granted
// network access additionally allow the handful of socket syscalls the
// default profile's allow list already covers, so no extra widening is
// needed today, but the hook exists for a future Restricted-vs-Host split.
func seccompConfig(task.NetworkAccess) *seccomp.Config {
	return &seccomp.Config{Profile: seccomp.DefaultProfile()}
}
