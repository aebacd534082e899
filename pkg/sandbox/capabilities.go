package sandbox

import (
	"github.com/fcchi/mcp-security-gateway/pkg/capabilities"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// capabilityConfig builds the capability set a sandboxed child is allowed
// to hold. Every task gets the teacher's DefaultCapabilities baseline;
// NetworkCapabilities are added only when the task's SandboxSpec grants
// Host or Restricted network access. There is no per-task capability
// grant in SandboxSpec, so this is the only knob.
func capabilityConfig(access task.NetworkAccess) *capabilities.Config {
	cfg := &capabilities.Config{}
	if access != task.NetworkNone {
		cfg.Add = capabilities.NetworkCapabilities()
	}
	return cfg
}
