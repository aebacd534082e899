package sandbox

import (
	"github.com/fcchi/mcp-security-gateway/pkg/network"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// networkModeFor collapses the gateway's three-value NetworkAccess onto
// the teacher's four-value NetworkMode, per SPEC_FULL §4.3: None maps to
// an isolated netns with loopback only (the teacher's "none" mode),
// Host skips netns isolation entirely, and Restricted also isolates the
// netns but never attaches a bridge, matching the teacher's own "none"
// handling rather than its bridge path.
func networkModeFor(access task.NetworkAccess) network.NetworkMode {
	switch access {
	case task.NetworkHost:
		return network.NetworkModeHost
	default:
		return network.NetworkModeNone
	}
}

// setupChildNetwork configures networking inside the child's (possibly
// isolated) network namespace, once the mount/pid/uts namespaces are
// already unshared. Restricted access deliberately reuses the None path:
// the gateway has no bridge/NAT plane to attach a sandboxed task to, so
// "restricted" means "isolated netns, loopback only" until a real
// network-proxy collaborator exists (see the Open Question in SPEC_FULL).
func setupChildNetwork(access task.NetworkAccess) error {
	mode := networkModeFor(access)
	return network.SetupNetworkForMode(mode)
}
