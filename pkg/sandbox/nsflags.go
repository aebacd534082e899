package sandbox

import (
	"github.com/fcchi/mcp-security-gateway/pkg/namespace"
	"github.com/fcchi/mcp-security-gateway/pkg/task"
)

// namespaceFlags returns the clone flags a sandboxed child should start
// under. Mount, UTS and PID namespaces are always isolated; the network
// namespace is driven by the task's NetworkAccess rather than the
// teacher's blanket Isolate bool.
func namespaceFlags(access task.NetworkAccess) int {
	types := []namespace.NamespaceType{
		namespace.UTS,
		namespace.PID,
		namespace.Mount,
		namespace.IPC,
	}
	if access != task.NetworkHost {
		types = append(types, namespace.Network)
	}
	return namespace.GetNamespaceFlags(types...)
}
