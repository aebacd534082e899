package orchestrator

import (
	"context"
	"fmt"

	"github.com/fcchi/mcp-security-gateway/pkg/plugin"
	"github.com/fcchi/mcp-security-gateway/pkg/policy"
)

// auditLoggingPlugin adapts a policy.Auditor into the teacher's plugin.Plugin
// shape, registered under plugin.LoggingPlugin so the gateway's audit
// trail is visible and toggleable through the same plugin manager the
// rest of the runtime uses, rather than being a bespoke side-channel.
type auditLoggingPlugin struct {
	*plugin.BasePlugin
	auditor *policy.Auditor
}

// NewAuditLoggingPlugin wraps auditor for registration with a PluginManager.
func NewAuditLoggingPlugin(auditor *policy.Auditor) plugin.Plugin {
	return &auditLoggingPlugin{
		BasePlugin: plugin.NewBasePlugin("policy-audit-log", plugin.LoggingPlugin, "1.0.0"),
		auditor:    auditor,
	}
}

// Stop flushes and closes the underlying audit log.
func (p *auditLoggingPlugin) Stop(ctx context.Context) error {
	return p.auditor.Close()
}

// Health reports healthy as long as the auditor is set; Auditor itself
// has no separate liveness signal beyond "the log file is open."
func (p *auditLoggingPlugin) Health(ctx context.Context) error {
	if p.auditor == nil {
		return fmt.Errorf("policy-audit-log plugin has no auditor configured")
	}
	return nil
}

// RegisterGatewayPlugins registers the gateway's built-in plugins
// (currently just the policy audit logger) with mgr.
func RegisterGatewayPlugins(mgr *plugin.PluginManager, auditor *policy.Auditor) error {
	return mgr.Register(NewAuditLoggingPlugin(auditor))
}
