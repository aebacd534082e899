package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
)

// AuditEvent is one audited policy decision. Logged whenever a Decision
// carries a warning (admin override, file write, network request), per
// §4.2's audit-on-warning rules.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	TaskID    string            `json:"task_id"`
	User      string            `json:"user,omitempty"`
	Warnings  []string          `json:"warnings"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Auditor appends audit events to an append-only JSON-lines log. Adapted
// from the teacher's RBAC auditor; the gateway uses it for policy-warning
// events rather than role-grant events.
type Auditor struct {
	logFile *os.File
	clock   clock.Clock
	mu      sync.Mutex
}

// NewAuditor opens (creating if needed) the audit log at logPath.
func NewAuditor(logPath string, c clock.Clock) (*Auditor, error) {
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy audit log: %w", err)
	}
	return &Auditor{logFile: f, clock: c}, nil
}

// Log appends event to the audit log, stamping the timestamp.
func (a *Auditor) Log(event AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	event.Timestamp = a.clock.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal policy audit event: %w", err)
	}
	if _, err := a.logFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write policy audit log: %w", err)
	}
	return nil
}

// Close closes the underlying log file.
func (a *Auditor) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// LogIfWarned is a convenience the orchestrator calls after every
// Evaluate: it is a no-op unless the decision carries warnings.
func (a *Auditor) LogIfWarned(taskID, user string, decision Decision, metadata map[string]string) {
	if len(decision.Warnings) == 0 {
		return
	}
	_ = a.Log(AuditEvent{
		TaskID:   taskID,
		User:     user,
		Warnings: decision.Warnings,
		Metadata: metadata,
	})
}
