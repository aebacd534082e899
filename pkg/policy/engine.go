package policy

import (
	"sync/atomic"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
	"github.com/fcchi/mcp-security-gateway/pkg/logger"
)

var log = logger.New("policy")

// Engine evaluates Input documents against the currently active Bundle.
// The bundle is held behind an atomic pointer so Swap is a lock-free,
// MVCC-style replacement: calls to Evaluate already in flight finish
// against the bundle snapshot they loaded.
type Engine struct {
	active atomic.Pointer[Bundle]
}

// NewEngine creates an engine with no bundle loaded. Evaluate fails
// Internal until the first Load/Swap.
func NewEngine() *Engine {
	return &Engine{}
}

// Load compiles the rule bundle at dir and installs it as active. Use
// Swap directly when a bundle has already been compiled (e.g. by a
// reload watcher that wants to validate before installing).
func (e *Engine) Load(dir string) error {
	b, err := LoadBundle(dir)
	if err != nil {
		return err
	}
	e.Swap(b)
	return nil
}

// Swap atomically installs b as the active bundle.
func (e *Engine) Swap(b *Bundle) {
	e.active.Store(b)
	log.WithField("fingerprint", b.Fingerprint).Info("policy bundle swapped")
}

// Bundle returns the currently active bundle, or nil if none is loaded.
func (e *Engine) Bundle() *Bundle {
	return e.active.Load()
}

// Evaluate classifies in by which sub-section is populated and runs the
// matching sub-package's rules. It is a pure function of (bundle, input):
// deterministic, no I/O, and safe for concurrent use.
func (e *Engine) Evaluate(in Input) (Decision, error) {
	b := e.active.Load()
	if b == nil {
		return Decision{}, errors.ErrInternal("policy engine has no bundle loaded", nil)
	}

	switch {
	case in.Command != nil && in.Command.Name != "":
		return evaluateCommand(&b.Command, in.Command, in.User), nil
	case in.File != nil && in.File.Path != "":
		return evaluateFile(&b.File, in.File), nil
	case in.Network != nil && in.Network.Host != "":
		return evaluateNetwork(&b.Network, in.Network), nil
	default:
		return deny("unknown task type"), nil
	}
}
