package sandbox

import (
	"sync"

	"github.com/fcchi/mcp-security-gateway/pkg/errors"
)

// ConfinerRegistry holds named Confiner implementations, mirroring the
// teacher's pkg/plugin manager's Register/Get/List shape over a
// sync.RWMutex-guarded map, scoped down to the one trait the executor
// needs. The gateway registers "local" (localConfiner) by default;
// alternate backends register under other names and are selected per
// task via CommandSpec metadata in a future extension, per §4.3's
// "does not depend on a specific implementation."
type ConfinerRegistry struct {
	mu        sync.RWMutex
	confiners map[string]Confiner
}

// NewConfinerRegistry creates an empty registry.
func NewConfinerRegistry() *ConfinerRegistry {
	return &ConfinerRegistry{confiners: make(map[string]Confiner)}
}

// Register adds c under its Name(). Fails Internal on a duplicate name.
func (r *ConfinerRegistry) Register(c Confiner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.confiners[c.Name()]; exists {
		return errors.ErrInternal("confiner already registered", nil).WithField("name", c.Name())
	}
	r.confiners[c.Name()] = c
	return nil
}

// Get returns the confiner registered under name, or NotFound.
func (r *ConfinerRegistry) Get(name string) (Confiner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.confiners[name]
	if !ok {
		return nil, errors.ErrNotFound("confiner " + name)
	}
	return c, nil
}

// List returns the names of all registered confiners.
func (r *ConfinerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.confiners))
	for name := range r.confiners {
		names = append(names, name)
	}
	return names
}
