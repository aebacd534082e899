package policy

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fcchi/mcp-security-gateway/pkg/logger"
)

// Reloader watches for a reload trigger and atomically swaps the engine's
// active bundle. The teacher repo's hotreload.Watcher polled the
// filesystem for source changes; policy bundles reload on an explicit
// SIGHUP instead, since there is no fsnotify dependency in this stack and
// operators already use signals to reload long-running daemons.
type Reloader struct {
	engine  *Engine
	dir     string
	logger  *logger.Logger
	mu      sync.Mutex
	running bool
	stop    chan struct{}

	// OnReload, if set, is invoked after each successful reload with the
	// new bundle's fingerprint. Used by the audit sink.
	OnReload func(fingerprint string)
	// OnError, if set, is invoked when a reload attempt fails to compile.
	// The previously active bundle remains in place.
	OnError func(error)
}

// NewReloader creates a Reloader for engine, loading bundles from dir.
func NewReloader(engine *Engine, dir string) *Reloader {
	return &Reloader{
		engine: engine,
		dir:    dir,
		logger: logger.New("policy-reload"),
		stop:   make(chan struct{}),
	}
}

// Start installs the initial bundle and begins listening for SIGHUP until
// ctx is cancelled or Stop is called.
func (r *Reloader) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	if err := r.engine.Load(r.dir); err != nil {
		return err
	}
	if r.OnReload != nil {
		r.OnReload(r.engine.Bundle().Fingerprint)
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sighup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-sighup:
				r.reload()
			}
		}
	}()

	return nil
}

func (r *Reloader) reload() {
	b, err := LoadBundle(r.dir)
	if err != nil {
		r.logger.WithError(err).Error("policy bundle reload failed, keeping previous bundle")
		if r.OnError != nil {
			r.OnError(err)
		}
		return
	}
	r.engine.Swap(b)
	if r.OnReload != nil {
		r.OnReload(b.Fingerprint)
	}
}

// Stop halts the SIGHUP listener.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	close(r.stop)
	r.running = false
}
