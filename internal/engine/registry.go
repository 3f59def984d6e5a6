package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/rulesort/internal/compiler"
)

// registry is an ordered list of target compilers; the first one that
// supports a (target, mode) pair wins.
type registry struct {
	mu       sync.RWMutex
	compiler *compiler.Compiler
	targets  []compiler.Target
}

func newRegistry(c *compiler.Compiler, targets []compiler.Target) registry {
	if c == nil {
		c = compiler.New(0)
	}
	return registry{compiler: c, targets: append([]compiler.Target(nil), targets...)}
}

// Register appends target compilers. They are tried after the ones already
// registered.
func (r *registry) Register(targets ...compiler.Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, targets...)
}

// Targets returns the registered target compilers, in dispatch order.
func (r *registry) Targets() []compiler.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]compiler.Target(nil), r.targets...)
}

func (r *registry) find(target any, mode compiler.Mode) (compiler.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		if t.Supports(target, mode) {
			return t, true
		}
	}
	return nil, false
}

// executor resolves the target compiler for (target, mode) and compiles
// text with it.
func (r *registry) executor(text string, target any, mode compiler.Mode) (compiler.Executor, error) {
	t, ok := r.find(target, mode)
	if !ok {
		return nil, newTargetUnsupported(text, target, mode)
	}
	slog.Debug("dispatching rule", "mode", mode, "target", t.Name())

	exec, err := r.compiler.Compile(text, t)
	if err != nil {
		return nil, newCompileFailed(text, target, mode, err)
	}
	return exec, nil
}
