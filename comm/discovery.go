package comm

import (
	"os"
	"path/filepath"
	"plugin"
	"strings"
)

// RegisterSymbol is the exported symbol a shared-object plugin must provide.
// Its value must be assignable to RegisterFunc; discovery calls it with the
// registry so the plugin can register its own factories.
const RegisterSymbol = "RegisterCommunicators"

// RegisterFunc is the signature of a plugin registration entry point.
type RegisterFunc = func(r *Registry) error

// EntryPoint registers one or more communicator factories with a registry.
// Entry points are supplied by the host application's package enumeration
// hook (the Go analog of installed-package entry points).
type EntryPoint func(r *Registry) error

// Discover supplements the registry from two sources: shared objects
// (*.so) found in the given extension directories, and the entry points
// returned by the optional enumerate hook.
//
// Discovery is deliberately forgiving: a missing directory, an unloadable
// shared object or a failing entry point is logged and skipped, so one
// broken optional plugin never takes down unrelated code paths. Discovery is
// idempotent: already loaded shared objects are skipped on re-runs, and
// re-registered entry points overwrite their previous registration
// (last-registered-wins, see Register).
func (r *Registry) Discover(paths []string, enumerate func() []EntryPoint) {
	for _, dir := range paths {
		r.discoverDir(dir)
	}

	if enumerate == nil {
		return
	}
	for _, ep := range enumerate() {
		if ep == nil {
			continue
		}
		if err := ep(r); err != nil {
			r.logger.Warn("communicator entry point failed", "error", err)
		}
	}
}

func (r *Registry) discoverDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("extension directory does not exist, skipping", "dir", dir)
			return
		}
		r.logger.Warn("cannot read extension directory", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
			continue
		}
		r.loadPlugin(filepath.Join(dir, entry.Name()))
	}
}

// loadPlugin opens one shared object and invokes its registration entry
// point. Each path is loaded at most once per registry lifetime.
func (r *Registry) loadPlugin(path string) {
	r.mu.Lock()
	if r.loaded[path] {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	p, err := plugin.Open(path)
	if err != nil {
		r.logger.Warn("cannot open communicator plugin", "path", path, "error", err)
		return
	}

	sym, err := p.Lookup(RegisterSymbol)
	if err != nil {
		r.logger.Warn("communicator plugin lacks registration symbol", "path", path, "symbol", RegisterSymbol, "error", err)
		return
	}

	register, ok := sym.(RegisterFunc)
	if !ok {
		if ptr, ok2 := sym.(*RegisterFunc); ok2 {
			register = *ptr
		} else {
			r.logger.Warn("communicator plugin registration symbol has wrong type", "path", path, "symbol", RegisterSymbol)
			return
		}
	}

	if err := register(r); err != nil {
		r.logger.Warn("communicator plugin registration failed", "path", path, "error", err)
		return
	}

	r.mu.Lock()
	r.loaded[path] = true
	r.mu.Unlock()

	r.logger.Info("communicator plugin loaded", "path", path)
}
