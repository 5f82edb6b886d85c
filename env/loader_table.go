// Package env implements the environment builder and loader described
// in spec.md §4.8: assembling a canonical on-disk layout of TOML
// documents from a single engine config, and later loading that layout
// back into a running Store.
package env

import (
	"sync"

	"github.com/streamspace-dev/kioto"
)

// LoaderFunc registers one decoded TOML document's plugin into a Store.
// It is the type-erased wrapper every RegisterLoader call produces
// around a concrete kioto.LoadByTOML[P] instantiation, letting the
// Loader dispatch on a plugin's Name alone.
type LoaderFunc func(store *kioto.Store, text string, labels map[string]string) (kioto.Address, error)

// LoaderTable resolves a plugin Name to the LoaderFunc that knows how to
// decode and register it. It is scoped per Loader invocation rather than
// a package-level global: an env.Loader only sees plugin types its
// caller registered for this run, instead of every plugin type ever
// linked into the process.
//
// Lookup prefers an exact full-name ("package/module.plugin@version")
// match and falls back to a short-name ("package/module.plugin") match
// when no version-specific loader was registered, mirroring how
// Store.FindPlugin resolves a bare Name path to its latest registration.
type LoaderTable struct {
	mu      sync.RWMutex
	byFull  map[string]LoaderFunc
	byShort map[string]LoaderFunc
}

// NewLoaderTable creates an empty LoaderTable.
func NewLoaderTable() *LoaderTable {
	return &LoaderTable{
		byFull:  make(map[string]LoaderFunc),
		byShort: make(map[string]LoaderFunc),
	}
}

// Register associates name with fn under both its full and short forms.
// A later Register call for the same short form (a newer version of the
// same plugin family) replaces the short-form fallback but never
// clobbers an earlier full-form entry for a different version.
func (t *LoaderTable) Register(name kioto.Name, fn LoaderFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byFull[name.FullRef()] = fn
	t.byShort[name.ShortRef()] = fn
}

// RegisterLoader is the typed convenience over Register: it builds the
// LoaderFunc from kioto.LoadByTOML[P] so callers never construct one by hand.
func RegisterLoader[P kioto.Plugin](t *LoaderTable, name kioto.Name) {
	t.Register(name, func(store *kioto.Store, text string, labels map[string]string) (kioto.Address, error) {
		return kioto.LoadByTOML[P](store, text, labels)
	})
}

// Lookup resolves a plugin reference string (full or short form) to its
// LoaderFunc.
func (t *LoaderTable) Lookup(ref string) (LoaderFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if fn, ok := t.byFull[ref]; ok {
		return fn, ok
	}
	fn, ok := t.byShort[ref]
	return fn, ok
}

// Names returns every full-form Name reference with a registered loader.
func (t *LoaderTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.byFull))
	for name := range t.byFull {
		out = append(out, name)
	}
	return out
}
