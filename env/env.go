package env

import "github.com/streamspace-dev/kioto"

// Env is the loaded environment: a Store populated from one label's
// on-disk layout, plus the event-name -> Address maps the Loader
// produced for its plugins and handlers entries.
type Env struct {
	Label string
	Root  string

	Store   *kioto.Store
	Loaders *LoaderTable

	Plugins  map[string]kioto.Address
	Handlers map[string]kioto.Address
}

func newEnv(label, root string, loaders *LoaderTable, store *kioto.Store) *Env {
	return &Env{
		Label:    label,
		Root:     root,
		Store:    store,
		Loaders:  loaders,
		Plugins:  make(map[string]kioto.Address),
		Handlers: make(map[string]kioto.Address),
	}
}

// Inspect resolves a plugin or handler's event name to its Address and
// Name, the read-only query the `kt plugin` CLI verb drives (see
// SPEC_FULL.md §4.11 item 1).
func (e *Env) Inspect(eventName string) (kioto.Address, bool) {
	if addr, ok := e.Plugins[eventName]; ok {
		return addr, true
	}
	addr, ok := e.Handlers[eventName]
	return addr, ok
}

// Close tears down the Env's Store, cancelling every in-flight Work.
func (e *Env) Close() {
	e.Store.Close()
}
