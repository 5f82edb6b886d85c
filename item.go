package kioto

import (
	"reflect"
	"sync"
)

// AttributeMap is the per-Item side table mapping a representation's
// reflect.Type to the commit id of its Handle in the owning Store's
// Repo. Every Item carries at minimum a Name and a Thunk entry
// (spec.md §3); Put.Attr adds further entries.
type AttributeMap map[reflect.Type]CommitID

// Item owns one registered plugin instance. The value itself is guarded
// by an RWMutex rather than exposed directly, so Borrow/BorrowMut are
// the only sanctioned access path — mirroring the original's RwLock<Box<dyn Plugin>>
// without needing an unsafe downcast, since Go's type switch/assertion on
// the stored interface value is already a checked operation.
type Item struct {
	mu    sync.RWMutex
	value Plugin
	typ   reflect.Type

	commit CommitID
	attrs  AttributeMap

	// sequence is the registration ordinal for this Item's Name path,
	// recovered from the original's engine::sequence helper. Purely
	// observational: it does not affect resolution (spec.md §4.2's
	// "last registration wins" still governs FindPlugin).
	sequence int
}

func newItem(value Plugin, commit CommitID, sequence int) *Item {
	return &Item{
		value:  value,
		typ:    reflect.TypeOf(value),
		commit: commit,
		attrs:  make(AttributeMap),
		sequence: sequence,
	}
}

// Type returns the concrete reflect.Type of the stored plugin value.
func (i *Item) Type() reflect.Type {
	return i.typ
}

// Commit returns the commit id this Item is registered under.
func (i *Item) Commit() CommitID {
	return i.commit
}

// Sequence returns this Item's registration ordinal within its Name path.
func (i *Item) Sequence() int {
	return i.sequence
}

// Value returns the stored plugin as its interface type, without a
// typed downcast. Prefer Borrow/BorrowMut when the concrete type matters.
func (i *Item) Value() Plugin {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.value
}

// Borrow returns the stored plugin value downcast to T, or the zero
// value of T and false if the stored type does not match. It never
// panics on mismatch (spec.md §4.2's borrow discipline).
func Borrow[T any](item *Item) (T, bool) {
	item.mu.RLock()
	defer item.mu.RUnlock()
	v, ok := item.value.(T)
	return v, ok
}

// BorrowMut returns the stored plugin value downcast to T along with an
// unlock function the caller must invoke (typically via defer) once done
// mutating through it. On type mismatch it returns a no-op unlock and
// false, and does not hold the lock.
func BorrowMut[T any](item *Item) (T, func(), bool) {
	item.mu.Lock()
	v, ok := item.value.(T)
	if !ok {
		item.mu.Unlock()
		var zero T
		return zero, func() {}, false
	}
	return v, item.mu.Unlock, true
}

// setValue overwrites the stored plugin value and its recorded type under
// the Item's write lock.
func (i *Item) setValue(v Plugin) {
	i.mu.Lock()
	i.value = v
	i.typ = reflect.TypeOf(v)
	i.mu.Unlock()
}

// Attrs returns a copy of this Item's attribute map, safe for the caller
// to range over independently of concurrent registrations.
func (i *Item) Attrs() AttributeMap {
	out := make(AttributeMap, len(i.attrs))
	for k, v := range i.attrs {
		out[k] = v
	}
	return out
}
