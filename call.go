package kioto

import (
	"context"
	"reflect"

	"github.com/streamspace-dev/kioto/kerr"
)

// Call is the bound context a plugin's Call method executes in: its own
// Item, the Store it was resolved from, the Runtime to spawn further
// Work on, and the CancelToken that governs this invocation and
// everything it forks.
type Call struct {
	store   *Store
	item    *Item
	forkFn  ForkFn
	token   CancelToken
	runtime *Runtime
}

// Store returns the Store this Call was resolved from.
func (c *Call) Store() *Store {
	return c.store
}

// Item returns the Item this Call is bound to.
func (c *Call) Item() *Item {
	return c.item
}

// Token returns this Call's CancelToken.
func (c *Call) Token() CancelToken {
	return c.token
}

// Runtime returns the Runtime this Call's Work runs on.
func (c *Call) Runtime() *Runtime {
	return c.runtime
}

// PublishReturn deposits msg in the Broker addressed to this Call's own
// Item commit id, the conventional way a Handler's call-fn hands a
// result back to whoever calls Event.Returns. Handler authors opt into
// this; the core does not call it implicitly.
func (c *Call) PublishReturn(msg Message) error {
	return c.store.broker.Send(c.item.commit, msg)
}

// Fork produces a child Call over an independently forked Item: the
// underlying plugin is cloned via its ForkFn, and the child's
// CancelToken is derived from this Call's token so cancelling the
// parent cancels the fork, but cancelling the fork never reaches back
// to the parent.
func (c *Call) Fork() (*Call, error) {
	forked, err := c.forkFn(c.item)
	if err != nil {
		return nil, err
	}
	return &Call{
		store:   c.store,
		item:    forked,
		forkFn:  c.forkFn,
		token:   c.token.Child(),
		runtime: c.runtime,
	}, nil
}

// Bind is a typed view onto a Call's Item, produced by BindAs once the
// stored value's concrete type has been checked against P. It is the
// Go-native replacement for the original's generic Bind<P>: the checked
// downcast happens once, at Bind construction, instead of on every
// access.
type Bind[P Plugin] struct {
	call     *Call
	item     *Item
	receiver P
}

// BindAs resolves c's Item to a typed Bind[P]. If the stored value is
// not a P, it returns KindPluginMismatch. Any Message pending in the
// Broker for this Item's commit id is first offered to the stored
// plugin's Receive, and a non-nil override (which must itself be a P)
// becomes the Bind's Receiver without mutating the stored Item.
func BindAs[P Plugin](c *Call) (*Bind[P], error) {
	stored, ok := Borrow[P](c.item)
	if !ok {
		var want P
		return nil, kerr.PluginMismatch(reflect.TypeOf(want).String(), c.item.Type().String())
	}

	receiver := stored
	if msg := c.store.broker.Receive(c.item.commit); !msg.IsEmpty() {
		overridden, err := stored.Receive(msg)
		if err != nil {
			return nil, err
		}
		if overridden != nil {
			typed, ok := overridden.(P)
			if !ok {
				return nil, kerr.PluginMismatch(reflect.TypeOf(stored).String(), reflect.TypeOf(overridden).String())
			}
			receiver = typed
		}
	}

	return &Bind[P]{call: c, item: c.item, receiver: receiver}, nil
}

// Receiver returns the plugin value this Bind resolved to: the stored
// instance, or Receive's override if one was returned.
func (b *Bind[P]) Receiver() P {
	return b.receiver
}

// Item returns the underlying Item.
func (b *Bind[P]) Item() *Item {
	return b.item
}

// Update replaces the stored Item's value under an exclusive lock, the
// one sanctioned way a plugin call-fn persists a new version of itself.
func (b *Bind[P]) Update(fn func(current P) (P, error)) error {
	b.item.mu.Lock()
	defer b.item.mu.Unlock()

	cur, ok := b.item.value.(P)
	if !ok {
		return kerr.PluginMismatch(reflect.TypeOf(cur).String(), b.item.typ.String())
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	b.item.value = next
	b.item.typ = reflect.TypeOf(next)
	return nil
}

// Work spawns fn against the Bind's Receiver (read-only access: fn must
// not mutate shared state reachable only through the Item's lock).
func (b *Bind[P]) Work(fn func(P) (Message, error)) *Work {
	receiver := b.receiver
	return b.call.runtime.Spawn(b.call.token, func(ctx context.Context) (Message, error) {
		return fn(receiver)
	})
}

// WorkMut spawns fn with exclusive access to the Item's stored value,
// writing back whatever fn returns as the new stored value.
func (b *Bind[P]) WorkMut(fn func(P) (P, Message, error)) *Work {
	item := b.item
	return b.call.runtime.Spawn(b.call.token, func(ctx context.Context) (Message, error) {
		item.mu.Lock()
		defer item.mu.Unlock()
		cur, ok := item.value.(P)
		if !ok {
			return Message{}, kerr.PluginMismatch(reflect.TypeOf(cur).String(), item.typ.String())
		}

		next, msg, err := fn(cur)
		if err != nil {
			return Message{}, err
		}

		item.value = next
		item.typ = reflect.TypeOf(next)
		return msg, nil
	})
}

// Defer spawns fn with full access to the Bind itself, for plugin logic
// that needs both the Call and the typed receiver inside the spawned task.
func (b *Bind[P]) Defer(fn func(ctx context.Context, b *Bind[P]) (Message, error)) *Work {
	return b.call.runtime.Spawn(b.call.token, func(ctx context.Context) (Message, error) {
		return fn(ctx, b)
	})
}

// Skip is a convenience a plugin's call-fn can return when it declines
// to act on this invocation.
func (b *Bind[P]) Skip() error {
	return kerr.PluginCallSkipped()
}
