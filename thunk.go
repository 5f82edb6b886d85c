package kioto

import (
	"context"
	"reflect"
)

// CallFn is the mechanical wrapper around a Plugin's Call method, stored
// as a Store attribute so the Store can invoke a plugin without the
// caller needing a typed handle to it.
type CallFn func(ctx context.Context, c *Call) (*Work, error)

// ForkFn is the mechanical wrapper around a Plugin's Fork method,
// producing a detached Item for use by a child Call.
type ForkFn func(item *Item) (*Item, error)

// Thunk is the pair of dispatch functions attached to every registered
// Item (spec.md §4.4): enough to invoke and fork a plugin without
// knowing its concrete type.
type Thunk struct {
	Name   Name
	CallFn CallFn
	ForkFn ForkFn
}

// Exec runs this Thunk's call-fn.
func (t Thunk) Exec(ctx context.Context, c *Call) (*Work, error) {
	return t.CallFn(ctx, c)
}

// WrapFn sequences a Handler's observation of a target Event: it runs
// the target plugin's Work, then the handler's Handle, then the
// handler's own call-fn, in that order (spec.md §4.6).
type WrapFn func(ctx context.Context, e *Event) (*Work, error)

// HandlerThunk extends Thunk with the reflect.Type of the plugin it may
// observe and the WrapFn that performs the handler sequencing.
type HandlerThunk struct {
	Thunk
	Target reflect.Type
	Wrap   WrapFn
}
