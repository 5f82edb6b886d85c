package kioto

import (
	"context"
	"sync"

	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

// EventState tracks an Event's progress through its sequencing states
// (spec.md §4.6). It is purely observational; callers drive behavior
// through Start/Returns, never by setting state directly.
type EventState int

const (
	EventCreated EventState = iota
	EventStarting
	EventPluginRunning
	EventHandlerRunning
	EventCompleted
	EventCancelled
	EventFailed
)

// Event pairs a resolved Call with an optional Handler, sequencing the
// target plugin's Work, the handler's Handle, and the handler's own
// call-fn in that strict order (spec.md §4.6): the plugin's Work
// completes fully before Handle runs, which completes before the
// handler's own call-fn begins.
type Event struct {
	mu sync.Mutex

	addr  Address
	call  *Call
	thunk Thunk

	handlerAddr  *Address
	handlerThunk *HandlerThunk

	state EventState
	err   error
}

func newEvent(addr Address, call *Call, thunk Thunk) *Event {
	return &Event{addr: addr, call: call, thunk: thunk, state: EventCreated}
}

// Address returns the Address this Event was resolved for.
func (e *Event) Address() Address {
	return e.addr
}

// State returns the Event's current sequencing state.
func (e *Event) State() EventState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error this Event failed with, if State is EventFailed.
func (e *Event) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// SetHandler attaches handler at addr with an explicit HandlerThunk.
// It fails with KindPluginHandlerTargetMismatch if ht's declared target
// type does not match this Event's own plugin type.
func (e *Event) SetHandler(addr Address, ht HandlerThunk) error {
	if ht.Target != e.call.item.Type() {
		return kerr.PluginHandlerTargetMismatch(ht.Target.String(), e.call.item.Type().String())
	}
	e.mu.Lock()
	e.handlerAddr = &addr
	e.handlerThunk = &ht
	e.mu.Unlock()
	return nil
}

// WithHandler attaches the Handler registered at addr, looking up its
// HandlerThunk attribute in the Store. It fails with KindPluginNotFound
// if addr resolves to nothing, or KindLoadPluginError if the resolved
// Item carries no HandlerThunk attribute.
func (e *Event) WithHandler(addr Address) error {
	item, ok := e.call.store.itemByCommit(addr.Commit)
	if !ok {
		return kerr.PluginNotFound(addr.String())
	}
	ht, ok := Attr[HandlerThunk](e.call.store, item)
	if !ok {
		return kerr.LoadPluginError("no HandlerThunk attribute on " + addr.String())
	}
	return e.SetHandler(addr, ht)
}

// Cancel cancels this Event's own CancelToken and everything forked from it.
func (e *Event) Cancel() {
	e.call.token.Cancel()
}

func (e *Event) setState(s EventState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Event) fail(err error) {
	e.mu.Lock()
	e.state = EventFailed
	e.err = err
	e.mu.Unlock()
}

// Start runs this Event to completion: the plugin's call-fn and, if a
// handler is attached, the full handler sequence. It returns the
// terminal Message (the plugin's own result if unhandled, the handler's
// own Work result if handled).
func (e *Event) Start(ctx context.Context) (Message, error) {
	e.setState(EventStarting)

	e.mu.Lock()
	handlerThunk := e.handlerThunk
	handlerAddr := e.handlerAddr
	e.mu.Unlock()

	if handlerThunk == nil {
		e.setState(EventPluginRunning)
		work, err := e.thunk.Exec(ctx, e.call)
		if err != nil {
			e.fail(err)
			return Message{}, err
		}
		msg, err := work.Wait()
		if err != nil {
			if kerr.Is(err, kerr.KindPluginCallCancelled) {
				e.setState(EventCancelled)
			} else {
				e.fail(err)
			}
			return Message{}, err
		}
		e.setState(EventCompleted)
		return msg, nil
	}

	e.setState(EventPluginRunning)
	work, err := handlerThunk.Wrap(ctx, e)
	if err != nil {
		e.fail(err)
		return Message{}, err
	}
	e.setState(EventHandlerRunning)
	msg, err := work.Wait()
	if err != nil {
		if kerr.Is(err, kerr.KindPluginCallCancelled) {
			e.setState(EventCancelled)
		} else {
			e.fail(err)
		}
		return Message{}, err
	}
	e.setState(EventCompleted)
	klog.Event().Debug().Str("address", e.addr.String()).Str("handler", handlerAddr.String()).Msg("event completed")
	return msg, nil
}

// Returns runs Start and then, if a handler is attached, retrieves
// whatever Message the handler's own call-fn deposited in the Broker
// for its own commit id via Call.PublishReturn. If no handler is
// attached, or the handler never published a return, the empty Message
// is returned.
func (e *Event) Returns(ctx context.Context) (Message, error) {
	if _, err := e.Start(ctx); err != nil {
		return Message{}, err
	}

	e.mu.Lock()
	handlerAddr := e.handlerAddr
	e.mu.Unlock()
	if handlerAddr == nil {
		return Empty(), nil
	}

	handlerItem, ok := e.call.store.itemByCommit(handlerAddr.Commit)
	if !ok {
		return Empty(), nil
	}
	return e.call.store.broker.Receive(handlerItem.commit), nil
}

// defaultWrap implements the handler sequencing algorithm: run the
// target's Work, then Handle, then the handler's own call-fn, each
// step only beginning once the previous has fully completed.
func defaultWrap(ctx context.Context, e *Event) (*Work, error) {
	pluginWork, err := e.thunk.Exec(ctx, e.call)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	handlerAddr := e.handlerAddr
	handlerThunk := e.handlerThunk
	e.mu.Unlock()

	store := e.call.store
	handlerItem, ok := store.itemByCommit(handlerAddr.Commit)
	if !ok {
		return nil, kerr.PluginNotFound(handlerAddr.String())
	}

	handlerCall := &Call{
		store:   store,
		item:    handlerItem,
		forkFn:  handlerThunk.ForkFn,
		token:   e.call.token.Child(),
		runtime: e.call.runtime,
	}

	targetItem := e.call.item
	return e.call.runtime.Spawn(e.call.token, func(ctx context.Context) (Message, error) {
		if _, werr := pluginWork.Wait(); werr != nil {
			return Message{}, werr
		}

		handler, ok := Borrow[Handler](handlerItem)
		if !ok {
			return Message{}, kerr.PluginMismatch("Handler", handlerItem.Type().String())
		}
		if herr := handler.Handle(ctx, targetItem, handlerItem); herr != nil {
			return Message{}, herr
		}

		hwork, herr := handlerThunk.CallFn(ctx, handlerCall)
		if herr != nil {
			return Message{}, herr
		}
		return hwork.Wait()
	}), nil
}
