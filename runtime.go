package kioto

import (
	"context"
	"fmt"
	"runtime"

	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

// CancelToken pairs a context with its CancelFunc. Unlike the original's
// hand-rolled cancellation tree, a Go context.Context is already
// natively tree-structured: cancelling a parent cancels every child
// derived from it, and cancelling a child never touches its parent
// (spec.md §5's "forking a Call creates an independently cancellable
// child token").
type CancelToken struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancelToken derives a fresh cancellable token from parent.
func NewCancelToken(parent context.Context) CancelToken {
	ctx, cancel := context.WithCancel(parent)
	return CancelToken{ctx: ctx, cancel: cancel}
}

// Child derives a new token whose cancellation is independent of t but
// which is also cancelled if t is.
func (t CancelToken) Child() CancelToken {
	return NewCancelToken(t.ctx)
}

// Cancel cancels t and everything derived from it.
func (t CancelToken) Cancel() {
	t.cancel()
}

// Done returns the channel closed when t is cancelled.
func (t CancelToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Cancelled reports whether t has already been cancelled.
func (t CancelToken) Cancelled() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// Context returns the underlying context.Context, for passing to
// functions that expect one directly.
func (t CancelToken) Context() context.Context {
	return t.ctx
}

// Runtime is the bounded goroutine pool every Call's Work runs on,
// grounded on the teacher's fixed worker-pool dispatch pattern. A
// buffered channel used as a counting semaphore bounds how many task
// bodies run concurrently; Go's goroutines are cheap enough that, unlike
// the original's separate blocking-task pool, ordinary goroutines cover
// both CPU-bound and blocking work without a second pool.
type Runtime struct {
	sem chan struct{}
}

// NewRuntime creates a Runtime bounded to workers concurrent tasks. A
// non-positive workers defaults to runtime.NumCPU().
func NewRuntime(workers int) *Runtime {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runtime{sem: make(chan struct{}, workers)}
}

type taskResult struct {
	msg Message
	err error
}

// Work is a cancellable future: the result of one Runtime.Spawn call.
// Wait blocks for either completion or cancellation, checking
// cancellation first on every poll; Poll is the non-blocking variant.
type Work struct {
	token  CancelToken
	result chan taskResult
}

// Spawn runs fn on the worker pool under token, returning its Work
// immediately. A panic inside fn is recovered and surfaced as a
// KindTaskError with IsPanic set, rather than crashing the process.
func (rt *Runtime) Spawn(token CancelToken, fn func(ctx context.Context) (Message, error)) *Work {
	resultCh := make(chan taskResult, 1)
	w := &Work{token: token, result: resultCh}

	go func() {
		rt.sem <- struct{}{}
		defer func() { <-rt.sem }()
		defer func() {
			if r := recover(); r != nil {
				klog.Runtime().Error().Interface("panic", r).Msg("recovered panic in spawned task")
				resultCh <- taskResult{err: kerr.TaskError(true, false, fmt.Sprintf("%v", r))}
			}
		}()

		msg, err := fn(token.Context())
		resultCh <- taskResult{msg: msg, err: err}
	}()

	return w
}

// Wait blocks until the task completes or its token is cancelled,
// whichever comes first. Cancellation is checked before the blocking
// select so an already-cancelled token never races against a result
// that happens to be ready at the same instant.
func (w *Work) Wait() (Message, error) {
	select {
	case <-w.token.Done():
		return Message{}, kerr.PluginCallCancelled()
	default:
	}

	select {
	case <-w.token.Done():
		return Message{}, kerr.PluginCallCancelled()
	case r := <-w.result:
		return r.msg, r.err
	}
}

// Poll performs one non-blocking check: done reports whether the task
// finished (successfully, with an error, or via cancellation); if not,
// the zero Message and a nil error are returned with done false.
func (w *Work) Poll() (msg Message, err error, done bool) {
	select {
	case <-w.token.Done():
		return Message{}, kerr.PluginCallCancelled(), true
	default:
	}

	select {
	case r := <-w.result:
		return r.msg, r.err, true
	default:
		return Message{}, nil, false
	}
}

// Token returns the CancelToken this Work is running under.
func (w *Work) Token() CancelToken {
	return w.token
}
