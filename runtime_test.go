package kioto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/kioto/kerr"
)

func TestSpawnWaitReturnsTaskResult(t *testing.T) {
	rt := NewRuntime(2)
	token := NewCancelToken(context.Background())

	work := rt.Spawn(token, func(ctx context.Context) (Message, error) {
		return BytesMessage([]byte("done")), nil
	})

	msg, err := work.Wait()
	require.NoError(t, err)
	assert.Equal(t, []byte("done"), msg.Bytes)
}

func TestSpawnRecoversPanicAsTaskError(t *testing.T) {
	rt := NewRuntime(1)
	token := NewCancelToken(context.Background())

	work := rt.Spawn(token, func(ctx context.Context) (Message, error) {
		panic("boom")
	})

	_, err := work.Wait()
	require.Error(t, err)
	e, ok := kerr.As(err)
	require.True(t, ok)
	assert.Equal(t, kerr.KindTaskError, e.Kind)
	assert.True(t, e.IsPanic)
}

func TestWaitReturnsCancelledWhenTokenCancelledBeforeCompletion(t *testing.T) {
	rt := NewRuntime(1)
	token := NewCancelToken(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	work := rt.Spawn(token, func(ctx context.Context) (Message, error) {
		close(started)
		<-release
		return Empty(), nil
	})

	<-started
	token.Cancel()

	_, err := work.Wait()
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.KindPluginCallCancelled))
	close(release)
}

func TestPollIsNonBlockingUntilTaskCompletes(t *testing.T) {
	rt := NewRuntime(1)
	token := NewCancelToken(context.Background())

	release := make(chan struct{})
	work := rt.Spawn(token, func(ctx context.Context) (Message, error) {
		<-release
		return BytesMessage([]byte("ok")), nil
	})

	_, _, done := work.Poll()
	assert.False(t, done)

	close(release)
	require.Eventually(t, func() bool {
		_, _, done := work.Poll()
		return done
	}, time.Second, 5*time.Millisecond)
}

func TestCancelTokenChildCancelledByParent(t *testing.T) {
	parent := NewCancelToken(context.Background())
	child := parent.Child()

	assert.False(t, child.Cancelled())
	parent.Cancel()
	assert.True(t, child.Cancelled())
}

func TestCancelTokenChildCancellationDoesNotReachParent(t *testing.T) {
	parent := NewCancelToken(context.Background())
	child := parent.Child()

	child.Cancel()
	assert.True(t, child.Cancelled())
	assert.False(t, parent.Cancelled())
}
