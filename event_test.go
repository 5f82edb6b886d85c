package kioto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamspace-dev/kioto/kerr"
)

func TestEventStartWithoutHandlerRunsPluginDirectly(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "solo")
	_, err := s.Load(p)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)

	msg, err := e.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("solo"), msg.Bytes)
	assert.Equal(t, EventCompleted, e.State())
}

func TestWithHandlerRejectsTargetTypeMismatch(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "solo")
	_, err := s.Load(p)
	require.NoError(t, err)

	h := &countingHandler{BasePlugin: BasePlugin{Name: NewName("kioto", "handlers", "counter", Version{})}}
	handlerAddr, err := LoadHandler[*otherTestPlugin](s, h)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)

	err = e.WithHandler(handlerAddr)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.KindPluginHandlerTargetMismatch))
}

func TestWithHandlerSequencesPluginThenHandleThenHandlerCall(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "target-value")
	_, err := s.Load(p)
	require.NoError(t, err)

	h := &countingHandler{BasePlugin: BasePlugin{Name: NewName("kioto", "handlers", "counter", Version{})}}
	handlerAddr, err := LoadHandler[*testPlugin](s, h)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)
	require.NoError(t, e.WithHandler(handlerAddr))

	msg, err := e.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("handler-return"), msg.Bytes)
	assert.Equal(t, EventCompleted, e.State())

	item, ok := s.Item(handlerAddr.Commit)
	require.True(t, ok)
	observed, ok := Borrow[*countingHandler](item)
	require.True(t, ok)
	assert.Equal(t, 1, observed.handled)
	assert.Equal(t, "target-value", observed.lastSeen)
}

func TestEventReturnsRetrievesHandlerPublishedMessage(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "target-value")
	_, err := s.Load(p)
	require.NoError(t, err)

	h := &countingHandler{BasePlugin: BasePlugin{Name: NewName("kioto", "handlers", "counter", Version{})}}
	handlerAddr, err := LoadHandler[*testPlugin](s, h)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)
	require.NoError(t, e.WithHandler(handlerAddr))

	msg, err := e.Returns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("handler-return"), msg.Bytes)
}

func TestEventReturnsEmptyWithoutHandler(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "solo")
	_, err := s.Load(p)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)

	msg, err := e.Returns(context.Background())
	require.NoError(t, err)
	assert.True(t, msg.IsEmpty())
}

func TestBindAsRejectsWrongConcreteType(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "solo")
	addr, err := s.Load(p)
	require.NoError(t, err)

	item, ok := s.Item(addr.Commit)
	require.True(t, ok)
	call := &Call{store: s, item: item, token: s.RootToken().Child(), runtime: s.Runtime()}

	_, err = BindAs[*otherTestPlugin](call)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.KindPluginMismatch))
}

func TestBindUpdateReplacesStoredValue(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "before")
	addr, err := s.Load(p)
	require.NoError(t, err)

	item, ok := s.Item(addr.Commit)
	require.True(t, ok)
	call := &Call{store: s, item: item, token: s.RootToken().Child(), runtime: s.Runtime()}

	b, err := BindAs[*testPlugin](call)
	require.NoError(t, err)

	err = b.Update(func(cur *testPlugin) (*testPlugin, error) {
		cur.echo = "after"
		return cur, nil
	})
	require.NoError(t, err)

	got, ok := Borrow[*testPlugin](item)
	require.True(t, ok)
	assert.Equal(t, "after", got.echo)
}

func TestBindSkipReturnsPluginCallSkipped(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "solo")
	addr, err := s.Load(p)
	require.NoError(t, err)

	item, ok := s.Item(addr.Commit)
	require.True(t, ok)
	call := &Call{store: s, item: item, token: s.RootToken().Child(), runtime: s.Runtime()}

	b, err := BindAs[*testPlugin](call)
	require.NoError(t, err)

	err = b.Skip()
	assert.True(t, kerr.Is(err, kerr.KindPluginCallSkipped))
}

func TestCallForkProducesIndependentItemUnderChildToken(t *testing.T) {
	s := NewStore()
	p := newTestPlugin("kioto/plugins.echo", "original")
	_, err := s.Load(p)
	require.NoError(t, err)

	e, err := s.Event(p.PluginName().Path())
	require.NoError(t, err)

	forked, err := e.call.Fork()
	require.NoError(t, err)
	assert.NotSame(t, e.call.item, forked.item)

	e.call.token.Cancel()
	assert.True(t, forked.token.Cancelled())
}
