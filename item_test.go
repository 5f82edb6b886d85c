package kioto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowSucceedsForMatchingType(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)

	p, ok := Borrow[*testPlugin](item)
	require.True(t, ok)
	assert.Equal(t, "hi", p.echo)
}

func TestBorrowFailsWithoutPanicOnMismatch(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)

	_, ok := Borrow[*otherTestPlugin](item)
	assert.False(t, ok)
}

func TestBorrowMutGrantsExclusiveAccessAndUnlocks(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)

	p, unlock, ok := BorrowMut[*testPlugin](item)
	require.True(t, ok)
	p.echo = "changed"
	unlock()

	got, _ := Borrow[*testPlugin](item)
	assert.Equal(t, "changed", got.echo)
}

func TestBorrowMutMismatchReturnsNoOpUnlock(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)

	_, unlock, ok := BorrowMut[*otherTestPlugin](item)
	assert.False(t, ok)
	assert.NotPanics(t, unlock)
}

func TestSetValueUpdatesTypeAlongsideValue(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)
	item.setValue(&otherTestPlugin{})

	_, ok := Borrow[*testPlugin](item)
	assert.False(t, ok)
	_, ok = Borrow[*otherTestPlugin](item)
	assert.True(t, ok)
}

func TestAttrsReturnsIndependentCopy(t *testing.T) {
	item := newItem(&testPlugin{echo: "hi"}, CommitID(1), 0)
	item.attrs[nameType] = CommitID(99)

	copy1 := item.Attrs()
	copy1[nameType] = CommitID(1)

	assert.Equal(t, CommitID(99), item.attrs[nameType])
}
