package kerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamspace-dev/kioto/kerr"
)

func TestConstructorsSetExpectedKind(t *testing.T) {
	cases := []struct {
		name string
		err  *kerr.Error
		kind kerr.Kind
	}{
		{"IncompletePluginName", kerr.IncompletePluginName("bad"), kerr.KindIncompletePluginName},
		{"PluginNotFound", kerr.PluginNotFound("a/b.c"), kerr.KindPluginNotFound},
		{"PluginMismatch", kerr.PluginMismatch("Foo", "Bar"), kerr.KindPluginMismatch},
		{"PluginHandlerTargetMismatch", kerr.PluginHandlerTargetMismatch("Foo", "Bar"), kerr.KindPluginHandlerTargetMismatch},
		{"PluginCallSkipped", kerr.PluginCallSkipped(), kerr.KindPluginCallSkipped},
		{"PluginCallCancelled", kerr.PluginCallCancelled(), kerr.KindPluginCallCancelled},
		{"PluginCallError", kerr.PluginCallError("p", "boom"), kerr.KindPluginCallError},
		{"PreviousUnhandledRequest", kerr.PreviousUnhandledRequest("dest"), kerr.KindPreviousUnhandledRequest},
		{"WriteRequestRaceCondition", kerr.WriteRequestRaceCondition("dest"), kerr.KindWriteRequestRaceCondition},
		{"TaskError", kerr.TaskError(true, false, "panic"), kerr.KindTaskError},
		{"LoadPluginError", kerr.LoadPluginError("bad config"), kerr.KindLoadPluginError},
		{"SerializationError", kerr.SerializationError("toml", "bad"), kerr.KindSerializationError},
		{"IOError", kerr.IOError("disk full"), kerr.KindIOError},
		{"CommitConflict", kerr.CommitConflict("a/b/c/d"), kerr.KindCommitConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.True(t, kerr.Is(tc.err, tc.kind))
			assert.NotEmpty(t, tc.err.Error())
		})
	}
}

func TestIsRejectsOtherKindsAndOtherErrorTypes(t *testing.T) {
	err := kerr.IOError("boom")
	assert.False(t, kerr.Is(err, kerr.KindPluginNotFound))
	assert.False(t, kerr.Is(errors.New("plain"), kerr.KindIOError))
}

func TestAsExtractsUnderlyingError(t *testing.T) {
	err := kerr.PluginCallError("echo", "failed")

	extracted, ok := kerr.As(err)
	assert.True(t, ok)
	assert.Equal(t, "echo", extracted.PluginName)

	_, ok = kerr.As(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorMessageIncludesPluginNameWhenSet(t *testing.T) {
	err := kerr.PluginCallError("echo", "failed")
	assert.Contains(t, err.Error(), "echo")
	assert.Contains(t, err.Error(), "failed")
}

func TestWrapCarriesCauseAsDetails(t *testing.T) {
	cause := errors.New("underlying")
	err := kerr.Wrap(kerr.KindIOError, "read failed", cause)
	assert.Equal(t, "underlying", err.Details)
	assert.Contains(t, err.Error(), "underlying")
}

func TestWrapWithNilCauseLeavesDetailsEmpty(t *testing.T) {
	err := kerr.Wrap(kerr.KindIOError, "read failed", nil)
	assert.Empty(t, err.Details)
}
