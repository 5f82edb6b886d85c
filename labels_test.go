package kioto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelsGetReturnsFirstMatch(t *testing.T) {
	l := Labels{{Key: "env", Value: "prod"}, {Key: "env", Value: "shadow"}}
	v, ok := l.Get("env")
	assert.True(t, ok)
	assert.Equal(t, "prod", v)
}

func TestLabelsGetMissingKeyReturnsFalse(t *testing.T) {
	l := Labels{{Key: "env", Value: "prod"}}
	_, ok := l.Get("region")
	assert.False(t, ok)
}

func TestLabelsMapCollectsAllPairs(t *testing.T) {
	l := Labels{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, l.Map())
}

func TestLabelsFromMapPreservesAllEntries(t *testing.T) {
	m := map[string]string{"a": "1", "b": "2"}
	l := LabelsFromMap(m)
	assert.Len(t, l, 2)
	assert.Equal(t, m, l.Map())
}
