package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeContextHash_StableAcrossKeyOrder(t *testing.T) {
	a, err := ComputeContextHash(map[string]interface{}{
		"goal":  "summarize",
		"url":   "https://example.com",
		"depth": 2.0,
	})
	require.NoError(t, err)

	b, err := ComputeContextHash(map[string]interface{}{
		"depth": 2.0,
		"url":   "https://example.com",
		"goal":  "summarize",
	})
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.String(), b.String())
}

func TestComputeContextHash_NestedMaps(t *testing.T) {
	a, err := ComputeContextHash(map[string]interface{}{
		"outer": map[string]interface{}{"x": 1.0, "y": 2.0},
	})
	require.NoError(t, err)

	b, err := ComputeContextHash(map[string]interface{}{
		"outer": map[string]interface{}{"y": 2.0, "x": 1.0},
	})
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
}

func TestComputeContextHash_DistinctPayloadsDiffer(t *testing.T) {
	a, err := ComputeContextHash(map[string]interface{}{"step": "plan"})
	require.NoError(t, err)
	b, err := ComputeContextHash(map[string]interface{}{"step": "act"})
	require.NoError(t, err)

	assert.False(t, a.Equals(b))
}

func TestComputeContextHash_Format(t *testing.T) {
	h, err := ComputeContextHash(map[string]interface{}{"a": 1.0})
	require.NoError(t, err)

	assert.Len(t, h.String(), 64)
	assert.Equal(t, strings.ToLower(h.String()), h.String())
}

func TestComputeContextHash_EmptyPayload(t *testing.T) {
	_, err := ComputeContextHash(nil)
	assert.Error(t, err)

	_, err = ComputeContextHash(map[string]interface{}{})
	assert.Error(t, err)
}

func TestNewContextHashFromString(t *testing.T) {
	h, err := ComputeContextHash(map[string]interface{}{"a": 1.0})
	require.NoError(t, err)

	parsed, err := NewContextHashFromString(h.String())
	require.NoError(t, err)
	assert.True(t, h.Equals(parsed))

	_, err = NewContextHashFromString("short")
	assert.Error(t, err)

	_, err = NewContextHashFromString(strings.Repeat("z", 64))
	assert.Error(t, err)
}
