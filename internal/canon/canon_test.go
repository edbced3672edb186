package canon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"w3rt.dev/core/internal/canon"
)

func TestMarshalKeyOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	b := map[string]any{"c": map[string]any{"y": 2, "z": 1}, "a": 2, "b": 1}

	ca, err := canon.Marshal(a)
	require.NoError(t, err)
	cb, err := canon.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ca), string(cb))
	assert.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(ca))
}

func TestHashStableAcrossNumericForm(t *testing.T) {
	h1, err := canon.Hash(map[string]any{"x": 1})
	require.NoError(t, err)
	h2, err := canon.Hash(map[string]any{"x": 1.0})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, h1)
}

func TestHashDiffersOnMutation(t *testing.T) {
	h1, err := canon.Hash(map[string]any{"x": 1})
	require.NoError(t, err)
	h2, err := canon.Hash(map[string]any{"x": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
