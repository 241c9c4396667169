package kv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetRemove(t *testing.T) {
	m := NewMemory(0)

	_, ok, err := m.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set("k", "v1"))
	require.NoError(t, m.Set("k", "v2"))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 3, m.Used())

	require.NoError(t, m.Remove("k"))
	require.NoError(t, m.Remove("k"))
	assert.Equal(t, 0, m.Used())
}

func TestMemory_QuotaExceededKeepsOldValue(t *testing.T) {
	m := NewMemory(10)

	require.NoError(t, m.Set("k", "short"))
	err := m.Set("k", strings.Repeat("x", 20))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, _ := m.Get("k")
	assert.Equal(t, "short", v)
}

func TestMemory_OverwriteReleasesOldSize(t *testing.T) {
	m := NewMemory(10)

	require.NoError(t, m.Set("k", "123456789"))
	// 覆盖同一个键时旧值不计入配额
	require.NoError(t, m.Set("k", "987654321"))
}
