package model

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_MonotonicWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	gen := NewIDGenerator(func() time.Time { return fixed })

	first := gen.Next()
	second := gen.Next()
	third := gen.Next()

	assert.Equal(t, "1700000000000", first)
	assert.Equal(t, "1700000000001", second)
	assert.Equal(t, "1700000000002", third)
}

func TestIDGenerator_ClockGoesBackwards(t *testing.T) {
	times := []time.Time{time.UnixMilli(2000), time.UnixMilli(1000)}
	i := 0
	gen := NewIDGenerator(func() time.Time {
		t := times[i]
		i++
		return t
	})

	a, err := strconv.ParseInt(gen.Next(), 10, 64)
	require.NoError(t, err)
	b, err := strconv.ParseInt(gen.Next(), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, b, a)
}
