package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiply(t *testing.T) {
	total, err := Must(5000).Multiply(3)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), total.Amount)

	zero, err := Must(math.MaxInt64).Multiply(0)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = Must(1 << 62).Multiply(3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Must(5000).Multiply(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	edge, err := Must(math.MaxInt64 / 2).Multiply(2)
	require.NoError(t, err)
	assert.False(t, edge.IsNegative())
}

func TestFromMinorRejectsNegative(t *testing.T) {
	_, err := FromMinor(-1)
	assert.ErrorIs(t, err, ErrNegative)
}

func TestPercentChange(t *testing.T) {
	pct, ok := Must(15000).PercentChange(Must(10000))
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	_, ok = Must(15000).PercentChange(Money{})
	assert.False(t, ok)
}
