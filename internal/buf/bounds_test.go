package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMulOK covers the overflow boundary in both directions.
func TestMulOK(t *testing.T) {
	v, ok := MulOK(1<<30, 4)
	require.True(t, ok)
	assert.Equal(t, 1<<32, v)

	_, ok = MulOK(math.MaxInt, 2)
	assert.False(t, ok)

	v, ok = MulOK(0, math.MaxInt)
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

// TestProduct checks multi-term products and negative rejection.
func TestProduct(t *testing.T) {
	v, ok := Product(10, 20, 3)
	require.True(t, ok)
	assert.Equal(t, 600, v)

	_, ok = Product(math.MaxInt/2, 3)
	assert.False(t, ok)

	_, ok = Product(4, -1)
	assert.False(t, ok, "negative terms are invalid sizes")
}

// TestSum checks summation overflow and negative rejection.
func TestSum(t *testing.T) {
	v, ok := Sum([]int{1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 6, v)

	_, ok = Sum([]int{math.MaxInt, 1})
	assert.False(t, ok)

	_, ok = Sum([]int{5, -5})
	assert.False(t, ok)
}

// TestCheckVector covers the in-bounds, out-of-bounds, and overflow cases
// the archive decoder depends on.
func TestCheckVector(t *testing.T) {
	end, err := CheckVector(100, 10, 30, 2)
	require.NoError(t, err)
	assert.Equal(t, 70, end)

	_, err = CheckVector(100, 10, 50, 2)
	require.Error(t, err)

	_, err = CheckVector(100, 0, math.MaxInt, 2)
	require.Error(t, err)

	_, err = CheckVector(100, -1, 1, 1)
	require.Error(t, err)
}
