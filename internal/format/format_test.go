package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriterReader_RoundTrip encodes one value of every field kind and
// decodes them back in order.
func TestWriterReader_RoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.U8(7)
	w.Bool(true)
	w.U16(0xBEEF)
	w.U32(123456)
	w.I32(-42)
	w.F64(3.25)
	w.String("hello")
	w.Strings([]string{"a", "", "ccc"})
	w.Ints([]int{1, 0, 99})
	w.F64s([]float64{0.5, -1})
	w.U16s([]uint16{1, 2, 3})

	r := NewReader(w.Bytes())
	assert.Equal(t, uint8(7), r.U8())
	assert.True(t, r.Bool())
	assert.Equal(t, uint16(0xBEEF), r.U16())
	assert.Equal(t, uint32(123456), r.U32())
	assert.Equal(t, int32(-42), r.I32())
	assert.Equal(t, 3.25, r.F64())
	assert.Equal(t, "hello", r.String())
	assert.Equal(t, []string{"a", "", "ccc"}, r.Strings())
	assert.Equal(t, []int{1, 0, 99}, r.Ints())
	assert.Equal(t, []float64{0.5, -1}, r.F64s())
	assert.Equal(t, []uint16{1, 2, 3}, r.U16s())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

// TestReader_Truncated checks that a short buffer yields ErrTruncated and
// the error is sticky.
func TestReader_Truncated(t *testing.T) {
	w := NewWriter(8)
	w.U32(1)

	r := NewReader(w.Bytes()[:2])
	_ = r.U32()
	require.ErrorIs(t, r.Err(), ErrTruncated)

	// sticky: later reads keep the first error and return zero values
	assert.Equal(t, uint8(0), r.U8())
	require.ErrorIs(t, r.Err(), ErrTruncated)
}

// TestReader_CorruptCount checks that a vector count larger than the
// remaining bytes fails before allocation.
func TestReader_CorruptCount(t *testing.T) {
	w := NewWriter(8)
	w.U32(0xFFFFFFF0) // bogus element count

	r := NewReader(w.Bytes())
	out := r.U16s()
	assert.Nil(t, out)
	require.ErrorIs(t, r.Err(), ErrTruncated)
}
