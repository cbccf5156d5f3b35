package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"popkit/internal/buf"
)

// ErrTruncated indicates the archive ended before a field could be read.
var ErrTruncated = errors.New("format: truncated archive")

// maxVectorLen caps decoded vector lengths so a corrupt count cannot drive a
// huge allocation before the bounds check against the remaining bytes.
const maxVectorLen = 1 << 31

// Reader decodes an archive section from a byte buffer. All reads are
// bounds-checked; the first failure is sticky and reported by Err.
type Reader struct {
	b   []byte
	off int
	err error
}

// NewReader returns a Reader over the decoded (decompressed) archive bytes.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Err returns the first decode error, or nil.
func (r *Reader) Err() error { return r.err }

// Remaining reports the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	end, err := buf.CheckVector(len(r.b), r.off, n, 1)
	if err != nil {
		r.err = fmt.Errorf("%w: %v", ErrTruncated, err)
		return nil
	}
	p := r.b[r.off:end]
	r.off = end
	return p
}

// U8 reads a single byte.
func (r *Reader) U8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

// Bool reads a one-byte boolean.
func (r *Reader) Bool() bool { return r.U8() != 0 }

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

// I32 reads a little-endian int32.
func (r *Reader) I32() int32 { return int32(r.U32()) }

// U64 reads a little-endian uint64.
func (r *Reader) U64() uint64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

// F64 reads a float64 from its IEEE 754 bit pattern.
func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

func (r *Reader) count(elemSize int) int {
	n := int(r.U32())
	if r.err != nil {
		return 0
	}
	if n > maxVectorLen {
		r.err = fmt.Errorf("%w: vector length %d", ErrTruncated, n)
		return 0
	}
	if _, err := buf.CheckVector(len(r.b), r.off, n, elemSize); err != nil {
		r.err = fmt.Errorf("%w: %v", ErrTruncated, err)
		return 0
	}
	return n
}

// String reads a u32-length-prefixed string.
func (r *Reader) String() string {
	n := r.count(1)
	if r.err != nil {
		return ""
	}
	return string(r.take(n))
}

// Strings reads a u32-count-prefixed string list.
func (r *Reader) Strings() []string {
	n := r.count(4) // 4 = minimum encoded size per element (its length prefix)
	if r.err != nil {
		return nil
	}
	ss := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ss = append(ss, r.String())
		if r.err != nil {
			return nil
		}
	}
	return ss
}

// Ints reads a u32-count-prefixed list of i64 values.
func (r *Reader) Ints() []int {
	n := r.count(8)
	if r.err != nil {
		return nil
	}
	vs := make([]int, n)
	for i := range vs {
		vs[i] = int(r.U64())
	}
	if r.err != nil {
		return nil
	}
	return vs
}

// F64s reads a u32-count-prefixed list of float64 values.
func (r *Reader) F64s() []float64 {
	n := r.count(8)
	if r.err != nil {
		return nil
	}
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = r.F64()
	}
	if r.err != nil {
		return nil
	}
	return vs
}

// U16s reads a u32-count-prefixed list of uint16 values. This is the bulk
// decoding used for genotype buffers.
func (r *Reader) U16s() []uint16 {
	n := r.count(AlleleSize)
	if r.err != nil {
		return nil
	}
	vs := make([]uint16, n)
	for i := range vs {
		vs[i] = r.U16()
	}
	if r.err != nil {
		return nil
	}
	return vs
}
