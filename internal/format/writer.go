package format

import (
	"encoding/binary"
	"math"
)

// Writer builds an archive section as a growing little-endian byte buffer.
//
// After benchmarking the standard library's binary.LittleEndian proved as
// fast as hand-rolled encoders; the compiler inlines these calls, so no
// unsafe variants are used.
type Writer struct {
	b []byte
}

// NewWriter returns a Writer with the given initial capacity hint.
func NewWriter(capHint int) *Writer {
	return &Writer{b: make([]byte, 0, capHint)}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte { return w.b }

// Len returns the number of encoded bytes so far.
func (w *Writer) Len() int { return len(w.b) }

// U8 appends a single byte.
func (w *Writer) U8(v uint8) { w.b = append(w.b, v) }

// Bool appends a boolean as one byte (0 or 1).
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// U16 appends a uint16 in little-endian order.
func (w *Writer) U16(v uint16) {
	w.b = binary.LittleEndian.AppendUint16(w.b, v)
}

// U32 appends a uint32 in little-endian order.
func (w *Writer) U32(v uint32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, v)
}

// I32 appends an int32 in little-endian order.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// U64 appends a uint64 in little-endian order.
func (w *Writer) U64(v uint64) {
	w.b = binary.LittleEndian.AppendUint64(w.b, v)
}

// F64 appends a float64 as its IEEE 754 bit pattern.
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// String appends a u32 length prefix followed by the raw bytes.
func (w *Writer) String(s string) {
	w.U32(uint32(len(s)))
	w.b = append(w.b, s...)
}

// Strings appends a u32 count followed by each string.
func (w *Writer) Strings(ss []string) {
	w.U32(uint32(len(ss)))
	for _, s := range ss {
		w.String(s)
	}
}

// Ints appends a u32 count followed by each value as i64.
func (w *Writer) Ints(vs []int) {
	w.U32(uint32(len(vs)))
	for _, v := range vs {
		w.U64(uint64(v))
	}
}

// F64s appends a u32 count followed by each value.
func (w *Writer) F64s(vs []float64) {
	w.U32(uint32(len(vs)))
	for _, v := range vs {
		w.F64(v)
	}
}

// U16s appends a u32 count followed by each value. This is the bulk encoding
// used for genotype buffers.
func (w *Writer) U16s(vs []uint16) {
	w.U32(uint32(len(vs)))
	for _, v := range vs {
		w.U16(v)
	}
}
