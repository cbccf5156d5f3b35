// Package buf provides overflow-safe size arithmetic and bounds checking for
// the flat genotype and information buffers. Every buffer (re)allocation in
// the population engine computes its length as a product of counts; these
// helpers guarantee the product is validated before any allocation happens.
package buf

import (
	"fmt"
	"math"
)

// AddOK adds a and b, returning ok = false when the result would overflow int.
func AddOK(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOK multiplies a and b, returning ok = false when the result would
// overflow int. This is the core guard for count * slotWidth calculations.
func MulOK(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > 0 && b > 0 {
		if a > math.MaxInt/b {
			return 0, false
		}
	}
	if a < 0 && b < 0 {
		if a < math.MaxInt/b {
			return 0, false
		}
	}
	if a > 0 && b < 0 {
		if b < math.MinInt/a {
			return 0, false
		}
	}
	if a < 0 && b > 0 {
		if a < math.MinInt/b {
			return 0, false
		}
	}
	return a * b, true
}

// Product multiplies all terms, returning ok = false on overflow or any
// negative term. Used for individualCount * slotsPerIndividual products.
func Product(terms ...int) (int, bool) {
	p := 1
	for _, t := range terms {
		if t < 0 {
			return 0, false
		}
		var ok bool
		p, ok = MulOK(p, t)
		if !ok {
			return 0, false
		}
	}
	return p, true
}

// Sum adds all terms, returning ok = false on overflow or any negative term.
func Sum(terms []int) (int, bool) {
	s := 0
	for _, t := range terms {
		if t < 0 {
			return 0, false
		}
		var ok bool
		s, ok = AddOK(s, t)
		if !ok {
			return 0, false
		}
	}
	return s, true
}

// CheckVector validates that count elements of elemSize bytes fit in a buffer
// of bufLen bytes starting at off. Returns the end offset if valid, or an
// error describing the specific failure (overflow or out of bounds). The
// archive decoder calls this before every bulk read.
func CheckVector(bufLen, off, count, elemSize int) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if elemSize < 0 {
		return 0, fmt.Errorf("negative element size: %d", elemSize)
	}
	total, ok := MulOK(count, elemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}
	end, ok := AddOK(off, total)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", off, total)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return end, nil
}
