package genostru

import "errors"

var (
	// ErrRegistryFull indicates the process-wide structure registry reached
	// its 256-entry capacity.
	ErrRegistryFull = errors.New("genostru: structure registry full (max 256 entries)")

	// ErrBadPloidy indicates a ploidy that is neither a positive integer
	// count nor the Haplodiploid marker.
	ErrBadPloidy = errors.New("genostru: ploidy must be a positive integer or Haplodiploid")

	// ErrBadLayout indicates inconsistent layout parameters, such as a
	// position list whose length does not match the locus count or positions
	// that are not strictly ascending within a chromosome.
	ErrBadLayout = errors.New("genostru: inconsistent layout parameters")

	// ErrFieldNotFound indicates a lookup of an information field that is
	// not part of the structure.
	ErrFieldNotFound = errors.New("genostru: information field not found")

	// ErrIndexOutOfRange indicates a chromosome, locus, or field index
	// outside the structure's bounds.
	ErrIndexOutOfRange = errors.New("genostru: index out of range")
)
