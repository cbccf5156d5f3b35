// Package format defines the binary layout of population archives.
//
// Archives are little-endian. The descriptor block is tagged with a format
// version so newer decoders can read archives written by older writers:
//
//	Version 0: base layout (ploidy, loci counts, positions, names, max allele)
//	Version 1: adds the sex-chromosome flag
//	Version 2: adds the information-field name list
//
// A decoder must accept every version up to Version and fill missing fields
// with their documented defaults (sex chromosome false, no information
// fields).
package format

// Magic identifies a population archive. It precedes every archive stream,
// before the gzip-compressed payload is decoded.
const Magic = "POPK"

const (
	// VersionBase is the original descriptor layout.
	VersionBase = 0

	// VersionSexChrom added the sex-chromosome flag.
	VersionSexChrom = 1

	// VersionInfoFields added the information-field name list.
	VersionInfoFields = 2

	// Version is the current archive format version written by encoders.
	Version = VersionInfoFields
)

// Fixed element widths used by the bulk buffer sections.
const (
	AlleleSize = 2 // uint16 per allele slot
	InfoSize   = 8 // float64 per information slot
)
