// Package pop implements the population container: contiguous genotype and
// information buffers shared by all individuals of a generation, lightweight
// per-individual views into them, and the structural operations that
// restructure a population without ever exposing a partially-consistent
// state.
//
// # Buffer model
//
// A Population owns one flat genotype buffer (individualCount * genoSize
// allele slots, where genoSize = totNumLoci * ploidy), one flat information
// buffer (individualCount * infoSize float64 slots), and one Individual view
// per member. A view holds offsets into the owning population's buffers,
// never pointers, so buffer relocation (resize, repack, generation transfer)
// re-derives nothing: the offsets stay valid relative to whichever buffer
// set currently owns them.
//
// Within an individual's genotype slice, loci are laid out chromosome-major
// inside each ploidy segment:
//
//	[ ploidy 0: chrom 0 loci..., chrom 1 loci..., ... | ploidy 1: ... ]
//
// # Structural mutation
//
// Every structural mutator follows the same shape: validate arguments, build
// the new buffer set into fresh temporaries, copy each surviving
// individual's data slice by slice, and swap the new buffers in. A failure
// raises before the live buffers are touched. Operations that reorder views
// without physically repacking the buffers clear the ordered flag; Repack
// restores buffer-contiguous order and is applied automatically where an
// operation needs it.
//
// # Generations
//
// Advancing a generation (PushAndDiscard) transfers buffer ownership instead
// of copying: the live buffer set moves into the newest ancestral snapshot
// and the incoming generation's buffers move into the live slot. Walking to
// a historical generation (UseAncestralGen) exchanges adjacent buffer sets
// one step at a time, so exactly one owner holds any buffer at any moment.
//
// The package is single-threaded by design; a Population must not be shared
// across goroutines without external synchronization.
package pop
