package pop

import "errors"

var (
	// ErrSizeMismatch indicates size arguments inconsistent with the
	// population, such as split sizes that do not sum to the source
	// subpopulation.
	ErrSizeMismatch = errors.New("pop: size mismatch")

	// ErrBadProportions indicates proportions that do not sum to one.
	ErrBadProportions = errors.New("pop: proportions must sum to 1")

	// ErrStructureMismatch indicates two populations whose genotypic
	// structures differ where identical structures are required.
	ErrStructureMismatch = errors.New("pop: genotypic structures differ")

	// ErrIndexOutOfRange indicates a subpopulation, individual, locus, or
	// generation index outside the population's bounds.
	ErrIndexOutOfRange = errors.New("pop: index out of range")

	// ErrActiveVirtualSubPop indicates a structural mutation attempted while
	// a virtual subpopulation is activated. Deactivate first.
	ErrActiveVirtualSubPop = errors.New("pop: virtual subpopulation is activated")

	// ErrNotLiveGeneration indicates an operation that requires the cursor
	// to sit on the live (most recent) generation.
	ErrNotLiveGeneration = errors.New("pop: not viewing the live generation")

	// ErrKeepRemoveExclusive indicates that both a keep list and a remove
	// list were supplied to a locus trimming call.
	ErrKeepRemoveExclusive = errors.New("pop: keep and remove lists are mutually exclusive")

	// ErrAllocTooLarge indicates a requested buffer size that overflows, or
	// exceeds addressable memory.
	ErrAllocTooLarge = errors.New("pop: requested buffer size too large")

	// ErrInconsistent indicates that Validate found internal bookkeeping out
	// of sync with the buffers.
	ErrInconsistent = errors.New("pop: inconsistent internal state")

	// ErrSamePopulation indicates a cross-population operation whose donor
	// is the receiver itself, or shares its buffers.
	ErrSamePopulation = errors.New("pop: donor population is the receiver")

	// ErrNoSplitter indicates a virtual subpopulation operation on a
	// population with no splitter attached.
	ErrNoSplitter = errors.New("pop: no virtual subpopulation splitter attached")

	// ErrBadArchive indicates a stream that is not a population archive, or
	// one written by a newer format version.
	ErrBadArchive = errors.New("pop: bad population archive")
)
