package pop

import (
	"fmt"
	"os"
	"slices"

	"popkit/genostru"
	"popkit/internal/buf"
)

// Diagnosticf reports recoverable degradation events, such as dropping
// ancestral generations when cloning runs out of memory. Replace it to
// route diagnostics elsewhere; the default writes to stderr.
var Diagnosticf = func(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// debugPop enables verbose tracing of buffer transfers.
var debugPop = os.Getenv("POPKIT_DEBUG") != ""

// Config describes a new population.
type Config struct {
	// Structure is the genotypic layout shared by every individual.
	Structure genostru.Spec

	// SubPopSizes gives the size of each subpopulation. Empty means a
	// single subpopulation of Size individuals.
	SubPopSizes []int

	// Size is the total size when SubPopSizes is empty.
	Size int

	// AncestralDepth caps the number of retained ancestral generations:
	// 0 keeps none, a positive n keeps the most recent n, and -1 keeps
	// every generation.
	AncestralDepth int
}

// Population holds one live generation plus any retained ancestral
// snapshots. See the package documentation for the buffer model.
type Population struct {
	struIdx genostru.Index

	// Live generation.
	popSize     int
	subPopSize  []int
	subPopIndex []int // prefix sums, len = numSubPop+1
	genotype    []Allele
	info        []float64
	inds        []Individual
	indOrdered  bool

	// Ancestral snapshots, most recent first when the cursor is at the
	// live generation. curGen is the cursor: at curGen = g, slot i holds
	// generation i+1 for i >= g, slot i holds generation i for i < g, and
	// the live fields hold generation g.
	ancestralDepth int
	ancestral      []genData
	curGen         int

	splitter     Splitter
	activeSubPop int // physical id of the activated subpopulation, -1 if none
	activeVSP    int
	activeMode   ActivationMode

	gen int // generation counter, maintained by the caller

	varsID    string
	varsStore VarStore
}

// New builds a population of cfg.SubPopSizes (or cfg.Size) individuals with
// every allele zero and every information field zero.
func New(cfg Config) (*Population, error) {
	stru, err := genostru.NewStructure(cfg.Structure)
	if err != nil {
		return nil, err
	}
	idx, err := genostru.Intern(stru)
	if err != nil {
		return nil, err
	}

	sizes := slices.Clone(cfg.SubPopSizes)
	if len(sizes) == 0 {
		if cfg.Size < 0 {
			return nil, fmt.Errorf("%w: negative population size %d", ErrSizeMismatch, cfg.Size)
		}
		sizes = []int{cfg.Size}
	}
	if cfg.AncestralDepth < -1 {
		return nil, fmt.Errorf("%w: ancestral depth %d", ErrSizeMismatch, cfg.AncestralDepth)
	}

	p, err := newWithStructure(idx, sizes)
	if err != nil {
		return nil, err
	}
	p.ancestralDepth = cfg.AncestralDepth
	return p, nil
}

// newWithStructure allocates a zeroed population over an already interned
// structure. Shared by New, extraction, and the archive decoder.
func newWithStructure(idx genostru.Index, sizes []int) (*Population, error) {
	total, ok := buf.Sum(sizes)
	if !ok {
		return nil, fmt.Errorf("%w: subpopulation sizes overflow", ErrAllocTooLarge)
	}

	p := &Population{
		struIdx:      idx,
		subPopSize:   slices.Clone(sizes),
		activeSubPop: -1,
	}
	gd, err := p.allocGen(total)
	if err != nil {
		return nil, err
	}
	p.adoptGen(gd)
	p.rebuildIndex()
	return p, nil
}

func (p *Population) stru() *genostru.Structure { return genostru.MustGet(p.struIdx) }

// Structure returns the population's interned genotypic structure.
func (p *Population) Structure() *genostru.Structure { return p.stru() }

// StructureIndex returns the registry index of the population's structure.
func (p *Population) StructureIndex() genostru.Index { return p.struIdx }

// GenoSize returns the genotype slots per individual.
func (p *Population) GenoSize() int { return p.stru().GenoSize() }

// InfoSize returns the information slots per individual.
func (p *Population) InfoSize() int { return p.stru().InfoSize() }

// Size returns the number of individuals in the viewed generation.
func (p *Population) Size() int { return p.popSize }

// NumSubPops returns the number of subpopulations.
func (p *Population) NumSubPops() int { return len(p.subPopSize) }

// SubPopSize returns the size of one subpopulation.
func (p *Population) SubPopSize(sp int) (int, error) {
	if sp < 0 || sp >= len(p.subPopSize) {
		return 0, fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, sp, len(p.subPopSize))
	}
	return p.subPopSize[sp], nil
}

// SubPopSizes returns a copy of all subpopulation sizes.
func (p *Population) SubPopSizes() []int { return slices.Clone(p.subPopSize) }

// SubPopBegin returns the absolute index of the first individual of sp.
func (p *Population) SubPopBegin(sp int) (int, error) {
	if sp < 0 || sp >= len(p.subPopSize) {
		return 0, fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, sp, len(p.subPopSize))
	}
	return p.subPopIndex[sp], nil
}

// SubPopEnd returns one past the absolute index of the last individual of sp.
func (p *Population) SubPopEnd(sp int) (int, error) {
	if sp < 0 || sp >= len(p.subPopSize) {
		return 0, fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, sp, len(p.subPopSize))
	}
	return p.subPopIndex[sp+1], nil
}

// AbsIndex converts a (subpopulation, index-in-subpopulation) coordinate to
// an absolute individual index.
func (p *Population) AbsIndex(sp, idx int) (int, error) {
	begin, err := p.SubPopBegin(sp)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= p.subPopSize[sp] {
		return 0, fmt.Errorf("%w: individual %d of %d in subpopulation %d", ErrIndexOutOfRange, idx, p.subPopSize[sp], sp)
	}
	return begin + idx, nil
}

// SubPopOf returns the subpopulation containing absolute index i.
func (p *Population) SubPopOf(i int) (int, error) {
	if i < 0 || i >= p.popSize {
		return 0, fmt.Errorf("%w: individual %d of %d", ErrIndexOutOfRange, i, p.popSize)
	}
	sp := 0
	for i >= p.subPopIndex[sp+1] {
		sp++
	}
	return sp, nil
}

// Ind returns the view of the individual at absolute index i. The pointer
// stays valid until the next structural mutation.
func (p *Population) Ind(i int) (*Individual, error) {
	if i < 0 || i >= p.popSize {
		return nil, fmt.Errorf("%w: individual %d of %d", ErrIndexOutOfRange, i, p.popSize)
	}
	return &p.inds[i], nil
}

// IndAt returns the view at a (subpopulation, index) coordinate.
func (p *Population) IndAt(sp, idx int) (*Individual, error) {
	abs, err := p.AbsIndex(sp, idx)
	if err != nil {
		return nil, err
	}
	return &p.inds[abs], nil
}

// Ordered reports whether the views of the current generation appear in
// buffer order, i.e. individual i's data starts at i*slotWidth.
func (p *Population) Ordered() bool { return p.indOrdered }

// Gen returns the caller-maintained generation counter.
func (p *Population) Gen() int { return p.gen }

// SetGen sets the generation counter.
func (p *Population) SetGen(g int) { p.gen = g }

// rebuildIndex recomputes the subpopulation prefix sums.
func (p *Population) rebuildIndex() {
	if cap(p.subPopIndex) < len(p.subPopSize)+1 {
		p.subPopIndex = make([]int, len(p.subPopSize)+1)
	}
	p.subPopIndex = p.subPopIndex[:len(p.subPopSize)+1]
	p.subPopIndex[0] = 0
	for i, s := range p.subPopSize {
		p.subPopIndex[i+1] = p.subPopIndex[i] + s
	}
}

// guardMutate rejects structural mutation while a virtual subpopulation is
// activated, since activation flags are positional.
func (p *Population) guardMutate() error {
	if p.activeSubPop >= 0 {
		return ErrActiveVirtualSubPop
	}
	return nil
}

// allocGen allocates a fresh zeroed buffer set for n individuals, wired in
// buffer order. Sizes are overflow-checked before any allocation.
func (p *Population) allocGen(n int) (genData, error) {
	gs, is := p.GenoSize(), p.InfoSize()
	genoLen, ok := buf.Product(n, gs)
	if !ok {
		return genData{}, fmt.Errorf("%w: %d individuals * %d genotype slots", ErrAllocTooLarge, n, gs)
	}
	infoLen, ok := buf.Product(n, is)
	if !ok {
		return genData{}, fmt.Errorf("%w: %d individuals * %d information slots", ErrAllocTooLarge, n, is)
	}

	gd := genData{
		genotype:   make([]Allele, genoLen),
		info:       make([]float64, infoLen),
		inds:       make([]Individual, n),
		indOrdered: true,
	}
	wireViews(gd.inds, p.struIdx, gs, is)
	return gd, nil
}

// wireViews assigns sequential buffer offsets and fresh flags to views.
func wireViews(inds []Individual, idx genostru.Index, genoSize, infoSize int) {
	for i := range inds {
		inds[i].stru = idx
		inds[i].genoOff = i * genoSize
		inds[i].infoOff = i * infoSize
		inds[i].flags = flagAll
	}
}

// adoptGen moves a buffer set into the live slot, discarding the previous
// live buffers.
func (p *Population) adoptGen(gd genData) {
	p.genotype = gd.genotype
	p.info = gd.info
	p.inds = gd.inds
	p.indOrdered = gd.indOrdered
	p.popSize = len(gd.inds)
}

// Validate cross-checks the bookkeeping of the viewed generation against
// the buffers. It returns ErrInconsistent with a description on the first
// violation found.
func (p *Population) Validate() error {
	gs, is := p.GenoSize(), p.InfoSize()
	if len(p.inds) != p.popSize {
		return fmt.Errorf("%w: %d views for %d individuals", ErrInconsistent, len(p.inds), p.popSize)
	}
	if len(p.genotype) != p.popSize*gs {
		return fmt.Errorf("%w: genotype buffer %d != %d*%d", ErrInconsistent, len(p.genotype), p.popSize, gs)
	}
	if len(p.info) != p.popSize*is {
		return fmt.Errorf("%w: information buffer %d != %d*%d", ErrInconsistent, len(p.info), p.popSize, is)
	}
	sum := 0
	for _, s := range p.subPopSize {
		if s < 0 {
			return fmt.Errorf("%w: negative subpopulation size %d", ErrInconsistent, s)
		}
		sum += s
	}
	if sum != p.popSize {
		return fmt.Errorf("%w: subpopulation sizes sum to %d, population has %d", ErrInconsistent, sum, p.popSize)
	}
	if len(p.subPopIndex) != len(p.subPopSize)+1 {
		return fmt.Errorf("%w: index length %d for %d subpopulations", ErrInconsistent, len(p.subPopIndex), len(p.subPopSize))
	}
	for i, s := range p.subPopSize {
		if p.subPopIndex[i+1] != p.subPopIndex[i]+s {
			return fmt.Errorf("%w: index break at subpopulation %d", ErrInconsistent, i)
		}
	}
	for i := range p.inds {
		ind := &p.inds[i]
		if ind.stru != p.struIdx {
			return fmt.Errorf("%w: individual %d references structure %d, population uses %d", ErrInconsistent, i, ind.stru, p.struIdx)
		}
		if ind.genoOff < 0 || ind.genoOff+gs > len(p.genotype) {
			return fmt.Errorf("%w: individual %d genotype offset %d out of buffer", ErrInconsistent, i, ind.genoOff)
		}
		if ind.infoOff < 0 || ind.infoOff+is > len(p.info) {
			return fmt.Errorf("%w: individual %d information offset %d out of buffer", ErrInconsistent, i, ind.infoOff)
		}
	}
	if p.activeSubPop >= 0 && p.splitter == nil {
		return fmt.Errorf("%w: activation without a splitter", ErrInconsistent)
	}
	return nil
}

// Clone returns a deep copy. keepAncestral limits the copied ancestral
// generations: -1 copies all, 0 copies none, n copies the most recent n.
//
// Running out of memory while duplicating ancestral generations degrades
// the clone to its live generation only, with a diagnostic, rather than
// failing: the live copy is the part callers depend on.
func (p *Population) Clone(keepAncestral int) (*Population, error) {
	if p.curGen != 0 {
		return nil, ErrNotLiveGeneration
	}

	np := &Population{
		struIdx:        p.struIdx,
		popSize:        p.popSize,
		subPopSize:     slices.Clone(p.subPopSize),
		genotype:       slices.Clone(p.genotype),
		info:           slices.Clone(p.info),
		inds:           slices.Clone(p.inds),
		indOrdered:     p.indOrdered,
		ancestralDepth: p.ancestralDepth,
		splitter:       p.splitter,
		activeSubPop:   p.activeSubPop,
		activeVSP:      p.activeVSP,
		activeMode:     p.activeMode,
		gen:            p.gen,
		varsID:         p.varsID,
		varsStore:      p.varsStore,
	}
	np.rebuildIndex()

	n := len(p.ancestral)
	if keepAncestral >= 0 && keepAncestral < n {
		n = keepAncestral
	}
	if n > 0 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					np.degradeToLive(n, r)
				}
			}()
			np.ancestral = make([]genData, n)
			for i := 0; i < n; i++ {
				np.ancestral[i] = p.ancestral[i].clone()
			}
		}()
	}
	return np, nil
}

// degradeToLive drops a clone's ancestral history after a failed copy. The
// retention depth resets to zero with the history, so the degraded clone
// reports a consistent no-ancestry state.
func (np *Population) degradeToLive(n int, cause any) {
	np.ancestral = nil
	np.ancestralDepth = 0
	Diagnosticf("pop: unable to copy %d ancestral generations, clone keeps the live generation only: %v", n, cause)
}

func debugf(format string, args ...any) {
	if debugPop {
		fmt.Fprintf(os.Stderr, "popkit: "+format+"\n", args...)
	}
}
