package pop

import (
	"fmt"
	"slices"
)

// genData is one parked generation: the buffer set of a generation that is
// not currently live. Transfers between the live slot and a genData swap
// slice headers only.
type genData struct {
	subPopSize []int
	genotype   []Allele
	info       []float64
	inds       []Individual
	indOrdered bool
}

func (gd *genData) clone() genData {
	return genData{
		subPopSize: slices.Clone(gd.subPopSize),
		genotype:   slices.Clone(gd.genotype),
		info:       slices.Clone(gd.info),
		inds:       slices.Clone(gd.inds),
		indOrdered: gd.indOrdered,
	}
}

// swapGen exchanges the live buffer set with a parked one and rebuilds the
// live bookkeeping. Three slice-header transfers per buffer, no copying.
func (p *Population) swapGen(gd *genData) {
	p.subPopSize, gd.subPopSize = gd.subPopSize, p.subPopSize
	p.genotype, gd.genotype = gd.genotype, p.genotype
	p.info, gd.info = gd.info, p.info
	p.inds, gd.inds = gd.inds, p.inds
	p.indOrdered, gd.indOrdered = gd.indOrdered, p.indOrdered
	p.fixBookkeeping()
}

// fixBookkeeping recomputes popSize and the prefix index after a buffer
// transfer. When the stored sizes do not cover the views (a parked
// generation from an older layout), sizes are recovered by counting tags.
func (p *Population) fixBookkeeping() {
	p.popSize = len(p.inds)
	sum := 0
	for _, s := range p.subPopSize {
		sum += s
	}
	if sum != p.popSize {
		p.recoverSizesFromTags()
	}
	p.rebuildIndex()
}

func (p *Population) recoverSizesFromTags() {
	maxTag := -1
	for i := range p.inds {
		if int(p.inds[i].tag) > maxTag {
			maxTag = int(p.inds[i].tag)
		}
	}
	if maxTag < 0 {
		p.subPopSize = []int{p.popSize}
		return
	}
	sizes := make([]int, maxTag+1)
	for i := range p.inds {
		if t := int(p.inds[i].tag); t >= 0 {
			sizes[t]++
		}
	}
	p.subPopSize = sizes
}

// AncestralGens returns the number of retained ancestral generations.
func (p *Population) AncestralGens() int { return len(p.ancestral) }

// CurAncestralGen returns the cursor position: 0 for the live generation,
// k for the generation k steps back.
func (p *Population) CurAncestralGen() int { return p.curGen }

// AncestralDepth returns the retention cap (-1 unlimited, 0 none).
func (p *Population) AncestralDepth() int { return p.ancestralDepth }

// SetAncestralDepth changes the retention cap, evicting the oldest stored
// generations if the new cap is smaller. The cursor must sit on the live
// generation, otherwise the stored slots could not be trimmed consistently.
func (p *Population) SetAncestralDepth(depth int) error {
	if p.curGen != 0 {
		return ErrNotLiveGeneration
	}
	if depth < -1 {
		return fmt.Errorf("%w: ancestral depth %d", ErrSizeMismatch, depth)
	}
	if depth >= 0 && len(p.ancestral) > depth {
		p.ancestral = slices.Delete(p.ancestral, depth, len(p.ancestral))
	}
	p.ancestralDepth = depth
	return nil
}

// PushAndDiscard advances the population one generation: the live buffer
// set is parked as the newest ancestral snapshot (or discarded when no
// history is kept), next's buffers become the live generation, and next is
// left holding the evicted buffers. The whole advance is buffer-ownership
// transfers; nothing is copied, and at the retention cap nothing is
// allocated either.
func (p *Population) PushAndDiscard(next *Population) error {
	if next == nil || next == p {
		return ErrSamePopulation
	}
	if len(p.genotype) > 0 && len(next.genotype) > 0 && &p.genotype[0] == &next.genotype[0] {
		return ErrSamePopulation
	}
	if p.curGen != 0 || next.curGen != 0 {
		return ErrNotLiveGeneration
	}
	if p.struIdx != next.struIdx {
		return fmt.Errorf("%w: cannot push generation with a different structure", ErrStructureMismatch)
	}
	if p.activeSubPop >= 0 || next.activeSubPop >= 0 {
		return ErrActiveVirtualSubPop
	}

	if p.ancestralDepth != 0 {
		if p.ancestralDepth > 0 && len(p.ancestral) == p.ancestralDepth {
			// At capacity: reuse the oldest slot instead of growing.
			last := len(p.ancestral) - 1
			copy(p.ancestral[1:], p.ancestral[:last])
			p.ancestral[0] = genData{}
			debugf("push: evicted oldest ancestral generation")
		} else {
			p.ancestral = slices.Insert(p.ancestral, 0, genData{})
		}
		p.swapGen(&p.ancestral[0])
	}

	p.subPopSize, next.subPopSize = next.subPopSize, p.subPopSize
	p.genotype, next.genotype = next.genotype, p.genotype
	p.info, next.info = next.info, p.info
	p.inds, next.inds = next.inds, p.inds
	p.indOrdered, next.indOrdered = next.indOrdered, p.indOrdered
	p.fixBookkeeping()
	next.fixBookkeeping()
	debugf("push: live generation now %d individuals", p.popSize)
	return nil
}

// UseAncestralGen moves the cursor to generation k (0 = live). The walk
// exchanges adjacent buffer sets one step at a time, so intermediate states
// are always consistent and a round trip restores every generation exactly.
func (p *Population) UseAncestralGen(k int) error {
	if k < 0 || k > len(p.ancestral) {
		return fmt.Errorf("%w: generation %d of %d", ErrIndexOutOfRange, k, len(p.ancestral))
	}
	if k != p.curGen && p.activeSubPop >= 0 {
		return ErrActiveVirtualSubPop
	}
	for p.curGen < k {
		p.swapGen(&p.ancestral[p.curGen])
		p.curGen++
	}
	for p.curGen > k {
		p.swapGen(&p.ancestral[p.curGen-1])
		p.curGen--
	}
	return nil
}

// forEachGenOldestFirst walks every retained generation from the oldest to
// the live one, invoking fn with that generation live, then restores the
// original cursor. Structural mutators use it to apply a relayout to every
// generation through the same live-slot code path.
func (p *Population) forEachGenOldestFirst(fn func() error) error {
	orig := p.curGen
	for depth := len(p.ancestral); depth >= 0; depth-- {
		if err := p.UseAncestralGen(depth); err != nil {
			return err
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return p.UseAncestralGen(orig)
}

// Ancestor returns the view of individual idx in generation gen back
// (0 = live). The cursor must sit on the live generation; for other
// cursors use UseAncestralGen and the ordinary accessors.
func (p *Population) Ancestor(gen, idx int) (*Individual, error) {
	if p.curGen != 0 {
		return nil, ErrNotLiveGeneration
	}
	if gen == 0 {
		return p.Ind(idx)
	}
	if gen < 0 || gen > len(p.ancestral) {
		return nil, fmt.Errorf("%w: generation %d of %d", ErrIndexOutOfRange, gen, len(p.ancestral))
	}
	gd := &p.ancestral[gen-1]
	if idx < 0 || idx >= len(gd.inds) {
		return nil, fmt.Errorf("%w: individual %d of %d in generation %d", ErrIndexOutOfRange, idx, len(gd.inds), gen)
	}
	return &gd.inds[idx], nil
}

// AncestorGenotype returns a copy of the genotype of individual idx in
// generation gen back.
func (p *Population) AncestorGenotype(gen, idx int) ([]Allele, error) {
	ind, err := p.Ancestor(gen, idx)
	if err != nil {
		return nil, err
	}
	gs := p.GenoSize()
	buf := p.genotype
	if gen > 0 {
		buf = p.ancestral[gen-1].genotype
	}
	return slices.Clone(buf[ind.genoOff : ind.genoOff+gs]), nil
}

// AncestorInfo returns the information field idx of individual i in
// generation gen back.
func (p *Population) AncestorInfo(gen, i, idx int) (float64, error) {
	ind, err := p.Ancestor(gen, i)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= p.InfoSize() {
		return 0, fmt.Errorf("%w: information field %d of %d", ErrIndexOutOfRange, idx, p.InfoSize())
	}
	buf := p.info
	if gen > 0 {
		buf = p.ancestral[gen-1].info
	}
	return buf[ind.infoOff+idx], nil
}

// AncestorSubPopSizes returns the subpopulation sizes of generation gen back.
func (p *Population) AncestorSubPopSizes(gen int) ([]int, error) {
	if p.curGen != 0 {
		return nil, ErrNotLiveGeneration
	}
	if gen == 0 {
		return p.SubPopSizes(), nil
	}
	if gen < 0 || gen > len(p.ancestral) {
		return nil, fmt.Errorf("%w: generation %d of %d", ErrIndexOutOfRange, gen, len(p.ancestral))
	}
	return slices.Clone(p.ancestral[gen-1].subPopSize), nil
}
