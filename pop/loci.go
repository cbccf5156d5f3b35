package pop

import (
	"fmt"
	"slices"

	"popkit/genostru"
	"popkit/internal/buf"
)

// Genotypic structure operations. Each derives a new Structure from the
// current one, interns it, and rebuilds the genotype buffer of every
// retained generation under the new per-individual slot width. The new
// buffer of each generation is built fresh and swapped in whole; buffer
// sizes for every generation are validated before the first one is touched.

// relayoutGen rebuilds the viewed generation's genotype buffer under the
// new per-ploidy-segment width newPer. fill populates one ploidy segment of
// one individual from its old segment; unfilled slots stay zero.
func (p *Population) relayoutGen(newIdx genostru.Index, oldPer, newPer, ploidy int, fill func(i, ply int, dst, src []Allele)) error {
	newGS := newPer * ploidy
	geno, err := allocChecked[Allele](p.popSize, newGS)
	if err != nil {
		return err
	}
	for i := range p.inds {
		ind := &p.inds[i]
		for ply := 0; ply < ploidy; ply++ {
			src := p.genotype[ind.genoOff+ply*oldPer : ind.genoOff+(ply+1)*oldPer]
			dst := geno[i*newGS+ply*newPer : i*newGS+(ply+1)*newPer]
			fill(i, ply, dst, src)
		}
		ind.stru = newIdx
		ind.genoOff = i * newGS
	}
	p.genotype = geno
	p.indOrdered = true
	return nil
}

// checkRelayoutSizes validates the new buffer size of every retained
// generation before any of them is rebuilt.
func (p *Population) checkRelayoutSizes(newGenoSize int) error {
	counts := []int{len(p.inds)}
	for i := range p.ancestral {
		counts = append(counts, len(p.ancestral[i].inds))
	}
	for _, n := range counts {
		if _, ok := buf.Product(n, newGenoSize); !ok {
			return fmt.Errorf("%w: %d individuals * %d genotype slots", ErrAllocTooLarge, n, newGenoSize)
		}
	}
	return nil
}

// relayoutAllGens applies a genotype relayout to every retained generation
// and installs the new structure.
func (p *Population) relayoutAllGens(newIdx genostru.Index, fill func(i, ply int, dst, src []Allele)) error {
	oldStru, newStru := p.stru(), genostru.MustGet(newIdx)
	oldPer, newPer, ploidy := oldStru.TotNumLoci(), newStru.TotNumLoci(), oldStru.Ploidy()
	if err := p.checkRelayoutSizes(newStru.GenoSize()); err != nil {
		return err
	}
	err := p.forEachGenOldestFirst(func() error {
		if err := p.Repack(true); err != nil {
			return err
		}
		return p.relayoutGen(newIdx, oldPer, newPer, ploidy, fill)
	})
	if err != nil {
		return err
	}
	p.struIdx = newIdx
	return nil
}

// AddChrom appends a chromosome with the given locus positions and optional
// names to every generation. The new loci start out zero.
func (p *Population) AddChrom(positions []float64, names []string) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	derived, err := p.stru().WithAddedChrom(positions, names)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return err
	}
	return p.relayoutAllGens(idx, func(_, _ int, dst, src []Allele) {
		copy(dst, src)
	})
}

// AddLoci inserts loci into existing chromosomes by genetic position,
// keeping each chromosome's positions strictly ascending. It returns the
// absolute indices of the inserted loci in argument order. The new loci
// start out zero in every generation.
func (p *Population) AddLoci(chroms []int, positions []float64, names []string) ([]int, error) {
	if err := p.guardMutate(); err != nil {
		return nil, err
	}
	derived, inserted, err := p.stru().WithAddedLoci(chroms, positions, names)
	if err != nil {
		return nil, err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return nil, err
	}

	// Map every old locus to its slot in the new layout.
	isNew := make(map[int]bool, len(inserted))
	for _, a := range inserted {
		isNew[a] = true
	}
	oldToNew := make([]int, p.stru().TotNumLoci())
	j := 0
	for i := range oldToNew {
		for isNew[j] {
			j++
		}
		oldToNew[i] = j
		j++
	}

	err = p.relayoutAllGens(idx, func(_, _ int, dst, src []Allele) {
		for i, m := range oldToNew {
			dst[m] = src[i]
		}
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// RemoveLoci trims loci from every generation. Exactly one of remove and
// keep may be given: remove lists the loci to drop, keep the loci to
// retain, both as ascending absolute indices. Chromosomes losing every
// locus stay behind empty so surviving chromosome ids are stable.
func (p *Population) RemoveLoci(remove, keep []int) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if len(remove) != 0 && len(keep) != 0 {
		return ErrKeepRemoveExclusive
	}
	if len(remove) == 0 && len(keep) == 0 {
		return nil
	}
	if len(remove) != 0 {
		tot := p.stru().TotNumLoci()
		drop := make(map[int]bool, len(remove))
		for _, loc := range remove {
			if loc < 0 || loc >= tot {
				return fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, loc, tot)
			}
			drop[loc] = true
		}
		keep = make([]int, 0, tot-len(drop))
		for loc := 0; loc < tot; loc++ {
			if !drop[loc] {
				keep = append(keep, loc)
			}
		}
	}

	derived, err := p.stru().WithRemovedLoci(keep)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return err
	}
	kept := slices.Clone(keep)
	return p.relayoutAllGens(idx, func(_, _ int, dst, src []Allele) {
		for j, loc := range kept {
			dst[j] = src[loc]
		}
	})
}

// RearrangeLoci regroups the same total locus count into new
// per-chromosome counts, optionally with new positions. Allele data is
// untouched; only the structure's chromosome boundaries move.
func (p *Population) RearrangeLoci(newNumLoci []int, newPos []float64) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	derived, err := p.stru().WithRearrangedLoci(newNumLoci, newPos)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return err
	}
	for i := range p.inds {
		p.inds[i].stru = idx
	}
	for g := range p.ancestral {
		inds := p.ancestral[g].inds
		for i := range inds {
			inds[i].stru = idx
		}
	}
	p.struIdx = idx
	return nil
}

// checkDonor validates the shared preconditions of the cross-population
// structure operations: distinct populations, cursors on the live
// generation, no activation, equal generation counts, and per-generation
// equal subpopulation sizes.
func (p *Population) checkDonor(donor *Population, matchSizes bool) error {
	if donor == nil || donor == p {
		return ErrSamePopulation
	}
	if err := p.guardMutate(); err != nil {
		return err
	}
	if err := donor.guardMutate(); err != nil {
		return err
	}
	if p.curGen != 0 || donor.curGen != 0 {
		return ErrNotLiveGeneration
	}
	if len(p.ancestral) != len(donor.ancestral) {
		return fmt.Errorf("%w: %d vs %d ancestral generations", ErrSizeMismatch, len(p.ancestral), len(donor.ancestral))
	}
	if !matchSizes {
		return nil
	}
	if !slices.Equal(p.subPopSize, donor.subPopSize) {
		return fmt.Errorf("%w: subpopulation sizes differ in the live generation", ErrSizeMismatch)
	}
	for g := range p.ancestral {
		if len(p.ancestral[g].inds) != len(donor.ancestral[g].inds) {
			return fmt.Errorf("%w: generation %d sizes differ", ErrSizeMismatch, g+1)
		}
	}
	return nil
}

// lockstepGens walks p and donor through the same generations, oldest
// first, restoring both cursors afterwards.
func (p *Population) lockstepGens(donor *Population, fn func() error) error {
	err := func() error {
		for depth := len(p.ancestral); depth >= 0; depth-- {
			if err := p.UseAncestralGen(depth); err != nil {
				return err
			}
			if err := donor.UseAncestralGen(depth); err != nil {
				return err
			}
			if err := fn(); err != nil {
				return err
			}
		}
		return nil
	}()
	if e := p.UseAncestralGen(0); err == nil {
		err = e
	}
	if e := donor.UseAncestralGen(0); err == nil {
		err = e
	}
	return err
}

// AddChromFrom appends every chromosome of donor to every individual of p,
// generation by generation. Both populations must hold the same individual
// counts in every generation; individual i of p receives the chromosomes
// of individual i of donor.
func (p *Population) AddChromFrom(donor *Population) error {
	if err := p.checkDonor(donor, true); err != nil {
		return err
	}
	donorStru := donor.stru()
	merged, err := p.stru().MergedChroms(donorStru)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(merged)
	if err != nil {
		return err
	}
	if err := p.checkRelayoutSizes(merged.GenoSize()); err != nil {
		return err
	}

	oldPer := p.stru().TotNumLoci()
	newPer := merged.TotNumLoci()
	ploidy := p.stru().Ploidy()
	dTot := donorStru.TotNumLoci()
	err = p.lockstepGens(donor, func() error {
		if len(p.inds) != len(donor.inds) {
			return fmt.Errorf("%w: generation sizes differ", ErrSizeMismatch)
		}
		if err := p.Repack(true); err != nil {
			return err
		}
		return p.relayoutGen(idx, oldPer, newPer, ploidy, func(i, ply int, dst, src []Allele) {
			copy(dst, src)
			d := &donor.inds[i]
			copy(dst[len(src):], donor.genotype[d.genoOff+ply*dTot:d.genoOff+(ply+1)*dTot])
		})
	})
	if err != nil {
		return err
	}
	p.struIdx = idx
	return nil
}

// AddLociFrom merges donor's loci into p's chromosomes by genetic
// position, generation by generation. Chromosome counts and ploidy must
// match and no position may collide; individual i of p receives the allele
// data of individual i of donor at the donor loci.
func (p *Population) AddLociFrom(donor *Population) error {
	if err := p.checkDonor(donor, true); err != nil {
		return err
	}
	donorStru := donor.stru()
	merged, idx1, idx2, err := p.stru().MergedLoci(donorStru)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(merged)
	if err != nil {
		return err
	}
	if err := p.checkRelayoutSizes(merged.GenoSize()); err != nil {
		return err
	}

	oldPer := p.stru().TotNumLoci()
	newPer := merged.TotNumLoci()
	ploidy := p.stru().Ploidy()
	dTot := donorStru.TotNumLoci()
	err = p.lockstepGens(donor, func() error {
		if len(p.inds) != len(donor.inds) {
			return fmt.Errorf("%w: generation sizes differ", ErrSizeMismatch)
		}
		if err := p.Repack(true); err != nil {
			return err
		}
		return p.relayoutGen(idx, oldPer, newPer, ploidy, func(i, ply int, dst, src []Allele) {
			for k, m := range idx1 {
				dst[m] = src[k]
			}
			d := &donor.inds[i]
			dSrc := donor.genotype[d.genoOff+ply*dTot : d.genoOff+(ply+1)*dTot]
			for k, m := range idx2 {
				dst[m] = dSrc[k]
			}
		})
	})
	if err != nil {
		return err
	}
	p.struIdx = idx
	return nil
}

// AddIndividualsFrom appends donor's individuals to p, generation by
// generation: donor's subpopulations become additional subpopulations
// after p's. Both populations must share the identical structure.
func (p *Population) AddIndividualsFrom(donor *Population) error {
	if err := p.checkDonor(donor, false); err != nil {
		return err
	}
	if p.struIdx != donor.struIdx {
		return fmt.Errorf("%w: populations must share the identical structure", ErrStructureMismatch)
	}

	gs, is := p.GenoSize(), p.InfoSize()
	return p.lockstepGens(donor, func() error {
		total, ok := buf.AddOK(p.popSize, donor.popSize)
		if !ok {
			return ErrAllocTooLarge
		}
		if _, ok := buf.Product(total, gs); !ok {
			return ErrAllocTooLarge
		}
		if err := p.Repack(false); err != nil {
			return err
		}
		if err := donor.Repack(false); err != nil {
			return err
		}

		p.genotype = append(p.genotype, donor.genotype...)
		p.info = append(p.info, donor.info...)
		p.inds = append(p.inds, donor.inds...)
		for i := range p.inds {
			p.inds[i].genoOff = i * gs
			p.inds[i].infoOff = i * is
		}
		p.subPopSize = append(slices.Clone(p.subPopSize), donor.subPopSize...)
		p.popSize = total
		p.indOrdered = true
		p.rebuildIndex()
		return nil
	})
}
