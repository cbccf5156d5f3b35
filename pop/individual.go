package pop

import (
	"fmt"

	"popkit/genostru"
)

// Allele is one allele slot of the genotype buffer.
type Allele = uint16

// Individual view flags. Both are set on every freshly wired view; an
// activated virtual subpopulation clears them selectively.
const (
	flagVisible uint8 = 1 << iota
	flagIterable

	flagAll = flagVisible | flagIterable
)

// Individual is a view into its owning population's buffers. It stores
// offsets, not pointers, so relocating the buffers never invalidates it: the
// view stays correct relative to whichever buffer set currently owns it.
//
// The view is 24 bytes regardless of the genotype width. Obtain one with
// Population.Ind; it stays valid until the next structural mutation of the
// owning population.
type Individual struct {
	stru    genostru.Index
	genoOff int
	infoOff int
	tag     int32
	flags   uint8
}

// Structure returns the individual's interned genotypic structure.
func (ind *Individual) Structure() *genostru.Structure {
	return genostru.MustGet(ind.stru)
}

// Tag returns the individual's reassignment tag. Tags drive the tag-based
// subpopulation operations: a nonnegative tag is a destination subpopulation
// id, a negative tag marks the individual for removal.
func (ind *Individual) Tag() int { return int(ind.tag) }

// SetTag sets the reassignment tag.
func (ind *Individual) SetTag(tag int) { ind.tag = int32(tag) }

// Visible reports whether the individual is visible under the currently
// activated virtual subpopulation, or true when none is active.
func (ind *Individual) Visible() bool { return ind.flags&flagVisible != 0 }

// Iterable reports whether the individual participates in filtered
// iteration under the currently activated virtual subpopulation.
func (ind *Individual) Iterable() bool { return ind.flags&flagIterable != 0 }

// Genotype returns the individual's full genotype slice within p's buffer.
// The slice aliases the live buffer; writes through it are writes to the
// population.
func (ind *Individual) Genotype(p *Population) []Allele {
	gs := ind.Structure().GenoSize()
	return p.genotype[ind.genoOff : ind.genoOff+gs : ind.genoOff+gs]
}

// GenotypePloidy returns the slice of one ploidy segment.
func (ind *Individual) GenotypePloidy(p *Population, ply int) ([]Allele, error) {
	stru := ind.Structure()
	if ply < 0 || ply >= stru.Ploidy() {
		return nil, fmt.Errorf("%w: ploidy %d of %d", ErrIndexOutOfRange, ply, stru.Ploidy())
	}
	tot := stru.TotNumLoci()
	off := ind.genoOff + ply*tot
	return p.genotype[off : off+tot : off+tot], nil
}

// Allele returns the allele at (absolute locus, ploidy segment).
func (ind *Individual) Allele(p *Population, locus, ply int) (Allele, error) {
	seg, err := ind.GenotypePloidy(p, ply)
	if err != nil {
		return 0, err
	}
	if locus < 0 || locus >= len(seg) {
		return 0, fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, locus, len(seg))
	}
	return seg[locus], nil
}

// SetAllele stores an allele at (absolute locus, ploidy segment), clamping
// nothing: values above the structure's MaxAllele are rejected.
func (ind *Individual) SetAllele(p *Population, locus, ply int, v Allele) error {
	seg, err := ind.GenotypePloidy(p, ply)
	if err != nil {
		return err
	}
	if locus < 0 || locus >= len(seg) {
		return fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, locus, len(seg))
	}
	if int(v) > ind.Structure().MaxAllele() {
		return fmt.Errorf("%w: allele %d above max %d", ErrIndexOutOfRange, v, ind.Structure().MaxAllele())
	}
	seg[locus] = v
	return nil
}

// Info returns the information field value at slot idx.
func (ind *Individual) Info(p *Population, idx int) (float64, error) {
	is := ind.Structure().InfoSize()
	if idx < 0 || idx >= is {
		return 0, fmt.Errorf("%w: information field %d of %d", ErrIndexOutOfRange, idx, is)
	}
	return p.info[ind.infoOff+idx], nil
}

// SetInfo stores an information field value at slot idx.
func (ind *Individual) SetInfo(p *Population, idx int, v float64) error {
	is := ind.Structure().InfoSize()
	if idx < 0 || idx >= is {
		return fmt.Errorf("%w: information field %d of %d", ErrIndexOutOfRange, idx, is)
	}
	p.info[ind.infoOff+idx] = v
	return nil
}

// InfoByName is Info with a field-name lookup.
func (ind *Individual) InfoByName(p *Population, name string) (float64, error) {
	idx, err := ind.Structure().InfoIdx(name)
	if err != nil {
		return 0, err
	}
	return ind.Info(p, idx)
}

// SetInfoByName is SetInfo with a field-name lookup.
func (ind *Individual) SetInfoByName(p *Population, name string, v float64) error {
	idx, err := ind.Structure().InfoIdx(name)
	if err != nil {
		return err
	}
	return ind.SetInfo(p, idx, v)
}

// InfoSlice returns the individual's full information slice within p's
// buffer. The slice aliases the live buffer.
func (ind *Individual) InfoSlice(p *Population) []float64 {
	is := ind.Structure().InfoSize()
	return p.info[ind.infoOff : ind.infoOff+is : ind.infoOff+is]
}
