package genostru

import (
	"fmt"
	"slices"
)

// Derivation methods. Each returns a brand-new Structure built from a copy
// of the receiver's layout; the receiver is never touched, so populations
// sharing the original entry are unaffected. Callers intern the result to
// obtain its Index.

// WithAddedChrom appends a chromosome with the given locus positions and
// optional names. Fails when the receiver's last chromosome is a sex
// chromosome, which must stay last.
func (s *Structure) WithAddedChrom(positions []float64, names []string) (Structure, error) {
	if s.sexChrom {
		return Structure{}, fmt.Errorf("%w: cannot append a chromosome after the sex chromosome", ErrBadLayout)
	}
	if len(positions) == 0 {
		return Structure{}, fmt.Errorf("%w: new chromosome needs at least one locus", ErrBadLayout)
	}
	if err := s.checkNamePolicy(names, len(positions)); err != nil {
		return Structure{}, err
	}

	spec := s.spec()
	spec.Loci = append(spec.Loci, len(positions))
	spec.LociPos = append(spec.LociPos, positions...)
	if len(spec.LociNames) != 0 {
		spec.LociNames = append(spec.LociNames, names...)
	}
	return NewStructure(spec)
}

// WithAddedLoci inserts loci into existing chromosomes, keeping positions
// strictly ascending within each chromosome. chroms and positions run in
// parallel; names is empty or parallel too. The second result maps each
// inserted locus, in argument order, to its absolute index in the new
// structure.
func (s *Structure) WithAddedLoci(chroms []int, positions []float64, names []string) (Structure, []int, error) {
	if len(chroms) != len(positions) {
		return Structure{}, nil, fmt.Errorf("%w: %d chromosomes for %d positions", ErrBadLayout, len(chroms), len(positions))
	}
	if err := s.checkNamePolicy(names, len(positions)); err != nil {
		return Structure{}, nil, err
	}

	type locus struct {
		pos  float64
		name string
		arg  int // argument order for new loci, -1 for existing
	}
	perChrom := make([][]locus, s.NumChrom())
	for ch := 0; ch < s.NumChrom(); ch++ {
		for i := s.chromIndex[ch]; i < s.chromIndex[ch+1]; i++ {
			name := ""
			if len(s.lociNames) != 0 {
				name = s.lociNames[i]
			}
			perChrom[ch] = append(perChrom[ch], locus{pos: s.lociPos[i], name: name, arg: -1})
		}
	}
	for i, ch := range chroms {
		if ch < 0 || ch >= s.NumChrom() {
			return Structure{}, nil, fmt.Errorf("%w: chromosome %d of %d", ErrIndexOutOfRange, ch, s.NumChrom())
		}
		name := ""
		if len(names) != 0 {
			name = names[i]
		}
		list := perChrom[ch]
		at := len(list)
		for j, l := range list {
			if positions[i] == l.pos {
				return Structure{}, nil, fmt.Errorf("%w: position %v already occupied on chromosome %d", ErrBadLayout, positions[i], ch)
			}
			if positions[i] < l.pos {
				at = j
				break
			}
		}
		perChrom[ch] = slices.Insert(list, at, locus{pos: positions[i], name: name, arg: i})
	}

	spec := s.spec()
	spec.Loci = spec.Loci[:0]
	spec.LociPos = spec.LociPos[:0]
	hasNames := len(s.lociNames) != 0
	spec.LociNames = spec.LociNames[:0]
	newIdx := make([]int, len(chroms))
	abs := 0
	for _, list := range perChrom {
		spec.Loci = append(spec.Loci, len(list))
		for _, l := range list {
			spec.LociPos = append(spec.LociPos, l.pos)
			if hasNames {
				spec.LociNames = append(spec.LociNames, l.name)
			}
			if l.arg >= 0 {
				newIdx[l.arg] = abs
			}
			abs++
		}
	}
	out, err := NewStructure(spec)
	if err != nil {
		return Structure{}, nil, err
	}
	return out, newIdx, nil
}

// WithRemovedLoci keeps only the listed absolute loci, which must be
// strictly ascending and in range. Chromosomes that lose every locus remain
// as empty chromosomes so the chromosome numbering of survivors is stable.
func (s *Structure) WithRemovedLoci(keep []int) (Structure, error) {
	for i, loc := range keep {
		if loc < 0 || loc >= s.totNumLoci {
			return Structure{}, fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, loc, s.totNumLoci)
		}
		if i > 0 && loc <= keep[i-1] {
			return Structure{}, fmt.Errorf("%w: kept loci must be strictly ascending", ErrBadLayout)
		}
	}

	spec := s.spec()
	spec.Loci = make([]int, s.NumChrom())
	spec.LociPos = spec.LociPos[:0]
	hasNames := len(s.lociNames) != 0
	spec.LociNames = spec.LociNames[:0]
	for _, loc := range keep {
		ch, _, _ := s.ChromLocusPair(loc)
		spec.Loci[ch]++
		spec.LociPos = append(spec.LociPos, s.lociPos[loc])
		if hasNames {
			spec.LociNames = append(spec.LociNames, s.lociNames[loc])
		}
	}
	return NewStructure(spec)
}

// WithRearrangedLoci regroups the same total locus count into new
// per-chromosome counts, optionally with new positions. Empty newPos keeps
// the old positions, which must still be ascending under the new grouping.
// The sex-chromosome flag does not survive a rearrangement: chromosome
// identities change, so the result never marks a sex chromosome.
func (s *Structure) WithRearrangedLoci(newNumLoci []int, newPos []float64) (Structure, error) {
	tot := 0
	for _, n := range newNumLoci {
		tot += n
	}
	if tot != s.totNumLoci {
		return Structure{}, fmt.Errorf("%w: rearrangement changes total locus count (%d != %d)", ErrBadLayout, tot, s.totNumLoci)
	}
	spec := s.spec()
	spec.Loci = slices.Clone(newNumLoci)
	if len(newPos) != 0 {
		spec.LociPos = slices.Clone(newPos)
	}
	spec.SexChrom = false // chromosome identities change; no sex chromosome survives
	return NewStructure(spec)
}

// WithAddedInfoFields appends the names not already present, preserving the
// order of existing fields and the argument order of new ones.
func (s *Structure) WithAddedInfoFields(names []string) (Structure, error) {
	spec := s.spec()
	for _, n := range names {
		if !slices.Contains(spec.InfoFields, n) {
			spec.InfoFields = append(spec.InfoFields, n)
		}
	}
	return NewStructure(spec)
}

// WithInfoFields replaces the information field list entirely.
func (s *Structure) WithInfoFields(names []string) (Structure, error) {
	spec := s.spec()
	spec.InfoFields = slices.Clone(names)
	return NewStructure(spec)
}

// MergedChroms appends other's chromosomes after the receiver's, for the
// add-chromosomes-from-population operation. Ploidy modes must match and
// the receiver must not carry a sex chromosome (it would no longer be last).
func (s *Structure) MergedChroms(other *Structure) (Structure, error) {
	if s.ploidy != other.ploidy || s.haplodiploid != other.haplodiploid {
		return Structure{}, fmt.Errorf("%w: ploidy differs (%d vs %d)", ErrBadLayout, s.ploidy, other.ploidy)
	}
	if s.sexChrom {
		return Structure{}, fmt.Errorf("%w: cannot append chromosomes after the sex chromosome", ErrBadLayout)
	}
	if (len(s.lociNames) == 0) != (len(other.lociNames) == 0) {
		return Structure{}, fmt.Errorf("%w: locus naming differs between structures", ErrBadLayout)
	}

	spec := s.spec()
	spec.Loci = append(spec.Loci, other.numLoci...)
	spec.LociPos = append(spec.LociPos, other.lociPos...)
	spec.LociNames = append(spec.LociNames, other.lociNames...)
	spec.SexChrom = other.sexChrom
	spec.MaxAllele = max(s.maxAllele, other.maxAllele)
	return NewStructure(spec)
}

// MergedLoci merges other's loci into the receiver's chromosomes by genetic
// position, for the add-loci-from-population operation. Both structures
// need the same chromosome count and ploidy mode; positions may not
// collide. The returned index slices map every locus of the receiver and of
// other, respectively, to its absolute index in the merged structure.
func (s *Structure) MergedLoci(other *Structure) (Structure, []int, []int, error) {
	if s.ploidy != other.ploidy || s.haplodiploid != other.haplodiploid {
		return Structure{}, nil, nil, fmt.Errorf("%w: ploidy differs (%d vs %d)", ErrBadLayout, s.ploidy, other.ploidy)
	}
	if s.NumChrom() != other.NumChrom() {
		return Structure{}, nil, nil, fmt.Errorf("%w: chromosome count differs (%d vs %d)", ErrBadLayout, s.NumChrom(), other.NumChrom())
	}
	if (len(s.lociNames) == 0) != (len(other.lociNames) == 0) {
		return Structure{}, nil, nil, fmt.Errorf("%w: locus naming differs between structures", ErrBadLayout)
	}

	spec := s.spec()
	spec.Loci = make([]int, s.NumChrom())
	spec.LociPos = spec.LociPos[:0]
	hasNames := len(s.lociNames) != 0
	spec.LociNames = spec.LociNames[:0]
	idx1 := make([]int, s.totNumLoci)
	idx2 := make([]int, other.totNumLoci)

	abs := 0
	for ch := 0; ch < s.NumChrom(); ch++ {
		i, iEnd := s.chromIndex[ch], s.chromIndex[ch+1]
		j, jEnd := other.chromIndex[ch], other.chromIndex[ch+1]
		for i < iEnd || j < jEnd {
			takeOurs := j >= jEnd || (i < iEnd && s.lociPos[i] < other.lociPos[j])
			if i < iEnd && j < jEnd && s.lociPos[i] == other.lociPos[j] {
				return Structure{}, nil, nil, fmt.Errorf("%w: position %v occupied in both structures on chromosome %d",
					ErrBadLayout, s.lociPos[i], ch)
			}
			if takeOurs {
				spec.LociPos = append(spec.LociPos, s.lociPos[i])
				if hasNames {
					spec.LociNames = append(spec.LociNames, s.lociNames[i])
				}
				idx1[i] = abs
				i++
			} else {
				spec.LociPos = append(spec.LociPos, other.lociPos[j])
				if hasNames {
					spec.LociNames = append(spec.LociNames, other.lociNames[j])
				}
				idx2[j] = abs
				j++
			}
			spec.Loci[ch]++
			abs++
		}
	}
	spec.MaxAllele = max(s.maxAllele, other.maxAllele)
	out, err := NewStructure(spec)
	if err != nil {
		return Structure{}, nil, nil, err
	}
	return out, idx1, idx2, nil
}

// checkNamePolicy enforces that locus names stay all-or-nothing: a named
// structure requires names for inserted loci, an unnamed one forbids them.
func (s *Structure) checkNamePolicy(names []string, count int) error {
	if len(s.lociNames) != 0 {
		if len(names) != count {
			return fmt.Errorf("%w: structure has locus names; %d names needed for %d new loci", ErrBadLayout, len(names), count)
		}
		return nil
	}
	if len(names) != 0 {
		return fmt.Errorf("%w: structure has no locus names; cannot name new loci", ErrBadLayout)
	}
	return nil
}
