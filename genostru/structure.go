package genostru

import (
	"fmt"
	"slices"
)

// Haplodiploid is the special ploidy marker for populations where the two
// sexes carry unequal chromosome set counts. It forces an effective ploidy
// of two and sets the haplodiploid flag on the structure.
const Haplodiploid = -1

// DefaultMaxAllele is used when a Spec leaves MaxAllele zero.
const DefaultMaxAllele = 255

// Spec carries the caller-supplied layout parameters used to build a
// Structure. The zero value describes an empty layout (no chromosomes, no
// information fields, diploid).
type Spec struct {
	// Ploidy is the number of chromosome sets per individual, or
	// Haplodiploid. Zero defaults to 2 (diploid).
	Ploidy int

	// Loci holds the locus count of each chromosome.
	Loci []int

	// LociPos holds the genetic position of every locus, chromosome-major.
	// Empty defaults to 1, 2, ... within each chromosome. Positions must be
	// strictly ascending within a chromosome.
	LociPos []float64

	// SexChrom marks the last chromosome as a sex chromosome.
	SexChrom bool

	// AlleleNames maps allele values to display names (optional).
	AlleleNames []string

	// LociNames names every locus (optional; empty or one per locus).
	LociNames []string

	// MaxAllele is the largest storable allele value. Zero defaults to
	// DefaultMaxAllele.
	MaxAllele int

	// InfoFields is the ordered list of per-individual information fields.
	// Names must be unique; their order defines the information buffer
	// layout.
	InfoFields []string
}

// Structure is an immutable genotypic layout descriptor. Construct one with
// NewStructure and share it through the registry; never mutate a Structure
// that other populations may reference.
type Structure struct {
	ploidy       int
	haplodiploid bool
	numLoci      []int
	sexChrom     bool
	lociPos      []float64
	alleleNames  []string
	lociNames    []string
	maxAllele    int
	infoFields   []string

	// Derived caches, rebuilt by finish. Not part of value equality.
	chromIndex []int
	totNumLoci int
	genoSize   int
}

// NewStructure validates spec and builds a Structure with its derived
// index tables.
func NewStructure(spec Spec) (Structure, error) {
	ploidy := spec.Ploidy
	haplodiploid := false
	switch {
	case ploidy == 0:
		ploidy = 2
	case ploidy == Haplodiploid:
		ploidy = 2
		haplodiploid = true
	case ploidy < 0:
		return Structure{}, fmt.Errorf("%w: got %d", ErrBadPloidy, spec.Ploidy)
	}

	tot := 0
	for i, n := range spec.Loci {
		if n < 0 {
			return Structure{}, fmt.Errorf("%w: chromosome %d has negative locus count", ErrBadLayout, i)
		}
		tot += n
	}

	pos := spec.LociPos
	if len(pos) == 0 && tot > 0 {
		pos = defaultPositions(spec.Loci)
	}
	if len(pos) != tot {
		return Structure{}, fmt.Errorf("%w: %d positions for %d loci", ErrBadLayout, len(pos), tot)
	}
	if len(spec.LociNames) != 0 && len(spec.LociNames) != tot {
		return Structure{}, fmt.Errorf("%w: %d locus names for %d loci", ErrBadLayout, len(spec.LociNames), tot)
	}

	maxAllele := spec.MaxAllele
	if maxAllele == 0 {
		maxAllele = DefaultMaxAllele
	}
	if maxAllele < 0 || maxAllele > 0xFFFF {
		return Structure{}, fmt.Errorf("%w: max allele %d outside [1, 65535]", ErrBadLayout, maxAllele)
	}

	seen := make(map[string]struct{}, len(spec.InfoFields))
	for _, f := range spec.InfoFields {
		if f == "" {
			return Structure{}, fmt.Errorf("%w: empty information field name", ErrBadLayout)
		}
		if _, dup := seen[f]; dup {
			return Structure{}, fmt.Errorf("%w: duplicate information field %q", ErrBadLayout, f)
		}
		seen[f] = struct{}{}
	}

	s := Structure{
		ploidy:       ploidy,
		haplodiploid: haplodiploid,
		numLoci:      slices.Clone(spec.Loci),
		sexChrom:     spec.SexChrom,
		lociPos:      slices.Clone(pos),
		alleleNames:  slices.Clone(spec.AlleleNames),
		lociNames:    slices.Clone(spec.LociNames),
		maxAllele:    maxAllele,
		infoFields:   slices.Clone(spec.InfoFields),
	}
	s.finish()

	// Positions must be strictly ascending within each chromosome.
	for ch := 0; ch < s.NumChrom(); ch++ {
		for i := s.chromIndex[ch] + 1; i < s.chromIndex[ch+1]; i++ {
			if s.lociPos[i] <= s.lociPos[i-1] {
				return Structure{}, fmt.Errorf("%w: positions not ascending on chromosome %d", ErrBadLayout, ch)
			}
		}
	}
	return s, nil
}

// finish rebuilds the derived cumulative index and slot widths.
func (s *Structure) finish() {
	s.chromIndex = make([]int, len(s.numLoci)+1)
	for i, n := range s.numLoci {
		s.chromIndex[i+1] = s.chromIndex[i] + n
	}
	s.totNumLoci = s.chromIndex[len(s.numLoci)]
	s.genoSize = s.totNumLoci * s.ploidy
}

func defaultPositions(loci []int) []float64 {
	tot := 0
	for _, n := range loci {
		tot += n
	}
	pos := make([]float64, 0, tot)
	for _, n := range loci {
		for i := 1; i <= n; i++ {
			pos = append(pos, float64(i))
		}
	}
	return pos
}

// equal compares the semantic fields only, never the derived caches.
func (s *Structure) equal(o *Structure) bool {
	return s.ploidy == o.ploidy &&
		s.haplodiploid == o.haplodiploid &&
		slices.Equal(s.numLoci, o.numLoci) &&
		s.sexChrom == o.sexChrom &&
		slices.Equal(s.lociPos, o.lociPos) &&
		slices.Equal(s.alleleNames, o.alleleNames) &&
		slices.Equal(s.lociNames, o.lociNames) &&
		s.maxAllele == o.maxAllele &&
		slices.Equal(s.infoFields, o.infoFields)
}

// Ploidy returns the number of chromosome sets per individual.
func (s *Structure) Ploidy() int { return s.ploidy }

// Haplodiploid reports whether the haplodiploid mode flag is set.
func (s *Structure) Haplodiploid() bool { return s.haplodiploid }

// NumChrom returns the number of chromosomes.
func (s *Structure) NumChrom() int { return len(s.numLoci) }

// NumLoci returns the locus count of the given chromosome.
func (s *Structure) NumLoci(chrom int) (int, error) {
	if chrom < 0 || chrom >= len(s.numLoci) {
		return 0, fmt.Errorf("%w: chromosome %d of %d", ErrIndexOutOfRange, chrom, len(s.numLoci))
	}
	return s.numLoci[chrom], nil
}

// LociCounts returns a copy of the per-chromosome locus counts.
func (s *Structure) LociCounts() []int { return slices.Clone(s.numLoci) }

// TotNumLoci returns the total locus count across all chromosomes.
func (s *Structure) TotNumLoci() int { return s.totNumLoci }

// GenoSize returns the genotype slots per individual
// (TotNumLoci * Ploidy).
func (s *Structure) GenoSize() int { return s.genoSize }

// SexChrom reports whether the last chromosome is a sex chromosome.
func (s *Structure) SexChrom() bool { return s.sexChrom }

// MaxAllele returns the largest storable allele value.
func (s *Structure) MaxAllele() int { return s.maxAllele }

// LocusPos returns the genetic position of the given absolute locus.
func (s *Structure) LocusPos(locus int) (float64, error) {
	if locus < 0 || locus >= s.totNumLoci {
		return 0, fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, locus, s.totNumLoci)
	}
	return s.lociPos[locus], nil
}

// LociPositions returns a copy of all locus positions, chromosome-major.
func (s *Structure) LociPositions() []float64 { return slices.Clone(s.lociPos) }

// ChromBegin returns the absolute index of the first locus on chrom.
func (s *Structure) ChromBegin(chrom int) (int, error) {
	if chrom < 0 || chrom >= len(s.numLoci) {
		return 0, fmt.Errorf("%w: chromosome %d of %d", ErrIndexOutOfRange, chrom, len(s.numLoci))
	}
	return s.chromIndex[chrom], nil
}

// ChromEnd returns one past the absolute index of the last locus on chrom.
func (s *Structure) ChromEnd(chrom int) (int, error) {
	if chrom < 0 || chrom >= len(s.numLoci) {
		return 0, fmt.Errorf("%w: chromosome %d of %d", ErrIndexOutOfRange, chrom, len(s.numLoci))
	}
	return s.chromIndex[chrom+1], nil
}

// AbsLocusIndex converts a (chromosome, locus-on-chromosome) coordinate to
// an absolute locus index.
func (s *Structure) AbsLocusIndex(chrom, locus int) (int, error) {
	begin, err := s.ChromBegin(chrom)
	if err != nil {
		return 0, err
	}
	if locus < 0 || locus >= s.numLoci[chrom] {
		return 0, fmt.Errorf("%w: locus %d of %d on chromosome %d", ErrIndexOutOfRange, locus, s.numLoci[chrom], chrom)
	}
	return begin + locus, nil
}

// ChromLocusPair converts an absolute locus index back to a (chromosome,
// locus-on-chromosome) coordinate.
func (s *Structure) ChromLocusPair(locus int) (int, int, error) {
	if locus < 0 || locus >= s.totNumLoci {
		return 0, 0, fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, locus, s.totNumLoci)
	}
	ch := 0
	for locus >= s.chromIndex[ch+1] {
		ch++
	}
	return ch, locus - s.chromIndex[ch], nil
}

// AlleleName returns the display name of an allele value, falling back to
// its decimal form when no name table entry exists.
func (s *Structure) AlleleName(allele int) string {
	if allele >= 0 && allele < len(s.alleleNames) {
		return s.alleleNames[allele]
	}
	return fmt.Sprintf("%d", allele)
}

// AlleleNames returns a copy of the allele name table.
func (s *Structure) AlleleNames() []string { return slices.Clone(s.alleleNames) }

// LocusName returns the name of the given absolute locus. Unnamed loci get
// the generated name locX.
func (s *Structure) LocusName(locus int) (string, error) {
	if locus < 0 || locus >= s.totNumLoci {
		return "", fmt.Errorf("%w: locus %d of %d", ErrIndexOutOfRange, locus, s.totNumLoci)
	}
	if len(s.lociNames) == 0 {
		return fmt.Sprintf("loc%d", locus), nil
	}
	return s.lociNames[locus], nil
}

// LociNames returns a copy of the locus name table (may be empty).
func (s *Structure) LociNames() []string { return slices.Clone(s.lociNames) }

// LocusByName returns the absolute index of the named locus.
func (s *Structure) LocusByName(name string) (int, error) {
	for i, n := range s.lociNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: locus %q", ErrIndexOutOfRange, name)
}

// InfoSize returns the number of information fields.
func (s *Structure) InfoSize() int { return len(s.infoFields) }

// InfoFields returns a copy of the ordered information field names.
func (s *Structure) InfoFields() []string { return slices.Clone(s.infoFields) }

// InfoField returns the name of the information field at idx.
func (s *Structure) InfoField(idx int) (string, error) {
	if idx < 0 || idx >= len(s.infoFields) {
		return "", fmt.Errorf("%w: information field %d of %d", ErrIndexOutOfRange, idx, len(s.infoFields))
	}
	return s.infoFields[idx], nil
}

// InfoIdx returns the buffer slot of the named information field. A missing
// field is reported with the name and a hint, since the common fix is to add
// the field before the operator that reads it runs.
func (s *Structure) InfoIdx(name string) (int, error) {
	for i, f := range s.infoFields {
		if f == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (add it with AddInfoField before use)", ErrFieldNotFound, name)
}

// spec rebuilds the Spec equivalent of s, used by the With* derivations.
func (s *Structure) spec() Spec {
	ploidy := s.ploidy
	if s.haplodiploid {
		ploidy = Haplodiploid
	}
	return Spec{
		Ploidy:      ploidy,
		Loci:        slices.Clone(s.numLoci),
		LociPos:     slices.Clone(s.lociPos),
		SexChrom:    s.sexChrom,
		AlleleNames: slices.Clone(s.alleleNames),
		LociNames:   slices.Clone(s.lociNames),
		MaxAllele:   s.maxAllele,
		InfoFields:  slices.Clone(s.infoFields),
	}
}
