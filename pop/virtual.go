package pop

import (
	"fmt"
)

// Virtual subpopulations are named, possibly overlapping slices of a
// physical subpopulation defined by a Splitter. Activating one marks the
// matching individuals through their view flags; at most one virtual
// subpopulation may be active at a time, and every structural mutator
// refuses to run while one is, since the marks are positional.

// ActivationMode selects which view flags an activation drives.
type ActivationMode uint8

const (
	// ModeVisible drives the visibility flag.
	ModeVisible ActivationMode = 1 << iota

	// ModeIterable drives the filtered-iteration flag.
	ModeIterable
)

// ModeAll drives both flags.
const ModeAll = ModeVisible | ModeIterable

// NoVirtual is the virtual id of a plain physical subpopulation reference.
const NoVirtual = -1

// VSP addresses a virtual subpopulation: a physical subpopulation id plus
// a virtual id within it, or NoVirtual for the whole physical
// subpopulation.
type VSP struct {
	SubPop  int
	Virtual int
}

// IsVirtual reports whether the reference carries a virtual id.
func (v VSP) IsVirtual() bool { return v.Virtual != NoVirtual }

// Splitter defines the virtual subpopulations of a population. Splitters
// are stateless with respect to the population: activation works purely
// through the view flags.
type Splitter interface {
	// NumVirtualSubPops returns how many virtual subpopulations the
	// splitter defines within any one physical subpopulation.
	NumVirtualSubPops() int

	// Name returns the display name of virtual subpopulation vsp.
	Name(vsp int) string

	// Activate marks the individuals of (subPop, vsp) through the flags
	// selected by mode, clearing the flags of the non-members.
	Activate(p *Population, subPop, vsp int, mode ActivationMode) error

	// Deactivate restores the flags of every individual of subPop.
	Deactivate(p *Population, subPop int)
}

// SetSplitter attaches a splitter, replacing any previous one. Fails while
// a virtual subpopulation is active.
func (p *Population) SetSplitter(s Splitter) error {
	if p.activeSubPop >= 0 {
		return ErrActiveVirtualSubPop
	}
	p.splitter = s
	return nil
}

// Splitter returns the attached splitter, or nil.
func (p *Population) Splitter() Splitter { return p.splitter }

// NumVirtualSubPops returns the number of virtual subpopulations per
// physical subpopulation, zero without a splitter.
func (p *Population) NumVirtualSubPops() int {
	if p.splitter == nil {
		return 0
	}
	return p.splitter.NumVirtualSubPops()
}

// VirtualSubPopName returns the display name of a virtual subpopulation
// reference.
func (p *Population) VirtualSubPopName(v VSP) (string, error) {
	if !v.IsVirtual() {
		return fmt.Sprintf("sub population %d", v.SubPop), nil
	}
	if p.splitter == nil {
		return "", ErrNoSplitter
	}
	if v.Virtual < 0 || v.Virtual >= p.splitter.NumVirtualSubPops() {
		return "", fmt.Errorf("%w: virtual subpopulation %d of %d", ErrIndexOutOfRange, v.Virtual, p.splitter.NumVirtualSubPops())
	}
	return p.splitter.Name(v.Virtual), nil
}

// ActivateVirtualSubPop marks the members of virtual subpopulation vsp of
// physical subpopulation subPop. Only one virtual subpopulation may be
// active across the whole population; deactivate before activating
// another.
func (p *Population) ActivateVirtualSubPop(subPop, vsp int, mode ActivationMode) error {
	if p.splitter == nil {
		return ErrNoSplitter
	}
	if p.activeSubPop >= 0 {
		return ErrActiveVirtualSubPop
	}
	if subPop < 0 || subPop >= p.NumSubPops() {
		return fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, subPop, p.NumSubPops())
	}
	if vsp < 0 || vsp >= p.splitter.NumVirtualSubPops() {
		return fmt.Errorf("%w: virtual subpopulation %d of %d", ErrIndexOutOfRange, vsp, p.splitter.NumVirtualSubPops())
	}
	if mode == 0 {
		mode = ModeAll
	}
	if err := p.splitter.Activate(p, subPop, vsp, mode); err != nil {
		return err
	}
	p.activeSubPop = subPop
	p.activeVSP = vsp
	p.activeMode = mode
	return nil
}

// DeactivateVirtualSubPop restores the flags of subPop and lifts the
// structural mutation lock.
func (p *Population) DeactivateVirtualSubPop(subPop int) error {
	if p.activeSubPop < 0 {
		return nil
	}
	if p.activeSubPop != subPop {
		return fmt.Errorf("%w: subpopulation %d is active, not %d", ErrActiveVirtualSubPop, p.activeSubPop, subPop)
	}
	p.splitter.Deactivate(p, subPop)
	p.activeSubPop = -1
	p.activeVSP = 0
	p.activeMode = 0
	return nil
}

// HasActivatedVirtualSubPop reports whether any virtual subpopulation is
// currently active.
func (p *Population) HasActivatedVirtualSubPop() bool { return p.activeSubPop >= 0 }

// IterableIndices returns the absolute indices of subPop's individuals
// whose iteration flag is set. Without an activation that is every
// individual of subPop.
func (p *Population) IterableIndices(subPop int) ([]int, error) {
	return p.flaggedIndices(subPop, flagIterable)
}

// VisibleIndices returns the absolute indices of subPop's individuals
// whose visibility flag is set.
func (p *Population) VisibleIndices(subPop int) ([]int, error) {
	return p.flaggedIndices(subPop, flagVisible)
}

func (p *Population) flaggedIndices(subPop int, flag uint8) ([]int, error) {
	begin, err := p.SubPopBegin(subPop)
	if err != nil {
		return nil, err
	}
	end := p.subPopIndex[subPop+1]
	out := make([]int, 0, end-begin)
	for i := begin; i < end; i++ {
		if p.inds[i].flags&flag != 0 {
			out = append(out, i)
		}
	}
	return out, nil
}

// markRange applies a membership predicate to subPop's individuals through
// the flags selected by mode. Splitter implementations build on it.
func markRange(p *Population, subPop int, mode ActivationMode, member func(rel int) bool) {
	begin := p.subPopIndex[subPop]
	end := p.subPopIndex[subPop+1]
	for i := begin; i < end; i++ {
		in := member(i - begin)
		f := &p.inds[i].flags
		if mode&ModeVisible != 0 {
			setFlag(f, flagVisible, in)
		}
		if mode&ModeIterable != 0 {
			setFlag(f, flagIterable, in)
		}
	}
}

// clearRange restores every flag of subPop's individuals.
func clearRange(p *Population, subPop int) {
	for i := p.subPopIndex[subPop]; i < p.subPopIndex[subPop+1]; i++ {
		p.inds[i].flags = flagAll
	}
}

func setFlag(f *uint8, flag uint8, on bool) {
	if on {
		*f |= flag
	} else {
		*f &^= flag
	}
}

// ProportionSplitter divides a subpopulation into consecutive blocks by
// proportion. Sizes are floored and the last block absorbs the remainder.
type ProportionSplitter struct {
	Proportions []float64
}

// NewProportionSplitter validates that the proportions sum to one.
func NewProportionSplitter(props []float64) (*ProportionSplitter, error) {
	sum := 0.0
	for _, pr := range props {
		if pr < 0 {
			return nil, fmt.Errorf("%w: negative proportion %v", ErrBadProportions, pr)
		}
		sum += pr
	}
	if len(props) == 0 || sum < 1-1e-6 || sum > 1+1e-6 {
		return nil, fmt.Errorf("%w: got %v", ErrBadProportions, sum)
	}
	return &ProportionSplitter{Proportions: props}, nil
}

func (s *ProportionSplitter) NumVirtualSubPops() int { return len(s.Proportions) }

func (s *ProportionSplitter) Name(vsp int) string {
	return fmt.Sprintf("prop %g", s.Proportions[vsp])
}

func (s *ProportionSplitter) Activate(p *Population, subPop, vsp int, mode ActivationMode) error {
	size := p.subPopIndex[subPop+1] - p.subPopIndex[subPop]
	lo := 0
	for k := 0; k < vsp; k++ {
		lo += int(float64(size) * s.Proportions[k])
	}
	hi := lo + int(float64(size)*s.Proportions[vsp])
	if vsp == len(s.Proportions)-1 {
		hi = size
	}
	markRange(p, subPop, mode, func(rel int) bool { return rel >= lo && rel < hi })
	return nil
}

func (s *ProportionSplitter) Deactivate(p *Population, subPop int) {
	clearRange(p, subPop)
}

// RangeSplitter defines virtual subpopulations as explicit half-open index
// ranges relative to the subpopulation start.
type RangeSplitter struct {
	Ranges [][2]int
}

func (s *RangeSplitter) NumVirtualSubPops() int { return len(s.Ranges) }

func (s *RangeSplitter) Name(vsp int) string {
	r := s.Ranges[vsp]
	return fmt.Sprintf("range [%d, %d)", r[0], r[1])
}

func (s *RangeSplitter) Activate(p *Population, subPop, vsp int, mode ActivationMode) error {
	r := s.Ranges[vsp]
	if r[0] < 0 || r[1] < r[0] {
		return fmt.Errorf("%w: range [%d, %d)", ErrIndexOutOfRange, r[0], r[1])
	}
	markRange(p, subPop, mode, func(rel int) bool { return rel >= r[0] && rel < r[1] })
	return nil
}

func (s *RangeSplitter) Deactivate(p *Population, subPop int) {
	clearRange(p, subPop)
}

// InfoSplitter defines virtual subpopulations by an information field,
// either as exact values (one virtual subpopulation per value) or as
// cutoffs (len(Cutoffs)+1 intervals).
type InfoSplitter struct {
	Field   string
	Values  []float64
	Cutoffs []float64
}

func (s *InfoSplitter) NumVirtualSubPops() int {
	if len(s.Values) != 0 {
		return len(s.Values)
	}
	return len(s.Cutoffs) + 1
}

func (s *InfoSplitter) Name(vsp int) string {
	if len(s.Values) != 0 {
		return fmt.Sprintf("%s = %g", s.Field, s.Values[vsp])
	}
	switch {
	case vsp == 0:
		return fmt.Sprintf("%s < %g", s.Field, s.Cutoffs[0])
	case vsp == len(s.Cutoffs):
		return fmt.Sprintf("%s >= %g", s.Field, s.Cutoffs[len(s.Cutoffs)-1])
	default:
		return fmt.Sprintf("%g <= %s < %g", s.Cutoffs[vsp-1], s.Field, s.Cutoffs[vsp])
	}
}

func (s *InfoSplitter) Activate(p *Population, subPop, vsp int, mode ActivationMode) error {
	idx, err := p.stru().InfoIdx(s.Field)
	if err != nil {
		return err
	}
	begin := p.subPopIndex[subPop]
	member := func(rel int) bool {
		v := p.info[p.inds[begin+rel].infoOff+idx]
		if len(s.Values) != 0 {
			return v == s.Values[vsp]
		}
		switch {
		case vsp == 0:
			return v < s.Cutoffs[0]
		case vsp == len(s.Cutoffs):
			return v >= s.Cutoffs[len(s.Cutoffs)-1]
		default:
			return v >= s.Cutoffs[vsp-1] && v < s.Cutoffs[vsp]
		}
	}
	markRange(p, subPop, mode, member)
	return nil
}

func (s *InfoSplitter) Deactivate(p *Population, subPop int) {
	clearRange(p, subPop)
}
