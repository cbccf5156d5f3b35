package pop

import (
	"fmt"
	"slices"
	"sort"
)

// Subpopulation operations. Every one of them reduces to the same core:
// stamp each individual's tag with its destination subpopulation id (or a
// negative id for removal), then let setSubPopsByTag sort the views stably
// by tag, drop the removals, and rebuild the size table. Two individuals
// tagged with the same id keep their relative order.

// tagBySubPop stamps every individual's tag with its current subpopulation
// id, the starting point of every tag-based operation.
func (p *Population) tagBySubPop() {
	for sp := range p.subPopSize {
		for i := p.subPopIndex[sp]; i < p.subPopIndex[sp+1]; i++ {
			p.inds[i].tag = int32(sp)
		}
	}
}

// setSubPopsByTag regroups the population by tag. minSubPops pads the
// resulting size table with trailing empty subpopulations up to the given
// count, which is how callers preserve the ids of untouched subpopulations.
func (p *Population) setSubPopsByTag(minSubPops int) error {
	sort.SliceStable(p.inds, func(i, j int) bool { return p.inds[i].tag < p.inds[j].tag })
	p.indOrdered = false

	// Negative tags sorted to the front are removals.
	firstKeep := 0
	for firstKeep < len(p.inds) && p.inds[firstKeep].tag < 0 {
		firstKeep++
	}
	if firstKeep > 0 {
		if err := p.compactSurvivors(firstKeep); err != nil {
			return err
		}
	}

	maxTag := -1
	if len(p.inds) > 0 {
		maxTag = int(p.inds[len(p.inds)-1].tag)
	}
	n := maxTag + 1
	if n < minSubPops {
		n = minSubPops
	}
	if n < 1 {
		n = 1
	}
	sizes := make([]int, n)
	for i := range p.inds {
		sizes[p.inds[i].tag]++
	}
	p.subPopSize = sizes
	p.popSize = len(p.inds)
	p.rebuildIndex()
	debugf("retag: %d individuals in %d subpopulations", p.popSize, n)
	return nil
}

// compactSurvivors rebuilds the buffers with only the views from firstKeep
// on, copying each survivor's data into fresh buffers in view order.
func (p *Population) compactSurvivors(firstKeep int) error {
	survivors := p.inds[firstKeep:]
	gs, is := p.GenoSize(), p.InfoSize()
	gd, err := p.allocGen(len(survivors))
	if err != nil {
		return err
	}
	for i := range survivors {
		src := &survivors[i]
		copy(gd.genotype[i*gs:(i+1)*gs], p.genotype[src.genoOff:src.genoOff+gs])
		copy(gd.info[i*is:(i+1)*is], p.info[src.infoOff:src.infoOff+is])
		gd.inds[i].tag = src.tag
	}
	p.adoptGen(gd)
	return nil
}

// SetIndTags stamps the individuals of the viewed generation with the given
// tags, repeating the list cyclically when it is shorter than the
// population.
func (p *Population) SetIndTags(tags []int) error {
	if len(tags) == 0 {
		return fmt.Errorf("%w: empty tag list", ErrSizeMismatch)
	}
	for i := range p.inds {
		p.inds[i].tag = int32(tags[i%len(tags)])
	}
	return nil
}

// SetSubPopsByTags regroups the population by the given tags (cyclic, see
// SetIndTags), or by the tags already stamped on the individuals when tags
// is empty. Negative tags remove individuals.
func (p *Population) SetSubPopsByTags(tags []int) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if len(tags) != 0 {
		if err := p.SetIndTags(tags); err != nil {
			return err
		}
	}
	return p.setSubPopsByTag(0)
}

// SplitSubPop splits subpopulation which into len(sizes) groups of the
// given sizes, which must sum to its current size. The first group keeps
// the id which; later groups get fresh ids after the current last
// subpopulation, unless ids supplies an explicit id per group. An explicit
// id equal to an existing subpopulation's id merges that group into it.
func (p *Population) SplitSubPop(which int, sizes []int, ids []int) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	cur, err := p.SubPopSize(which)
	if err != nil {
		return err
	}
	total, ok := 0, true
	for _, s := range sizes {
		if s < 0 {
			ok = false
			break
		}
		total += s
	}
	if !ok || total != cur {
		return fmt.Errorf("%w: split sizes sum to %d, subpopulation %d has %d", ErrSizeMismatch, total, which, cur)
	}
	if len(ids) != 0 && len(ids) != len(sizes) {
		return fmt.Errorf("%w: %d ids for %d split groups", ErrSizeMismatch, len(ids), len(sizes))
	}
	if len(sizes) == 1 && len(ids) == 0 {
		return nil
	}

	p.tagBySubPop()
	numSP := p.NumSubPops()
	begin := p.subPopIndex[which]
	pos := 0
	for k, s := range sizes {
		id := 0
		switch {
		case len(ids) != 0:
			id = ids[k]
		case k == 0:
			id = which
		default:
			id = numSP + k - 1
		}
		if id < 0 {
			return fmt.Errorf("%w: negative split id %d", ErrIndexOutOfRange, id)
		}
		for i := 0; i < s; i++ {
			p.inds[begin+pos+i].tag = int32(id)
		}
		pos += s
	}
	return p.setSubPopsByTag(numSP)
}

// SplitSubPopByProportions splits subpopulation which by proportions, which
// must sum to one. Sizes are floored and the last group absorbs the
// remainder.
func (p *Population) SplitSubPopByProportions(which int, props []float64, ids []int) error {
	cur, err := p.SubPopSize(which)
	if err != nil {
		return err
	}
	sum := 0.0
	for _, pr := range props {
		if pr < 0 {
			return fmt.Errorf("%w: negative proportion %v", ErrBadProportions, pr)
		}
		sum += pr
	}
	if len(props) == 0 || sum < 1-1e-6 || sum > 1+1e-6 {
		return fmt.Errorf("%w: got %v", ErrBadProportions, sum)
	}
	sizes := make([]int, len(props))
	used := 0
	for k := 0; k < len(props)-1; k++ {
		sizes[k] = int(float64(cur) * props[k])
		used += sizes[k]
	}
	sizes[len(sizes)-1] = cur - used
	return p.SplitSubPop(which, sizes, ids)
}

// MergeSubPops merges the listed subpopulations into the first listed id.
// An empty list merges everything into a single subpopulation 0. The ids
// of subpopulations not involved in the merge are preserved, padding the
// size table with trailing empty entries where needed.
func (p *Population) MergeSubPops(ids []int) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if len(ids) == 0 {
		p.subPopSize = []int{p.popSize}
		p.rebuildIndex()
		return nil
	}
	merged := make(map[int]bool, len(ids))
	for _, sp := range ids {
		if sp < 0 || sp >= p.NumSubPops() {
			return fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, sp, p.NumSubPops())
		}
		merged[sp] = true
	}

	p.tagBySubPop()
	target := ids[0]
	for sp := range merged {
		for i := p.subPopIndex[sp]; i < p.subPopIndex[sp+1]; i++ {
			p.inds[i].tag = int32(target)
		}
	}
	minCount := 0
	for sp := range p.subPopSize {
		if !merged[sp] {
			minCount = sp + 1
		}
	}
	if target+1 > minCount {
		minCount = target + 1
	}
	return p.setSubPopsByTag(minCount)
}

// RemoveSubPops removes the listed subpopulations. With shiftIDs the
// survivors are renumbered consecutively; without it every survivor keeps
// its id and removed slots stay behind as empty subpopulations, including
// trailing ones. compactEmpty drops all empty subpopulations afterwards.
func (p *Population) RemoveSubPops(ids []int, shiftIDs, compactEmpty bool) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	removed := make(map[int]bool, len(ids))
	for _, sp := range ids {
		if sp < 0 || sp >= p.NumSubPops() {
			return fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, sp, p.NumSubPops())
		}
		removed[sp] = true
	}

	p.tagBySubPop()
	shift := 0
	for sp := range p.subPopSize {
		tag := int32(sp)
		if removed[sp] {
			tag = -1
			shift++
		} else if shiftIDs {
			tag = int32(sp - shift)
		}
		for i := p.subPopIndex[sp]; i < p.subPopIndex[sp+1]; i++ {
			p.inds[i].tag = tag
		}
	}
	minCount := 0
	if !shiftIDs && !compactEmpty {
		minCount = p.NumSubPops()
	}
	if err := p.setSubPopsByTag(minCount); err != nil {
		return err
	}
	if compactEmpty {
		return p.RemoveEmptySubPops()
	}
	return nil
}

// RemoveIndividuals removes the listed individuals. With subPop >= 0 the
// indices are relative to that subpopulation, otherwise absolute. Every
// subpopulation keeps its id; a subpopulation emptied by the removal stays
// behind as an empty entry unless compactEmpty is set.
func (p *Population) RemoveIndividuals(idxs []int, subPop int, compactEmpty bool) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	abs := make([]int, len(idxs))
	for i, idx := range idxs {
		if subPop >= 0 {
			a, err := p.AbsIndex(subPop, idx)
			if err != nil {
				return err
			}
			abs[i] = a
		} else {
			if idx < 0 || idx >= p.popSize {
				return fmt.Errorf("%w: individual %d of %d", ErrIndexOutOfRange, idx, p.popSize)
			}
			abs[i] = idx
		}
	}

	p.tagBySubPop()
	for _, a := range abs {
		p.inds[a].tag = -1
	}
	minCount := 0
	if !compactEmpty {
		minCount = p.NumSubPops()
	}
	if err := p.setSubPopsByTag(minCount); err != nil {
		return err
	}
	if compactEmpty {
		return p.RemoveEmptySubPops()
	}
	return nil
}

// RemoveEmptySubPops drops all empty subpopulations, renumbering the
// survivors consecutively. No individual data moves.
func (p *Population) RemoveEmptySubPops() error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	sizes := p.subPopSize[:0:0]
	for _, s := range p.subPopSize {
		if s > 0 {
			sizes = append(sizes, s)
		}
	}
	if len(sizes) == 0 {
		sizes = []int{0}
	}
	p.subPopSize = sizes
	p.rebuildIndex()
	return nil
}

// Resize changes every subpopulation to the given size. A shrinking
// subpopulation keeps its first individuals. A growing one gets zeroed
// newcomers, or with propagate copies of its own members repeated
// cyclically.
func (p *Population) Resize(newSizes []int, propagate bool) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if len(newSizes) != p.NumSubPops() {
		return fmt.Errorf("%w: %d sizes for %d subpopulations", ErrSizeMismatch, len(newSizes), p.NumSubPops())
	}
	total := 0
	for sp, s := range newSizes {
		if s < 0 {
			return fmt.Errorf("%w: negative size %d", ErrSizeMismatch, s)
		}
		if propagate && s > 0 && p.subPopSize[sp] == 0 {
			return fmt.Errorf("%w: cannot propagate into subpopulation %d from zero members", ErrSizeMismatch, sp)
		}
		total += s
	}

	gs, is := p.GenoSize(), p.InfoSize()
	gd, err := p.allocGen(total)
	if err != nil {
		return err
	}
	at := 0
	for sp, s := range newSizes {
		begin, old := p.subPopIndex[sp], p.subPopSize[sp]
		for i := 0; i < s; i++ {
			var src *Individual
			switch {
			case i < old:
				src = &p.inds[begin+i]
			case propagate:
				src = &p.inds[begin+i%old]
			}
			if src != nil {
				copy(gd.genotype[at*gs:(at+1)*gs], p.genotype[src.genoOff:src.genoOff+gs])
				copy(gd.info[at*is:(at+1)*is], p.info[src.infoOff:src.infoOff+is])
				gd.inds[at].tag = src.tag
			}
			at++
		}
	}
	p.adoptGen(gd)
	p.subPopSize = slices.Clone(newSizes)
	p.rebuildIndex()
	return nil
}

// ReorderSubPops rearranges whole subpopulations. Exactly one of order and
// rank must be given, each a permutation of the subpopulation ids: order
// lists, per new position, the old id to place there; rank lists, per old
// id, its new position.
func (p *Population) ReorderSubPops(order, rank []int) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if (len(order) == 0) == (len(rank) == 0) {
		return fmt.Errorf("%w: exactly one of order and rank must be given", ErrSizeMismatch)
	}
	perm := order
	if len(rank) != 0 {
		perm = rank
	}
	if len(perm) != p.NumSubPops() {
		return fmt.Errorf("%w: permutation of length %d for %d subpopulations", ErrSizeMismatch, len(perm), p.NumSubPops())
	}
	seen := make([]bool, len(perm))
	for _, sp := range perm {
		if sp < 0 || sp >= len(perm) || seen[sp] {
			return fmt.Errorf("%w: not a permutation of 0..%d", ErrSizeMismatch, len(perm)-1)
		}
		seen[sp] = true
	}

	p.tagBySubPop()
	if len(order) != 0 {
		for newSP, oldSP := range order {
			for i := p.subPopIndex[oldSP]; i < p.subPopIndex[oldSP+1]; i++ {
				p.inds[i].tag = int32(newSP)
			}
		}
	} else {
		for oldSP, newSP := range rank {
			for i := p.subPopIndex[oldSP]; i < p.subPopIndex[oldSP+1]; i++ {
				p.inds[i].tag = int32(newSP)
			}
		}
	}
	return p.setSubPopsByTag(len(perm))
}

// ExtractByTag builds a new population from the individuals whose tag is
// nonnegative, grouping them into subpopulations by tag value and dropping
// the rest. Each retained generation is extracted by its own tags;
// keepAncestral limits how many ancestral generations the extract carries
// (-1 for all).
func (p *Population) ExtractByTag(keepAncestral int) (*Population, error) {
	if p.curGen != 0 {
		return nil, ErrNotLiveGeneration
	}
	top := len(p.ancestral)
	if keepAncestral >= 0 && keepAncestral < top {
		top = keepAncestral
	}

	var out *Population
	err := func() error {
		for depth := top; depth >= 0; depth-- {
			if err := p.UseAncestralGen(depth); err != nil {
				return err
			}
			gen, err := p.extractGen()
			if err != nil {
				return err
			}
			if out == nil {
				out = gen
				out.ancestralDepth = -1
			} else if err := out.PushAndDiscard(gen); err != nil {
				return err
			}
		}
		return nil
	}()
	if restoreErr := p.UseAncestralGen(0); err == nil {
		err = restoreErr
	}
	if err != nil {
		return nil, err
	}
	out.ancestralDepth = p.ancestralDepth
	return out, nil
}

// extractGen extracts the viewed generation by tags into a fresh
// single-generation population.
func (p *Population) extractGen() (*Population, error) {
	var sizes []int
	for i := range p.inds {
		t := int(p.inds[i].tag)
		if t < 0 {
			continue
		}
		for len(sizes) <= t {
			sizes = append(sizes, 0)
		}
		sizes[t]++
	}
	if len(sizes) == 0 {
		sizes = []int{0}
	}

	np, err := newWithStructure(p.struIdx, sizes)
	if err != nil {
		return nil, err
	}
	gs, is := p.GenoSize(), p.InfoSize()
	cursor := slices.Clone(np.subPopIndex[:len(sizes)])
	for i := range p.inds {
		src := &p.inds[i]
		t := int(src.tag)
		if t < 0 {
			continue
		}
		at := cursor[t]
		cursor[t]++
		copy(np.genotype[at*gs:(at+1)*gs], p.genotype[src.genoOff:src.genoOff+gs])
		copy(np.info[at*is:(at+1)*is], p.info[src.infoOff:src.infoOff+is])
	}
	return np, nil
}
