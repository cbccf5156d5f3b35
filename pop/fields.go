package pop

import (
	"fmt"

	"popkit/genostru"
	"popkit/internal/buf"
)

// Information field operations. Adding or replacing fields rebuilds the
// information buffer of every retained generation under the new slot
// width; the genotype buffer is untouched.

// resizeInfoAllGens rebuilds every generation's information buffer for the
// new structure. fill populates one individual's new slice from its old
// one.
func (p *Population) resizeInfoAllGens(newIdx genostru.Index, fill func(dst, src []float64)) error {
	oldIS := p.InfoSize()
	newIS := genostru.MustGet(newIdx).InfoSize()
	counts := []int{len(p.inds)}
	for i := range p.ancestral {
		counts = append(counts, len(p.ancestral[i].inds))
	}
	for _, n := range counts {
		if _, ok := buf.Product(n, newIS); !ok {
			return fmt.Errorf("%w: %d individuals * %d information slots", ErrAllocTooLarge, n, newIS)
		}
	}

	err := p.forEachGenOldestFirst(func() error {
		info, err := allocChecked[float64](p.popSize, newIS)
		if err != nil {
			return err
		}
		for i := range p.inds {
			ind := &p.inds[i]
			fill(info[i*newIS:(i+1)*newIS], p.info[ind.infoOff:ind.infoOff+oldIS])
			ind.infoOff = i * newIS
			ind.stru = newIdx
		}
		p.info = info
		return nil
	})
	if err != nil {
		return err
	}
	p.struIdx = newIdx
	return nil
}

// AddInfoField adds one information field initialized to init in every
// generation. If the field already exists its values are reset to init
// instead.
func (p *Population) AddInfoField(name string, init float64) error {
	return p.AddInfoFields([]string{name}, init)
}

// AddInfoFields adds the given information fields, all initialized to init
// in every generation. Fields that already exist keep their slot but have
// their values reset to init.
func (p *Population) AddInfoFields(names []string, init float64) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	stru := p.stru()

	// Reset existing fields first, across all generations.
	var existing []int
	fresh := 0
	for _, n := range names {
		if idx, err := stru.InfoIdx(n); err == nil {
			existing = append(existing, idx)
		} else {
			fresh++
		}
	}
	if len(existing) > 0 {
		err := p.forEachGenOldestFirst(func() error {
			for i := range p.inds {
				for _, idx := range existing {
					p.info[p.inds[i].infoOff+idx] = init
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if fresh == 0 {
		return nil
	}

	derived, err := stru.WithAddedInfoFields(names)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return err
	}
	oldIS := stru.InfoSize()
	return p.resizeInfoAllGens(idx, func(dst, src []float64) {
		copy(dst, src)
		for i := oldIS; i < len(dst); i++ {
			dst[i] = init
		}
	})
}

// SetInfoFields replaces the information field list entirely. Every value
// of every generation is reset to init, including fields whose names
// survive the replacement.
func (p *Population) SetInfoFields(names []string, init float64) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	derived, err := p.stru().WithInfoFields(names)
	if err != nil {
		return err
	}
	idx, err := genostru.Intern(derived)
	if err != nil {
		return err
	}
	return p.resizeInfoAllGens(idx, func(dst, _ []float64) {
		for i := range dst {
			dst[i] = init
		}
	})
}

// SetIndInfo fills the named field of every individual of the viewed
// generation from values, repeating the list cyclically.
func (p *Population) SetIndInfo(name string, values []float64) error {
	idx, err := p.stru().InfoIdx(name)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return ErrSizeMismatch
	}
	for i := range p.inds {
		p.info[p.inds[i].infoOff+idx] = values[i%len(values)]
	}
	return nil
}

// IndInfo collects the named field of every individual of the viewed
// generation, in view order.
func (p *Population) IndInfo(name string) ([]float64, error) {
	idx, err := p.stru().InfoIdx(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, p.popSize)
	for i := range p.inds {
		out[i] = p.info[p.inds[i].infoOff+idx]
	}
	return out, nil
}
