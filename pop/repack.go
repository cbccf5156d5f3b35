package pop

import (
	"fmt"

	"popkit/internal/buf"
)

// allocChecked allocates an n*width buffer after validating the product.
func allocChecked[T any](n, width int) ([]T, error) {
	ln, ok := buf.Product(n, width)
	if !ok {
		return nil, fmt.Errorf("%w: %d * %d slots", ErrAllocTooLarge, n, width)
	}
	return make([]T, ln), nil
}

// Repack physically reorders the buffers of the viewed generation into view
// order, so individual i's data starts at i*slotWidth again. A no-op when
// the generation is already ordered. infoOnly restricts the repack to the
// information buffer, which is enough for operations that only exchange
// information data wholesale.
func (p *Population) Repack(infoOnly bool) error {
	if err := p.guardMutate(); err != nil {
		return err
	}
	if p.indOrdered {
		return nil
	}

	is := p.InfoSize()
	info, err := allocChecked[float64](p.popSize, is)
	if err != nil {
		return err
	}
	for i := range p.inds {
		copy(info[i*is:(i+1)*is], p.info[p.inds[i].infoOff:p.inds[i].infoOff+is])
		p.inds[i].infoOff = i * is
	}
	p.info = info
	if infoOnly {
		return nil
	}

	gs := p.GenoSize()
	geno, err := allocChecked[Allele](p.popSize, gs)
	if err != nil {
		return err
	}
	for i := range p.inds {
		copy(geno[i*gs:(i+1)*gs], p.genotype[p.inds[i].genoOff:p.inds[i].genoOff+gs])
		p.inds[i].genoOff = i * gs
	}
	p.genotype = geno
	p.indOrdered = true
	return nil
}

// GenotypeBuffer exposes the whole genotype buffer of the viewed generation
// in view order, repacking first when needed. The slice aliases the live
// buffer until the next structural mutation.
func (p *Population) GenotypeBuffer() ([]Allele, error) {
	if err := p.Repack(false); err != nil {
		return nil, err
	}
	return p.genotype, nil
}

// SetGenotype fills every individual's genotype from values, repeating the
// list cyclically.
func (p *Population) SetGenotype(values []Allele) error {
	if len(values) == 0 {
		return ErrSizeMismatch
	}
	maxA := Allele(p.stru().MaxAllele())
	for _, v := range values {
		if v > maxA {
			return ErrIndexOutOfRange
		}
	}
	gs := p.GenoSize()
	at := 0
	for i := range p.inds {
		g := p.genotype[p.inds[i].genoOff : p.inds[i].genoOff+gs]
		for j := range g {
			g[j] = values[at%len(values)]
			at++
		}
	}
	return nil
}

// InfoBuffer exposes the information buffer in view order, repacking the
// information data first when needed.
func (p *Population) InfoBuffer() ([]float64, error) {
	if err := p.Repack(true); err != nil {
		return nil, err
	}
	return p.info, nil
}
