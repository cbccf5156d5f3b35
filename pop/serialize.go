package pop

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"popkit/genostru"
	"popkit/internal/buf"
	"popkit/internal/format"
)

// Archive layout. The stream starts with the uncompressed magic and a
// format version byte, followed by a gzip-compressed payload:
//
//	descriptor  ploidy, haplodiploid, loci counts, [v1+] sex-chromosome
//	            flag, positions, allele names, locus names, max allele,
//	            [v2+] information field names
//	header      ancestral depth, generation counter, generation count
//	generations oldest first: subpopulation sizes, genotype buffer in
//	            view order, [v2+] information buffer in view order
//
// Transient state (tags, activation flags, the splitter, attached
// variables) is not part of an archive.

// Serialize writes the population and all retained ancestral generations
// to w. The cursor must sit on the live generation.
func (p *Population) Serialize(w io.Writer) error {
	if p.curGen != 0 {
		return ErrNotLiveGeneration
	}

	if _, err := io.WriteString(w, format.Magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{format.Version}); err != nil {
		return err
	}

	gz := gzip.NewWriter(w)
	enc := format.NewWriter(64 + len(p.genotype)*format.AlleleSize)

	stru := p.stru()
	ploidy := stru.Ploidy()
	enc.U32(uint32(ploidy))
	enc.Bool(stru.Haplodiploid())
	enc.Ints(stru.LociCounts())
	enc.Bool(stru.SexChrom())
	enc.F64s(stru.LociPositions())
	enc.Strings(stru.AlleleNames())
	enc.Strings(stru.LociNames())
	enc.U32(uint32(stru.MaxAllele()))
	enc.Strings(stru.InfoFields())

	enc.I32(int32(p.ancestralDepth))
	enc.I32(int32(p.gen))
	enc.U32(uint32(len(p.ancestral) + 1))

	gs, is := stru.GenoSize(), stru.InfoSize()
	encodeGen := func(sizes []int, inds []Individual, geno []Allele, info []float64) {
		enc.Ints(sizes)
		enc.U32(uint32(len(inds) * gs))
		for i := range inds {
			off := inds[i].genoOff
			for _, a := range geno[off : off+gs] {
				enc.U16(a)
			}
		}
		enc.U32(uint32(len(inds) * is))
		for i := range inds {
			off := inds[i].infoOff
			for _, v := range info[off : off+is] {
				enc.F64(v)
			}
		}
	}
	for g := len(p.ancestral) - 1; g >= 0; g-- {
		gd := &p.ancestral[g]
		encodeGen(gd.subPopSize, gd.inds, gd.genotype, gd.info)
	}
	encodeGen(p.subPopSize, p.inds, p.genotype, p.info)

	if _, err := gz.Write(enc.Bytes()); err != nil {
		return err
	}
	return gz.Close()
}

// Deserialize reads an archive written by Serialize, accepting every
// format version up to the current one.
func Deserialize(r io.Reader) (*Population, error) {
	head := make([]byte, len(format.Magic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	if string(head[:len(format.Magic)]) != format.Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadArchive)
	}
	version := int(head[len(format.Magic)])
	if version > format.Version {
		return nil, fmt.Errorf("%w: version %d newer than supported %d", ErrBadArchive, version, format.Version)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer gz.Close()
	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	dec := format.NewReader(payload)

	spec := genostru.Spec{}
	spec.Ploidy = int(dec.U32())
	if dec.Bool() {
		spec.Ploidy = genostru.Haplodiploid
	}
	spec.Loci = dec.Ints()
	if version >= format.VersionSexChrom {
		spec.SexChrom = dec.Bool()
	}
	spec.LociPos = dec.F64s()
	spec.AlleleNames = dec.Strings()
	spec.LociNames = dec.Strings()
	spec.MaxAllele = int(dec.U32())
	if version >= format.VersionInfoFields {
		spec.InfoFields = dec.Strings()
	}
	if dec.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, dec.Err())
	}

	stru, err := genostru.NewStructure(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	idx, err := genostru.Intern(stru)
	if err != nil {
		return nil, err
	}

	depth := int(dec.I32())
	gen := int(dec.I32())
	numGens := int(dec.U32())
	if dec.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, dec.Err())
	}
	if numGens < 1 || depth < -1 {
		return nil, fmt.Errorf("%w: %d generations, depth %d", ErrBadArchive, numGens, depth)
	}

	gs, is := stru.GenoSize(), stru.InfoSize()
	decodeGen := func() (genData, error) {
		sizes := dec.Ints()
		geno := dec.U16s()
		var info []float64
		if version >= format.VersionInfoFields {
			info = dec.F64s()
		}
		if dec.Err() != nil {
			return genData{}, fmt.Errorf("%w: %v", ErrBadArchive, dec.Err())
		}
		total, ok := buf.Sum(sizes)
		if !ok {
			return genData{}, fmt.Errorf("%w: subpopulation sizes overflow", ErrBadArchive)
		}
		if len(geno) != total*gs {
			return genData{}, fmt.Errorf("%w: genotype buffer %d for %d individuals", ErrBadArchive, len(geno), total)
		}
		if version >= format.VersionInfoFields && len(info) != total*is {
			return genData{}, fmt.Errorf("%w: information buffer %d for %d individuals", ErrBadArchive, len(info), total)
		}
		if info == nil {
			info = make([]float64, total*is)
		}
		gd := genData{
			subPopSize: sizes,
			genotype:   geno,
			info:       info,
			inds:       make([]Individual, total),
			indOrdered: true,
		}
		wireViews(gd.inds, idx, gs, is)
		return gd, nil
	}

	gens := make([]genData, numGens)
	for g := 0; g < numGens; g++ {
		gd, err := decodeGen()
		if err != nil {
			return nil, err
		}
		gens[g] = gd
	}

	live := gens[numGens-1]
	p := &Population{
		struIdx:        idx,
		subPopSize:     live.subPopSize,
		ancestralDepth: depth,
		gen:            gen,
		activeSubPop:   -1,
	}
	p.adoptGen(live)
	p.rebuildIndex()
	for g := numGens - 2; g >= 0; g-- {
		p.ancestral = append(p.ancestral, gens[g])
	}
	return p, p.Validate()
}

// SaveFile writes the population archive to path.
func (p *Population) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Serialize(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a population archive from path.
func LoadFile(path string) (*Population, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Deserialize(f)
}
