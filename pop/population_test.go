package pop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkit/genostru"
)

// testPop builds a two-loci diploid population with the given
// subpopulation sizes and a "fitness" information field.
func testPop(t *testing.T, sizes ...int) *Population {
	t.Helper()
	p, err := New(Config{
		Structure:   genostru.Spec{Loci: []int{2}, InfoFields: []string{"fitness"}},
		SubPopSizes: sizes,
	})
	require.NoError(t, err)
	return p
}

// stampIDs marks each individual with its current absolute index in the
// first allele slot and information field, so later tests can follow
// individuals through reorderings.
func stampIDs(t *testing.T, p *Population) {
	t.Helper()
	for i := 0; i < p.Size(); i++ {
		ind, err := p.Ind(i)
		require.NoError(t, err)
		ind.Genotype(p)[0] = Allele(i)
		require.NoError(t, ind.SetInfo(p, 0, float64(i)))
	}
}

// idsOf reads the stamps back in view order.
func idsOf(t *testing.T, p *Population) []int {
	t.Helper()
	out := make([]int, p.Size())
	for i := 0; i < p.Size(); i++ {
		ind, err := p.Ind(i)
		require.NoError(t, err)
		out[i] = int(ind.Genotype(p)[0])
		v, err := ind.Info(p, 0)
		require.NoError(t, err)
		require.Equal(t, float64(out[i]), v, "genotype and information stamps must travel together")
	}
	return out
}

// TestNew checks construction, sizing, and the zeroed buffers.
func TestNew(t *testing.T) {
	p := testPop(t, 3, 2)

	assert.Equal(t, 5, p.Size())
	assert.Equal(t, 2, p.NumSubPops())
	assert.Equal(t, []int{3, 2}, p.SubPopSizes())
	assert.Equal(t, 4, p.GenoSize())
	assert.Equal(t, 1, p.InfoSize())
	assert.True(t, p.Ordered())
	require.NoError(t, p.Validate())

	begin, err := p.SubPopBegin(1)
	require.NoError(t, err)
	assert.Equal(t, 3, begin)
	end, err := p.SubPopEnd(1)
	require.NoError(t, err)
	assert.Equal(t, 5, end)

	sp, err := p.SubPopOf(3)
	require.NoError(t, err)
	assert.Equal(t, 1, sp)

	ind, err := p.Ind(4)
	require.NoError(t, err)
	assert.Equal(t, []Allele{0, 0, 0, 0}, ind.Genotype(p))

	_, err = p.Ind(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = p.SubPopSize(2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

// TestNew_SingleSize checks the Size fallback when no subpopulation list
// is given.
func TestNew_SingleSize(t *testing.T) {
	p, err := New(Config{Structure: genostru.Spec{Loci: []int{1}}, Size: 7})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, p.SubPopSizes())
}

// TestAlleleAccess checks per-locus reads and writes including the
// max-allele bound.
func TestAlleleAccess(t *testing.T) {
	p := testPop(t, 2)
	ind, err := p.Ind(1)
	require.NoError(t, err)

	require.NoError(t, ind.SetAllele(p, 1, 1, 9))
	v, err := ind.Allele(p, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Allele(9), v)

	// second ploidy segment is a distinct slot
	v, err = ind.Allele(p, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, Allele(0), v)

	err = ind.SetAllele(p, 0, 0, 300) // default max allele is 255
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ind.Allele(p, 2, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ind.Allele(p, 0, 2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

// TestInfoAccess checks named information field reads and writes.
func TestInfoAccess(t *testing.T) {
	p := testPop(t, 2)
	ind, err := p.Ind(0)
	require.NoError(t, err)

	require.NoError(t, ind.SetInfoByName(p, "fitness", 1.5))
	v, err := ind.InfoByName(p, "fitness")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, err = ind.InfoByName(p, "age")
	require.ErrorIs(t, err, genostru.ErrFieldNotFound)
}

// TestSetGenotype checks the cyclic genotype fill.
func TestSetGenotype(t *testing.T) {
	p := testPop(t, 2)
	require.NoError(t, p.SetGenotype([]Allele{1, 2, 3}))

	buf, err := p.GenotypeBuffer()
	require.NoError(t, err)
	assert.Equal(t, []Allele{1, 2, 3, 1, 2, 3, 1, 2}, buf)

	require.ErrorIs(t, p.SetGenotype(nil), ErrSizeMismatch)
}

// TestClone checks deep copying: mutating the clone leaves the original
// untouched, and ancestral trimming works.
func TestClone(t *testing.T) {
	p := testPop(t, 2, 2)
	stampIDs(t, p)
	require.NoError(t, p.SetAncestralDepth(-1))

	next := testPop(t, 2, 2)
	require.NoError(t, p.PushAndDiscard(next))
	require.Equal(t, 1, p.AncestralGens())

	full, err := p.Clone(-1)
	require.NoError(t, err)
	assert.Equal(t, 1, full.AncestralGens())
	require.NoError(t, full.Validate())

	liveOnly, err := p.Clone(0)
	require.NoError(t, err)
	assert.Equal(t, 0, liveOnly.AncestralGens())

	// independence of the buffers
	ind, err := full.Ind(0)
	require.NoError(t, err)
	ind.Genotype(full)[0] = 77
	orig, err := p.Ind(0)
	require.NoError(t, err)
	assert.NotEqual(t, Allele(77), orig.Genotype(p)[0])
}

// TestClone_Degraded checks the state a clone reports after its ancestral
// copy fails: history gone, retention depth zero, one diagnostic emitted.
func TestClone_Degraded(t *testing.T) {
	p := testPop(t, 2)
	require.NoError(t, p.SetAncestralDepth(-1))
	require.NoError(t, p.PushAndDiscard(testPop(t, 2)))

	np, err := p.Clone(-1)
	require.NoError(t, err)
	require.Equal(t, 1, np.AncestralGens())

	var logged string
	orig := Diagnosticf
	Diagnosticf = func(format string, args ...any) { logged = fmt.Sprintf(format, args...) }
	defer func() { Diagnosticf = orig }()

	np.degradeToLive(1, "out of memory")
	assert.Equal(t, 0, np.AncestralGens())
	assert.Equal(t, 0, np.AncestralDepth())
	assert.Contains(t, logged, "live generation only")
	require.NoError(t, np.Validate())
}

// TestValidate_Corruption checks that Validate catches a broken offset.
func TestValidate_Corruption(t *testing.T) {
	p := testPop(t, 2)
	require.NoError(t, p.Validate())

	p.inds[1].genoOff = 999
	require.ErrorIs(t, p.Validate(), ErrInconsistent)
}
