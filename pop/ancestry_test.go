package pop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkit/genostru"
)

// genWithStamp builds a generation whose first alleles are all stamped
// with the given value.
func genWithStamp(t *testing.T, stamp Allele, sizes ...int) *Population {
	t.Helper()
	p := testPop(t, sizes...)
	for i := 0; i < p.Size(); i++ {
		ind, err := p.Ind(i)
		require.NoError(t, err)
		ind.Genotype(p)[0] = stamp
	}
	return p
}

func firstAllele(t *testing.T, p *Population, i int) Allele {
	t.Helper()
	ind, err := p.Ind(i)
	require.NoError(t, err)
	return ind.Genotype(p)[0]
}

// TestPushAndDiscard checks the basic advance: the pushed generation
// becomes live and the previous live generation becomes ancestor 1.
func TestPushAndDiscard(t *testing.T) {
	p := genWithStamp(t, 1, 4)
	require.NoError(t, p.SetAncestralDepth(-1))

	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 2, 3)))
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, Allele(2), firstAllele(t, p, 0))
	require.Equal(t, 1, p.AncestralGens())

	g, err := p.AncestorGenotype(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Allele(1), g[0])
	require.NoError(t, p.Validate())
}

// TestPushAndDiscard_DepthZero checks that without history the old live
// generation is simply dropped.
func TestPushAndDiscard_DepthZero(t *testing.T) {
	p := genWithStamp(t, 1, 4)
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 2, 2)))
	assert.Equal(t, 0, p.AncestralGens())
	assert.Equal(t, 2, p.Size())
}

// TestPushAndDiscard_Eviction checks the retention cap: the oldest
// generation falls off once the cap is reached.
func TestPushAndDiscard_Eviction(t *testing.T) {
	p := genWithStamp(t, 1, 2)
	require.NoError(t, p.SetAncestralDepth(2))

	for stamp := Allele(2); stamp <= 5; stamp++ {
		require.NoError(t, p.PushAndDiscard(genWithStamp(t, stamp, 2)))
	}
	// live is 5, retained are 4 and 3; 1 and 2 were evicted
	require.Equal(t, 2, p.AncestralGens())
	assert.Equal(t, Allele(5), firstAllele(t, p, 0))
	g, err := p.AncestorGenotype(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Allele(4), g[0])
	g, err = p.AncestorGenotype(2, 0)
	require.NoError(t, err)
	assert.Equal(t, Allele(3), g[0])
}

// TestPushAndDiscard_Rejections covers the self-push, structure, and
// cursor guards.
func TestPushAndDiscard_Rejections(t *testing.T) {
	p := genWithStamp(t, 1, 2)
	require.ErrorIs(t, p.PushAndDiscard(p), ErrSamePopulation)
	require.ErrorIs(t, p.PushAndDiscard(nil), ErrSamePopulation)

	// a different genotypic structure cannot be pushed
	other, err := New(Config{Structure: genostru.Spec{Loci: []int{5}}, Size: 2})
	require.NoError(t, err)
	require.ErrorIs(t, p.PushAndDiscard(other), ErrStructureMismatch)

	// both cursors must sit on the live generation
	require.NoError(t, p.SetAncestralDepth(-1))
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 2, 2)))
	require.NoError(t, p.UseAncestralGen(1))
	require.ErrorIs(t, p.PushAndDiscard(genWithStamp(t, 3, 2)), ErrNotLiveGeneration)
}

// TestUseAncestralGen checks cursor walking: every generation is reachable
// and a round trip restores everything exactly.
func TestUseAncestralGen(t *testing.T) {
	p := genWithStamp(t, 1, 2)
	require.NoError(t, p.SetAncestralDepth(-1))
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 2, 3)))
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 3, 4)))

	// walk to the oldest generation, one adjacent step at a time
	require.NoError(t, p.UseAncestralGen(2))
	assert.Equal(t, 2, p.CurAncestralGen())
	assert.Equal(t, 2, p.Size())
	assert.Equal(t, Allele(1), firstAllele(t, p, 0))
	require.NoError(t, p.Validate())

	require.NoError(t, p.UseAncestralGen(1))
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, Allele(2), firstAllele(t, p, 0))

	require.NoError(t, p.UseAncestralGen(0))
	assert.Equal(t, 4, p.Size())
	assert.Equal(t, Allele(3), firstAllele(t, p, 0))
	assert.Equal(t, 1, p.NumSubPops())

	require.ErrorIs(t, p.UseAncestralGen(3), ErrIndexOutOfRange)
	require.ErrorIs(t, p.UseAncestralGen(-1), ErrIndexOutOfRange)
}

// TestSetAncestralDepth checks trimming and the live-cursor requirement.
func TestSetAncestralDepth(t *testing.T) {
	p := genWithStamp(t, 1, 2)
	require.NoError(t, p.SetAncestralDepth(-1))
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 2, 2)))
	require.NoError(t, p.PushAndDiscard(genWithStamp(t, 3, 2)))
	require.Equal(t, 2, p.AncestralGens())

	// shrinking the cap evicts the oldest stored generations
	require.NoError(t, p.SetAncestralDepth(1))
	require.Equal(t, 1, p.AncestralGens())
	g, err := p.AncestorGenotype(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Allele(2), g[0], "the newest snapshot survives the trim")

	// the cap may only change while viewing the live generation
	require.NoError(t, p.UseAncestralGen(1))
	require.ErrorIs(t, p.SetAncestralDepth(0), ErrNotLiveGeneration)
	require.NoError(t, p.UseAncestralGen(0))

	require.ErrorIs(t, p.SetAncestralDepth(-2), ErrSizeMismatch)
}

// TestAncestorAccess checks the convenience accessors against a walked
// read of the same data.
func TestAncestorAccess(t *testing.T) {
	p := testPop(t, 2)
	require.NoError(t, p.SetAncestralDepth(-1))
	stampIDs(t, p)
	require.NoError(t, p.PushAndDiscard(testPop(t, 2)))

	v, err := p.AncestorInfo(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	ind, err := p.Ancestor(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ind.Tag())

	_, err = p.Ancestor(2, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = p.Ancestor(1, 5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}
