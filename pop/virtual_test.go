package pop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkit/genostru"
)

// TestProportionSplitter checks activation marks, filtered iteration, and
// deactivation restore.
func TestProportionSplitter(t *testing.T) {
	p := testPop(t, 10)
	sp, err := NewProportionSplitter([]float64{0.3, 0.7})
	require.NoError(t, err)
	require.NoError(t, p.SetSplitter(sp))
	assert.Equal(t, 2, p.NumVirtualSubPops())

	require.NoError(t, p.ActivateVirtualSubPop(0, 0, ModeAll))
	assert.True(t, p.HasActivatedVirtualSubPop())

	idxs, err := p.IterableIndices(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, idxs)
	vis, err := p.VisibleIndices(0)
	require.NoError(t, err)
	assert.Equal(t, idxs, vis)

	require.NoError(t, p.DeactivateVirtualSubPop(0))
	assert.False(t, p.HasActivatedVirtualSubPop())
	idxs, err = p.IterableIndices(0)
	require.NoError(t, err)
	assert.Len(t, idxs, 10, "deactivation restores everyone")

	// the last group absorbs the remainder
	require.NoError(t, p.ActivateVirtualSubPop(0, 1, ModeAll))
	idxs, err = p.IterableIndices(0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, idxs)
	require.NoError(t, p.DeactivateVirtualSubPop(0))

	_, err = NewProportionSplitter([]float64{0.5})
	require.ErrorIs(t, err, ErrBadProportions)
}

// TestActivationGuards checks single-activation, the missing-splitter
// error, and the structural mutation lock.
func TestActivationGuards(t *testing.T) {
	p := testPop(t, 6)
	require.ErrorIs(t, p.ActivateVirtualSubPop(0, 0, ModeAll), ErrNoSplitter)

	require.NoError(t, p.SetSplitter(&RangeSplitter{Ranges: [][2]int{{0, 2}, {2, 6}}}))
	require.NoError(t, p.ActivateVirtualSubPop(0, 0, ModeAll))

	// only one activation at a time
	require.ErrorIs(t, p.ActivateVirtualSubPop(0, 1, ModeAll), ErrActiveVirtualSubPop)

	// structural mutators refuse to run while activated
	require.ErrorIs(t, p.MergeSubPops(nil), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.RemoveIndividuals([]int{0}, -1, false), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.AddChrom([]float64{1}, nil), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.AddInfoField("x", 0), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.Resize([]int{6}, false), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.SetSplitter(nil), ErrActiveVirtualSubPop)
	require.ErrorIs(t, p.PushAndDiscard(testPop(t, 6)), ErrActiveVirtualSubPop)

	// deactivating the wrong subpopulation is rejected
	require.ErrorIs(t, p.DeactivateVirtualSubPop(1), ErrActiveVirtualSubPop)
	require.NoError(t, p.DeactivateVirtualSubPop(0))

	// lock lifted
	require.NoError(t, p.MergeSubPops(nil))
}

// TestInfoSplitter_Cutoffs checks interval membership driven by an
// information field.
func TestInfoSplitter_Cutoffs(t *testing.T) {
	p := testPop(t, 5)
	require.NoError(t, p.SetIndInfo("fitness", []float64{0, 1, 2, 3, 4}))
	s := &InfoSplitter{Field: "fitness", Cutoffs: []float64{1, 3}}
	require.NoError(t, p.SetSplitter(s))
	require.Equal(t, 3, s.NumVirtualSubPops())

	// middle interval [1, 3)
	require.NoError(t, p.ActivateVirtualSubPop(0, 1, ModeIterable))
	idxs, err := p.IterableIndices(0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, idxs)

	// iterable-only activation leaves visibility alone
	vis, err := p.VisibleIndices(0)
	require.NoError(t, err)
	assert.Len(t, vis, 5)
	require.NoError(t, p.DeactivateVirtualSubPop(0))

	assert.Equal(t, "1 <= fitness < 3", s.Name(1))
	assert.Equal(t, "fitness < 1", s.Name(0))
	assert.Equal(t, "fitness >= 3", s.Name(2))
}

// TestInfoSplitter_MissingField checks that activation surfaces the field
// lookup error.
func TestInfoSplitter_MissingField(t *testing.T) {
	p := testPop(t, 3)
	require.NoError(t, p.SetSplitter(&InfoSplitter{Field: "age", Values: []float64{1}}))
	err := p.ActivateVirtualSubPop(0, 0, ModeAll)
	require.ErrorIs(t, err, genostru.ErrFieldNotFound)
	assert.False(t, p.HasActivatedVirtualSubPop(), "failed activation leaves no lock")
}

// TestVirtualSubPopName checks composite reference naming.
func TestVirtualSubPopName(t *testing.T) {
	p := testPop(t, 4)
	name, err := p.VirtualSubPopName(VSP{SubPop: 2, Virtual: NoVirtual})
	require.NoError(t, err)
	assert.Equal(t, "sub population 2", name)

	_, err = p.VirtualSubPopName(VSP{SubPop: 0, Virtual: 0})
	require.ErrorIs(t, err, ErrNoSplitter)

	require.NoError(t, p.SetSplitter(&RangeSplitter{Ranges: [][2]int{{0, 2}}}))
	name, err = p.VirtualSubPopName(VSP{SubPop: 0, Virtual: 0})
	require.NoError(t, err)
	assert.Equal(t, "range [0, 2)", name)
}
