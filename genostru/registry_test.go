package genostru

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The registry is process-wide, so these tests only assert relative
// behavior (dedup, stable indices) rather than absolute registry contents.

// TestIntern_Dedup checks that structurally equal specs intern to the same
// index and that Get returns the entry.
func TestIntern_Dedup(t *testing.T) {
	spec := Spec{Loci: []int{4, 4}, InfoFields: []string{"registry_dedup_mark"}}
	s1, err := NewStructure(spec)
	require.NoError(t, err)
	s2, err := NewStructure(spec)
	require.NoError(t, err)

	i1, err := Intern(s1)
	require.NoError(t, err)
	i2, err := Intern(s2)
	require.NoError(t, err)
	assert.Equal(t, i1, i2, "equal structures must share an index")

	got, err := Get(i1)
	require.NoError(t, err)
	assert.Equal(t, 8, got.TotNumLoci())
}

// TestIntern_DistinctEntries checks that different layouts get different
// indices and both stay reachable.
func TestIntern_DistinctEntries(t *testing.T) {
	a, err := NewStructure(Spec{Loci: []int{3}, InfoFields: []string{"registry_distinct_a"}})
	require.NoError(t, err)
	b, err := NewStructure(Spec{Loci: []int{3}, InfoFields: []string{"registry_distinct_b"}})
	require.NoError(t, err)

	ia, err := Intern(a)
	require.NoError(t, err)
	ib, err := Intern(b)
	require.NoError(t, err)
	require.NotEqual(t, ia, ib)

	assert.Equal(t, []string{"registry_distinct_a"}, MustGet(ia).InfoFields())
	assert.Equal(t, []string{"registry_distinct_b"}, MustGet(ib).InfoFields())
}

// TestGet_OutOfRange checks the error for an index past the registry.
func TestGet_OutOfRange(t *testing.T) {
	_, err := Get(Index(MaxStructures - 1))
	if NumStructures() < MaxStructures {
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

// TestIntern_RegistryFull checks the fixed-capacity contract: once
// MaxStructures distinct layouts exist, Intern refuses new ones but still
// resolves known layouts to their existing index. The registry is
// append-only, so this test fills it for the rest of the process and must
// stay last in this file.
func TestIntern_RegistryFull(t *testing.T) {
	base, err := NewStructure(Spec{Loci: []int{4, 4}, InfoFields: []string{"registry_dedup_mark"}})
	require.NoError(t, err)
	baseIdx, err := Intern(base)
	require.NoError(t, err)

	for i := 0; NumStructures() < MaxStructures; i++ {
		s, err := NewStructure(Spec{Loci: []int{1}, InfoFields: []string{"registry_fill_" + strconv.Itoa(i)}})
		require.NoError(t, err)
		_, err = Intern(s)
		require.NoError(t, err)
	}
	require.Equal(t, MaxStructures, NumStructures())

	extra, err := NewStructure(Spec{Loci: []int{1}, InfoFields: []string{"registry_one_too_many"}})
	require.NoError(t, err)
	_, err = Intern(extra)
	require.ErrorIs(t, err, ErrRegistryFull)

	// a full registry still deduplicates
	idx, err := Intern(base)
	require.NoError(t, err)
	assert.Equal(t, baseIdx, idx)
}
