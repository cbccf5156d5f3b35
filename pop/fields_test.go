package pop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkit/genostru"
)

// TestAddInfoField checks adding a fresh field: existing values survive,
// the new field reads its initializer everywhere.
func TestAddInfoField(t *testing.T) {
	p := testPop(t, 3)
	stampIDs(t, p)

	require.NoError(t, p.AddInfoField("age", 7))
	assert.Equal(t, []string{"fitness", "age"}, p.Structure().InfoFields())
	assert.Equal(t, 2, p.InfoSize())
	require.NoError(t, p.Validate())

	for i := 0; i < p.Size(); i++ {
		ind, err := p.Ind(i)
		require.NoError(t, err)
		fit, err := ind.InfoByName(p, "fitness")
		require.NoError(t, err)
		assert.Equal(t, float64(i), fit, "existing values survive the widening")
		age, err := ind.InfoByName(p, "age")
		require.NoError(t, err)
		assert.Equal(t, 7.0, age)
	}
}

// TestAddInfoField_ExistingIsReinitialized checks the overwrite semantics
// for a field that is already present.
func TestAddInfoField_ExistingIsReinitialized(t *testing.T) {
	p := testPop(t, 3)
	stampIDs(t, p)

	require.NoError(t, p.AddInfoField("fitness", -1))
	assert.Equal(t, 1, p.InfoSize(), "no new slot for an existing field")
	vals, err := p.IndInfo("fitness")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, -1}, vals)
}

// TestAddInfoFields_AcrossGenerations checks that widening reaches parked
// generations.
func TestAddInfoFields_AcrossGenerations(t *testing.T) {
	p := testPop(t, 2)
	require.NoError(t, p.SetAncestralDepth(-1))
	stampIDs(t, p)
	require.NoError(t, p.PushAndDiscard(testPop(t, 2)))

	require.NoError(t, p.AddInfoFields([]string{"age", "mother"}, 3))

	require.NoError(t, p.UseAncestralGen(1))
	assert.Equal(t, 3, p.InfoSize())
	ind, err := p.Ind(1)
	require.NoError(t, err)
	fit, err := ind.InfoByName(p, "fitness")
	require.NoError(t, err)
	assert.Equal(t, 1.0, fit)
	age, err := ind.InfoByName(p, "age")
	require.NoError(t, err)
	assert.Equal(t, 3.0, age)
	require.NoError(t, p.Validate())
	require.NoError(t, p.UseAncestralGen(0))
}

// TestSetInfoFields checks wholesale replacement: every value resets, even
// for surviving names.
func TestSetInfoFields(t *testing.T) {
	p := testPop(t, 2)
	stampIDs(t, p)

	require.NoError(t, p.SetInfoFields([]string{"fitness", "rank"}, 0.5))
	assert.Equal(t, []string{"fitness", "rank"}, p.Structure().InfoFields())

	vals, err := p.IndInfo("fitness")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, vals, "surviving names reset too")

	// the old lookup table is gone for dropped names
	_, err = p.IndInfo("age")
	require.ErrorIs(t, err, genostru.ErrFieldNotFound)
}

// TestSetIndInfo checks the cyclic per-field fill and collection.
func TestSetIndInfo(t *testing.T) {
	p := testPop(t, 5)
	require.NoError(t, p.SetIndInfo("fitness", []float64{1, 2}))

	vals, err := p.IndInfo("fitness")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 2, 1}, vals)

	require.ErrorIs(t, p.SetIndInfo("fitness", nil), ErrSizeMismatch)
	_, err = p.IndInfo("nope")
	require.ErrorIs(t, err, genostru.ErrFieldNotFound)
}
