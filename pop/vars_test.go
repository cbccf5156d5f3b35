package pop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popkit/vars"
)

// TestPopulationVars checks the variable conveniences: scope validation,
// default store fallback, and an explicit attachment.
func TestPopulationVars(t *testing.T) {
	ctx := context.Background()
	p := testPop(t, 2, 3)

	// fallback store, whole-population scope
	require.NoError(t, p.SetVar(ctx, WholePop, "meanFitness", 0.8))
	v, ok, err := p.GetVar(ctx, WholePop, "meanFitness")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.8, v)

	// per-subpopulation scope
	require.NoError(t, p.SetVar(ctx, 1, "size", 3))
	names, err := p.VarNames(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"size"}, names)

	// out-of-range scope
	require.ErrorIs(t, p.SetVar(ctx, 2, "x", 1), ErrIndexOutOfRange)

	require.NoError(t, p.DeleteVar(ctx, WholePop, "meanFitness"))
	_, ok, err = p.GetVar(ctx, WholePop, "meanFitness")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPopulationVars_SharedStore checks that two populations attached to
// one store under different ids stay isolated.
func TestPopulationVars_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := vars.NewMemoryStore()
	defer store.Close()

	a := testPop(t, 2)
	b := testPop(t, 2)
	a.AttachVars(store, "a")
	b.AttachVars(store, "b")
	assert.Equal(t, "a", a.VarsID())

	require.NoError(t, a.SetVar(ctx, WholePop, "x", 1))
	_, ok, err := b.GetVar(ctx, WholePop, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.ClearVars(ctx))
	_, ok, err = a.GetVar(ctx, WholePop, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}
