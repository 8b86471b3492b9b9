package fst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsEnumeration(t *testing.T) {
	f := Union(Cross(FromString("b"), FromString("2")),
		Cross(FromString("a"), FromString("1")))
	paths, err := f.Paths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "a", paths[0].InString())
	assert.Equal(t, "1", paths[0].OutString())
	assert.Equal(t, "b", paths[1].InString())
}

func TestPathsDedup(t *testing.T) {
	f := Union(FromString("a"), FromString("a"))
	paths, err := f.Paths()
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestPathsCyclic(t *testing.T) {
	_, err := Star(FromString("a")).Paths()
	assert.ErrorIs(t, err, ErrCyclic)
}

func TestPathsIgnoresDeadCycle(t *testing.T) {
	f := FromString("ab").Copy()
	// A looping state reachable from the start but never accepting.
	dead := f.addState()
	f.addArc(f.Start(), Arc{In: Label('z'), Out: Label('z'), To: dead})
	f.addArc(dead, Arc{In: Label('z'), Out: Label('z'), To: dead})

	paths, err := f.Paths()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "ab", paths[0].InString())
}

func TestLatticeNoPath(t *testing.T) {
	_, err := Lattice(FromString("zz"), FromString("a"))
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestRewritesSortedAndDeduped(t *testing.T) {
	rule := Union(Cross(FromString("a"), FromString("y")),
		Cross(FromString("a"), FromString("x")),
		Cross(FromString("a"), FromString("x")))
	out, err := Rewrites(FromString("a"), rule)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, out)
}
