package cmpclust_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/sugarclust/pkg/allpairs"
	. "github.com/andrew-torda/sugarclust/pkg/cmpclust"
	"github.com/andrew-torda/sugarclust/pkg/distmat"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
)

func TestCompare(t *testing.T) {
	a := map[int][]int{1: {0, 1, 2}, 2: {3, 4}, 3: {5}}
	b := map[int][]int{7: {0, 5}, 8: {1, 2}, 9: {3, 4}}
	res, err := Compare(a, b)
	require.NoError(t, err)
	want := &Result{
		AtoB: Spread{1: {7, 8}, 2: {9}, 3: {7}},
		BtoA: Spread{7: {1, 3}, 8: {1}, 9: {2}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	for _, s := range []Spread{res.AtoB, res.BtoA} {
		for l, to := range s {
			assert.NotEmpty(t, to, "label %d", l)
		}
	}
	assert.Equal(t, []int{1}, res.AtoB.Split())
	assert.Equal(t, []int{7}, res.BtoA.Split())
	assert.False(t, res.Agree())

	// same partition, other names
	res, err = Compare(a, map[int][]int{1: {5}, 2: {2, 1, 0}, 3: {4, 3}})
	require.NoError(t, err)
	assert.True(t, res.Agree())
	assert.Equal(t, Spread{1: {2}, 2: {3}, 3: {1}}, res.AtoB)
}

func TestMismatch(t *testing.T) {
	a := map[int][]int{1: {0, 1}, 2: {2}}
	var me *MismatchError
	for name, b := range map[string]map[int][]int{
		"missing from b": {1: {0, 1}},
		"extra in b":     {1: {0, 1}, 2: {2, 3}},
		"twice in b":     {1: {0, 1, 2}, 2: {2}},
	} {
		_, err := Compare(a, b)
		require.True(t, errors.As(err, &me), name)
	}
	_, err := Compare(a, map[int][]int{1: {0, 1}})
	require.ErrorAs(t, err, &me)
	assert.Equal(t, MismatchError{Identity: 2, Side: "a"}, *me)
	assert.Contains(t, me.Error(), "in clustering a but not in b")
}

func link(t *testing.T, rows [][]float64) *hclust.Linkage {
	d, err := distmat.FromRows(rows)
	require.NoError(t, err)
	lk, err := hclust.Link(d, hclust.Single)
	require.NoError(t, err)
	return lk
}

var (
	super = [][]float64{
		{0, 1, 2, 6, 7},
		{1, 0, 1.5, 5, 6},
		{2, 1.5, 0, 5.5, 6.5},
		{6, 5, 5.5, 0, 1.2},
		{7, 6, 6.5, 1.2, 0},
	}
	align = [][]float64{
		{0, 1, 6, 6, 7},
		{1, 0, 5, 5, 6},
		{6, 5, 0, 1.5, 1.6},
		{6, 5, 1.5, 0, 1.2},
		{7, 6, 1.6, 1.2, 0},
	}
)

func TestCompareLeaves(t *testing.T) {
	a, b := link(t, super), link(t, align)
	d, err := CompareLeaves(a, a)
	require.NoError(t, err)
	assert.Zero(t, d)

	// 3 4 2 0 1 against 0 1 2 3 4
	d, err = CompareLeaves(a, b)
	require.NoError(t, err)
	assert.Equal(t, LeafDiff{Moved: 4, Crossings: 8}, d)

	_, err = CompareLeaves(a, link(t, [][]float64{{0, 1}, {1, 0}}))
	assert.ErrorIs(t, err, hclust.ErrClusterUniverses)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for s, rows := range map[geometry.Strategy][][]float64{geometry.Super: super, geometry.Align: align} {
		d, err := distmat.FromRows(rows)
		require.NoError(t, err)
		sdir := filepath.Join(dir, string(s))
		require.NoError(t, os.MkdirAll(sdir, 0o755))
		require.NoError(t, d.Save(filepath.Join(sdir, allpairs.MatrixName("GLC", s))))
		_, err = hclust.Run(d, hclust.Options{K: 2, Method: hclust.Single, Dir: sdir})
		require.NoError(t, err)
	}
	tangles := filepath.Join(t.TempDir(), "tanglegrams")
	rep, err := Run(Options{
		ClustersDir: dir, Sugar: "GLC", K: 2, Method: hclust.Single,
		A: geometry.Super, B: geometry.Align, TangleDir: tangles,
	})
	require.NoError(t, err)
	// super: {3,4} is 1, {0,1,2} is 2. align: {0,1} is 1, {2,3,4} is 2.
	assert.Equal(t, Spread{1: {2}, 2: {1, 2}}, rep.AtoB)
	assert.Equal(t, Spread{1: {2}, 2: {1, 2}}, rep.BtoA)
	assert.Equal(t, []int{2}, rep.SplitA)
	assert.Equal(t, LeafDiff{Moved: 4, Crossings: 8}, rep.Leaves)
	assert.FileExists(t, rep.Tangle)
	assert.FileExists(t, filepath.Join(dir, ComparisonName(2, hclust.Single)))

	_, err = Run(Options{ClustersDir: dir, Sugar: "GLC", K: 3, Method: hclust.Single,
		A: geometry.Super, B: geometry.Align})
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing clustered with k = 3")
	_, err = Run(Options{ClustersDir: dir, K: 2, Method: hclust.Single, A: geometry.Super, B: geometry.Super})
	assert.Error(t, err)
}
