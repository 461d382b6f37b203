package geometry_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	. "github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

var (
	resNames = []string{"TRP", "ASN", "ASP", "GLU", "HIS"}
	bbNames  = []string{"N", "CA", "C", "O"}
	sugNames = []string{"C1", "C2", "C3", "C4", "C5", "C6", "O5"}
)

// fakeSite has five residues of four atoms and a glucose.
func fakeSite(chain string) *cmmn.Structure {
	s := &cmmn.Structure{}
	for k, rn := range resNames {
		for m, an := range bbNames {
			fk, fm := float64(k), float64(m)
			s.Atoms = append(s.Atoms, cmmn.Atom{
				Name: an, ResName: rn, Chain: chain, ResNum: 60 + k,
				Element: an[:1], AltLoc: ' ', ICode: ' ', Occ: 1,
				Pos: cmmn.Xyz{X: 3.8*fk + 0.5*fm, Y: 2 * math.Sin(fk+fm), Z: 1.5 * math.Cos(fk*fm+0.3)},
			})
		}
	}
	for n, an := range sugNames {
		fn := float64(n)
		s.Atoms = append(s.Atoms, cmmn.Atom{
			Name: an, ResName: "GLC", Chain: chain, ResNum: 401, Het: true,
			Element: an[:1], AltLoc: ' ', ICode: ' ', Occ: 1,
			Pos: cmmn.Xyz{X: 5 + math.Cos(fn), Y: 6 + 1.2*math.Sin(fn), Z: 1 + 0.3*fn},
		})
	}
	return s
}

// turn rotates about z, then x, then shifts.
func turn() geom.Transform {
	a, b := 0.7, 1.2
	ca, sa, cb, sb := math.Cos(a), math.Sin(a), math.Cos(b), math.Sin(b)
	return geom.Transform{
		R: [3][3]float64{
			{ca, -sa, 0},
			{cb * sa, cb * ca, -sb},
			{sb * sa, sb * ca, cb},
		},
		T: cmmn.Xyz{X: 10, Y: -5, Z: 3},
	}
}

func moved(s *cmmn.Structure) *cmmn.Structure {
	c := s.Copy()
	t := turn()
	for i := range c.Atoms {
		c.Atoms[i].Pos = t.Apply(c.Atoms[i].Pos)
	}
	return c
}

func writeSite(t *testing.T, dir, name string, s *cmmn.Structure) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	fp, err := os.Create(fname)
	require.NoError(t, err)
	require.NoError(t, pdb.Write(fp, s))
	require.NoError(t, fp.Close())
	return fname
}

// twoSites writes an original and a moved copy and loads both.
func twoSites(t *testing.T) (*Session, [2]Object, [2]site.SourceKey) {
	t.Helper()
	dir := t.TempDir()
	f1 := writeSite(t, dir, "1abc_GLC_401_A.pdb", fakeSite("A"))
	f2 := writeSite(t, dir, "2xyz_GLC_401_A.pdb", moved(fakeSite("A")))
	ss := NewSession(nil)
	var objs [2]Object
	var keys [2]site.SourceKey
	for i, f := range []string{f1, f2} {
		var err error
		objs[i], err = ss.LoadStructure(f)
		require.NoError(t, err)
		keys[i], err = site.Parse(f)
		require.NoError(t, err)
	}
	return ss, objs, keys
}

const tol = 0.01 // coordinates only have three decimals in the files

func TestSuperposeThenSuper(t *testing.T) {
	ss, objs, keys := twoSites(t)
	lig0, err := ss.SelectAnchorLigand(objs[0], keys[0])
	require.NoError(t, err)
	lig1, err := ss.SelectAnchorLigand(objs[1], keys[1])
	require.NoError(t, err)
	_, err = ss.Superpose(lig1, lig0)
	require.NoError(t, err)

	prot0, err := ss.SelectPolymer(objs[0])
	require.NoError(t, err)
	prot1, err := ss.SelectPolymer(objs[1])
	require.NoError(t, err)
	corr, err := ss.RigidAlign(prot0, prot1, Super, false)
	require.NoError(t, err)
	assert.Equal(t, 5, corr.Residues)
	assert.Len(t, corr.Pairs, 20)
	assert.InDelta(t, 0, corr.FitRMSD, tol)
	rmsd, err := ss.CurrentRMSD(prot0, prot1, corr)
	require.NoError(t, err)
	assert.InDelta(t, 0, rmsd, tol, "ligand superposition should have brought the proteins together")
}

// Without moving, the RMSD is measured where the atoms are.
func TestAlignMoveInPlace(t *testing.T) {
	ss, objs, _ := twoSites(t)
	prot0, err := ss.SelectPolymer(objs[0])
	require.NoError(t, err)
	prot1, err := ss.SelectPolymer(objs[1])
	require.NoError(t, err)

	corr, err := ss.RigidAlign(prot1, prot0, Align, false)
	require.NoError(t, err)
	assert.InDelta(t, 0, corr.FitRMSD, tol)
	far, err := ss.CurrentRMSD(prot1, prot0, corr)
	require.NoError(t, err)
	assert.Greater(t, far, 1.0)
	back, err := ss.CurrentRMSD(prot0, prot1, corr)
	require.NoError(t, err)
	assert.InDelta(t, far, back, 1e-12, "order of selections")

	corr, err = ss.RigidAlign(prot1, prot0, Align, true)
	require.NoError(t, err)
	near, err := ss.CurrentRMSD(prot1, prot0, corr)
	require.NoError(t, err)
	assert.InDelta(t, 0, near, tol)
}

func TestTooFewPairs(t *testing.T) {
	dir := t.TempDir()
	full := fakeSite("A")
	tiny := &cmmn.Structure{Atoms: []cmmn.Atom{
		full.Atoms[1],   // TRP CA
		full.Atoms[20],  // GLC C1
		full.Atoms[21]}} // GLC C2
	f1 := writeSite(t, dir, "1abc_GLC_401_A.pdb", full)
	f2 := writeSite(t, dir, "3tny_GLC_401_A.pdb", tiny)
	ss := NewSession(nil)
	o1, err := ss.LoadStructure(f1)
	require.NoError(t, err)
	o2, err := ss.LoadStructure(f2)
	require.NoError(t, err)
	key := site.SourceKey{Sugar: "GLC", ResNum: 401, Chain: "A"}
	lig1, err := ss.SelectAnchorLigand(o1, key)
	require.NoError(t, err)
	lig2, err := ss.SelectAnchorLigand(o2, key)
	require.NoError(t, err)
	_, err = ss.Superpose(lig2, lig1)
	assert.ErrorIs(t, err, ErrTooFewPairs)

	p1, err := ss.SelectPolymer(o1)
	require.NoError(t, err)
	p2, err := ss.SelectPolymer(o2)
	require.NoError(t, err)
	_, err = ss.RigidAlign(p2, p1, Align, false)
	assert.ErrorIs(t, err, ErrTooFewPairs)
	_, err = ss.RigidAlign(p2, p1, "bend", false)
	assert.ErrorIs(t, err, ErrStrategy)
}

func TestCountAndRemove(t *testing.T) {
	ss, objs, keys := twoSites(t)
	lig, err := ss.SelectAnchorLigand(objs[0], keys[0])
	require.NoError(t, err)
	prot, err := ss.SelectPolymer(objs[0])
	require.NoError(t, err)
	n, err := ss.CountAtoms(lig)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	require.NoError(t, ss.RemoveAtoms(lig))
	n, err = ss.CountAtoms(lig)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = ss.CountAtoms(prot)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	_, err = ss.SelectAnchorLigand(objs[0], keys[0])
	assert.ErrorIs(t, err, ErrEmptySelection)
	_, err = ss.CenterOfMass(lig)
	assert.ErrorIs(t, err, geom.ErrEmpty)
}

func TestCenterOfMass(t *testing.T) {
	s := fakeSite("A")
	want, err := geom.CenterOfMass(s.Atoms[20:])
	require.NoError(t, err)
	ss, objs, keys := twoSites(t)
	lig, err := ss.SelectAnchorLigand(objs[0], keys[0])
	require.NoError(t, err)
	got, err := ss.CenterOfMass(lig)
	require.NoError(t, err)
	assert.InDelta(t, want.X, got.X, tol)
	assert.InDelta(t, want.Y, got.Y, tol)
	assert.InDelta(t, want.Z, got.Z, tol)

	s.Atoms[25].Element = "D"
	fname := writeSite(t, t.TempDir(), "4ddd_GLC_401_A.pdb", s)
	obj, err := ss.LoadStructure(fname)
	require.NoError(t, err)
	lig, err = ss.SelectAnchorLigand(obj, keys[0])
	require.NoError(t, err)
	_, err = ss.CenterOfMass(lig)
	assert.True(t, errors.Is(err, geom.ErrUnknownElement), "got %v", err)
}

// Chains like AaA are written out as A.
func TestLongChain(t *testing.T) {
	fname := writeSite(t, t.TempDir(), "1abc_GLC_401_AaA.pdb", fakeSite("AaA"))
	key, err := site.Parse(fname)
	require.NoError(t, err)
	ss := NewSession(nil)
	obj, err := ss.LoadStructure(fname)
	require.NoError(t, err)
	lig, err := ss.SelectAnchorLigand(obj, key)
	require.NoError(t, err)
	n, _ := ss.CountAtoms(lig)
	assert.Equal(t, 7, n)
}

func TestClear(t *testing.T) {
	ss, objs, keys := twoSites(t)
	lig, err := ss.SelectAnchorLigand(objs[0], keys[0])
	require.NoError(t, err)
	prot0, _ := ss.SelectPolymer(objs[0])
	prot1, _ := ss.SelectPolymer(objs[1])
	corr, err := ss.RigidAlign(prot0, prot1, Align, false)
	require.NoError(t, err)
	_, err = ss.CurrentRMSD(prot0, lig, corr)
	assert.ErrorIs(t, err, ErrWrongCorr)

	ss.ClearSession()
	_, err = ss.CountAtoms(lig)
	assert.ErrorIs(t, err, ErrNoSelection)
	_, err = ss.SelectPolymer(objs[1])
	assert.ErrorIs(t, err, ErrNoObject)
}

// A moved structure is read fresh after clearing, not where we left it.
func TestReloadIsFresh(t *testing.T) {
	dir := t.TempDir()
	f1 := writeSite(t, dir, "1abc_GLC_401_A.pdb", fakeSite("A"))
	f2 := writeSite(t, dir, "2xyz_GLC_401_A.pdb", moved(fakeSite("A")))
	key := site.SourceKey{Sugar: "GLC", ResNum: 401, Chain: "A"}
	ss := NewSession(nil)
	load := func(f string) Selection {
		obj, err := ss.LoadStructure(f)
		require.NoError(t, err)
		lig, err := ss.SelectAnchorLigand(obj, key)
		require.NoError(t, err)
		return lig
	}
	lig0, lig1 := load(f1), load(f2)
	before, err := ss.CenterOfMass(lig1)
	require.NoError(t, err)
	_, err = ss.Superpose(lig1, lig0)
	require.NoError(t, err)
	shifted, err := ss.CenterOfMass(lig1)
	require.NoError(t, err)
	assert.Greater(t, geom.Dist(before, shifted), 1.0)

	ss.ClearSession()
	after, err := ss.CenterOfMass(load(f2))
	require.NoError(t, err)
	assert.InDelta(t, 0, geom.Dist(before, after), 1e-9)

	_, err = ss.LoadStructure(filepath.Join(dir, "missing.pdb"))
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"super", "align"} {
		got, err := ParseStrategy(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(got))
	}
	_, err := ParseStrategy("cealign")
	assert.ErrorIs(t, err, ErrStrategy)
}
