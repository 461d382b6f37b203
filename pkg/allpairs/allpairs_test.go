package allpairs_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	. "github.com/andrew-torda/sugarclust/pkg/allpairs"
	"github.com/andrew-torda/sugarclust/pkg/distmat"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

var names = []string{"0_1abc_GLC_401_A.pdb", "1_2xyz_GLC_7_B.pdb", "2_3def_GLC_8_C.pdb"}

const (
	sitesDir = "/sites"
	refFile  = "/ref/GLC.cif"
	refObj   = geometry.Object(9)
	refLig   = geometry.Selection(19)
)

func keyMap(t *testing.T, names []string) *site.KeyMap {
	km := site.NewKeyMap()
	for i, n := range names {
		require.NoError(t, km.Add(i, n))
	}
	return km
}

func fakeRMSD(i, j int, s geometry.Strategy) float64 {
	v := float64(i + j)
	if s == geometry.Align {
		v += 0.5
	}
	return v
}

func isStrategy(s geometry.Strategy) any {
	return mock.MatchedBy(func(c *geometry.Correspondence) bool { return c != nil && c.Strategy == s })
}

// newMock answers for n sites. The pair in fail breaks in RigidAlign.
func newMock(n int, fail [2]int) *mockBackend {
	m := &mockBackend{}
	m.On("ClearSession").Return()
	m.On("LoadStructure", refFile).Return(refObj, nil)
	m.On("SelectAnchorLigand", refObj, site.SourceKey{Sugar: "GLC", ResNum: 1, Chain: "A"}).Return(refLig, nil)
	for i := 0; i < n; i++ {
		m.On("LoadStructure", filepath.Join(sitesDir, names[i])).Return(geometry.Object(i), nil)
		m.On("SelectAnchorLigand", geometry.Object(i), mock.Anything).Return(geometry.Selection(10+i), nil)
		m.On("Superpose", geometry.Selection(10+i), refLig).Return(geom.Identity, nil)
		m.On("SelectPolymer", geometry.Object(i)).Return(geometry.Selection(20+i), nil)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p1, p2 := geometry.Selection(20+i), geometry.Selection(20+j)
			for _, s := range geometry.Strategies {
				if i == fail[0] && j == fail[1] {
					m.On("RigidAlign", p1, p2, s, false).Return(nil, errors.New("no atoms in common"))
					continue
				}
				corr := &geometry.Correspondence{Moving: p1, Fixed: p2, Strategy: s}
				m.On("RigidAlign", p1, p2, s, false).Return(corr, nil)
				m.On("CurrentRMSD", p1, p2, isStrategy(s)).Return(fakeRMSD(i, j, s), nil)
			}
		}
	}
	return m
}

func options(dir string) Options {
	return Options{
		Sugar:       "GLC",
		Strategies:  geometry.Strategies,
		Reference:   refFile,
		SitesDir:    sitesDir,
		ClustersDir: dir,
		RunID:       "run-1",
	}
}

func TestRun(t *testing.T) {
	m := newMock(3, [2]int{-1, -1})
	dir := t.TempDir()
	b, err := New(m, options(dir))
	require.NoError(t, err)
	rep, err := b.Run(context.Background(), keyMap(t, names))
	require.NoError(t, err)
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "ClearSession", 3+1)

	assert.Equal(t, 3, rep.Pairs)
	assert.Empty(t, rep.Failed)
	for _, s := range geometry.Strategies {
		mat, err := LoadMatrix(dir, "GLC", s)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			assert.Zero(t, mat.At(i, i))
			for j := i + 1; j < 3; j++ {
				assert.Equal(t, fakeRMSD(i, j, s), mat.At(i, j))
				assert.Equal(t, mat.At(i, j), mat.At(j, i))
			}
		}
		fp, err := os.Open(filepath.Join(dir, string(s), TableName("GLC", s)))
		require.NoError(t, err)
		recs, err := distmat.ReadRecords(fp)
		fp.Close()
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, distmat.Record{A: "0_1abc_GLC_401_A", B: "1_2xyz_GLC_7_B", RMSD: fakeRMSD(0, 1, s)}, recs[0])
	}
	run, failed, err := ReadFailed(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run)
	assert.Empty(t, failed)
}

func TestIncomplete(t *testing.T) {
	m := newMock(3, [2]int{0, 2})
	dir := t.TempDir()
	b, err := New(m, options(dir))
	require.NoError(t, err)
	rep, err := b.Run(context.Background(), keyMap(t, names))
	var inc *IncompleteError
	require.True(t, errors.As(err, &inc), "got %v", err)
	assert.Len(t, inc.Failed, 1)
	assert.Equal(t, 3, inc.Pairs)
	assert.Contains(t, err.Error(), FailedName)

	f := rep.Failed[0]
	assert.Equal(t, [2]int{0, 2}, [2]int{f.Identity1, f.Identity2})
	assert.Equal(t, names[2], f.Structure2)
	assert.Contains(t, f.Error, "no atoms in common")

	mat, err := LoadMatrix(dir, "GLC", geometry.Super)
	require.NoError(t, err, "outputs are written even when pairs fail")
	assert.Zero(t, mat.At(0, 2))
	assert.Equal(t, fakeRMSD(1, 2, geometry.Super), mat.At(1, 2))
	_, failed, err := ReadFailed(dir)
	require.NoError(t, err)
	assert.Equal(t, rep.Failed, failed)
}

func TestCancel(t *testing.T) {
	m := newMock(3, [2]int{-1, -1})
	b, err := New(m, options(t.TempDir()))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Run(ctx, keyMap(t, names))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadInput(t *testing.T) {
	m := &mockBackend{}
	dir := t.TempDir()
	for _, o := range []Options{
		{Strategies: geometry.Strategies, Reference: refFile, ClustersDir: dir},
		{Sugar: "GLC", Reference: refFile, ClustersDir: dir},
		{Sugar: "GLC", Strategies: []geometry.Strategy{"super", "super"}, Reference: refFile, ClustersDir: dir},
		{Sugar: "GLC", Strategies: []geometry.Strategy{"cealign"}, Reference: refFile, ClustersDir: dir},
		{Sugar: "GLC", Strategies: geometry.Strategies, ClustersDir: dir},
	} {
		_, err := New(m, o)
		assert.Error(t, err, "%+v", o)
	}
	b, err := New(m, options(dir))
	require.NoError(t, err)
	_, err = b.Run(context.Background(), keyMap(t, []string{"1_1abc_GLC_401_A.pdb"}))
	assert.Error(t, err, "identity and file name disagree")
	m.AssertNotCalled(t, "ClearSession")
}

// The same thing with real structures. Site 1 is site 0 moved somewhere
// else and site 2 has one residue shifted.
func TestWithSession(t *testing.T) {
	sites := filepath.Join(t.TempDir(), "filtered")
	require.NoError(t, os.Mkdir(sites, 0o755))
	base := fakeSite("A", 401)
	bent := base.Copy()
	for i := range bent.Atoms {
		if bent.Atoms[i].ResNum == 62 {
			bent.Atoms[i].Pos.X += 1.5
		}
	}
	realNames := []string{"0_1abc_GLC_401_A.pdb", "1_2xyz_GLC_401_A.pdb", "2_3bnt_GLC_401_A.pdb"}
	for i, s := range []*cmmn.Structure{base, transform(base, turn()), bent} {
		writeSite(t, filepath.Join(sites, realNames[i]), s)
	}
	// the reference is the sugar on its own, numbered as in the dictionary
	ref := &cmmn.Structure{}
	for _, a := range base.Atoms {
		if a.ResName == "GLC" {
			a.Chain, a.ResNum = "A", 1
			ref.Atoms = append(ref.Atoms, a)
		}
	}
	refName := filepath.Join(t.TempDir(), "GLC.pdb")
	writeSite(t, refName, transform(ref, spin()))

	opts := options(t.TempDir())
	opts.SitesDir = sites
	opts.Reference = refName
	b, err := New(geometry.NewSession(nil), opts)
	require.NoError(t, err)
	rep, err := b.Run(context.Background(), keyMap(t, realNames))
	require.NoError(t, err)

	for _, s := range geometry.Strategies {
		mat := rep.Matrices[s]
		require.NoError(t, mat.Check())
		assert.InDelta(t, 0, mat.At(0, 1), 0.01, "%s: moved copy", s)
		assert.Greater(t, mat.At(0, 2), 0.1, s)
		assert.InDelta(t, mat.At(0, 2), mat.At(1, 2), 0.01, s)
		want := 1.5 / math.Sqrt(5) // one residue of five moved by 1.5
		assert.InDelta(t, want, mat.At(0, 2), 0.01, s)
	}
}

var (
	resNames = []string{"TRP", "ASN", "ASP", "GLU", "HIS"}
	bbNames  = []string{"N", "CA", "C", "O"}
	sugNames = []string{"C1", "C2", "C3", "C4", "C5", "C6", "O5"}
)

func fakeSite(chain string, sugarNum int) *cmmn.Structure {
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
			Name: an, ResName: "GLC", Chain: chain, ResNum: sugarNum, Het: true,
			Element: an[:1], AltLoc: ' ', ICode: ' ', Occ: 1,
			Pos: cmmn.Xyz{X: 5 + math.Cos(fn), Y: 6 + 1.2*math.Sin(fn), Z: 1 + 0.3*fn},
		})
	}
	return s
}

func rotation(a, b float64, shift cmmn.Xyz) geom.Transform {
	ca, sa, cb, sb := math.Cos(a), math.Sin(a), math.Cos(b), math.Sin(b)
	return geom.Transform{
		R: [3][3]float64{
			{ca, -sa, 0},
			{cb * sa, cb * ca, -sb},
			{sb * sa, sb * ca, cb},
		},
		T: shift,
	}
}

func turn() geom.Transform { return rotation(0.7, 1.2, cmmn.Xyz{X: 10, Y: -5, Z: 3}) }
func spin() geom.Transform { return rotation(-2, 0.4, cmmn.Xyz{X: -30, Y: 2, Z: 8}) }

func transform(s *cmmn.Structure, t geom.Transform) *cmmn.Structure {
	c := s.Copy()
	for i := range c.Atoms {
		c.Atoms[i].Pos = t.Apply(c.Atoms[i].Pos)
	}
	return c
}

func writeSite(t *testing.T, fname string, s *cmmn.Structure) {
	t.Helper()
	var b strings.Builder
	require.NoError(t, pdb.Write(&b, s))
	require.NoError(t, os.WriteFile(fname, []byte(b.String()), 0o644))
}
