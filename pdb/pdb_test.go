package pdb_test

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-torda/sugarclust/brokenio"
	. "github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
)

// A small binding site. Two residues, a sugar with a deuterium and a water.
const site = `HEADER    SUGAR BINDING PROTEIN
ATOM      1  N   TRP A  62      10.000  11.000  12.000  1.00 20.00           N
ATOM      2  CA  TRP A  62      11.000  11.500  12.500  1.00 21.00           C
ATOM      3  CA  ASN A  63A     13.000  11.000  12.000  0.50 22.00           C
HETATM    4  C1  GLC A 401      15.000  15.000  15.000  1.00 30.00           C
HETATM    5  O5  GLC A 401      15.500  16.000  15.000  1.00 30.00           O
HETATM    6  D1  GLC A 401      15.000  14.000  15.000  1.00 30.00           D
HETATM    7  O   HOH A 501      20.000  20.000  20.000  1.00 40.00           O
ENDMDL
ATOM      8  N   TRP A  62       0.000   0.000   0.000  1.00 20.00           N
`

func TestReadOld(t *testing.T) {
	s, err := Read(strings.NewReader(site), OldFmt)
	require.NoError(t, err)
	require.Len(t, s.Atoms, 7, "second model should not be read")
	a := s.Atoms[2]
	assert.Equal(t, "CA", a.Name)
	assert.Equal(t, byte('A'), a.ICode)
	assert.Equal(t, 63, a.ResNum)
	assert.Equal(t, 0.5, a.Occ)
	assert.Equal(t, "D", s.Atoms[5].Element)
	assert.True(t, s.Atoms[4].Het)
	assert.Equal(t, cmmn.Xyz{X: 15.5, Y: 16, Z: 15}, s.Atoms[4].Pos)
	assert.Len(t, s.Residues(), 4)
}

func TestElementFromName(t *testing.T) {
	// no element columns
	in := "HETATM    1 FE   HEM A 200       1.000   2.000   3.000  1.00  0.00\n" +
		"ATOM      2  CA  GLY A   1       1.000   2.000   3.000  1.00  0.00\n" +
		"ATOM      3 1HB  ALA A   2       1.000   2.000   3.000  1.00  0.00\n"
	s, err := Read(strings.NewReader(in), OldFmt)
	require.NoError(t, err)
	var got []string
	for _, a := range s.Atoms {
		got = append(got, a.Element)
	}
	if diff := cmp.Diff([]string{"FE", "C", "H"}, got); diff != "" {
		t.Error(diff)
	}
}

func TestBadRecords(t *testing.T) {
	for _, line := range []string{
		"ATOM      1  CA  GLY A   1       1.000   2.000",
		"ATOM      1  CA  GLY A  x1       1.000   2.000   3.000  1.00  0.00",
		"ATOM      1  CA  GLY A   1       1.000   2.0z0   3.000  1.00  0.00",
		"ATOM      1  CA  GLY A   1       1.000   2.000   3.000  1.x0  0.00",
		"ATOM      1  CA  GLY A   1       1.000   2.000   3.000  1.00 b0.00",
	} {
		_, err := Read(strings.NewReader(line), OldFmt)
		assert.Error(t, err, line)
	}
}

// Write then read back. Coordinates survive to three decimals.
func TestWrite(t *testing.T) {
	s, err := Read(strings.NewReader(site), OldFmt)
	require.NoError(t, err)
	var b bytes.Buffer
	require.NoError(t, Write(&b, s))
	out := b.String()
	assert.True(t, strings.HasSuffix(out, "END\n"))
	lines := strings.Split(out, "\n")
	assert.Equal(t, "ATOM      2  CA  TRP A  62      11.000  11.500  12.500  1.00 21.00           C", lines[1])
	assert.Equal(t, byte('A'), lines[2][26], "insertion code column")
	s2, err := Read(&b, OldFmt)
	require.NoError(t, err)
	if diff := cmp.Diff(s.Atoms, s2.Atoms); diff != "" {
		t.Error(diff)
	}
}

func TestWriteLongChain(t *testing.T) {
	s := &cmmn.Structure{Atoms: []cmmn.Atom{{Name: "CA", ResName: "GLY", Chain: "AaA", ResNum: 5, Element: "C"}}}
	var b bytes.Buffer
	require.NoError(t, Write(&b, s))
	s2, err := Read(&b, OldFmt)
	require.NoError(t, err)
	assert.Equal(t, "A", s2.Atoms[0].Chain)
	assert.Equal(t, 1, s2.Atoms[0].Serial)
}

const atomSiteCif = `data_1ABC
loop_
_atom_site.group_PDB
_atom_site.id
_atom_site.type_symbol
_atom_site.label_atom_id
_atom_site.label_alt_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.pdbx_PDB_ins_code
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
_atom_site.occupancy
_atom_site.B_iso_or_equiv
_atom_site.auth_seq_id
_atom_site.auth_comp_id
_atom_site.auth_asym_id
_atom_site.auth_atom_id
_atom_site.pdbx_PDB_model_num
ATOM   1 C CA  . TRP A 1 ? 11.0 11.5 12.5 1.0 21.0 62  TRP A CA  1
HETATM 2 O O5  . GLC B . ? 15.5 16.0 15.0 1.0 30.0 401 GLC A "O5'" 1
ATOM   3 C CA  . TRP A 1 ? 0.0 0.0 0.0 1.0 21.0 62 TRP A CA 2
`

func TestReadMmcif(t *testing.T) {
	s, err := Read(strings.NewReader(atomSiteCif), MmcifFmt)
	require.NoError(t, err)
	require.Len(t, s.Atoms, 2)
	assert.Equal(t, 62, s.Atoms[0].ResNum, "author numbering")
	assert.Equal(t, "A", s.Atoms[1].Chain, "author chain")
	assert.Equal(t, "O5'", s.Atoms[1].Name)
	assert.Equal(t, byte(' '), s.Atoms[1].ICode)
	assert.True(t, s.Atoms[1].Het)
}

func TestBadMmcifColumns(t *testing.T) {
	good := "ATOM   1 C CA  . TRP A 1 ? 11.0 11.5 12.5 1.0 21.0 62  TRP A CA  1"
	for _, bad := range []string{
		"ATOM   x1 C CA  . TRP A 1 ? 11.0 11.5 12.5 1.0 21.0 62  TRP A CA  1",
		"ATOM   1 C CA  . TRP A 1 ? 11.0 11.5 12.5 one 21.0 62  TRP A CA  1",
		"ATOM   1 C CA  . TRP A 1 ? 11.0 11.5 12.5 1.0 2x.0 62  TRP A CA  1",
	} {
		cif := strings.Replace(atomSiteCif, good, bad, 1)
		require.NotEqual(t, atomSiteCif, cif)
		_, err := Read(strings.NewReader(cif), MmcifFmt)
		assert.Error(t, err, bad)
	}
	// missing values are fine
	cif := strings.Replace(atomSiteCif, good, "ATOM   1 C CA  . TRP A 1 ? 11.0 11.5 12.5 ? . 62  TRP A CA  1", 1)
	s, err := Read(strings.NewReader(cif), MmcifFmt)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Atoms[0].Occ)
	assert.Zero(t, s.Atoms[0].BFac)
}

func TestFmtFromName(t *testing.T) {
	var fnameTypes = []struct {
		fname string
		ftype Format
	}{
		{"boo.mmcif", MmcifFmt},
		{"boo.cif.gz", MmcifFmt},
		{"a/b/c.ent", OldFmt},
		{"a.pdb", OldFmt},
		{"a/0_1abc_GLC_401_A.pdb.gz", OldFmt},
		{"noextension", UnkFmt},
	}
	for _, f := range fnameTypes {
		if r := FmtFromName(f.fname); r != f.ftype {
			t.Error("working on", f.fname, "got", r)
		}
	}
}

func TestLookInFile(t *testing.T) {
	f, err := LookInFile(strings.NewReader(site))
	assert.NoError(t, err)
	assert.Equal(t, OldFmt, f)
	f, _ = LookInFile(strings.NewReader(atomSiteCif))
	assert.Equal(t, MmcifFmt, f)
	_, err = LookInFile(strings.NewReader("nothing to see\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

// ReadFile has to look inside gzipped files with no helpful name.
func TestReadFileGz(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "mystery")
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	zw.Write([]byte(atomSiteCif))
	zw.Close()
	require.NoError(t, os.WriteFile(fname, b.Bytes(), 0o644))
	s, err := ReadFile(fname)
	require.NoError(t, err)
	assert.Len(t, s.Atoms, 2)
	assert.Equal(t, "mystery", s.Name)

	pname := filepath.Join(dir, "1abc_GLC_401_A.pdb")
	require.NoError(t, os.WriteFile(pname, []byte(site), 0o644))
	s, err = ReadFile(pname)
	require.NoError(t, err)
	assert.Equal(t, "1abc_GLC_401_A", s.Name)

	_, err = ReadFile(filepath.Join(dir, "does_not_exist.pdb"))
	assert.Error(t, err)
}

// A read that fails half way must not give back a shortened structure.
func TestBrokenReader(t *testing.T) {
	for _, f := range []struct {
		typ Format
		in  string
	}{{OldFmt, site}, {MmcifFmt, atomSiteCif}} {
		rdr := brokenio.NewReader(strings.NewReader(f.in), 1)
		rdr.FailAfter(len(f.in) / 2)
		s, err := Read(rdr, f.typ)
		assert.Nil(t, s, f.typ.String())
		assert.True(t, errors.Is(err, brokenio.ErrInjected) ||
			strings.Contains(err.Error(), brokenio.ErrInjected.Error()), f.typ.String())
	}
}

func TestStem(t *testing.T) {
	for in, want := range map[string]string{
		"a/b/1abc_GLC_401_A.pdb.gz": "1abc_GLC_401_A",
		"0_1abc_GLC_401_A.pdb":      "0_1abc_GLC_401_A",
		"GLC.cif":                   "GLC",
	} {
		assert.Equal(t, want, Stem(in))
	}
}

const glcCif = `data_GLC
_chem_comp.id GLC
_chem_comp.name "alpha-D-glucopyranose"
loop_
_chem_comp_atom.comp_id
_chem_comp_atom.atom_id
_chem_comp_atom.type_symbol
_chem_comp_atom.model_Cartn_x
_chem_comp_atom.model_Cartn_y
_chem_comp_atom.model_Cartn_z
_chem_comp_atom.pdbx_model_Cartn_x_ideal
_chem_comp_atom.pdbx_model_Cartn_y_ideal
_chem_comp_atom.pdbx_model_Cartn_z_ideal
GLC C1 C 1.0 1.0 1.0 0.477 1.078 -0.451
GLC O5 O 2.0 2.0 2.0 ? ? ?
GLC H1 H 3.0 3.0 3.0 0.1 0.2 0.3
`

func TestReadCCD(t *testing.T) {
	s, err := ReadCCD(strings.NewReader(glcCif))
	require.NoError(t, err)
	assert.Equal(t, "GLC", s.Name)
	require.Len(t, s.Atoms, 3)
	assert.Equal(t, cmmn.Xyz{X: 0.477, Y: 1.078, Z: -0.451}, s.Atoms[0].Pos)
	assert.Equal(t, cmmn.Xyz{X: 2, Y: 2, Z: 2}, s.Atoms[1].Pos, "fall back to model coordinates")
	assert.Len(t, s.Residues(), 1)

	_, err = ReadCCD(strings.NewReader("data_X\n_chem_comp.id X\n"))
	assert.Error(t, err)
}

// A component file goes through ReadFile like any other mmcif file.
func TestReadFileCCD(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "GLC.cif")
	require.NoError(t, os.WriteFile(fname, []byte(glcCif), 0o644))
	s, err := ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, "GLC", s.Name)
	assert.Len(t, s.Atoms, 3)
	assert.Equal(t, "GLC", s.Atoms[2].ResName)
}
