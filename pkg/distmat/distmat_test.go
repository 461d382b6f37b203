package distmat_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/andrew-torda/sugarclust/pkg/distmat"
)

func four(t *testing.T) *Matrix {
	m, err := FromRows([][]float64{
		{0, 1, 2, 3},
		{1, 0, 4, 5},
		{2, 4, 0, 6},
		{3, 5, 6, 0},
	})
	require.NoError(t, err)
	return m
}

func TestCondensed(t *testing.T) {
	m := four(t)
	c := m.Condensed()
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, c)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			assert.Equal(t, m.At(i, j), c[CondensedIndex(4, i, j)])
		}
	}
	back, err := FromCondensed(c)
	require.NoError(t, err)
	if diff := cmp.Diff(m.Row(3), back.Row(3)); diff != "" {
		t.Error(diff)
	}
	_, err = FromCondensed([]float64{1, 2})
	assert.ErrorIs(t, err, ErrSize)
	empty, err := FromCondensed(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.N())
}

func TestCheck(t *testing.T) {
	m := four(t)
	require.NoError(t, m.Check())
	assert.Equal(t, 6.0, m.Max())

	m.Row(0)[1] = 7
	assert.ErrorIs(t, m.Check(), ErrNotSymmetric)
	m = four(t)
	m.Row(2)[2] = 0.1
	assert.ErrorIs(t, m.Check(), ErrDiagonal)
	m = four(t)
	m.Set(1, 3, math.NaN())
	assert.ErrorIs(t, m.Check(), ErrNegative)
	m = four(t)
	m.Row(3)[1] = math.NaN()
	assert.ErrorIs(t, m.Check(), ErrNegative, "NaN below the diagonal only")
	m = four(t)
	m.Set(0, 2, -1)
	assert.ErrorIs(t, m.Check(), ErrNegative)
	m = four(t)
	m.Row(1)[1] = math.NaN()
	assert.ErrorIs(t, m.Check(), ErrDiagonal)
	m = four(t)
	m.Set(0, 3, math.Inf(1))
	assert.ErrorIs(t, m.Check(), ErrInfinite)

	_, err := FromRows([][]float64{{0, 1}, {1}})
	assert.ErrorIs(t, err, ErrSize)
}

func TestNpy(t *testing.T) {
	m := four(t)
	var buf bytes.Buffer
	require.NoError(t, m.WriteNpy(&buf))
	b := buf.Bytes()
	assert.Equal(t, "\x93NUMPY\x01\x00", string(b[:8]))
	hlen := int(binary.LittleEndian.Uint16(b[8:]))
	assert.Zero(t, (10+hlen)%64, "data must be aligned")
	hdr := string(b[10 : 10+hlen])
	assert.True(t, strings.HasPrefix(hdr, "{'descr': '<f8', 'fortran_order': False, 'shape': (4, 4), }"))
	assert.True(t, strings.HasSuffix(hdr, "\n"))
	assert.Len(t, b, 10+hlen+16*8)

	back, err := ReadNpy(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, m.Condensed(), back.Condensed())

	fname := filepath.Join(t.TempDir(), "GLC_all_pairs_rmsd_super.npy")
	require.NoError(t, m.Save(fname))
	loaded, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.N())
	assert.Equal(t, 6.0, loaded.At(3, 2))
}

func TestNpyBroken(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, four(t).WriteNpy(&buf))
	good := buf.Bytes()

	var broken = []struct {
		name string
		b    []byte
	}{
		{"magic", []byte("PK\x03\x04 not numpy")},
		{"short data", good[:len(good)-8]},
		{"int", bytes.Replace(good, []byte("<f8"), []byte("<i8"), 1)},
		{"fortran", bytes.Replace(good, []byte("False"), []byte("True "), 1)},
		{"1d", bytes.Replace(good, []byte("(4, 4)"), []byte("(16,) "), 1)},
		{"version", append([]byte("\x93NUMPY\x09\x00"), good[8:]...)},
	}
	for _, tt := range broken {
		_, err := ReadNpy(bytes.NewReader(tt.b))
		assert.ErrorIs(t, err, ErrNpy, tt.name)
	}

	fname := filepath.Join(t.TempDir(), "empty.npy")
	require.NoError(t, os.WriteFile(fname, nil, 0o644))
	_, err := Load(fname)
	assert.ErrorIs(t, err, ErrNpy)
	_, err = Load(fname + ".not.there")
	assert.Error(t, err)
}

func TestRecords(t *testing.T) {
	var buf bytes.Buffer
	rw, err := NewRecordWriter(&buf)
	require.NoError(t, err)
	recs := []Record{
		{"0_1abc_GLC_401_A", "1_2xyz_GLC_7_A", 1.25},
		{"0_1abc_GLC_401_A", "2_3ddd_GLC_8_C", 0.1 + 0.2},
	}
	for _, r := range recs {
		require.NoError(t, rw.Write(r))
	}
	require.NoError(t, rw.Flush())
	assert.True(t, strings.HasPrefix(buf.String(), "structure1,structure2,rmsd\n"))
	assert.Contains(t, buf.String(), ",1.25\n")

	back, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, recs, back)

	_, err = ReadRecords(strings.NewReader("a,b,c\n"))
	assert.Error(t, err)
	_, err = ReadRecords(strings.NewReader("structure1,structure2,rmsd\nx,y,big\n"))
	assert.Error(t, err)
}
