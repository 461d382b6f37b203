// Package pdb is the upper level for reading and writing coordinates.
// Decide if a file is compressed or not, and what format
// we are going to read. Then call the corresponding pdb or mmcif
// format reader. Whatever the format, you get back a cmmn.Structure.
package pdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/mmcif"
	"github.com/andrew-torda/sugarclust/pdb/zwrap"
)

// Format says what kind of coordinate file we have.
type Format byte

const (
	OldFmt Format = iota // fixed column pdb
	MmcifFmt
	UnkFmt
)

func (f Format) String() string {
	switch f {
	case OldFmt:
		return "pdb"
	case MmcifFmt:
		return "mmcif"
	}
	return "unknown"
}

// ErrFormat is wrapped when we cannot work out what a file is.
var ErrFormat = errors.New("cannot recognise format")

// comparefirst says if s starts with w.
func comparefirst(s, w string) bool {
	return len(s) >= len(w) && s[:len(w)] == w
}

// lookInFile reads the start of a stream and guesses if it is in old
// PDB format or in mmcif.
func lookInFile(r io.Reader) (Format, error) {
	pdbWords := []string{"HEADER", "COMPND", "SOURCE", "REMARK", "SEQRES", "CRYST1", "HETATM", "ATOM", "MODEL"}
	mmcifWords := []string{"data_", "_entry.id", "loop_"}

	const maxTestLines = 5000
	scnnr := bufio.NewScanner(r)
	for i := 0; scnnr.Scan() && i < maxTestLines; i++ {
		s := scnnr.Text()
		for _, w := range mmcifWords {
			if comparefirst(s, w) {
				return MmcifFmt, nil
			}
		}
		for _, w := range pdbWords {
			if comparefirst(s, w) {
				return OldFmt, nil
			}
		}
	}
	if err := scnnr.Err(); err != nil {
		return UnkFmt, err
	}
	return UnkFmt, ErrFormat
}

// fmtFromName decides the format from the file name if it can.
// We cannot use the function from filepath to get the file type,
// since it will return .gz if we feed it a.pdb.gz.
func fmtFromName(fname string) Format {
	s := filepath.Base(fname)
	i := strings.IndexByte(s, '.')
	if i == -1 {
		return UnkFmt
	}
	s = strings.ToLower(s[i+1:]) // change .ent to ent
	switch {
	case strings.Contains(s, "cif"):
		return MmcifFmt
	case strings.Contains(s, "pdb"), strings.Contains(s, "ent"):
		return OldFmt
	}
	return UnkFmt
}

// ReadFile reads the first model from a coordinate file. The name of
// the structure is the file name without directory and extensions.
func ReadFile(fname string) (*cmmn.Structure, error) {
	typ := fmtFromName(fname)
	if typ == UnkFmt {
		rdr, err := zwrap.Open(fname)
		if err != nil {
			return nil, err
		}
		typ, err = lookInFile(rdr)
		rdr.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fname, err)
		}
	}
	rdr, err := zwrap.Open(fname)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	s, err := Read(rdr, typ)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fname, err)
	}
	s.Name = Stem(fname)
	return s, nil
}

// Read reads a stream in the given format.
func Read(r io.Reader, typ Format) (*cmmn.Structure, error) {
	switch typ {
	case OldFmt:
		return readOld(r)
	case MmcifFmt:
		d, err := mmcif.Read(r, "_atom_site", "_chem_comp", "_chem_comp_atom")
		if err != nil {
			return nil, err
		}
		if d["_atom_site"] == nil && d["_chem_comp_atom"] != nil {
			return ccdFromData(d)
		}
		return atomSite(d["_atom_site"])
	}
	return nil, ErrFormat
}

// Stem takes a/b/1abc_GLC_401_A.pdb.gz and returns 1abc_GLC_401_A.
func Stem(fname string) string {
	s := filepath.Base(fname)
	if strings.HasSuffix(s, ".gz") {
		s = s[:len(s)-3]
	}
	return strings.TrimSuffix(s, filepath.Ext(s))
}
