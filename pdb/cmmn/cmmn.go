// Package pdb/cmmn has common definitions for coordinates, atoms and
// structures. Everything that reads or writes coordinates uses these.
package cmmn

import (
	"math"
	"strconv"
)

type Xyz struct{ X, Y, Z float64 }
type XyzSl []Xyz // xyz's are coordinates

var BrokenXyz = Xyz{math.MaxFloat64, 0, -math.MaxFloat64}

var BrokenResNum int = -9999

func (xyz *Xyz) Ok() bool {
	if *xyz != BrokenXyz {
		return true
	}
	return false
}

// Sub returns a - b
func (a Xyz) Sub(b Xyz) Xyz { return Xyz{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Add returns a + b
func (a Xyz) Add(b Xyz) Xyz { return Xyz{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Scale multiplies each component by f
func (a Xyz) Scale(f float64) Xyz { return Xyz{a.X * f, a.Y * f, a.Z * f} }

// Len2 is the length squared
func (a Xyz) Len2() float64 { return a.X*a.X + a.Y*a.Y + a.Z*a.Z }

// Atom is one ATOM or HETATM record. Only the first model of a file
// is ever kept, so there is no model number.
type Atom struct {
	Serial  int
	Name    string // "CA", "O5", ...
	AltLoc  byte   // ' ' if there is none
	ResName string // "GLC", "TRP", ...
	Chain   string // Can be longer than one character in mmcif files
	ResNum  int
	ICode   byte // Insertion code, ' ' if there is none
	Pos     Xyz
	Occ     float64
	BFac    float64
	Element string // upper case, "C", "FE", "D"
	Het     bool   // came from a HETATM record
}

// ResID identifies a residue within one structure.
type ResID struct {
	Chain  string
	ResNum int
	ICode  byte
}

// String gives something like "A:123" or "A:123B"
func (r ResID) String() string {
	s := r.Chain + ":" + strconv.Itoa(r.ResNum)
	if r.ICode != ' ' && r.ICode != 0 {
		s += string(r.ICode)
	}
	return s
}

// ResID returns the residue an atom belongs to.
func (a *Atom) ResID() ResID { return ResID{a.Chain, a.ResNum, a.ICode} }

// Residue is a view on consecutive atoms of a structure. Atoms holds
// indices into Structure.Atoms.
type Residue struct {
	ID    ResID
	Name  string
	Atoms []int
}

// Structure is what we get from reading a file. Name usually comes from
// the file name.
type Structure struct {
	Name  string
	Atoms []Atom
}

// Residues groups the atoms into residues in the order in which they
// appear in the file. A residue that is interrupted by another one and
// then continues is still returned once.
func (s *Structure) Residues() []Residue {
	var ret []Residue
	seen := make(map[ResID]int)
	for i := range s.Atoms {
		at := &s.Atoms[i]
		id := at.ResID()
		if n, ok := seen[id]; ok {
			ret[n].Atoms = append(ret[n].Atoms, i)
			continue
		}
		seen[id] = len(ret)
		ret = append(ret, Residue{ID: id, Name: at.ResName, Atoms: []int{i}})
	}
	return ret
}

// Copy gives a deep copy, so coordinates can be moved without touching
// the original.
func (s *Structure) Copy() *Structure {
	c := &Structure{Name: s.Name, Atoms: make([]Atom, len(s.Atoms))}
	copy(c.Atoms, s.Atoms)
	return c
}

// Keep removes every atom for which keep returns false.
func (s *Structure) Keep(keep func(*Atom) bool) {
	n := 0
	for i := range s.Atoms {
		if keep(&s.Atoms[i]) {
			s.Atoms[n] = s.Atoms[i]
			n++
		}
	}
	s.Atoms = s.Atoms[:n]
}

// AminoThreeToOne maps standard amino acid residue names to their
// one letter codes.
var AminoThreeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"SEC": 'U', "PYL": 'O', "MSE": 'M',
}

// OneLetter returns the one letter code of a residue name or 'X'.
func OneLetter(resName string) byte {
	if c, ok := AminoThreeToOne[resName]; ok {
		return c
	}
	return 'X'
}

// IsPolymer says whether an atom belongs to the protein. ATOM records
// always do. HETATM records only if they are modified amino acids we
// know about, like selenomethionine.
func (a *Atom) IsPolymer() bool {
	if !a.Het {
		return true
	}
	_, ok := AminoThreeToOne[a.ResName]
	return ok
}
