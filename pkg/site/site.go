// Package site names binding sites. A binding site starts life as a
// file called something like 1abc_GLC_401_A.pdb, cut out of a pdb
// entry around one sugar. After refinement it gets an integer identity
// and is saved as 0_1abc_GLC_401_A.pdb. The identity is the row and
// column in every distance matrix for that sugar, and a KeyMap takes
// identities back to the files.
package site

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
)

// SourceKey says where a binding site came from.
type SourceKey struct {
	Structure string // pdb id, possibly with an altloc suffix, "1abc" or "1abc_B"
	Sugar     string // residue name of the sugar, "GLC"
	ResNum    int    // residue number of the sugar
	Chain     string
	Tag       string // "" or a number added upstream when chain names only differ in case
}

// ParseError is returned for file names we cannot take apart.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse binding site name %q: %s", e.Name, e.Reason)
}

// {structure}_{SUGAR}_{num}_{chain}[_{tag}]
var stemRE = regexp.MustCompile(
	`^([0-9a-z]{4}(?:_[0-9A-Za-z]+)?)_([0-9A-Z]{1,3})_(-?[0-9]+)_([0-9A-Za-z]+)(?:_([0-9]+))?$`)

// refinedRE has the identity in front.
var refinedRE = regexp.MustCompile(`^([0-9]+)_(.+)$`)

// stem strips the directory and extensions, including .gz.
func stem(name string) string { return pdb.Stem(name) }

// Parse takes a file name or stem and returns the SourceKey.
func Parse(name string) (SourceKey, error) {
	s := stem(name)
	m := stemRE.FindStringSubmatch(s)
	if m == nil {
		return SourceKey{}, &ParseError{Name: name,
			Reason: "want {structure}_{SUGAR}_{number}_{chain}[_{tag}]"}
	}
	num, err := strconv.Atoi(m[3])
	if err != nil {
		return SourceKey{}, &ParseError{Name: name, Reason: "residue number " + m[3]}
	}
	return SourceKey{Structure: m[1], Sugar: m[2], ResNum: num, Chain: m[4], Tag: m[5]}, nil
}

// ParseRefinedName takes apart {identity}_{stem}.
func ParseRefinedName(name string) (int, SourceKey, error) {
	m := refinedRE.FindStringSubmatch(stem(name))
	if m == nil {
		return -1, SourceKey{}, &ParseError{Name: name, Reason: "no identity in front"}
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, SourceKey{}, &ParseError{Name: name, Reason: "identity " + m[1]}
	}
	k, err := Parse(m[2])
	if err != nil {
		return -1, SourceKey{}, &ParseError{Name: name, Reason: err.(*ParseError).Reason}
	}
	return id, k, nil
}

// String gives back the stem the key came from.
func (k SourceKey) String() string {
	s := k.Structure + "_" + k.Sugar + "_" + strconv.Itoa(k.ResNum) + "_" + k.Chain
	if k.Tag != "" {
		s += "_" + k.Tag
	}
	return s
}

// RefinedName is the file name a refined site is saved under.
func (k SourceKey) RefinedName(identity int) string {
	return strconv.Itoa(identity) + "_" + k.String() + ".pdb"
}

// SelectionChain is the chain we look for when the full chain name is
// not in the file. Old tools cut chain names to one character.
func (k SourceKey) SelectionChain() string {
	if k.Chain == "" {
		return ""
	}
	return k.Chain[:1]
}

// AnchorAtoms returns the indices of the atoms of the sugar the site is
// built around. The full chain name is tried first, then the one
// character version.
func (k SourceKey) AnchorAtoms(s *cmmn.Structure) []int {
	find := func(chain string) []int {
		var ret []int
		for i := range s.Atoms {
			a := &s.Atoms[i]
			if a.ResName == k.Sugar && a.ResNum == k.ResNum && a.Chain == chain {
				ret = append(ret, i)
			}
		}
		return ret
	}
	if ret := find(k.Chain); len(ret) > 0 {
		return ret
	}
	if c := k.SelectionChain(); c != k.Chain {
		return find(c)
	}
	return nil
}

// ResidueRef is one residue kept in a binding site.
type ResidueRef struct {
	ID   cmmn.ResID
	Name string
}

// BindingSite is a refined environment.
type BindingSite struct {
	Identity int
	Key      SourceKey
	File     string // full path of the refined file
	Residues []ResidueRef
}

// ProteinResidues lists the residues of a structure that are part of the
// protein and have a CA, in file order.
func ProteinResidues(s *cmmn.Structure) []cmmn.Residue {
	var ret []cmmn.Residue
	for _, r := range s.Residues() {
		if !s.Atoms[r.Atoms[0]].IsPolymer() {
			continue
		}
		for _, i := range r.Atoms {
			if s.Atoms[i].Name == "CA" {
				ret = append(ret, r)
				break
			}
		}
	}
	return ret
}

// IsStructureFile says if a directory entry looks like coordinates.
func IsStructureFile(name string) bool {
	n := strings.ToLower(strings.TrimSuffix(name, ".gz"))
	switch filepath.Ext(n) {
	case ".pdb", ".ent", ".cif", ".mmcif":
		return true
	}
	return false
}
