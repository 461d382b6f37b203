// Package geometry is the structure session the matrix builder works
// in: load sites, select the sugar and the protein, superimpose, pair
// atoms and measure RMSD.
//
// Backend is what callers depend on. Session is the in-process
// implementation, built on pdb/geom. Handles are only valid until the
// next ClearSession.
package geometry

import (
	"errors"
	"fmt"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// Object is a loaded structure.
type Object int

// Selection is a set of atoms within one object.
type Selection int

// Strategy says how residues of two sites are paired up.
type Strategy string

const (
	// Super pairs residues by where they are, ignoring residue type.
	Super Strategy = "super"
	// Align pairs residues by sequence, scored with BLOSUM62.
	Align Strategy = "align"
)

// Strategies in the order they are usually run.
var Strategies = []Strategy{Super, Align}

// ParseStrategy accepts "super" or "align".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Super, Align:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrStrategy, s)
}

var (
	ErrStrategy       = errors.New("unknown alignment strategy")
	ErrNoObject       = errors.New("no such object")
	ErrNoSelection    = errors.New("no such selection")
	ErrEmptySelection = errors.New("empty selection")
	ErrTooFewPairs    = errors.New("too few atom pairs")
	ErrWrongCorr      = errors.New("correspondence is for other selections")
	ErrRemovedAtom    = errors.New("paired atom was removed")
)

// MinPairs is the smallest number of atom pairs we will fit.
const MinPairs = 3

// AtomPair is an atom in the moving object and its partner in the
// fixed one. Both are indices into the atoms of their objects.
type AtomPair struct {
	Moving, Fixed int
}

// Correspondence is the result of pairing two selections. The
// transform is what would superimpose Moving onto Fixed and FitRMSD is
// the RMSD after doing that.
type Correspondence struct {
	Moving, Fixed Selection
	Strategy      Strategy
	Residues      int // number of residue pairs
	Pairs         []AtomPair
	Transform     geom.Transform
	FitRMSD       float64
}

// Backend has the operations the matrix builder needs. Everything is
// stateful and not safe for concurrent use.
type Backend interface {
	LoadStructure(path string) (Object, error)
	SelectAnchorLigand(obj Object, key site.SourceKey) (Selection, error)
	SelectPolymer(obj Object) (Selection, error)
	CenterOfMass(sel Selection) (cmmn.Xyz, error)
	Superpose(moving, onto Selection) (geom.Transform, error)
	RigidAlign(moving, fixed Selection, strategy Strategy, moveInPlace bool) (*Correspondence, error)
	CurrentRMSD(a, b Selection, corr *Correspondence) (float64, error)
	CountAtoms(sel Selection) (int, error)
	RemoveAtoms(sel Selection) error
	ClearSession()
}

var _ Backend = (*Session)(nil)
