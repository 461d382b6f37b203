package geometry

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

type object struct {
	s    *cmmn.Structure
	dead []bool // removed atoms keep their index, so selections stay valid
}

type selection struct {
	obj   Object
	atoms []int
}

// Session keeps loaded structures and selections in memory. Files are
// parsed once and every load gets a fresh copy of the coordinates.
type Session struct {
	objs   []*object
	sels   []selection
	parsed map[string]*cmmn.Structure
	log    *zap.Logger
}

// NewSession gives an empty session. logger may be nil.
func NewSession(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{parsed: make(map[string]*cmmn.Structure), log: logger}
}

// ClearSession forgets all objects and selections, but not the parsed
// files.
func (ss *Session) ClearSession() {
	ss.objs = ss.objs[:0]
	ss.sels = ss.sels[:0]
}

// LoadStructure reads a file into a new object.
func (ss *Session) LoadStructure(path string) (Object, error) {
	s, ok := ss.parsed[path]
	if !ok {
		var err error
		if s, err = pdb.ReadFile(path); err != nil {
			return -1, err
		}
		ss.parsed[path] = s
	}
	ss.objs = append(ss.objs, &object{s: s.Copy(), dead: make([]bool, len(s.Atoms))})
	return Object(len(ss.objs) - 1), nil
}

func (ss *Session) object(obj Object) (*object, error) {
	if obj < 0 || int(obj) >= len(ss.objs) {
		return nil, fmt.Errorf("%w: %d", ErrNoObject, obj)
	}
	return ss.objs[obj], nil
}

func (ss *Session) selection(sel Selection) (*selection, *object, error) {
	if sel < 0 || int(sel) >= len(ss.sels) {
		return nil, nil, fmt.Errorf("%w: %d", ErrNoSelection, sel)
	}
	s := &ss.sels[sel]
	o, err := ss.object(s.obj)
	return s, o, err
}

// alive gives the atoms of a selection which have not been removed.
func (ss *Session) alive(sel Selection) ([]int, *object, error) {
	s, o, err := ss.selection(sel)
	if err != nil {
		return nil, nil, err
	}
	ret := make([]int, 0, len(s.atoms))
	for _, i := range s.atoms {
		if !o.dead[i] {
			ret = append(ret, i)
		}
	}
	return ret, o, nil
}

func (ss *Session) newSelection(obj Object, atoms []int) Selection {
	ss.sels = append(ss.sels, selection{obj: obj, atoms: atoms})
	return Selection(len(ss.sels) - 1)
}

// SelectAnchorLigand selects the sugar residue named by key.
func (ss *Session) SelectAnchorLigand(obj Object, key site.SourceKey) (Selection, error) {
	o, err := ss.object(obj)
	if err != nil {
		return -1, err
	}
	var atoms []int
	for _, i := range key.AnchorAtoms(o.s) {
		if !o.dead[i] {
			atoms = append(atoms, i)
		}
	}
	if len(atoms) == 0 {
		return -1, fmt.Errorf("%w: no %s %d %s in %s", ErrEmptySelection,
			key.Sugar, key.ResNum, key.Chain, o.s.Name)
	}
	return ss.newSelection(obj, atoms), nil
}

// SelectPolymer selects the protein atoms.
func (ss *Session) SelectPolymer(obj Object) (Selection, error) {
	o, err := ss.object(obj)
	if err != nil {
		return -1, err
	}
	var atoms []int
	for i := range o.s.Atoms {
		if !o.dead[i] && o.s.Atoms[i].IsPolymer() {
			atoms = append(atoms, i)
		}
	}
	if len(atoms) == 0 {
		return -1, fmt.Errorf("%w: no protein in %s", ErrEmptySelection, o.s.Name)
	}
	return ss.newSelection(obj, atoms), nil
}

// CenterOfMass of the atoms still in the selection.
func (ss *Session) CenterOfMass(sel Selection) (cmmn.Xyz, error) {
	idx, o, err := ss.alive(sel)
	if err != nil {
		return cmmn.BrokenXyz, err
	}
	atoms := make([]cmmn.Atom, len(idx))
	for n, i := range idx {
		atoms[n] = o.s.Atoms[i]
	}
	c, err := geom.CenterOfMass(atoms)
	if err != nil {
		return c, fmt.Errorf("%s: %w", o.s.Name, err)
	}
	return c, nil
}

// CountAtoms counts atoms of the selection that are still there.
func (ss *Session) CountAtoms(sel Selection) (int, error) {
	idx, _, err := ss.alive(sel)
	return len(idx), err
}

// RemoveAtoms deletes the selected atoms from their object.
func (ss *Session) RemoveAtoms(sel Selection) error {
	idx, o, err := ss.alive(sel)
	if err != nil {
		return err
	}
	for _, i := range idx {
		o.dead[i] = true
	}
	return nil
}

// move applies t to every atom of an object.
func (o *object) move(t *geom.Transform) {
	for i := range o.s.Atoms {
		o.s.Atoms[i].Pos = t.Apply(o.s.Atoms[i].Pos)
	}
}

// Superpose pairs atoms by name, fits moving onto onto and moves the
// whole object moving belongs to. This is for ligands, where atom names
// are unique.
func (ss *Session) Superpose(moving, onto Selection) (geom.Transform, error) {
	mIdx, mObj, err := ss.alive(moving)
	if err != nil {
		return geom.Identity, err
	}
	oIdx, oObj, err := ss.alive(onto)
	if err != nil {
		return geom.Identity, err
	}
	byName := make(map[string]int, len(oIdx))
	for _, i := range oIdx {
		if _, ok := byName[oObj.s.Atoms[i].Name]; !ok {
			byName[oObj.s.Atoms[i].Name] = i
		}
	}
	var x, y []cmmn.Xyz
	used := make(map[string]bool)
	for _, i := range mIdx {
		name := mObj.s.Atoms[i].Name
		j, ok := byName[name]
		if !ok || used[name] {
			continue
		}
		used[name] = true
		x = append(x, mObj.s.Atoms[i].Pos)
		y = append(y, oObj.s.Atoms[j].Pos)
	}
	if len(x) < MinPairs {
		return geom.Identity, fmt.Errorf("%w: %d atoms of %s match %s", ErrTooFewPairs,
			len(x), mObj.s.Name, oObj.s.Name)
	}
	t, rmsd, err := geom.Kabsch(x, y)
	if err != nil {
		return geom.Identity, err
	}
	mObj.move(&t)
	ss.log.Debug("superposed", zap.String("moving", mObj.s.Name),
		zap.String("onto", oObj.s.Name), zap.Int("atoms", len(x)), zap.Float64("rmsd", rmsd))
	return t, nil
}

// RigidAlign pairs the residues of two selections with the given
// strategy, then atoms with the same name within paired residues. The
// best fit is computed and returned. Coordinates only change if
// moveInPlace is set.
func (ss *Session) RigidAlign(moving, fixed Selection, strategy Strategy, moveInPlace bool) (*Correspondence, error) {
	mIdx, mObj, err := ss.alive(moving)
	if err != nil {
		return nil, err
	}
	fIdx, fObj, err := ss.alive(fixed)
	if err != nil {
		return nil, err
	}
	mRes := residues(mObj.s, mIdx)
	fRes := residues(fObj.s, fIdx)
	if len(mRes) == 0 || len(fRes) == 0 {
		return nil, ErrEmptySelection
	}
	resPairs, err := pairResidues(mObj.s, mRes, fObj.s, fRes, strategy)
	if err != nil {
		return nil, err
	}
	if ce := ss.log.Check(zap.DebugLevel, "residue alignment"); ce != nil {
		s1, s2 := alignedStrings(resPairs, mRes, fRes)
		ce.Write(zap.String("moving", mObj.s.Name), zap.String("fixed", fObj.s.Name),
			zap.String("a", s1), zap.String("b", s2))
	}
	corr := &Correspondence{Moving: moving, Fixed: fixed, Strategy: strategy}
	for _, p := range resPairs {
		if p.I < 0 || p.J < 0 {
			continue
		}
		corr.Residues++
		for name, i := range mRes[p.I].byName {
			if j, ok := fRes[p.J].byName[name]; ok {
				corr.Pairs = append(corr.Pairs, AtomPair{Moving: i, Fixed: j})
			}
		}
	}
	if len(corr.Pairs) < MinPairs {
		return nil, fmt.Errorf("%w: %d between %s and %s", ErrTooFewPairs,
			len(corr.Pairs), mObj.s.Name, fObj.s.Name)
	}
	sortPairs(corr.Pairs)
	x := make([]cmmn.Xyz, len(corr.Pairs))
	y := make([]cmmn.Xyz, len(corr.Pairs))
	for n, p := range corr.Pairs {
		x[n] = mObj.s.Atoms[p.Moving].Pos
		y[n] = fObj.s.Atoms[p.Fixed].Pos
	}
	if corr.Transform, corr.FitRMSD, err = geom.Kabsch(x, y); err != nil {
		return nil, err
	}
	if moveInPlace {
		mObj.move(&corr.Transform)
	}
	return corr, nil
}

// CurrentRMSD measures the RMSD over the atom pairs of corr where the
// atoms are now. The selections may be given in either order.
func (ss *Session) CurrentRMSD(a, b Selection, corr *Correspondence) (float64, error) {
	if corr == nil {
		return 0, ErrWrongCorr
	}
	swap := false
	switch {
	case a == corr.Moving && b == corr.Fixed:
	case a == corr.Fixed && b == corr.Moving:
		swap = true
	default:
		return 0, ErrWrongCorr
	}
	_, mObj, err := ss.selection(corr.Moving)
	if err != nil {
		return 0, err
	}
	_, fObj, err := ss.selection(corr.Fixed)
	if err != nil {
		return 0, err
	}
	x := make([]cmmn.Xyz, 0, len(corr.Pairs))
	y := make([]cmmn.Xyz, 0, len(corr.Pairs))
	for _, p := range corr.Pairs {
		if mObj.dead[p.Moving] || fObj.dead[p.Fixed] {
			return 0, ErrRemovedAtom
		}
		x = append(x, mObj.s.Atoms[p.Moving].Pos)
		y = append(y, fObj.s.Atoms[p.Fixed].Pos)
	}
	if swap {
		x, y = y, x
	}
	return geom.RMSD(x, y)
}
