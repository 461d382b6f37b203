// Package refine turns the raw environments found around a sugar into
// binding sites of bounded size, each with an identity.
//
// A raw environment with fewer protein residues than MinResidues is
// dropped. One with more than MaxResidues keeps only the MaxResidues
// residues closest to the centre of mass of the sugar, where a residue's
// distance is that of its closest atom. Everything that is neither
// protein nor the sugar itself is removed.
//
// Identities are handed out from 0 in the lexical order of the raw
// file names. A file whose sugar has deuterium cannot have its centre of
// mass calculated. It keeps its identity, is repaired (D becomes H) in
// a copy and refined again after the first pass.
package refine

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pdb/geom"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

var (
	ErrTooFew   = errors.New("too few protein residues")
	ErrNoAnchor = errors.New("sugar not found")
	ErrBounds   = errors.New("bad residue bounds")
)

// Options for a refinement run. RepairDir is where repaired copies of
// deferred files go. It defaults to repaired_surroundings next to the
// output directory.
type Options struct {
	MinResidues int
	MaxResidues int
	RepairDir   string
	Readers     int // files read at once, default NReaderDflt
	Log         *zap.Logger
}

// Deferred is a raw file that could not be refined on the first pass.
type Deferred struct {
	Path     string
	Identity int
}

// Report says what happened to every raw file.
type Report struct {
	Kept        []site.BindingSite
	TooFew      []string // stems of the files
	Trimmed     []string
	Deferred    []Deferred
	ParseErrors []error
}

// Err combines the per-file errors, or is nil.
func (r *Report) Err() error { return errors.Join(r.ParseErrors...) }

type Refiner struct {
	opts Options
	log  *zap.Logger
}

// New checks the bounds.
func New(opts Options) (*Refiner, error) {
	if opts.MinResidues < 1 || opts.MaxResidues < opts.MinResidues {
		return nil, fmt.Errorf("%w: min %d max %d", ErrBounds, opts.MinResidues, opts.MaxResidues)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Refiner{opts: opts, log: log}, nil
}

// refined is a site waiting to be written.
type refined struct {
	identity int
	key      site.SourceKey
	s        *cmmn.Structure
	residues []site.ResidueRef
}

type candidate struct {
	res cmmn.Residue
	d   float64
}

// trim does the work on one structure. It returns a new structure with
// only the sugar and the protein, cut down to MaxResidues.
func (rf *Refiner) trim(s *cmmn.Structure, key site.SourceKey) (*cmmn.Structure, []site.ResidueRef, bool, error) {
	prot := site.ProteinResidues(s)
	if len(prot) < rf.opts.MinResidues {
		return nil, nil, false, fmt.Errorf("%w: %d", ErrTooFew, len(prot))
	}
	anchor := key.AnchorAtoms(s)
	if len(anchor) == 0 {
		return nil, nil, false, fmt.Errorf("%w: %s %d chain %s", ErrNoAnchor, key.Sugar, key.ResNum, key.Chain)
	}
	keep := make([]bool, len(s.Atoms))
	for _, i := range anchor {
		keep[i] = true
	}
	for i := range s.Atoms {
		if s.Atoms[i].IsPolymer() {
			keep[i] = true
		}
	}

	trimmed := false
	if len(prot) > rf.opts.MaxResidues {
		atoms := make([]cmmn.Atom, len(anchor))
		for n, i := range anchor {
			atoms[n] = s.Atoms[i]
		}
		com, err := geom.CenterOfMass(atoms)
		if err != nil {
			return nil, nil, false, err
		}
		cands := make([]candidate, len(prot))
		for n, r := range prot {
			x := make([]cmmn.Xyz, len(r.Atoms))
			for m, i := range r.Atoms {
				x[m] = s.Atoms[i].Pos
			}
			cands[n] = candidate{res: r, d: geom.MinDist(com, x)}
		}
		slices.SortStableFunc(cands, func(a, b candidate) int {
			if c := cmp.Compare(a.d, b.d); c != 0 {
				return c
			}
			if c := cmp.Compare(a.res.ID.ResNum, b.res.ID.ResNum); c != 0 {
				return c
			}
			return cmp.Compare(a.res.ID.Chain, b.res.ID.Chain)
		})
		for _, c := range cands[rf.opts.MaxResidues:] {
			for _, i := range c.res.Atoms {
				keep[i] = false
			}
		}
		trimmed = true
	}

	out := &cmmn.Structure{Name: s.Name}
	for i := range s.Atoms {
		if keep[i] {
			out.Atoms = append(out.Atoms, s.Atoms[i])
		}
	}
	var refs []site.ResidueRef
	for _, r := range site.ProteinResidues(out) {
		refs = append(refs, site.ResidueRef{ID: r.ID, Name: r.Name})
	}
	return out, refs, trimmed, nil
}

// work reads and trims one file.
func (rf *Refiner) work(j job) result {
	s, err := pdb.ReadFile(j.path)
	if err != nil {
		return result{err: err}
	}
	out, refs, trimmed, err := rf.trim(s, j.key)
	return result{s: out, refs: refs, trimmed: trimmed, err: err}
}

// one reads and trims a file. Not finding enough residues is reported
// through the returned error.
func (rf *Refiner) one(path string, key site.SourceKey, identity int, rep *Report) (*refined, error) {
	j := job{path: path, key: key}
	return rf.collect(j, rf.work(j), identity, rep)
}

func (rf *Refiner) collect(j job, r result, identity int, rep *Report) (*refined, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.trimmed {
		rep.Trimmed = append(rep.Trimmed, j.key.String())
	}
	return &refined{identity: identity, key: j.key, s: r.s, residues: r.refs}, nil
}

// Run refines every structure file in rawDir and writes the results to
// outDir. The returned key map has an entry for every site written.
// Errors with single files are collected in the report. The error
// return is for things that stop the whole run.
func (rf *Refiner) Run(rawDir, outDir string) (*site.KeyMap, *Report, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, nil, err
	}
	rep := &Report{}
	var jobs []job
	for _, e := range entries {
		if e.IsDir() || !site.IsStructureFile(e.Name()) {
			continue
		}
		key, err := site.Parse(e.Name())
		if err != nil {
			rf.log.Warn("bad file name", zap.String("file", e.Name()), zap.Error(err))
			rep.ParseErrors = append(rep.ParseErrors, err)
			continue
		}
		jobs = append(jobs, job{path: filepath.Join(rawDir, e.Name()), key: key})
	}

	var done []*refined
	next := 0
	for i, res := range rf.readAll(jobs) {
		j := jobs[i]
		r, err := rf.collect(j, res, next, rep)
		switch {
		case errors.Is(err, ErrTooFew):
			rf.log.Debug("excluded", zap.String("file", j.key.String()), zap.Error(err))
			rep.TooFew = append(rep.TooFew, j.key.String())
			continue
		case errors.Is(err, geom.ErrUnknownElement):
			rf.log.Warn("deferred", zap.String("file", j.key.String()), zap.Int("identity", next), zap.Error(err))
			rep.Deferred = append(rep.Deferred, Deferred{Path: j.path, Identity: next})
			next++
			continue
		case err != nil:
			rf.log.Warn("skipped", zap.String("file", filepath.Base(j.path)), zap.Error(err))
			rep.ParseErrors = append(rep.ParseErrors, fmt.Errorf("%s: %w", filepath.Base(j.path), err))
			continue
		}
		done = append(done, r)
		next++
	}

	if len(rep.Deferred) > 0 {
		repaired, err := rf.repairAll(rep, outDir)
		if err != nil {
			return nil, nil, err
		}
		done = append(done, repaired...)
		slices.SortFunc(done, func(a, b *refined) int { return cmp.Compare(a.identity, b.identity) })
	}
	if n := len(done); n > 0 && done[n-1].identity != n-1 {
		rf.log.Warn("renumbering, some deferred files could not be repaired")
		for i, r := range done {
			r.identity = i
		}
	}

	km, err := rf.write(done, outDir, rep)
	if err != nil {
		return nil, nil, err
	}
	rf.log.Info("refined",
		zap.Int("kept", len(rep.Kept)),
		zap.Int("too_few", len(rep.TooFew)),
		zap.Int("trimmed", len(rep.Trimmed)),
		zap.Int("deferred", len(rep.Deferred)),
		zap.Int("errors", len(rep.ParseErrors)))
	return km, rep, nil
}

func (rf *Refiner) write(done []*refined, outDir string, rep *Report) (*site.KeyMap, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	km := site.NewKeyMap()
	for _, r := range done {
		name := r.key.RefinedName(r.identity)
		fname := filepath.Join(outDir, name)
		if err := writeFile(fname, r.s); err != nil {
			return nil, err
		}
		if err := km.Add(r.identity, name); err != nil {
			return nil, err
		}
		rep.Kept = append(rep.Kept, site.BindingSite{
			Identity: r.identity, Key: r.key, File: fname, Residues: r.residues})
	}
	return km, nil
}

func writeFile(fname string, s *cmmn.Structure) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := pdb.Write(fp, s); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", fname, err)
	}
	return fp.Close()
}
