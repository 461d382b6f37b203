// Package allpairs fills the RMSD matrix over every pair of refined
// binding sites.
//
// For a pair, both sugars are superimposed on one reference copy of the
// free ligand, which puts the two sites in a common frame. The protein
// atoms of the two sites are then paired up with each alignment
// strategy and the RMSD is measured where the atoms are. The sites are
// not moved by the protein alignment.
//
// A pair that fails is left at zero in the matrix and listed in
// something_wrong.json. All outputs are written, then the run returns
// an *IncompleteError, since a matrix with holes must not be clustered.
package allpairs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pkg/distmat"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// FailedName is the file with the pairs that went wrong.
const FailedName = "something_wrong.json"

// MatrixName is {SUGAR}_all_pairs_rmsd_{strategy}.npy
func MatrixName(sugar string, strategy geometry.Strategy) string {
	return sugar + "_all_pairs_rmsd_" + string(strategy) + ".npy"
}

// TableName is the csv version with one line per pair.
func TableName(sugar string, strategy geometry.Strategy) string {
	return sugar + "_all_pairs_rmsd_" + string(strategy) + ".csv"
}

// Options for a run. Outputs go to ClustersDir/{strategy}/, except for
// the list of failures, which goes to ClustersDir.
type Options struct {
	Sugar       string
	Strategies  []geometry.Strategy
	Reference   string // the free ligand, probably from the component dictionary
	SitesDir    string // refined sites
	ClustersDir string
	RunID       string
	Log         *zap.Logger
}

// FailedPair is a pair whose RMSD could not be calculated.
type FailedPair struct {
	Structure1 string `json:"structure1"`
	Structure2 string `json:"structure2"`
	Identity1  int    `json:"identity1"`
	Identity2  int    `json:"identity2"`
	Error      string `json:"error"`
}

type failedFile struct {
	Run    string       `json:"run"`
	Sugar  string       `json:"sugar"`
	Failed []FailedPair `json:"failed"`
}

// Report of a run. Matrices has one entry per strategy.
type Report struct {
	Pairs    int
	Failed   []FailedPair
	Matrices map[geometry.Strategy]*distmat.Matrix
}

// IncompleteError means some pairs failed. The matrices on disk have
// zeroes for them.
type IncompleteError struct {
	Failed []FailedPair
	Pairs  int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d of %d pairs failed, see %s", len(e.Failed), e.Pairs, FailedName)
}

var ErrOptions = errors.New("allpairs options")

// Builder runs the pairs through a geometry backend.
type Builder struct {
	backend geometry.Backend
	opts    Options
	log     *zap.Logger
}

// New checks the options.
func New(backend geometry.Backend, opts Options) (*Builder, error) {
	switch {
	case opts.Sugar == "":
		return nil, fmt.Errorf("%w: no sugar", ErrOptions)
	case len(opts.Strategies) == 0:
		return nil, fmt.Errorf("%w: no strategy", ErrOptions)
	case opts.Reference == "":
		return nil, fmt.Errorf("%w: no reference ligand", ErrOptions)
	case opts.ClustersDir == "":
		return nil, fmt.Errorf("%w: no output directory", ErrOptions)
	}
	seen := make(map[geometry.Strategy]bool)
	for _, s := range opts.Strategies {
		if _, err := geometry.ParseStrategy(string(s)); err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("%w: %s given twice", ErrOptions, s)
		}
		seen[s] = true
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{backend: backend, opts: opts, log: log}, nil
}

// member is a site as the builder sees it.
type member struct {
	id   int
	key  site.SourceKey
	path string
	stem string
}

// pair does one pair for every strategy.
func (b *Builder) pair(s1, s2 *member) (map[geometry.Strategy]float64, error) {
	be := b.backend
	be.ClearSession()
	o1, err := be.LoadStructure(s1.path)
	if err != nil {
		return nil, err
	}
	o2, err := be.LoadStructure(s2.path)
	if err != nil {
		return nil, err
	}
	oRef, err := be.LoadStructure(b.opts.Reference)
	if err != nil {
		return nil, fmt.Errorf("reference ligand: %w", err)
	}
	lig1, err := be.SelectAnchorLigand(o1, s1.key)
	if err != nil {
		return nil, err
	}
	lig2, err := be.SelectAnchorLigand(o2, s2.key)
	if err != nil {
		return nil, err
	}
	ligRef, err := be.SelectAnchorLigand(oRef, site.SourceKey{Sugar: b.opts.Sugar, ResNum: 1, Chain: "A"})
	if err != nil {
		return nil, fmt.Errorf("reference ligand: %w", err)
	}
	if _, err := be.Superpose(lig1, ligRef); err != nil {
		return nil, err
	}
	if _, err := be.Superpose(lig2, ligRef); err != nil {
		return nil, err
	}
	prot1, err := be.SelectPolymer(o1)
	if err != nil {
		return nil, err
	}
	prot2, err := be.SelectPolymer(o2)
	if err != nil {
		return nil, err
	}
	ret := make(map[geometry.Strategy]float64, len(b.opts.Strategies))
	for _, strategy := range b.opts.Strategies {
		corr, err := be.RigidAlign(prot1, prot2, strategy, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategy, err)
		}
		rmsd, err := be.CurrentRMSD(prot1, prot2, corr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strategy, err)
		}
		ret[strategy] = rmsd
	}
	return ret, nil
}

// members turns the key map into a list ordered by identity.
func (b *Builder) members(km *site.KeyMap) ([]*member, error) {
	if err := km.Validate(); err != nil {
		return nil, err
	}
	var ret []*member
	for _, id := range km.Identities() {
		name, _ := km.Name(id)
		key, err := km.Key(id)
		if err != nil {
			return nil, err
		}
		ret = append(ret, &member{id: id, key: key, path: filepath.Join(b.opts.SitesDir, name), stem: pdb.Stem(name)})
	}
	return ret, nil
}

// tables holds the open csv files, one per strategy.
type tables struct {
	fps []*os.File
	w   map[geometry.Strategy]*distmat.RecordWriter
}

func (b *Builder) openTables() (*tables, error) {
	t := &tables{w: make(map[geometry.Strategy]*distmat.RecordWriter)}
	for _, s := range b.opts.Strategies {
		dir := filepath.Join(b.opts.ClustersDir, string(s))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.close()
			return nil, err
		}
		fp, err := os.Create(filepath.Join(dir, TableName(b.opts.Sugar, s)))
		if err != nil {
			t.close()
			return nil, err
		}
		t.fps = append(t.fps, fp)
		w, err := distmat.NewRecordWriter(fp)
		if err != nil {
			t.close()
			return nil, err
		}
		t.w[s] = w
	}
	return t, nil
}

func (t *tables) close() error {
	var errs []error
	for _, w := range t.w {
		errs = append(errs, w.Flush())
	}
	for _, fp := range t.fps {
		errs = append(errs, fp.Close())
	}
	return errors.Join(errs...)
}

// Run does every pair i < j. The context is checked between pairs.
func (b *Builder) Run(ctx context.Context, km *site.KeyMap) (*Report, error) {
	sites, err := b.members(km)
	if err != nil {
		return nil, err
	}
	n := len(sites)
	rep := &Report{Matrices: make(map[geometry.Strategy]*distmat.Matrix)}
	for _, s := range b.opts.Strategies {
		rep.Matrices[s] = distmat.New(n)
	}
	tbl, err := b.openTables()
	if err != nil {
		return nil, err
	}
	b.log.Info("pairs starting", zap.Int("sites", n), zap.Int("pairs", n*(n-1)/2),
		zap.Any("strategies", b.opts.Strategies))

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := ctx.Err(); err != nil {
				tbl.close()
				return nil, err
			}
			s1, s2 := sites[i], sites[j]
			rep.Pairs++
			rms, err := b.pair(s1, s2)
			if err != nil {
				b.log.Error("pair failed", zap.String("pair", s1.stem+" "+s2.stem),
					zap.Int("identity1", s1.id), zap.Int("identity2", s2.id), zap.Error(err))
				rep.Failed = append(rep.Failed, FailedPair{
					Structure1: s1.stem + ".pdb", Structure2: s2.stem + ".pdb",
					Identity1: s1.id, Identity2: s2.id, Error: err.Error()})
				continue
			}
			for s, v := range rms {
				rep.Matrices[s].Set(s1.id, s2.id, v)
				if err := tbl.w[s].Write(distmat.Record{A: s1.stem, B: s2.stem, RMSD: v}); err != nil {
					tbl.close()
					return nil, err
				}
			}
		}
		if i%50 == 49 {
			b.log.Info("progress", zap.Int("rows", i+1), zap.Int("of", n), zap.Int("failed", len(rep.Failed)))
		}
	}
	b.backend.ClearSession()

	if err := tbl.close(); err != nil {
		return nil, err
	}
	for s, m := range rep.Matrices {
		fname := filepath.Join(b.opts.ClustersDir, string(s), MatrixName(b.opts.Sugar, s))
		if err := m.Save(fname); err != nil {
			return nil, err
		}
	}
	if err := b.writeFailed(rep.Failed); err != nil {
		return nil, err
	}
	b.log.Info("pairs done", zap.Int("pairs", rep.Pairs), zap.Int("failed", len(rep.Failed)))
	if len(rep.Failed) > 0 {
		return rep, &IncompleteError{Failed: rep.Failed, Pairs: rep.Pairs}
	}
	return rep, nil
}

func (b *Builder) writeFailed(failed []FailedPair) error {
	if failed == nil {
		failed = []FailedPair{}
	}
	buf, err := json.MarshalIndent(failedFile{Run: b.opts.RunID, Sugar: b.opts.Sugar, Failed: failed}, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.opts.ClustersDir, FailedName), append(buf, '\n'), 0o644)
}

// ReadFailed reads back the list of failed pairs and the run that made it.
func ReadFailed(clustersDir string) (string, []FailedPair, error) {
	buf, err := os.ReadFile(filepath.Join(clustersDir, FailedName))
	if err != nil {
		return "", nil, err
	}
	var ff failedFile
	if err := json.Unmarshal(buf, &ff); err != nil {
		return "", nil, fmt.Errorf("%s: %w", FailedName, err)
	}
	return ff.Run, ff.Failed, nil
}

// LoadMatrix reads the matrix for one strategy and checks it.
func LoadMatrix(clustersDir, sugar string, strategy geometry.Strategy) (*distmat.Matrix, error) {
	m, err := distmat.Load(filepath.Join(clustersDir, string(strategy), MatrixName(sugar, strategy)))
	if err != nil {
		return nil, err
	}
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("%s %s: %w", sugar, strategy, err)
	}
	return m, nil
}
