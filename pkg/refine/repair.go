package refine

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// Repair reads a structure, calls every deuterium a hydrogen and writes
// the result to dir under the stem of the original name. It returns the
// new file name and how many atoms were changed. The original is not
// touched.
func Repair(path, dir string) (string, int, error) {
	s, err := pdb.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	n := 0
	for i := range s.Atoms {
		if s.Atoms[i].Element == "D" {
			s.Atoms[i].Element = "H"
			n++
		}
	}
	fname := filepath.Join(dir, pdb.Stem(path)+".pdb")
	if err := writeFile(fname, s); err != nil {
		return "", 0, err
	}
	return fname, n, nil
}

// repairAll is the second pass over deferred files. They keep the
// identity from the first pass.
func (rf *Refiner) repairAll(rep *Report, outDir string) ([]*refined, error) {
	dir := rf.opts.RepairDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(filepath.Clean(outDir)), "repaired_surroundings")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var ret []*refined
	for _, d := range rep.Deferred {
		key, err := site.Parse(d.Path)
		if err != nil {
			return nil, err // it was parsed once already
		}
		fixed, n, err := Repair(d.Path, dir)
		if err != nil {
			rep.ParseErrors = append(rep.ParseErrors, fmt.Errorf("repairing %s: %w", d.Path, err))
			continue
		}
		rf.log.Info("repaired", zap.String("file", key.String()), zap.Int("identity", d.Identity),
			zap.Int("deuterium", n))
		r, err := rf.one(fixed, key, d.Identity, rep)
		if err != nil {
			rep.ParseErrors = append(rep.ParseErrors, fmt.Errorf("%s after repair: %w", key, err))
			continue
		}
		ret = append(ret, r)
	}
	return ret, nil
}
