package refine

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/site"
)

// Representatives copies the refined files of cluster representatives
// to outDir for the motif search. reps maps cluster labels to
// identities. Files keep their names, so the identity prefix survives,
// and each goes through the trim again, so nothing bigger than
// MaxResidues gets out.
func (rf *Refiner) Representatives(reps map[int]int, km *site.KeyMap, filteredDir, outDir string) ([]site.BindingSite, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	labels := make([]int, 0, len(reps))
	for l := range reps {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	rep := &Report{}
	var ret []site.BindingSite
	for _, l := range labels {
		id := reps[l]
		name, ok := km.Name(id)
		if !ok {
			return nil, fmt.Errorf("cluster %d: representative %d is not in the key map", l, id)
		}
		_, key, err := site.ParseRefinedName(name)
		if err != nil {
			return nil, err
		}
		r, err := rf.one(filepath.Join(filteredDir, name), key, id, rep)
		if err != nil {
			return nil, fmt.Errorf("representative %d: %w", id, err)
		}
		fname := filepath.Join(outDir, name)
		if err := writeFile(fname, r.s); err != nil {
			return nil, err
		}
		ret = append(ret, site.BindingSite{Identity: id, Key: key, File: fname, Residues: r.residues})
	}
	rf.log.Info("representatives written", zap.Int("n", len(ret)), zap.String("dir", outDir))
	return ret, nil
}
