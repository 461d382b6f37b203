package sitesrv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/andrew-torda/sugarclust/pkg/allpairs"
	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// ErrNoResults means there is no run for a sugar.
var ErrNoResults = errors.New("no results")

// SugarRun is one entry of the sugar list.
type SugarRun struct {
	Sugar string `json:"sugar"`
	Run   string `json:"run"`
}

// Representative of one cluster, with where it came from.
type Representative struct {
	Label     int    `json:"label"`
	Identity  int    `json:"identity"`
	File      string `json:"file,omitempty"`
	Structure string `json:"structure,omitempty"`
	ResNum    int    `json:"resnum,omitempty"`
	Chain     string `json:"chain,omitempty"`
}

// Clustering is one {k}_{method} set of files.
type Clustering struct {
	K               int              `json:"k"`
	Method          hclust.Method    `json:"method"`
	Clusters        int              `json:"clusters"`
	Representatives []Representative `json:"representatives"`
}

// StrategyResults is what exists for one alignment strategy.
type StrategyResults struct {
	Strategy    geometry.Strategy `json:"strategy"`
	Matrix      bool              `json:"matrix"`
	Clusterings []Clustering      `json:"clusterings"`
}

// SugarResults is the answer for one sugar.
type SugarResults struct {
	Sugar       string            `json:"sugar"`
	Run         string            `json:"run"`
	Sites       int               `json:"sites"`
	FailedPairs int               `json:"failed_pairs"`
	Strategies  []StrategyResults `json:"strategies"`
	Comparisons []string          `json:"comparisons,omitempty"`
}

var sugarRe = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)

// ValidSugar accepts ligand codes like GLC or NAG.
func ValidSugar(s string) bool { return sugarRe.MatchString(s) }

// ListSugars gives every sugar with at least one run, newest run each.
func ListSugars(cfg *config.Config) ([]SugarRun, error) {
	entries, err := os.ReadDir(cfg.SearchRoot())
	if errors.Is(err, fs.ErrNotExist) {
		return []SugarRun{}, nil
	}
	if err != nil {
		return nil, err
	}
	ret := []SugarRun{}
	for _, e := range entries {
		if !e.IsDir() || !ValidSugar(e.Name()) {
			continue
		}
		run, err := config.NewestRun(filepath.Join(cfg.SearchRoot(), e.Name()))
		if err != nil {
			return nil, err
		}
		if run != "" {
			ret = append(ret, SugarRun{Sugar: e.Name(), Run: run})
		}
	}
	return ret, nil
}

// Results collects what the newest run of a sugar has produced. Parts
// that are missing are left empty.
func Results(cfg *config.Config, sugar string) (*SugarResults, error) {
	c := *cfg
	run, err := config.NewestRun(filepath.Join(c.SearchRoot(), sugar))
	if err != nil {
		return nil, err
	}
	if run == "" {
		return nil, ErrNoResults
	}
	c.Run = run
	l, err := c.Layout(sugar, time.Time{})
	if err != nil {
		return nil, err
	}
	res := &SugarResults{Sugar: sugar, Run: l.Run, Strategies: []StrategyResults{}}

	km, err := site.LoadKeyMap(l.KeysFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if km != nil {
		res.Sites = km.Len()
	}
	if _, failed, err := allpairs.ReadFailed(l.Clusters()); err == nil {
		res.FailedPairs = len(failed)
	}

	for _, s := range geometry.Strategies {
		dir := l.StrategyDir(string(s))
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		sr := StrategyResults{Strategy: s, Clusterings: []Clustering{}}
		_, err := os.Stat(filepath.Join(dir, allpairs.MatrixName(sugar, s)))
		sr.Matrix = err == nil
		if sr.Clusterings, err = clusterings(dir, km); err != nil {
			return nil, err
		}
		res.Strategies = append(res.Strategies, sr)
	}
	res.Comparisons, _ = filepath.Glob(filepath.Join(l.Clusters(), "*_comparison.json"))
	for i, f := range res.Comparisons {
		res.Comparisons[i] = filepath.Base(f)
	}
	return res, nil
}

const repSuffix = "_cluster_representatives.json"

// clusterings finds the representative files in a strategy directory.
func clusterings(dir string, km *site.KeyMap) ([]Clustering, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+repSuffix))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	ret := []Clustering{}
	for _, f := range files {
		kStr, m, ok := strings.Cut(strings.TrimSuffix(filepath.Base(f), repSuffix), "_")
		k, err := strconv.Atoi(kStr)
		if !ok || err != nil {
			continue
		}
		method, err := hclust.ParseMethod(m)
		if err != nil {
			continue
		}
		reps, err := hclust.ReadRepresentatives(f)
		if err != nil {
			return nil, err
		}
		cl := Clustering{K: k, Method: method, Clusters: len(reps), Representatives: []Representative{}}
		for l := 1; l <= len(reps); l++ {
			id, ok := reps[l]
			if !ok {
				continue
			}
			r := Representative{Label: l, Identity: id}
			if km != nil {
				r.File, _ = km.Name(id)
				if key, err := km.Key(id); err == nil {
					r.Structure, r.ResNum, r.Chain = key.Structure, key.ResNum, key.Chain
				}
			}
			cl.Representatives = append(cl.Representatives, r)
		}
		ret = append(ret, cl)
	}
	return ret, nil
}
