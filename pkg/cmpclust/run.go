package cmpclust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/allpairs"
	"github.com/andrew-torda/sugarclust/pkg/dendro"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
)

// ComparisonName is {k}_{method}_comparison.json, in the clusters
// directory above the strategies.
func ComparisonName(k int, m hclust.Method) string {
	return strconv.Itoa(k) + "_" + string(m) + "_comparison.json"
}

// Options for comparing the clusterings of two strategies.
type Options struct {
	ClustersDir string
	Sugar       string
	K           int
	Method      hclust.Method
	A, B        geometry.Strategy
	TangleDir   string // if set, a tanglegram is drawn here
	Log         *zap.Logger
}

// Report is what Run found. It is also what goes in the json file.
type Report struct {
	A      geometry.Strategy `json:"a"`
	B      geometry.Strategy `json:"b"`
	K      int               `json:"k"`
	Method hclust.Method     `json:"method"`
	AtoB   Spread            `json:"a_to_b"`
	BtoA   Spread            `json:"b_to_a"`
	SplitA []int             `json:"split_a"`
	SplitB []int             `json:"split_b"`
	Leaves LeafDiff          `json:"leaves"`
	Tangle string            `json:"tanglegram,omitempty"`
}

// LoadMembers reads an all_clusters file without checking it is a
// partition, so that Compare can say what is wrong.
func LoadMembers(fname string) (map[int][]int, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var raw map[string][]int
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	ret := make(map[int][]int, len(raw))
	for k, ids := range raw {
		l, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%s: label %q: %w", fname, k, err)
		}
		ret[l] = ids
	}
	return ret, nil
}

// Run compares the stored clusterings of strategies A and B, then
// builds both trees again from the matrices to compare leaf orders.
func Run(opts Options) (*Report, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.A == opts.B {
		return nil, fmt.Errorf("comparing %s with itself", opts.A)
	}
	load := func(s geometry.Strategy) (map[int][]int, error) {
		return LoadMembers(filepath.Join(opts.ClustersDir, string(s), hclust.ClustersName(opts.K, opts.Method)))
	}
	ma, err := load(opts.A)
	if err != nil {
		return nil, err
	}
	mb, err := load(opts.B)
	if err != nil {
		return nil, err
	}
	res, err := Compare(ma, mb)
	if err != nil {
		return nil, err
	}
	rep := &Report{A: opts.A, B: opts.B, K: opts.K, Method: opts.Method,
		AtoB: res.AtoB, BtoA: res.BtoA, SplitA: res.AtoB.Split(), SplitB: res.BtoA.Split()}
	log.Info("spread from "+string(opts.A), zap.Any("clusters", res.AtoB), zap.Ints("split", rep.SplitA))
	log.Info("spread from "+string(opts.B), zap.Any("clusters", res.BtoA), zap.Ints("split", rep.SplitB))

	link := func(s geometry.Strategy) (*hclust.Linkage, error) {
		d, err := allpairs.LoadMatrix(opts.ClustersDir, opts.Sugar, s)
		if err != nil {
			return nil, err
		}
		return hclust.Link(d, opts.Method)
	}
	la, err := link(opts.A)
	if err != nil {
		return nil, err
	}
	lb, err := link(opts.B)
	if err != nil {
		return nil, err
	}
	if rep.Leaves, err = CompareLeaves(la, lb); err != nil {
		return nil, err
	}
	log.Info("leaf orders", zap.Int("moved", rep.Leaves.Moved), zap.Int("crossings", rep.Leaves.Crossings))

	if opts.TangleDir != "" {
		img, err := dendro.Tanglegram(la, lb, dendro.TangleOptions{Left: string(opts.A), Right: string(opts.B)})
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(opts.TangleDir, 0o755); err != nil {
			return nil, err
		}
		rep.Tangle = filepath.Join(opts.TangleDir, dendro.TangleName(opts.Sugar, opts.K, opts.Method))
		if err := dendro.Save(rep.Tangle, img); err != nil {
			return nil, err
		}
	}

	buf, err := json.MarshalIndent(rep, "", "    ")
	if err != nil {
		return nil, err
	}
	fname := filepath.Join(opts.ClustersDir, ComparisonName(opts.K, opts.Method))
	if err := os.WriteFile(fname, append(buf, '\n'), 0o644); err != nil {
		return nil, err
	}
	return rep, nil
}
