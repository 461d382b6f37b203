// Package clust runs the clustering stage for one sugar: every strategy
// matrix is clustered, the dendrograms drawn, and the representatives
// of one strategy handed on to the motif search.
package clust

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/allpairs"
	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/dendro"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
	"github.com/andrew-torda/sugarclust/pkg/logx"
	"github.com/andrew-torda/sugarclust/pkg/refine"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// ErrFailedPairs means the matrices have holes.
var ErrFailedPairs = errors.New("pairs failed when building the matrices")

// Options for clustering the matrices of one sugar.
type Options struct {
	Sugar       string
	Strategies  []geometry.Strategy
	K           int
	Method      hclust.Method
	ClustersDir string
	DendroDir   string  // if set, a dendrogram per strategy goes here
	Threshold   float64 // for the dendrogram colours, zero for the default
	Force       bool    // cluster even if some pairs failed
	Log         *zap.Logger
}

// Run clusters every strategy in turn.
func Run(opts Options) (map[geometry.Strategy]*hclust.Result, error) {
	log := logx.OrNop(opts.Log)
	_, failed, err := allpairs.ReadFailed(opts.ClustersDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("no list of failed pairs", zap.String("dir", opts.ClustersDir))
	case err != nil:
		return nil, err
	case len(failed) > 0 && !opts.Force:
		return nil, fmt.Errorf("%s: %w, %d of them", opts.Sugar, ErrFailedPairs, len(failed))
	case len(failed) > 0:
		log.Warn("clustering in spite of failed pairs", zap.Int("failed", len(failed)))
	}

	ret := make(map[geometry.Strategy]*hclust.Result, len(opts.Strategies))
	for _, s := range opts.Strategies {
		d, err := allpairs.LoadMatrix(opts.ClustersDir, opts.Sugar, s)
		if err != nil {
			return nil, err
		}
		slog := log.With(zap.String("strategy", string(s)))
		res, err := hclust.Run(d, hclust.Options{
			K: opts.K, Method: opts.Method, Dir: filepath.Join(opts.ClustersDir, string(s)), Log: slog})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		for _, sm := range res.Summaries {
			slog.Info("cluster", zap.Int("label", sm.Label), zap.Int("representative", sm.Representative),
				zap.Float64("intra", sm.Intra), zap.Float64("inter", sm.Inter))
		}
		if opts.DendroDir != "" {
			if err := draw(res.Linkage, s, opts, slog); err != nil {
				return nil, err
			}
		}
		ret[s] = res
	}
	return ret, nil
}

func draw(lk *hclust.Linkage, s geometry.Strategy, opts Options, log *zap.Logger) error {
	dopts := dendro.Options{Threshold: opts.Threshold}
	if dopts.Threshold <= 0 {
		dopts.Threshold = dendro.DefaultThreshold(lk)
		log.Info("dendrogram threshold", zap.Float64("threshold", dopts.Threshold),
			zap.Float64("fraction", dendro.DefaultFraction))
	}
	img, err := dendro.Draw(lk, dopts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.DendroDir, 0o755); err != nil {
		return err
	}
	fname := filepath.Join(opts.DendroDir, dendro.FileName(opts.K, opts.Method, string(s), opts.Threshold))
	if err := dendro.Save(fname, img); err != nil {
		return err
	}
	log.Info("dendrogram", zap.String("file", fname))
	return nil
}

// Representatives maps cluster labels to the representative identities.
func Representatives(res *hclust.Result) map[int]int {
	ret := make(map[int]int, len(res.Summaries))
	for _, sm := range res.Summaries {
		ret[sm.Label] = sm.Representative
	}
	return ret
}

type CmdFlag struct {
	Config    string
	Sugar     string
	K         int
	Method    string
	Align     bool   // the align matrix as well as super
	Dendro    bool   // draw dendrograms
	Threshold float64
	Extract   string // strategy whose representatives go to the motif search, or empty
	Force     bool
}

// Mymain clusters the matrices of one run.
func Mymain(flags *CmdFlag) error {
	method, err := hclust.ParseMethod(flags.Method)
	if err != nil {
		return err
	}
	strategies := []geometry.Strategy{geometry.Super}
	if flags.Align {
		strategies = append(strategies, geometry.Align)
	}
	var extract geometry.Strategy
	if flags.Extract != "" {
		if extract, err = geometry.ParseStrategy(flags.Extract); err != nil {
			return err
		}
		if extract == geometry.Align && !flags.Align {
			return fmt.Errorf("cannot extract representatives of %s without clustering it", extract)
		}
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	l, err := cfg.Layout(flags.Sugar, time.Now())
	if err != nil {
		return err
	}
	logger, closer, err := logx.ForLayout(cfg.LogLevel, l)
	if err != nil {
		return err
	}
	defer closer()

	opts := Options{
		Sugar: flags.Sugar, Strategies: strategies, K: flags.K, Method: method,
		ClustersDir: l.Clusters(), Threshold: flags.Threshold, Force: flags.Force, Log: logger,
	}
	if flags.Dendro {
		opts.DendroDir = l.Dendrograms()
	}
	results, err := Run(opts)
	if err != nil {
		return err
	}
	if extract == "" {
		return nil
	}

	km, err := site.LoadKeyMap(l.KeysFile())
	if err != nil {
		return err
	}
	rf, err := refine.New(refine.Options{
		MinResidues: cfg.Refine.MinResidues, MaxResidues: cfg.Refine.MaxResidues, Log: logger})
	if err != nil {
		return err
	}
	sites, err := rf.Representatives(Representatives(results[extract]), km, l.FilteredSurroundings(), l.Representatives())
	if err != nil {
		return err
	}
	logger.Info("representatives extracted", zap.String("strategy", string(extract)),
		zap.Int("n", len(sites)), zap.String("dir", l.Representatives()))
	return nil
}
