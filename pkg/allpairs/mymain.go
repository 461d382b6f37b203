package allpairs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pdb"
	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/logx"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

type CmdFlag struct {
	Config    string
	Sugar     string
	Align     bool   // also do the sequence alignment strategy
	Reference string // ligand file, instead of fetching it
}

// Mymain builds the matrices for one sugar from the refined sites and
// the keys file that refine wrote.
func Mymain(ctx context.Context, flags *CmdFlag) error {
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
	runID := logx.NewRunID()
	logger = logger.With(zap.String("run_id", runID))

	strategies := []geometry.Strategy{geometry.Super}
	if flags.Align {
		strategies = append(strategies, geometry.Align)
	}
	ref := flags.Reference
	if ref == "" {
		lf := pdb.LigandFetcher{Dir: l.Sugars(), Sites: cfg.LigandSites}
		if ref, err = lf.Fetch(ctx, flags.Sugar); err != nil {
			return err
		}
	}
	km, err := site.LoadKeyMap(l.KeysFile())
	if err != nil {
		return err
	}
	b, err := New(geometry.NewSession(logger), Options{
		Sugar:       flags.Sugar,
		Strategies:  strategies,
		Reference:   ref,
		SitesDir:    l.FilteredSurroundings(),
		ClustersDir: l.Clusters(),
		RunID:       runID,
		Log:         logger,
	})
	if err != nil {
		return err
	}
	_, err = b.Run(ctx, km)
	return err
}
