package cmpclust

import (
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/geometry"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
	"github.com/andrew-torda/sugarclust/pkg/logx"
)

type CmdFlag struct {
	Config string
	Sugar  string
	K      int
	Method string
	Tangle bool
}

// Mymain compares the super and align clusterings of one run.
func Mymain(flags *CmdFlag) error {
	method, err := hclust.ParseMethod(flags.Method)
	if err != nil {
		return err
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
		ClustersDir: l.Clusters(), Sugar: flags.Sugar, K: flags.K, Method: method,
		A: geometry.Super, B: geometry.Align, Log: logger,
	}
	if flags.Tangle {
		opts.TangleDir = l.Tanglegrams()
	}
	rep, err := Run(opts)
	if err != nil {
		return err
	}
	logger.Info("compared", zap.Bool("same_partition", len(rep.SplitA)+len(rep.SplitB) == 0),
		zap.String("file", ComparisonName(rep.K, rep.Method)))
	return nil
}
