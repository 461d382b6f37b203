package refine

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/logx"
)

// CmdFlag has the command line settings. Zero bounds mean the ones
// from the configuration.
type CmdFlag struct {
	Config      string
	Sugar       string
	MinResidues int
	MaxResidues int
	Readers     int
}

// Mymain refines the raw surroundings of one sugar and writes the
// keys file. Files that could not be read make the error return
// non-nil, after everything else has been written.
func Mymain(flags *CmdFlag) error {
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

	opts := Options{MinResidues: cfg.Refine.MinResidues, MaxResidues: cfg.Refine.MaxResidues,
		Readers: flags.Readers, Log: logger}
	if flags.MinResidues != 0 {
		opts.MinResidues = flags.MinResidues
	}
	if flags.MaxResidues != 0 {
		opts.MaxResidues = flags.MaxResidues
	}
	rf, err := New(opts)
	if err != nil {
		return err
	}
	logger.Info("refining", zap.String("from", l.RawSurroundings()), zap.String("to", l.FilteredSurroundings()),
		zap.Int("min", opts.MinResidues), zap.Int("max", opts.MaxResidues))
	km, rep, err := rf.Run(l.RawSurroundings(), l.FilteredSurroundings())
	if err != nil {
		return err
	}
	if km.Len() == 0 {
		return fmt.Errorf("%s: no binding site survived refinement", flags.Sugar)
	}
	if err := os.MkdirAll(l.Clusters(), 0o755); err != nil {
		return err
	}
	if err := km.Save(l.KeysFile()); err != nil {
		return err
	}
	logger.Info("keys written", zap.String("file", l.KeysFile()), zap.Int("sites", km.Len()))
	return rep.Err()
}
