package sitesrv

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/logx"
)

type CmdFlag struct {
	Config string
	Listen string // overrides the configuration
}

// Mymain serves until ctx is cancelled, then shuts down cleanly.
func Mymain(ctx context.Context, flags *CmdFlag) error {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	if flags.Listen != "" {
		cfg.Listen = flags.Listen
	}
	logger, closer, err := logx.New(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer closer()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           New(cfg, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Listen), zap.String("results", cfg.ResultsDir))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
