package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	. "github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/sitesrv"
)

func main() {
	var flags sitesrv.CmdFlag
	flag.StringVar(&flags.Config, "c", "", "configuration file")
	flag.StringVar(&flags.Listen, "l", "", "listen address")
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "sitesrv takes no arguments")
		flag.PrintDefaults()
		os.Exit(ExitUsageError)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := sitesrv.Mymain(ctx, &flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
