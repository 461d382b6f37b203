package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/andrew-torda/sugarclust/pkg/allpairs"
	. "github.com/andrew-torda/sugarclust/pkg/config"
)

func usage() int {
	fmt.Fprintln(os.Stderr, "usage:", path.Base(os.Args[0]), "[opts] SUGAR")
	flag.PrintDefaults()
	return ExitUsageError
}

func main() {
	var flags allpairs.CmdFlag
	flag.StringVar(&flags.Config, "c", "", "configuration file")
	flag.BoolVar(&flags.Align, "a", false, "also use sequence alignment")
	flag.StringVar(&flags.Reference, "r", "", "reference ligand file")
	flag.Parse()
	if flag.NArg() != 1 {
		os.Exit(usage())
	}
	flags.Sugar = flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := allpairs.Mymain(ctx, &flags)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
	os.Exit(ExitSuccess)
}
