package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	. "github.com/andrew-torda/sugarclust/pkg/config"
	"github.com/andrew-torda/sugarclust/pkg/refine"
)

func usage() int {
	fmt.Fprintln(os.Stderr, "usage:", path.Base(os.Args[0]), "[opts] SUGAR")
	flag.PrintDefaults()
	return ExitUsageError
}

func main() {
	var flags refine.CmdFlag
	flag.StringVar(&flags.Config, "c", "", "configuration file")
	flag.IntVar(&flags.MinResidues, "min", 0, "fewest residues in a site, default from configuration")
	flag.IntVar(&flags.MaxResidues, "max", 0, "most residues in a site, default from configuration")
	flag.IntVar(&flags.Readers, "r", refine.NReaderDflt, "num reader goroutines")
	flag.Parse()
	if flag.NArg() != 1 {
		os.Exit(usage())
	}
	flags.Sugar = flag.Arg(0)
	if err := refine.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
	os.Exit(ExitSuccess)
}
