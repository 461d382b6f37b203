package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/andrew-torda/sugarclust/pkg/cmpclust"
	. "github.com/andrew-torda/sugarclust/pkg/config"
)

func usage() int {
	fmt.Fprintln(os.Stderr, "usage:", path.Base(os.Args[0]), "[opts] SUGAR")
	flag.PrintDefaults()
	return ExitUsageError
}

func main() {
	var flags cmpclust.CmdFlag
	flag.StringVar(&flags.Config, "c", "", "configuration file")
	flag.IntVar(&flags.K, "k", 10, "number of clusters")
	flag.StringVar(&flags.Method, "m", "average", "linkage method")
	flag.BoolVar(&flags.Tangle, "t", false, "draw a tanglegram")
	flag.Parse()
	if flag.NArg() != 1 {
		os.Exit(usage())
	}
	flags.Sugar = flag.Arg(0)
	if err := cmpclust.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
	os.Exit(ExitSuccess)
}
