package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/andrew-torda/sugarclust/pkg/clust"
	. "github.com/andrew-torda/sugarclust/pkg/config"
)

func usage() int {
	fmt.Fprintln(os.Stderr, "usage:", path.Base(os.Args[0]), "[opts] SUGAR")
	flag.PrintDefaults()
	return ExitUsageError
}

func main() {
	var flags clust.CmdFlag
	flag.StringVar(&flags.Config, "c", "", "configuration file")
	flag.IntVar(&flags.K, "k", 10, "number of clusters")
	flag.StringVar(&flags.Method, "m", "average", "linkage method")
	flag.BoolVar(&flags.Align, "a", false, "cluster the align matrix too")
	flag.BoolVar(&flags.Dendro, "d", false, "draw dendrograms")
	flag.Float64Var(&flags.Threshold, "t", 0, "dendrogram colour threshold")
	flag.StringVar(&flags.Extract, "x", "", "extract representatives of this strategy")
	flag.BoolVar(&flags.Force, "f", false, "cluster in spite of failed pairs")
	flag.Parse()
	if flag.NArg() != 1 || flags.K < 1 {
		os.Exit(usage())
	}
	flags.Sugar = flag.Arg(0)
	if err := clust.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
	os.Exit(ExitSuccess)
}
