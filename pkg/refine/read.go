package refine

import (
	"sync"

	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// NReaderDflt is the default number of reader goroutines.
const NReaderDflt = 3

type job struct {
	path string
	key  site.SourceKey
}

type result struct {
	s       *cmmn.Structure
	refs    []site.ResidueRef
	trimmed bool
	err     error
}

// readAll reads and trims the files with a few readers. Results come
// back in the order of jobs, so identities do not depend on which
// reader finished first.
func (rf *Refiner) readAll(jobs []job) []result {
	nReader := rf.opts.Readers
	if nReader < 1 {
		nReader = NReaderDflt
	}
	ret := make([]result, len(jobs))
	c := make(chan int, len(jobs))
	for i := range jobs {
		c <- i
	}
	close(c)

	var wg sync.WaitGroup
	for range min(nReader, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range c {
				ret[i] = rf.work(jobs[i])
			}
		}()
	}
	wg.Wait()
	return ret
}
