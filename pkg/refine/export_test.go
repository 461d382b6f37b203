package refine

import (
	"github.com/andrew-torda/sugarclust/pdb/cmmn"
	"github.com/andrew-torda/sugarclust/pkg/site"
)

// Trim exposes the work done on a single structure.
func (rf *Refiner) Trim(s *cmmn.Structure, key site.SourceKey) (*cmmn.Structure, []site.ResidueRef, bool, error) {
	return rf.trim(s, key)
}
