package cmpclust

import (
	"fmt"

	"github.com/andrew-torda/sugarclust/pkg/dendro"
	"github.com/andrew-torda/sugarclust/pkg/hclust"
)

// LeafDiff says how far apart the leaf orders of two trees are.
type LeafDiff struct {
	Moved     int `json:"moved"`     // sites at a different position
	Crossings int `json:"crossings"` // pairs of connecting lines that cross
}

// CompareLeaves lines up the leaves of two trees over the same sites, as
// a tanglegram would draw them.
func CompareLeaves(a, b *hclust.Linkage) (LeafDiff, error) {
	if a.N != b.N {
		return LeafDiff{}, fmt.Errorf("%w: %d and %d leaves", hclust.ErrClusterUniverses, a.N, b.N)
	}
	posA, posB := dendro.LeafPositions(a), dendro.LeafPositions(b)
	var d LeafDiff
	for i := range posA {
		if posA[i] != posB[i] {
			d.Moved++
		}
	}
	// lines i and j cross if the two sides have them in a different order
	for i := range posA {
		for j := i + 1; j < len(posA); j++ {
			if (posA[i] < posA[j]) != (posB[i] < posB[j]) {
				d.Crossings++
			}
		}
	}
	return d, nil
}
