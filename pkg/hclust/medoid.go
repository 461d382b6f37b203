package hclust

import (
	"fmt"
	"math"

	"github.com/andrew-torda/sugarclust/pkg/distmat"
)

// Summary is one line of the averages table.
type Summary struct {
	Label          int
	Representative int
	Intra          float64 // representative to the members of its cluster
	Inter          float64 // representative to all representatives
}

// Medoid is the member with the smallest sum of distances to the other
// members. The lowest identity wins a tie. members must be sorted.
func Medoid(d *distmat.Matrix, members []int) (int, float64) {
	best, bestSum := -1, math.Inf(1)
	for _, i := range members {
		var sum float64
		for _, j := range members {
			sum += d.At(i, j)
		}
		if sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return best, bestSum
}

// Representatives picks a medoid for every cluster. Intra is the
// medoid's distance sum over the cluster size. Inter is the summed
// distance from the medoid to every representative, over the number of
// clusters.
func Representatives(d *distmat.Matrix, c *Clustering) ([]Summary, error) {
	if len(c.Labels) != d.N() {
		return nil, fmt.Errorf("%w: %d labels for a %d x %d matrix",
			ErrClusterUniverses, len(c.Labels), d.N(), d.N())
	}
	members := c.Members()
	labels := c.SortedLabels()
	ret := make([]Summary, 0, len(labels))
	for _, l := range labels {
		ids := members[l]
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: label %d", ErrEmptyCluster, l)
		}
		r, sum := Medoid(d, ids)
		ret = append(ret, Summary{Label: l, Representative: r, Intra: sum / float64(len(ids))})
	}
	k := float64(len(ret))
	for i := range ret {
		var sum float64
		for _, o := range ret {
			sum += d.At(ret[i].Representative, o.Representative)
		}
		ret[i].Inter = sum / k
	}
	return ret, nil
}
