package hclust

import (
	"fmt"
	"slices"
)

// Clustering is a partition of the identities 0..n-1. Labels run from 1.
type Clustering struct {
	Labels []int // Labels[identity]
}

// NewClustering checks the labels cover 1..max with nothing empty.
func NewClustering(labels []int) (*Clustering, error) {
	c := &Clustering{Labels: labels}
	count := make(map[int]int)
	mx := 0
	for id, l := range labels {
		if l < 1 {
			return nil, fmt.Errorf("identity %d has label %d", id, l)
		}
		count[l]++
		mx = max(mx, l)
	}
	for l := 1; l <= mx; l++ {
		if count[l] == 0 {
			return nil, fmt.Errorf("%w: label %d", ErrEmptyCluster, l)
		}
	}
	return c, nil
}

// K is the number of clusters.
func (c *Clustering) K() int {
	k := 0
	for _, l := range c.Labels {
		k = max(k, l)
	}
	return k
}

// Members maps each label to its identities in increasing order.
func (c *Clustering) Members() map[int][]int {
	ret := make(map[int][]int)
	for id, l := range c.Labels {
		ret[l] = append(ret[l], id)
	}
	return ret
}

// SortedLabels is 1..K.
func (c *Clustering) SortedLabels() []int {
	m := c.Members()
	ret := make([]int, 0, len(m))
	for l := range m {
		ret = append(ret, l)
	}
	slices.Sort(ret)
	return ret
}

// maxDists gives, for every node, the highest merge in its subtree.
// With centroid and median the heights need not grow towards the root,
// so this is what the cut uses.
func (lk *Linkage) maxDists() []float64 {
	md := make([]float64, 2*lk.N-1)
	for i, m := range lk.Merges {
		md[lk.N+i] = max(m.Height, md[m.A], md[m.B])
	}
	return md
}

// Cut makes at most k flat clusters, as scipy's fcluster does with
// criterion "maxclust". The threshold is the lowest one that gives no
// more than k clusters. Tied heights can mean there is no threshold that
// gives exactly k and then the clustering has fewer. Labels are given in
// leaf order, so the leftmost cluster of the dendrogram is 1.
func (lk *Linkage) Cut(k int) (*Clustering, error) {
	if k < 1 || k > lk.N {
		return nil, fmt.Errorf("%w: %d clusters from %d sites", ErrTooManyClusters, k, lk.N)
	}
	md := lk.maxDists()
	thresholds := append([]float64{0}, md[lk.N:]...)
	slices.Sort(thresholds)
	var t float64
	for _, t = range thresholds {
		if lk.nClusters(md, t) <= k {
			break
		}
	}
	return lk.CutAt(t), nil
}

// nClusters is the number of clusters with threshold t. Every internal
// node above t splits in two.
func (lk *Linkage) nClusters(md []float64, t float64) int {
	n := 1
	for _, v := range md[lk.N:] {
		if v > t {
			n++
		}
	}
	return n
}

// CutAt makes a cluster of every maximal subtree with nothing above
// threshold t in it.
func (lk *Linkage) CutAt(t float64) *Clustering {
	md := lk.maxDists()
	labels := make([]int, lk.N)
	next := 0
	lk.walk(lk.Root(), func(node int) bool {
		if md[node] > t {
			return true
		}
		next++
		lk.walk(node, func(sub int) bool {
			if sub < lk.N {
				labels[sub] = next
			}
			return true
		})
		return false
	})
	return &Clustering{Labels: labels}
}
