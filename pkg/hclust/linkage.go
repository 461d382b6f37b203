// Package hclust does agglomerative clustering of a distance matrix,
// cuts the tree into a given number of clusters and picks a medoid for
// each cluster.
//
// The linkage is laid out like scipy's Z matrix, so rows can be compared
// with what scipy.cluster.hierarchy.linkage gives for the same condensed
// matrix.
package hclust

import (
	"errors"
	"fmt"
	"math"

	"github.com/andrew-torda/sugarclust/pkg/distmat"
)

// Method is the rule for the distance between two clusters.
type Method string

const (
	Single   Method = "single"
	Complete Method = "complete"
	Average  Method = "average"
	Weighted Method = "weighted"
	Centroid Method = "centroid"
	Median   Method = "median"
	Ward     Method = "ward"
)

// Methods in the order the command line lists them.
var Methods = []Method{Ward, Average, Centroid, Single, Complete, Weighted, Median}

var (
	ErrUnknownMethod    = errors.New("unknown linkage method")
	ErrTooManyClusters  = errors.New("cluster count out of range")
	ErrEmptyCluster     = errors.New("empty cluster")
	ErrTooFew           = errors.New("need at least two sites to cluster")
	ErrClusterUniverses = errors.New("clusterings are over different sites")
)

// ParseMethod checks a method name.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q, want one of %v", ErrUnknownMethod, s, Methods)
}

// Merge is one row of the linkage. A and B are node numbers: leaves are
// 0..n-1 and the cluster made by merge i is n+i. A < B.
type Merge struct {
	A, B   int
	Height float64
	Count  int
}

// Linkage is the whole tree, n-1 merges for n leaves.
type Linkage struct {
	N      int
	Method Method
	Merges []Merge
}

// update is the Lance-Williams step. dxi and dyi are the distances from
// the two merged clusters x and y to another cluster i, dxy between x
// and y. Sizes are numbers of leaves.
type update func(dxi, dyi, dxy float64, nx, ny, ni int) float64

func updateFor(m Method) (update, error) {
	switch m {
	case Single:
		return func(dxi, dyi, _ float64, _, _, _ int) float64 { return min(dxi, dyi) }, nil
	case Complete:
		return func(dxi, dyi, _ float64, _, _, _ int) float64 { return max(dxi, dyi) }, nil
	case Average:
		return func(dxi, dyi, _ float64, nx, ny, _ int) float64 {
			fx, fy := float64(nx), float64(ny)
			return (fx*dxi + fy*dyi) / (fx + fy)
		}, nil
	case Weighted:
		return func(dxi, dyi, _ float64, _, _, _ int) float64 { return 0.5 * (dxi + dyi) }, nil
	case Centroid:
		return func(dxi, dyi, dxy float64, nx, ny, _ int) float64 {
			fx, fy := float64(nx), float64(ny)
			s := (fx*dxi*dxi+fy*dyi*dyi)/(fx+fy) - fx*fy*dxy*dxy/((fx+fy)*(fx+fy))
			return math.Sqrt(max(s, 0))
		}, nil
	case Median:
		return func(dxi, dyi, dxy float64, _, _, _ int) float64 {
			s := 0.5*(dxi*dxi+dyi*dyi) - 0.25*dxy*dxy
			return math.Sqrt(max(s, 0))
		}, nil
	case Ward:
		return func(dxi, dyi, dxy float64, nx, ny, ni int) float64 {
			fx, fy, fi := float64(nx), float64(ny), float64(ni)
			s := ((fi+fx)*dxi*dxi + (fi+fy)*dyi*dyi - fi*dxy*dxy) / (fx + fy + fi)
			return math.Sqrt(max(s, 0))
		}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownMethod, m)
}

// Link builds the tree. The matrix is copied, not changed.
// Each step scans all live pairs and takes the closest one. On a tie
// the pair with the lowest slot (i, j) wins, where a merged cluster
// lives in the slot of its lower-numbered half.
func Link(d *distmat.Matrix, method Method) (*Linkage, error) {
	upd, err := updateFor(method)
	if err != nil {
		return nil, err
	}
	n := d.N()
	if n < 2 {
		return nil, ErrTooFew
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	work := make([][]float64, n)
	for i := range work {
		work[i] = append([]float64(nil), d.Row(i)...)
	}
	node := make([]int, n) // node number currently living in each slot
	size := make([]int, n)
	alive := make([]bool, n)
	for i := range node {
		node[i], size[i], alive[i] = i, 1, true
	}

	lk := &Linkage{N: n, Method: method, Merges: make([]Merge, 0, n-1)}
	for step := 0; step < n-1; step++ {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			row := work[i]
			for j := i + 1; j < n; j++ {
				if alive[j] && (bi < 0 || row[j] < best) {
					best, bi, bj = row[j], i, j
				}
			}
		}
		a, b := node[bi], node[bj]
		if a > b {
			a, b = b, a
		}
		lk.Merges = append(lk.Merges, Merge{A: a, B: b, Height: best, Count: size[bi] + size[bj]})

		for k := 0; k < n; k++ {
			if !alive[k] || k == bi || k == bj {
				continue
			}
			v := upd(work[bi][k], work[bj][k], best, size[bi], size[bj], size[k])
			work[bi][k], work[k][bi] = v, v
		}
		alive[bj] = false
		size[bi] += size[bj]
		node[bi] = n + step
	}
	return lk, nil
}

// MaxHeight is the height of the highest merge.
func (lk *Linkage) MaxHeight() float64 {
	var h float64
	for _, m := range lk.Merges {
		h = max(h, m.Height)
	}
	return h
}

// Root is the node number of the whole tree.
func (lk *Linkage) Root() int { return 2*lk.N - 2 }

// Children of an internal node. ok is false for a leaf.
func (lk *Linkage) Children(node int) (left, right int, ok bool) {
	if node < lk.N {
		return 0, 0, false
	}
	m := lk.Merges[node-lk.N]
	return m.A, m.B, true
}

// Height of a node. Leaves are at zero.
func (lk *Linkage) Height(node int) float64 {
	if node < lk.N {
		return 0
	}
	return lk.Merges[node-lk.N].Height
}

// Leaves gives the leaves from left to right as a dendrogram draws
// them, with the first member of every merge on the left.
func (lk *Linkage) Leaves() []int {
	ret := make([]int, 0, lk.N)
	lk.walk(lk.Root(), func(node int) bool {
		if node < lk.N {
			ret = append(ret, node)
		}
		return true
	})
	return ret
}

// walk visits nodes depth first, left before right. If visit returns
// false the children of that node are skipped. Chains from single
// linkage can be as deep as the number of leaves, so there is no
// recursion.
func (lk *Linkage) walk(root int, visit func(node int) bool) {
	stack := []int{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(node) {
			continue
		}
		if l, r, ok := lk.Children(node); ok {
			stack = append(stack, r, l)
		}
	}
}
