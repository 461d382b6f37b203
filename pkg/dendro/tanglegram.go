package dendro

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/andrew-torda/sugarclust/pkg/hclust"
)

// TangleName is tanglegram_{SUGAR}_{k}_{method}.png.
func TangleName(sugar string, k int, m hclust.Method) string {
	return "tanglegram_" + sugar + "_" + strconv.Itoa(k) + "_" + string(m) + ".png"
}

// TangleOptions for two facing dendrograms.
type TangleOptions struct {
	Width, Height int
	Left, Right   string // titles
}

// Tanglegram draws tree a on the left with its root at the left edge
// and b on the right, mirrored. The leaves face each other and a line
// joins the two copies of each site. Lines for sites at different
// positions in the two leaf orders are red.
func Tanglegram(a, b *hclust.Linkage, opts TangleOptions) (*image.RGBA, error) {
	if a.N != b.N {
		return nil, fmt.Errorf("%w: %d and %d leaves", hclust.ErrClusterUniverses, a.N, b.N)
	}
	if a.N < 2 {
		return nil, fmt.Errorf("nothing to draw with %d leaves", a.N)
	}
	if opts.Width == 0 {
		opts.Width = 1200
	}
	if opts.Height == 0 {
		opts.Height = max(600, 12*a.N+120)
	}
	c, err := newCanvas(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	const margin = 60.0
	w, h := float64(opts.Width), float64(opts.Height)
	panel := (w - 2*margin) * 0.38 // width of each tree
	gap := w - 2*margin - 2*panel  // where the connectors go
	py := func(p float64) float64 { return margin + p*(h-2*margin)/float64(a.N) }

	ta, tb := layout(a, DefaultThreshold(a)), layout(b, DefaultThreshold(b))
	topA, topB := a.MaxHeight(), b.MaxHeight()
	if topA == 0 {
		topA = 1
	}
	if topB == 0 {
		topB = 1
	}
	leftEdge := margin + panel // where a's leaves are
	rightEdge := leftEdge + gap
	ta.links(func(col color.RGBA, p0, h0, p1, h1 float64) {
		c.line(col, leftEdge-h0*panel/topA, py(p0), leftEdge-h1*panel/topA, py(p1), 1.5)
	})
	tb.links(func(col color.RGBA, p0, h0, p1, h1 float64) {
		c.line(col, rightEdge+h0*panel/topB, py(p0), rightEdge+h1*panel/topB, py(p1), 1.5)
	})
	// connectors: the ones that cross go last so they are on top
	posA, posB := LeafPositions(a), LeafPositions(b)
	for id := range posA {
		if posA[id] == posB[id] {
			c.line(faint, leftEdge+4, py(float64(posA[id])+0.5), rightEdge-4, py(float64(posB[id])+0.5), 1)
		}
	}
	c.flush()
	for id := range posA {
		if posA[id] != posB[id] {
			c.line(diverge, leftEdge+4, py(float64(posA[id])+0.5), rightEdge-4, py(float64(posB[id])+0.5), 1)
		}
	}
	c.flush()

	if err := c.text(opts.Left, margin, margin/2, 18, 0); err != nil {
		return nil, err
	}
	if err := c.text(opts.Right, w-margin, margin/2, 18, 1); err != nil {
		return nil, err
	}
	return c.img, nil
}

// LeafPositions gives, for every leaf, where it is in the drawing order.
func LeafPositions(lk *hclust.Linkage) []int {
	ret := make([]int, lk.N)
	for i, leaf := range lk.Leaves() {
		ret[leaf] = i
	}
	return ret
}
