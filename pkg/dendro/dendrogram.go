package dendro

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strconv"

	"github.com/andrew-torda/sugarclust/pkg/hclust"
)

// DefaultFraction of the highest merge is the colour threshold when none
// is given.
const DefaultFraction = 0.7

// DefaultThreshold is DefaultFraction of the highest merge.
func DefaultThreshold(lk *hclust.Linkage) float64 { return DefaultFraction * lk.MaxHeight() }

// FileName is {k}_{method}_{strategy}.png, with _{threshold} before the
// extension if a threshold was given.
func FileName(k int, m hclust.Method, strategy string, threshold float64) string {
	s := strconv.Itoa(k) + "_" + string(m) + "_" + strategy
	if threshold > 0 {
		s += "_" + strconv.FormatFloat(threshold, 'g', -1, 64)
	}
	return s + ".png"
}

// Options for a dendrogram. Zero values get defaults.
type Options struct {
	Width, Height int
	Threshold     float64 // colour links below this, default from DefaultThreshold
	XLabel        string
	YLabel        string
}

func (o *Options) defaults(lk *hclust.Linkage) {
	if o.Width == 0 {
		o.Width = 1200
	}
	if o.Height == 0 {
		o.Height = 800
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold(lk)
	}
	if o.XLabel == "" {
		o.XLabel = "Surroundings"
	}
	if o.YLabel == "" {
		o.YLabel = "RMSD"
	}
}

// tree is a linkage with every node placed. pos runs along the leaves,
// leaf i of the drawing order at i+0.5, and an internal node halfway
// between its children.
type tree struct {
	lk     *hclust.Linkage
	pos    []float64
	colour []color.RGBA // of the lines drawn for the merge at a node
}

func layout(lk *hclust.Linkage, threshold float64) *tree {
	t := &tree{lk: lk, pos: make([]float64, 2*lk.N-1), colour: make([]color.RGBA, 2*lk.N-1)}
	for i, leaf := range lk.Leaves() {
		t.pos[leaf] = float64(i) + 0.5
	}
	for i, m := range lk.Merges {
		t.pos[lk.N+i] = (t.pos[m.A] + t.pos[m.B]) / 2
	}
	// A subtree whose own merge is below the threshold gets the next
	// colour, all the way down.
	next := 0
	var paint func(node int, col color.RGBA)
	paint = func(node int, col color.RGBA) {
		t.colour[node] = col
		if l, r, ok := lk.Children(node); ok {
			paint(l, col)
			paint(r, col)
		}
	}
	stack := []int{lk.Root()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		l, r, ok := lk.Children(node)
		if !ok {
			t.colour[node] = above
			continue
		}
		if lk.Height(node) < threshold {
			paint(node, palette[next%len(palette)])
			next++
			continue
		}
		t.colour[node] = above
		stack = append(stack, r, l)
	}
	return t
}

// links calls f for every line of the tree in (pos, height) units. All
// three lines of a merge take the colour of the merged node.
func (t *tree) links(f func(col color.RGBA, p0, h0, p1, h1 float64)) {
	lk := t.lk
	for i, m := range lk.Merges {
		col, h := t.colour[lk.N+i], m.Height
		f(col, t.pos[m.A], lk.Height(m.A), t.pos[m.A], h)
		f(col, t.pos[m.B], lk.Height(m.B), t.pos[m.B], h)
		f(col, t.pos[m.A], h, t.pos[m.B], h)
	}
}

// Draw returns the dendrogram with the leaves along the bottom.
func Draw(lk *hclust.Linkage, opts Options) (*image.RGBA, error) {
	if lk.N < 2 {
		return nil, fmt.Errorf("nothing to draw with %d leaves", lk.N)
	}
	opts.defaults(lk)
	c, err := newCanvas(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	const margin = 80.0
	w, h := float64(opts.Width), float64(opts.Height)
	top := max(lk.MaxHeight(), opts.Threshold) * 1.05
	if top == 0 {
		top = 1
	}
	px := func(p float64) float64 { return margin + p*(w-2*margin)/float64(lk.N) }
	py := func(ht float64) float64 { return h - margin - ht*(h-2*margin)/top }

	t := layout(lk, opts.Threshold)
	t.links(func(col color.RGBA, p0, h0, p1, h1 float64) {
		c.line(col, px(p0), py(h0), px(p1), py(h1), 1.5)
	})
	c.line(axis, margin, py(0), margin, py(top), 1)
	c.line(axis, margin, py(0), w-margin, py(0), 1)
	ticks := niceTicks(top)
	for _, v := range ticks {
		c.line(axis, margin-5, py(v), margin, py(v), 1)
	}
	c.line(faint, margin, py(opts.Threshold), w-margin, py(opts.Threshold), 1)
	c.flush()

	for _, v := range ticks {
		if err := c.text(strconv.FormatFloat(v, 'g', 4, 64), margin-8, py(v)+5, 14, 1); err != nil {
			return nil, err
		}
	}
	if err := c.text(opts.XLabel, w/2, h-margin/3, 20, 0.5); err != nil {
		return nil, err
	}
	if err := c.text(opts.YLabel, margin/4, margin-20, 20, 0); err != nil {
		return nil, err
	}
	return c.img, nil
}

// niceTicks gives a handful of round numbers from 0 up to top.
func niceTicks(top float64) []float64 {
	step := math.Pow(10, math.Floor(math.Log10(top)))
	switch n := top / step; {
	case n < 2:
		step /= 5
	case n < 5:
		step /= 2
	}
	var ret []float64
	for i := 0; float64(i)*step <= top; i++ {
		ret = append(ret, float64(i)*step)
	}
	return ret
}

// Save writes a PNG.
func Save(fname string, img image.Image) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := png.Encode(fp, img); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
