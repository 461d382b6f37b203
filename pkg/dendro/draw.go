// Package dendro draws dendrograms and tanglegrams as PNG files.
//
// Pictures are diagnostics. Nothing reads them back.
package dendro

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/vector"
)

// palette is matplotlib's default cycle without the blue, which is used
// for links above the threshold.
var palette = []color.RGBA{
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
	{0xe3, 0x77, 0xc2, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff},
	{0xbc, 0xbd, 0x22, 0xff},
	{0x17, 0xbe, 0xcf, 0xff},
}

var (
	above   = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	axis    = color.RGBA{0x20, 0x20, 0x20, 0xff}
	faint   = color.RGBA{0xc0, 0xc0, 0xc0, 0xff}
	diverge = color.RGBA{0xd6, 0x27, 0x28, 0xff}
)

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return freetype.ParseFont(goregular.TTF)
})

// canvas is a white picture with a rasterizer per colour. Lines are
// collected and drawn when flush is called.
type canvas struct {
	img   *image.RGBA
	paths map[color.RGBA]*vector.Rasterizer
	order []color.RGBA
	font  *truetype.Font
}

func newCanvas(w, h int) (*canvas, error) {
	f, err := loadFont()
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &canvas{img: img, paths: make(map[color.RGBA]*vector.Rasterizer), font: f}, nil
}

// line adds a straight line of the given width.
func (c *canvas) line(col color.RGBA, x0, y0, x1, y1, width float64) {
	z, ok := c.paths[col]
	if !ok {
		b := c.img.Bounds()
		z = vector.NewRasterizer(b.Dx(), b.Dy())
		c.paths[col] = z
		c.order = append(c.order, col)
	}
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	// half width along the normal, and a little past the ends so that
	// corners of the tree join up
	nx, ny := -dy/l*width/2, dx/l*width/2
	ex, ey := dx/l*width/2, dy/l*width/2
	x0, y0, x1, y1 = x0-ex, y0-ey, x1+ex, y1+ey
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

func (c *canvas) flush() {
	for _, col := range c.order {
		z := c.paths[col]
		z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	}
	c.paths = make(map[color.RGBA]*vector.Rasterizer)
	c.order = nil
}

// text writes s with its baseline at y. align is 0 for left, 0.5 for
// centred and 1 for right.
func (c *canvas) text(s string, x, y, size, align float64) error {
	face := truetype.NewFace(c.font, &truetype.Options{Size: size})
	defer face.Close()
	w := float64(font.MeasureString(face, s)) / 64
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(c.font)
	ctx.SetFontSize(size)
	ctx.SetClip(c.img.Bounds())
	ctx.SetDst(c.img)
	ctx.SetSrc(image.NewUniform(axis))
	_, err := ctx.DrawString(s, freetype.Pt(int(x-align*w), int(y)))
	return err
}
