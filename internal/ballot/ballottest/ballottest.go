// Package ballottest renders synthetic ballot pages for tests: timing-mark
// borders, bottom-border metadata, ovals and occlusions, drawn from a
// ballot.Geometry so that every mark sits where a printed ballot puts it.
package ballottest

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
)

// Edge names a page border.
type Edge string

const (
	Top    Edge = "top"
	Bottom Edge = "bottom"
	Left   Edge = "left"
	Right  Edge = "right"
)

const (
	Ink   uint8 = 0
	Paper uint8 = 255

	// OvalStroke is the outline width of printed ovals, in pixels.
	OvalStroke = 2.0
)

type oval struct {
	column, row geometry.GridUnit
	filled      bool
}

type scribble struct {
	from, to geometry.Point[geometry.GridUnit]
}

type occlusion struct {
	rect geometry.Rect
	luma uint8
}

type page struct {
	geometry   ballot.Geometry
	bottomBits []bool
	missing    map[Edge]map[int]bool
	ovals      []oval
	scribbles  []scribble
	occlusions []occlusion
	border     int
	reversed   bool
}

// Option customizes a rendered page.
type Option func(*page)

// WithBottomBits encodes a 32-bit record on the bottom border. Without it
// every bottom mark is printed.
func WithBottomBits(bits []bool) Option {
	return func(p *page) { p.bottomBits = bits }
}

// WithFront encodes a front record for the batch and card number.
func WithFront(batchOrPrecinct, cardNumber uint64) Option {
	return func(p *page) {
		f, err := metadata.NewFront(batchOrPrecinct, cardNumber)
		if err != nil {
			panic(err)
		}
		p.bottomBits = f.Bits
	}
}

// WithBack encodes a back record.
func WithBack(day, month, year uint64, electionType byte) Option {
	return func(p *page) {
		b, err := metadata.NewBack(day, month, year, electionType)
		if err != nil {
			panic(err)
		}
		p.bottomBits = b.Bits
	}
}

// WithoutMark leaves out the mark at index on edge. Corners belong to both
// of their edges.
func WithoutMark(edge Edge, index int) Option {
	return func(p *page) {
		if p.missing[edge] == nil {
			p.missing[edge] = map[int]bool{}
		}
		p.missing[edge][index] = true
	}
}

// WithOval prints an oval centered on a grid location.
func WithOval(column, row geometry.GridUnit, filled bool) Option {
	return func(p *page) { p.ovals = append(p.ovals, oval{column: column, row: row, filled: filled}) }
}

// WithScribble draws a thick stroke between two grid locations.
func WithScribble(from, to geometry.Point[geometry.GridUnit]) Option {
	return func(p *page) { p.scribbles = append(p.scribbles, scribble{from: from, to: to}) }
}

// WithOcclusion paints a rectangle after everything else, in page
// coordinates before any scanner border is added.
func WithOcclusion(r geometry.Rect, luma uint8) Option {
	return func(p *page) { p.occlusions = append(p.occlusions, occlusion{rect: r, luma: luma}) }
}

// WithScannerBorder surrounds the page with a black band.
func WithScannerBorder(pixels int) Option {
	return func(p *page) { p.border = pixels }
}

// Reversed delivers the page upside down.
func Reversed() Option {
	return func(p *page) { p.reversed = true }
}

// Render draws a page.
func Render(g ballot.Geometry, opts ...Option) *image.Gray {
	p := &page{geometry: g, missing: map[Edge]map[int]bool{}}
	for _, opt := range opts {
		opt(p)
	}

	size := g.CanvasPixels()
	img := image.NewGray(image.Rect(0, 0, int(size.Width), int(size.Height)))
	fill(img, img.Bounds(), Paper)

	for _, m := range MarkRects(g) {
		if p.missing[m.Edge][m.Index] || (m.Edge == Bottom && !p.bottomPresent(m.Index)) {
			continue
		}
		fill(img, m.Rect.ImageRect(), Ink)
	}
	for _, o := range p.ovals {
		drawOval(img, g.MarkCenter(o.column, o.row), g.OvalPixels(), o.filled)
	}
	for _, s := range p.scribbles {
		drawStroke(img, g.MarkCenter(s.from.X, s.from.Y), g.MarkCenter(s.to.X, s.to.Y), 6)
	}
	for _, o := range p.occlusions {
		fill(img, o.rect.ImageRect(), o.luma)
	}

	if p.reversed {
		img = rotate180(img)
	}
	if p.border > 0 {
		img = addBorder(img, p.border)
	}
	return img
}

func (p *page) bottomPresent(index int) bool {
	if p.bottomBits == nil {
		return true
	}
	present, err := metadata.BottomMarksFromBits(p.bottomBits)
	if err != nil {
		panic(err)
	}
	return present[index]
}

// Mark is the printed rectangle of one timing mark.
type Mark struct {
	Edge  Edge
	Index int
	Rect  geometry.Rect
}

// MarkRects lists where every timing mark of a full border is printed.
func MarkRects(g ballot.Geometry) []Mark {
	size := g.TimingMarkPixels()
	cols, rows := g.Columns(), g.Rows()
	var marks []Mark
	at := func(edge Edge, index int, col, row int) {
		c := g.MarkCenter(geometry.GridUnit(col), geometry.GridUnit(row))
		marks = append(marks, Mark{Edge: edge, Index: index, Rect: geometry.RectCenteredAt(c, size)})
	}
	for i := 0; i < cols; i++ {
		at(Top, i, i, 0)
		at(Bottom, i, i, rows-1)
	}
	for j := 0; j < rows; j++ {
		at(Left, j, 0, j)
		at(Right, j, cols-1, j)
	}
	return marks
}

// MarkRect is the printed rectangle of one mark.
func MarkRect(g ballot.Geometry, edge Edge, index int) geometry.Rect {
	for _, m := range MarkRects(g) {
		if m.Edge == edge && m.Index == index {
			return m.Rect
		}
	}
	return geometry.Rect{}
}

func fill(img *image.Gray, r image.Rectangle, luma uint8) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[y*img.Stride+r.Min.X : y*img.Stride+r.Max.X]
		for i := range row {
			row[i] = luma
		}
	}
}

// drawOval draws an ellipse with a two pixel outline, or solid when filled.
func drawOval(img *image.Gray, center geometry.Point[geometry.SubPixel], size geometry.Size[geometry.SubPixel], filled bool) {
	a := float64(size.Width) / 2
	b := float64(size.Height) / 2
	e := geometry.Ellipse{SemiX: a, SemiY: b, Stroke: OvalStroke}
	for y := int(math.Floor(float64(center.Y) - b)); y <= int(math.Ceil(float64(center.Y)+b)); y++ {
		for x := int(math.Floor(float64(center.X) - a)); x <= int(math.Ceil(float64(center.X)+a)); x++ {
			if !image.Pt(x, y).In(img.Bounds()) {
				continue
			}
			dx, dy := float64(x)-float64(center.X), float64(y)-float64(center.Y)
			if (filled && e.Inside(dx, dy)) || e.OnOutline(dx, dy) {
				img.Pix[y*img.Stride+x] = Ink
			}
		}
	}
}

func drawStroke(img *image.Gray, from, to geometry.Point[geometry.SubPixel], width float64) {
	seg := geometry.Seg(from, to)
	steps := int(math.Ceil(seg.Length())) + 1
	half := width / 2
	for i := 0; i <= steps; i++ {
		c := seg.PointAt(float64(i) / float64(steps))
		for y := int(float64(c.Y) - half); y <= int(float64(c.Y)+half); y++ {
			for x := int(float64(c.X) - half); x <= int(float64(c.X)+half); x++ {
				if image.Pt(x, y).In(img.Bounds()) {
					img.Pix[y*img.Stride+x] = Ink
				}
			}
		}
	}
}

func rotate180(src *image.Gray) *image.Gray {
	return ballot.ToGray(imaging.Rotate180(src))
}

func addBorder(src *image.Gray, n int) *image.Gray {
	b := src.Bounds()
	canvas := imaging.New(b.Dx()+2*n, b.Dy()+2*n, color.Black)
	return ballot.ToGray(imaging.Paste(canvas, src, image.Pt(n, n)))
}
