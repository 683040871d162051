package debug

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Palette returns n visually distinct colors.
func Palette(n int) []color.Color {
	colors := colorful.FastHappyPalette(n)
	out := make([]color.Color, len(colors))
	for i, c := range colors {
		out[i] = c
	}
	return out
}

// ScoreColor shades a unit interval score from red (0) to green (1).
func ScoreColor(score float64) color.Color {
	score = math.Max(0, math.Min(1, score))
	return colorful.Hsv(120*score, 0.9, 0.85)
}

var (
	Red    color.Color = colorful.Color{R: 1, G: 0, B: 0}
	Green  color.Color = colorful.Color{R: 0, G: 0.7, B: 0}
	Blue   color.Color = colorful.Color{R: 0, G: 0.3, B: 1}
	Orange color.Color = colorful.Color{R: 1, G: 0.55, B: 0}
)

// StrokeRect outlines r.
func StrokeRect(canvas *image.RGBA, r geometry.Rect, c color.Color) {
	for x := r.Left; x <= r.Right(); x++ {
		set(canvas, int(x), int(r.Top), c)
		set(canvas, int(x), int(r.Bottom()), c)
	}
	for y := r.Top; y <= r.Bottom(); y++ {
		set(canvas, int(r.Left), int(y), c)
		set(canvas, int(r.Right()), int(y), c)
	}
}

// FillRect paints r.
func FillRect(canvas *image.RGBA, r geometry.Rect, c color.Color) {
	for y := r.Top; y <= r.Bottom(); y++ {
		for x := r.Left; x <= r.Right(); x++ {
			set(canvas, int(x), int(y), c)
		}
	}
}

// Line draws the segment.
func Line(canvas *image.RGBA, s geometry.Segment, c color.Color) {
	steps := int(math.Ceil(s.Length()))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		p := geometry.Round(s.PointAt(float64(i) / float64(steps)))
		set(canvas, int(p.X), int(p.Y), c)
	}
}

// Cross marks p with a small plus sign.
func Cross(canvas *image.RGBA, p geometry.Point[geometry.SubPixel], size int, c color.Color) {
	q := geometry.Round(p)
	for d := -size; d <= size; d++ {
		set(canvas, int(q.X)+d, int(q.Y), c)
		set(canvas, int(q.X), int(q.Y)+d, c)
	}
}

// Quad outlines a quadrilateral.
func Quad(canvas *image.RGBA, q geometry.Quadrilateral, c color.Color) {
	Line(canvas, geometry.Seg(q.TopLeft, q.TopRight), c)
	Line(canvas, geometry.Seg(q.TopRight, q.BottomRight), c)
	Line(canvas, geometry.Seg(q.BottomRight, q.BottomLeft), c)
	Line(canvas, geometry.Seg(q.BottomLeft, q.TopLeft), c)
}

func set(canvas *image.RGBA, x, y int, c color.Color) {
	if image.Pt(x, y).In(canvas.Rect) {
		canvas.Set(x, y, c)
	}
}
