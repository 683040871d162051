package geometry

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned pixel rectangle with inclusive edges.
type Rect struct {
	Left   Pixel `json:"left"`
	Top    Pixel `json:"top"`
	Width  Pixel `json:"width"`
	Height Pixel `json:"height"`
}

// NewRect builds a rectangle. Negative sizes are clamped to zero.
func NewRect(left, top, width, height Pixel) Rect {
	return Rect{Left: left, Top: top, Width: max(width, 0), Height: max(height, 0)}
}

// RectFromPoints builds the rectangle spanning two inclusive corners.
func RectFromPoints(topLeft, bottomRight Point[Pixel]) Rect {
	return NewRect(topLeft.X, topLeft.Y, bottomRight.X-topLeft.X+1, bottomRight.Y-topLeft.Y+1)
}

// RectFromImage converts a half-open image.Rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return NewRect(Pixel(r.Min.X), Pixel(r.Min.Y), Pixel(r.Dx()), Pixel(r.Dy()))
}

func (r Rect) Right() Pixel  { return r.Left + r.Width - 1 }
func (r Rect) Bottom() Pixel { return r.Top + r.Height - 1 }

func (r Rect) Empty() bool { return r.Width == 0 || r.Height == 0 }

func (r Rect) Size() Size[Pixel] { return Size[Pixel]{Width: r.Width, Height: r.Height} }

func (r Rect) Area() int { return int(r.Width) * int(r.Height) }

// Center is the midpoint of the inclusive edges.
func (r Rect) Center() Point[SubPixel] {
	return Point[SubPixel]{
		X: (SubPixel(r.Left) + SubPixel(r.Right())) / 2,
		Y: (SubPixel(r.Top) + SubPixel(r.Bottom())) / 2,
	}
}

func (r Rect) TopLeft() Point[Pixel]     { return Point[Pixel]{X: r.Left, Y: r.Top} }
func (r Rect) TopRight() Point[Pixel]    { return Point[Pixel]{X: r.Right(), Y: r.Top} }
func (r Rect) BottomLeft() Point[Pixel]  { return Point[Pixel]{X: r.Left, Y: r.Bottom()} }
func (r Rect) BottomRight() Point[Pixel] { return Point[Pixel]{X: r.Right(), Y: r.Bottom()} }

// Contains reports whether p lies within the rectangle.
func (r Rect) Contains(p Point[Pixel]) bool {
	return p.X >= r.Left && p.X <= r.Right() && p.Y >= r.Top && p.Y <= r.Bottom()
}

// ContainsSubPixel reports whether p lies within the rectangle's pixel area.
func (r Rect) ContainsSubPixel(p Point[SubPixel]) bool {
	return p.X >= SubPixel(r.Left) && p.X < SubPixel(r.Left+r.Width) &&
		p.Y >= SubPixel(r.Top) && p.Y < SubPixel(r.Top+r.Height)
}

// Union is the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	left := min(r.Left, o.Left)
	top := min(r.Top, o.Top)
	right := max(r.Right(), o.Right())
	bottom := max(r.Bottom(), o.Bottom())
	return NewRect(left, top, right-left+1, bottom-top+1)
}

// Intersect is the overlap of both, or the zero Rect when disjoint.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	left := max(r.Left, o.Left)
	top := max(r.Top, o.Top)
	right := min(r.Right(), o.Right())
	bottom := min(r.Bottom(), o.Bottom())
	if right < left || bottom < top {
		return Rect{}, false
	}
	return NewRect(left, top, right-left+1, bottom-top+1), true
}

// Offset translates the rectangle.
func (r Rect) Offset(dx, dy Pixel) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width, Height: r.Height}
}

// ImageRect converts to the half-open image.Rectangle.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(int(r.Left), int(r.Top), int(r.Left+r.Width), int(r.Top+r.Height))
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%d,%d %dx%d)", r.Left, r.Top, r.Width, r.Height)
}

// RectCenteredAt builds a rectangle of the given size centered on p.
func RectCenteredAt(p Point[SubPixel], size Size[SubPixel]) Rect {
	left := (p.X - (size.Width-1)/2).Round()
	top := (p.Y - (size.Height-1)/2).Round()
	return NewRect(left, top, size.Width.Round(), size.Height.Round())
}
