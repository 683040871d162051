package geometry

// Rotator180 maps coordinates of an image of a fixed size onto the same
// image turned upside down.
type Rotator180 struct {
	size Size[Pixel]
}

// NewRotator180 builds a rotator for an image of the given size.
func NewRotator180(size Size[Pixel]) Rotator180 {
	return Rotator180{size: size}
}

// Point rotates a pixel-center point.
func (r Rotator180) Point(p Point[SubPixel]) Point[SubPixel] {
	return Point[SubPixel]{
		X: SubPixel(r.size.Width-1) - p.X,
		Y: SubPixel(r.size.Height-1) - p.Y,
	}
}

// Rect rotates a rectangle; its size is unchanged.
func (r Rotator180) Rect(rect Rect) Rect {
	return NewRect(
		r.size.Width-1-rect.Right(),
		r.size.Height-1-rect.Bottom(),
		rect.Width,
		rect.Height,
	)
}
