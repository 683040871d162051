package geometry

import "math"

// Quadrilateral is a convex four-sided region given by its corners.
type Quadrilateral struct {
	TopLeft     Point[SubPixel] `json:"top_left"`
	TopRight    Point[SubPixel] `json:"top_right"`
	BottomLeft  Point[SubPixel] `json:"bottom_left"`
	BottomRight Point[SubPixel] `json:"bottom_right"`
}

// Contains reports whether p lies inside or on the edge of the quadrilateral.
func (q Quadrilateral) Contains(p Point[SubPixel]) bool {
	corners := [4]Point[SubPixel]{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
	sign := 0
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%4]
		cross := float64(b.X-a.X)*float64(p.Y-a.Y) - float64(b.Y-a.Y)*float64(p.X-a.X)
		switch {
		case cross > 1e-9:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < -1e-9:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// Bounds is the smallest pixel rectangle covering the quadrilateral.
func (q Quadrilateral) Bounds() Rect {
	minX := math.Min(math.Min(float64(q.TopLeft.X), float64(q.TopRight.X)), math.Min(float64(q.BottomLeft.X), float64(q.BottomRight.X)))
	maxX := math.Max(math.Max(float64(q.TopLeft.X), float64(q.TopRight.X)), math.Max(float64(q.BottomLeft.X), float64(q.BottomRight.X)))
	minY := math.Min(math.Min(float64(q.TopLeft.Y), float64(q.TopRight.Y)), math.Min(float64(q.BottomLeft.Y), float64(q.BottomRight.Y)))
	maxY := math.Max(math.Max(float64(q.TopLeft.Y), float64(q.TopRight.Y)), math.Max(float64(q.BottomLeft.Y), float64(q.BottomRight.Y)))
	left := Pixel(math.Floor(minX))
	top := Pixel(math.Floor(minY))
	return NewRect(left, top, Pixel(math.Ceil(maxX))-left+1, Pixel(math.Ceil(maxY))-top+1)
}
