package geometry

import "math"

// Segment is a directed line segment.
type Segment struct {
	Start Point[SubPixel] `json:"start"`
	End   Point[SubPixel] `json:"end"`
}

// Seg builds a segment.
func Seg(start, end Point[SubPixel]) Segment {
	return Segment{Start: start, End: end}
}

// Vector is End - Start.
func (s Segment) Vector() Point[SubPixel] {
	return s.End.Sub(s.Start)
}

func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

func (s Segment) Angle() Radians {
	return s.Vector().Angle()
}

// PointAt returns Start + t * (End - Start).
func (s Segment) PointAt(t float64) Point[SubPixel] {
	return s.Start.Add(s.Vector().Scale(t))
}

// WithLength returns a segment with the same start and direction but the
// given length. A zero-length segment is returned unchanged.
func (s Segment) WithLength(length float64) Segment {
	l := s.Length()
	if l == 0 {
		return s
	}
	return Segment{Start: s.Start, End: s.Start.Add(s.Vector().Scale(length / l))}
}

// Intersection finds where the lines through s and o cross. With bounded
// set, the point must lie on both segments. Parallel lines never intersect.
func (s Segment) Intersection(o Segment, bounded bool) (Point[SubPixel], bool) {
	d1 := s.Vector()
	d2 := o.Vector()
	denom := float64(d1.X)*float64(d2.Y) - float64(d1.Y)*float64(d2.X)
	if math.Abs(denom) < 1e-9 {
		return Point[SubPixel]{}, false
	}
	delta := o.Start.Sub(s.Start)
	t := (float64(delta.X)*float64(d2.Y) - float64(delta.Y)*float64(d2.X)) / denom
	u := (float64(delta.X)*float64(d1.Y) - float64(delta.Y)*float64(d1.X)) / denom
	if bounded && (t < 0 || t > 1 || u < 0 || u > 1) {
		return Point[SubPixel]{}, false
	}
	return s.PointAt(t), true
}

// DistanceToPoint is the perpendicular distance from p to the line through s.
func (s Segment) DistanceToPoint(p Point[SubPixel]) float64 {
	l := s.Length()
	if l == 0 {
		return s.Start.Distance(p)
	}
	v := s.Vector()
	w := p.Sub(s.Start)
	return math.Abs(float64(v.X)*float64(w.Y)-float64(v.Y)*float64(w.X)) / l
}
