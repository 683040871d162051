package geometry

import (
	"fmt"
	"math"
)

// Point is an (x, y) pair in a single unit system.
type Point[T Number] struct {
	X T `json:"x"`
	Y T `json:"y"`
}

// Pt builds a point.
func Pt[T Number](x, y T) Point[T] {
	return Point[T]{X: x, Y: y}
}

// Add returns p + q.
func (p Point[T]) Add(q Point[T]) Point[T] {
	return Point[T]{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point[T]) Sub(q Point[T]) Point[T] {
	return Point[T]{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale multiplies both coordinates by f.
func (p Point[T]) Scale(f float64) Point[T] {
	return Point[T]{X: T(float64(p.X) * f), Y: T(float64(p.Y) * f)}
}

// Distance is the Euclidean distance between p and q.
func (p Point[T]) Distance(q Point[T]) float64 {
	return math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y))
}

// Length is the distance from the origin.
func (p Point[T]) Length() float64 {
	return math.Hypot(float64(p.X), float64(p.Y))
}

// Angle is the direction of p viewed as a vector.
func (p Point[T]) Angle() Radians {
	return Radians(math.Atan2(float64(p.Y), float64(p.X)))
}

func (p Point[T]) String() string {
	return fmt.Sprintf("(%v, %v)", p.X, p.Y)
}

// ToSubPixel converts a whole-pixel point.
func ToSubPixel(p Point[Pixel]) Point[SubPixel] {
	return Point[SubPixel]{X: SubPixel(p.X), Y: SubPixel(p.Y)}
}

// Round converts a sub-pixel point to the nearest pixel.
func Round(p Point[SubPixel]) Point[Pixel] {
	return Point[Pixel]{X: p.X.Round(), Y: p.Y.Round()}
}

// Size is a (width, height) pair.
type Size[T Number] struct {
	Width  T `json:"width"`
	Height T `json:"height"`
}

// Area is Width * Height as a float.
func (s Size[T]) Area() float64 {
	return float64(s.Width) * float64(s.Height)
}

// AspectRatio is Width / Height.
func (s Size[T]) AspectRatio() float64 {
	return float64(s.Width) / float64(s.Height)
}
