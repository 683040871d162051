package geometry

import "math"

// Pixel is an integer position or length in image pixels.
type Pixel int

// SubPixel is a fractional position or length in image pixels.
type SubPixel float64

// GridUnit is a position or length measured in timing-mark grid cells.
type GridUnit float64

// Inch is a physical length on paper.
type Inch float64

// Radians is an angle.
type Radians float64

// Number is the set of unit types a Point or Size may carry.
type Number interface {
	~int | ~float64
}

// Pixels converts a physical length to sub-pixels at the given resolution.
func (i Inch) Pixels(pixelsPerInch SubPixel) SubPixel {
	return SubPixel(i) * pixelsPerInch
}

// Round rounds to the nearest whole pixel.
func (s SubPixel) Round() Pixel {
	return Pixel(math.Round(float64(s)))
}

// Floor truncates toward negative infinity.
func (s SubPixel) Floor() Pixel {
	return Pixel(math.Floor(float64(s)))
}

// Degrees converts radians to degrees.
func (r Radians) Degrees() float64 {
	return float64(r) * 180 / math.Pi
}

// FromDegrees converts degrees to radians.
func FromDegrees(d float64) Radians {
	return Radians(d * math.Pi / 180)
}

// Normalize maps an angle into [0, π).
func (r Radians) Normalize() Radians {
	a := math.Mod(float64(r), math.Pi)
	if a < 0 {
		a += math.Pi
	}
	return Radians(a)
}

// Near reports whether two angles differ by at most tolerance, treating
// directions that differ by π as identical.
func (r Radians) Near(other, tolerance Radians) bool {
	d := math.Abs(float64(r.Normalize() - other.Normalize()))
	return d <= float64(tolerance) || math.Pi-d <= float64(tolerance)
}
