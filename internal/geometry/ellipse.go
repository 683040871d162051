package geometry

// Ellipse is an axis-aligned ellipse outline of a given stroke width.
type Ellipse struct {
	// SemiX and SemiY are the horizontal and vertical semi-axes.
	SemiX, SemiY float64
	Stroke       float64
}

// OnOutline reports whether an offset from the center lies within Stroke
// of the ellipse's edge, inside it.
func (e Ellipse) OnOutline(dx, dy float64) bool {
	if !e.Inside(dx, dy) {
		return false
	}
	ia, ib := e.SemiX-e.Stroke, e.SemiY-e.Stroke
	return (dx*dx)/(ia*ia)+(dy*dy)/(ib*ib) >= 1
}

// Inside reports whether an offset from the center lies inside the ellipse.
func (e Ellipse) Inside(dx, dy float64) bool {
	return (dx*dx)/(e.SemiX*e.SemiX)+(dy*dy)/(e.SemiY*e.SemiY) <= 1
}
