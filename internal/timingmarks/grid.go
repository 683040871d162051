package timingmarks

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
)

// presenceRatio is the share of a bottom mark's rectangle that must be dark
// for the mark to count as printed.
const presenceRatio = 0.5

// Grid is the completed timing-mark border of one page, in the frame of
// the page after orientation correction.
type Grid struct {
	Geometry    ballot.Geometry    `json:"geometry"`
	Orientation ballot.Orientation `json:"orientation"`
	Corners     CornerPoints       `json:"corners"`
	Top         []Mark             `json:"top"`
	Bottom      []Mark             `json:"bottom"`
	Left        []Mark             `json:"left"`
	Right       []Mark             `json:"right"`
	Skew        Skew               `json:"skew"`
}

// Border returns the marks of one border.
func (g *Grid) Border(b Border) []Mark {
	switch b {
	case Top:
		return g.Top
	case Bottom:
		return g.Bottom
	case Left:
		return g.Left
	default:
		return g.Right
	}
}

// InferredCount is the number of marks that were not found on the page.
// Bottom marks are excluded since most of them are absent on purpose.
func (g *Grid) InferredCount() int {
	n := 0
	for _, b := range []Border{Top, Left, Right} {
		for _, m := range g.Border(b) {
			if m.Inferred {
				n++
			}
		}
	}
	return n
}

// along interpolates between the centers of neighboring marks.
func along(marks []Mark, t geometry.GridUnit) (geometry.Point[geometry.SubPixel], bool) {
	last := geometry.GridUnit(len(marks) - 1)
	if len(marks) == 0 || t < 0 || t > last {
		return geometry.Point[geometry.SubPixel]{}, false
	}
	i := int(math.Floor(float64(t)))
	if i == len(marks)-1 {
		return marks[i].Center, true
	}
	f := float64(t) - float64(i)
	return geometry.Seg(marks[i].Center, marks[i+1].Center).PointAt(f), true
}

// PointForLocation maps a grid coordinate to an image point: the crossing
// of the line joining the left and right border positions for row with the
// line joining the top and bottom border positions for column. Fractional
// coordinates interpolate between neighboring marks. Coordinates off the
// grid have no point.
func (g *Grid) PointForLocation(column, row geometry.GridUnit) (geometry.Point[geometry.SubPixel], bool) {
	left, okL := along(g.Left, row)
	right, okR := along(g.Right, row)
	top, okT := along(g.Top, column)
	bottom, okB := along(g.Bottom, column)
	if !okL || !okR || !okT || !okB {
		return geometry.Point[geometry.SubPixel]{}, false
	}
	return geometry.Seg(left, right).Intersection(geometry.Seg(top, bottom), false)
}

// QuadForArea maps a rectangle of grid coordinates to the image.
func (g *Grid) QuadForArea(x, y, width, height geometry.GridUnit) (geometry.Quadrilateral, bool) {
	var q geometry.Quadrilateral
	var ok [4]bool
	q.TopLeft, ok[0] = g.PointForLocation(x, y)
	q.TopRight, ok[1] = g.PointForLocation(x+width, y)
	q.BottomLeft, ok[2] = g.PointForLocation(x, y+height)
	q.BottomRight, ok[3] = g.PointForLocation(x+width, y+height)
	return q, ok[0] && ok[1] && ok[2] && ok[3]
}

// BottomMarkPresence reports for each bottom border position whether a
// mark is printed there.
func (g *Grid) BottomMarkPresence(img *ballot.Image) []bool {
	size := g.Geometry.TimingMarkPixels()
	present := make([]bool, len(g.Bottom))
	for i, m := range g.Bottom {
		present[i] = img.ForegroundRatio(geometry.RectCenteredAt(m.Center, size)) > presenceRatio
	}
	return present
}

// MetadataBits decodes the bottom border into the metadata bit sequence.
func (g *Grid) MetadataBits(img *ballot.Image) ([]bool, error) {
	return metadata.BitsFromBottomMarks(g.BottomMarkPresence(img))
}

// Skew is the rotation of each border relative to the image axes, in
// degrees. Positive angles turn clockwise.
type Skew struct {
	Top    float64 `json:"top_degrees"`
	Bottom float64 `json:"bottom_degrees"`
	Left   float64 `json:"left_degrees"`
	Right  float64 `json:"right_degrees"`
}

// Mean averages the borders.
func (s Skew) Mean() float64 { return (s.Top + s.Bottom + s.Left + s.Right) / 4 }

// borderSkew fits a line through the found marks of a border.
func borderSkew(b Border, marks []Mark) float64 {
	var along, across []float64
	for _, m := range marks {
		if m.Inferred {
			continue
		}
		if b.horizontal() {
			along = append(along, float64(m.Center.X))
			across = append(across, float64(m.Center.Y))
		} else {
			along = append(along, float64(m.Center.Y))
			across = append(across, float64(m.Center.X))
		}
	}
	if len(along) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(along, across, nil, false)
	if !b.horizontal() {
		beta = -beta
	}
	return geometry.Radians(math.Atan(beta)).Degrees()
}

func (g *Grid) computeSkew() {
	g.Skew = Skew{
		Top:    borderSkew(Top, g.Top),
		Bottom: borderSkew(Bottom, g.Bottom),
		Left:   borderSkew(Left, g.Left),
		Right:  borderSkew(Right, g.Right),
	}
}
