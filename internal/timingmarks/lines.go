package timingmarks

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// borderLine is the run of candidates found along one edge, ordered left to
// right or top to bottom, with a least-squares fit through their centers.
// Horizontal borders fit y = alpha + beta*x, vertical ones x = alpha + beta*y.
type borderLine struct {
	border Border
	marks  []Candidate
	alpha  float64
	beta   float64
}

func (b Border) horizontal() bool { return b == Top || b == Bottom }

func (l borderLine) empty() bool { return len(l.marks) == 0 }

func (l borderLine) first() Candidate { return l.marks[0] }

func (l borderLine) last() Candidate { return l.marks[len(l.marks)-1] }

// segment spans the fitted line across an image of the given size.
func (l borderLine) segment(size geometry.Size[geometry.Pixel]) geometry.Segment {
	if l.border.horizontal() {
		w := float64(size.Width - 1)
		return geometry.Seg(
			geometry.Pt(geometry.SubPixel(0), geometry.SubPixel(l.alpha)),
			geometry.Pt(geometry.SubPixel(w), geometry.SubPixel(l.alpha+l.beta*w)),
		)
	}
	h := float64(size.Height - 1)
	return geometry.Seg(
		geometry.Pt(geometry.SubPixel(l.alpha), geometry.SubPixel(0)),
		geometry.Pt(geometry.SubPixel(l.alpha+l.beta*h), geometry.SubPixel(h)),
	)
}

// fitLine orders marks along the border and fits a line through them.
func fitLine(border Border, marks []Candidate) borderLine {
	line := borderLine{border: border, marks: slices.Clone(marks)}
	if border.horizontal() {
		slices.SortFunc(line.marks, func(a, b Candidate) int { return cmpSub(a.Center.X, b.Center.X) })
	} else {
		slices.SortFunc(line.marks, func(a, b Candidate) int { return cmpSub(a.Center.Y, b.Center.Y) })
	}
	if len(line.marks) < 2 {
		return line
	}
	along := make([]float64, len(line.marks))
	across := make([]float64, len(line.marks))
	for i, c := range line.marks {
		if border.horizontal() {
			along[i], across[i] = float64(c.Center.X), float64(c.Center.Y)
		} else {
			along[i], across[i] = float64(c.Center.Y), float64(c.Center.X)
		}
	}
	line.alpha, line.beta = stat.LinearRegression(along, across, nil, false)
	return line
}

func cmpSub(a, b geometry.SubPixel) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// findBorderLine picks the largest set of candidates whose centers lie
// within tolerance of a line through two of them, where that line is at
// most maxAngle away from the border's axis. Ties go to the set lying
// closest to the border's image edge.
func findBorderLine(border Border, candidates []Candidate, maxAngle geometry.Radians, tolerance float64) borderLine {
	axis := geometry.Radians(0)
	if !border.horizontal() {
		axis = math.Pi / 2
	}

	var best []Candidate
	bestExtent := math.Inf(-1)
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			seg := geometry.Seg(candidates[i].Center, candidates[j].Center)
			if seg.Length() == 0 || !seg.Angle().Near(axis, maxAngle) {
				continue
			}
			var inliers []Candidate
			for _, c := range candidates {
				if seg.DistanceToPoint(c.Center) <= tolerance {
					inliers = append(inliers, c)
				}
			}
			extent := edgeward(border, inliers)
			if len(inliers) > len(best) || (len(inliers) == len(best) && extent > bestExtent) {
				best, bestExtent = inliers, extent
			}
		}
	}
	return fitLine(border, best)
}

// edgeward grows as the candidates' mean center moves toward the border's
// image edge.
func edgeward(border Border, marks []Candidate) float64 {
	var sum float64
	for _, c := range marks {
		switch border {
		case Top:
			sum -= float64(c.Center.Y)
		case Bottom:
			sum += float64(c.Center.Y)
		case Left:
			sum -= float64(c.Center.X)
		case Right:
			sum += float64(c.Center.X)
		}
	}
	return sum / float64(len(marks))
}

// rotate180 maps the line onto the upside-down page, where it becomes the
// opposite border.
func (l borderLine) rotate180(rot geometry.Rotator180) borderLine {
	marks := make([]Candidate, len(l.marks))
	for i, c := range l.marks {
		marks[i] = Candidate{Rect: rot.Rect(c.Rect), Center: rot.Point(c.Center), Score: c.Score}
	}
	return fitLine(l.border.opposite(), marks)
}

func (b Border) opposite() Border {
	switch b {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	default:
		return Left
	}
}
