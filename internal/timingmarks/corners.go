package timingmarks

import (
	"errors"
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

type borderLines map[Border]borderLine

// cornerEnds names the borders meeting at a corner and which end of each
// the corner sits on.
type cornerEnds struct {
	horizontal, vertical Border
	horizontalLast       bool
	verticalLast         bool
}

var cornerLayout = map[Corner]cornerEnds{
	TopLeft:     {horizontal: Top, vertical: Left},
	TopRight:    {horizontal: Top, vertical: Right, horizontalLast: true},
	BottomLeft:  {horizontal: Bottom, vertical: Left, verticalLast: true},
	BottomRight: {horizontal: Bottom, vertical: Right, horizontalLast: true, verticalLast: true},
}

func end(l borderLine, last bool) Candidate {
	if last {
		return l.last()
	}
	return l.first()
}

// findCorners locates each corner where the runs of its two borders end on
// the same candidate. The corner point is where the fitted lines cross.
// Every missing corner is reported.
func findCorners(lines borderLines, size geometry.Size[geometry.Pixel], opts Options) (CornerPoints, error) {
	var points CornerPoints
	var errs []error
	for _, corner := range Corners {
		layout := cornerLayout[corner]
		h, v := lines[layout.horizontal], lines[layout.vertical]

		if h.empty() || v.empty() {
			errs = append(errs, &CornerError{Corner: corner, Reason: "border not found"})
			continue
		}
		hc, vc := end(h, layout.horizontalLast), end(v, layout.verticalLast)
		if hc.Rect != vc.Rect {
			errs = append(errs, &CornerError{Corner: corner, Reason: "borders do not meet"})
			continue
		}
		if hc.Score.Mark < opts.MinCornerMarkScore || hc.Score.Padding < opts.MinCornerPaddingScore {
			errs = append(errs, &CornerError{
				Corner: corner,
				Reason: fmt.Sprintf("mark score %.2f, padding score %.2f", hc.Score.Mark, hc.Score.Padding),
			})
			continue
		}

		p := hc.Center
		if len(h.marks) > 1 && len(v.marks) > 1 {
			if crossing, ok := h.segment(size).Intersection(v.segment(size), false); ok {
				p = crossing
			}
		}
		points.set(corner, p)
	}
	return points, errors.Join(errs...)
}

// rotate180 maps corner points onto the upside-down page.
func (c CornerPoints) rotate180(rot geometry.Rotator180) CornerPoints {
	var out CornerPoints
	for _, corner := range Corners {
		out.set(corner.opposite(), rot.Point(c.Get(corner)))
	}
	return out
}
