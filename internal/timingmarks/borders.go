package timingmarks

import (
	"math"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// completeBorder walks from start to end in count equal steps. At each
// step the nearest unused candidate within half a step becomes the mark
// and the walk continues one step past it; otherwise a mark is inferred at
// the predicted position.
func completeBorder(img *ballot.Image, g ballot.Geometry, line borderLine, start, finish geometry.Point[geometry.SubPixel], count int) ([]Mark, int, error) {
	if count < 2 {
		return nil, 0, &BorderError{Border: line.border, Expected: count, Reason: "geometry has fewer than two marks"}
	}
	markSize := g.TimingMarkPixels()
	step := finish.Sub(start).Scale(1 / float64(count-1))
	maxErr := step.Length() / 2

	used := make([]bool, len(line.marks))
	marks := make([]Mark, 0, count)
	found := 0
	pos := start
	for range count {
		best, bestDist := -1, maxErr
		for k, c := range line.marks {
			if used[k] {
				continue
			}
			if d := c.Center.Distance(pos); d <= bestDist {
				best, bestDist = k, d
			}
		}

		if best < 0 {
			r := geometry.RectCenteredAt(pos, markSize)
			marks = append(marks, Mark{Rect: r, Center: pos, Score: ScoreRect(img, g, r), Inferred: true})
			pos = pos.Add(step)
			continue
		}
		used[best] = true
		c := line.marks[best]
		marks = append(marks, Mark{Rect: c.Rect, Center: c.Center, Score: c.Score})
		found++
		pos = c.Center.Add(step)
	}

	if marks[count-1].Center.Distance(finish) > maxErr {
		return nil, found, &BorderError{
			Border:   line.border,
			Expected: count,
			Found:    found,
			Reason:   "marks do not reach the far corner",
		}
	}
	return marks, found, nil
}

// checkBorderCount enforces how many marks of a border must have been found
// rather than inferred. The bottom border encodes metadata in which marks
// are present, so any number is acceptable there.
func checkBorderCount(border Border, expected, found int, opts Options) error {
	if border == Bottom || found == expected {
		return nil
	}
	if !opts.Inference {
		return &BorderError{Border: border, Expected: expected, Found: found, Reason: "inference disabled"}
	}
	need := int(math.Ceil(opts.MinBorderMarkRatio * float64(expected)))
	if found < need {
		return &BorderError{Border: border, Expected: expected, Found: found, Reason: "too few marks to infer the rest"}
	}
	return nil
}
