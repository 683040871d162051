package timingmarks

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/detection"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

const (
	minMarkFill          = 0.5
	minSizeRatio         = 0.75
	minClippedSizeRatio  = 0.2
	maxSizeRatio         = 1.5
	maxShapeAreaMultiple = 4
)

// searchRegions are the bands within inset of each image edge.
func searchRegions(size geometry.Size[geometry.Pixel], inset geometry.Pixel) []geometry.Rect {
	w, h := size.Width, size.Height
	inset = min(inset, w, h)
	return []geometry.Rect{
		geometry.NewRect(0, 0, w, inset),
		geometry.NewRect(0, h-inset, w, inset),
		geometry.NewRect(0, 0, inset, h),
		geometry.NewRect(w-inset, 0, inset, h),
	}
}

// markFilter accepts shapes sized like a timing mark. A shape touching the
// image edge may have been cut off by the scanner, so its size along that
// axis only has to reach a fraction of a full mark.
func markFilter(size geometry.Size[geometry.Pixel], mark geometry.Size[geometry.SubPixel]) detection.Filter {
	maxSize := geometry.Size[geometry.SubPixel]{Width: mark.Width * maxSizeRatio, Height: mark.Height * maxSizeRatio}
	nearX := mark.Width.Round()
	nearY := mark.Height.Round()

	return func(s detection.Shape) bool {
		wRatio, hRatio := geometry.SubPixel(minSizeRatio), geometry.SubPixel(minSizeRatio)
		if s.Bounds.Left < nearX || s.Bounds.Right() >= size.Width-nearX {
			wRatio = minClippedSizeRatio
		}
		if s.Bounds.Top < nearY || s.Bounds.Bottom() >= size.Height-nearY {
			hRatio = minClippedSizeRatio
		}
		minSize := geometry.Size[geometry.SubPixel]{Width: mark.Width * wRatio, Height: mark.Height * hRatio}
		return detection.SizeFilter(minSize, maxSize, minMarkFill)(s)
	}
}

// findShapes runs the shape stage.
func findShapes(img *ballot.Image, g ballot.Geometry, inset geometry.Pixel) []detection.Shape {
	mark := g.TimingMarkPixels()
	maxPixels := int(math.Ceil(mark.Area() * maxShapeAreaMultiple))
	return detection.FindShapes(img, searchRegions(img.Size(), inset), maxPixels, markFilter(img.Size(), mark))
}

// expectedRect is the full-size mark rectangle a detected shape stands
// for. A shape cut off at the left or top image edge is anchored at its
// opposite side.
func expectedRect(shape geometry.Rect, mark geometry.Size[geometry.SubPixel]) geometry.Rect {
	w, h := mark.Width.Round(), mark.Height.Round()
	left, top := shape.Left, shape.Top
	if shape.Left <= 0 {
		left = shape.Right() - w + 1
	}
	if shape.Top <= 0 {
		top = shape.Bottom() - h + 1
	}
	return geometry.NewRect(left, top, w, h)
}

// markCenter is the center of the mark a detected rectangle stands for.
func markCenter(r geometry.Rect, size geometry.Size[geometry.Pixel], mark geometry.Size[geometry.SubPixel]) geometry.Point[geometry.SubPixel] {
	if r.Left > 0 && r.Top > 0 && r.Right() < size.Width-1 && r.Bottom() < size.Height-1 {
		return r.Center()
	}
	return expectedRect(r, mark).Center()
}

// ScoreRect measures how much the image around rect looks like a timing
// mark: dark inside the expected rectangle and light in a band one mark
// height wide around it. Pixels outside the image are ignored.
func ScoreRect(img *ballot.Image, g ballot.Geometry, rect geometry.Rect) Score {
	mark := g.TimingMarkPixels()
	inner := expectedRect(rect, mark)
	pad := mark.Height.Round()
	outer := geometry.NewRect(inner.Left-pad, inner.Top-pad, inner.Width+2*pad, inner.Height+2*pad)

	var markTotal, markDark, padTotal, padLight int
	for y := outer.Top; y <= outer.Bottom(); y++ {
		for x := outer.Left; x <= outer.Right(); x++ {
			if !img.InBounds(int(x), int(y)) {
				continue
			}
			dark := img.IsForeground(int(x), int(y))
			if inner.Contains(geometry.Pt(x, y)) {
				markTotal++
				if dark {
					markDark++
				}
				continue
			}
			padTotal++
			if !dark {
				padLight++
			}
		}
	}

	var s Score
	if markTotal > 0 {
		s.Mark = float64(markDark) / float64(markTotal)
	}
	if padTotal > 0 {
		s.Padding = float64(padLight) / float64(padTotal)
	}
	return s
}

// scoreShapes runs the candidate stage, scoring shapes in parallel.
func scoreShapes(img *ballot.Image, g ballot.Geometry, shapes []detection.Shape) []Candidate {
	candidates := make([]Candidate, len(shapes))
	size, mark := img.Size(), g.TimingMarkPixels()
	parallel.Line(len(shapes), func(start, end int) {
		for i := start; i < end; i++ {
			r := shapes[i].Bounds
			candidates[i] = Candidate{
				Rect:   r,
				Center: markCenter(r, size, mark),
				Score:  ScoreRect(img, g, r),
			}
		}
	})
	return candidates
}

// bucketByBorder assigns each candidate to every edge band its center lies
// in; corner marks belong to two.
func bucketByBorder(candidates []Candidate, size geometry.Size[geometry.Pixel], inset geometry.Pixel) map[Border][]Candidate {
	buckets := make(map[Border][]Candidate, len(Borders))
	in := geometry.SubPixel(inset)
	maxX := geometry.SubPixel(size.Width-1) - in
	maxY := geometry.SubPixel(size.Height-1) - in
	for _, c := range candidates {
		p := c.Center
		if p.Y < in {
			buckets[Top] = append(buckets[Top], c)
		}
		if p.Y > maxY {
			buckets[Bottom] = append(buckets[Bottom], c)
		}
		if p.X < in {
			buckets[Left] = append(buckets[Left], c)
		}
		if p.X > maxX {
			buckets[Right] = append(buckets[Right], c)
		}
	}
	return buckets
}

// dropSizeOutliers removes candidates whose width or height is more than
// sigmas standard deviations from the mean of the group.
func dropSizeOutliers(candidates []Candidate, sigmas float64) []Candidate {
	if len(candidates) < 3 || sigmas <= 0 {
		return candidates
	}
	widths := make([]float64, len(candidates))
	heights := make([]float64, len(candidates))
	for i, c := range candidates {
		widths[i] = float64(c.Rect.Width)
		heights[i] = float64(c.Rect.Height)
	}
	wMean, wStd := stat.MeanStdDev(widths, nil)
	hMean, hStd := stat.MeanStdDev(heights, nil)

	outlier := func(v, mean, std float64) bool {
		return std > 0 && math.Abs(v-mean) > sigmas*std
	}
	kept := candidates[:0:0]
	for i, c := range candidates {
		if outlier(widths[i], wMean, wStd) || outlier(heights[i], hMean, hStd) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
