package detection

import (
	"sort"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Shape is an 8-connected region of foreground pixels.
type Shape struct {
	// Bounds is the bounding box of the region.
	Bounds geometry.Rect `json:"bounds"`

	// Pixels is the number of foreground pixels in the region.
	Pixels int `json:"pixels"`
}

// Center is the center of the bounding box.
func (s Shape) Center() geometry.Point[geometry.SubPixel] {
	return s.Bounds.Center()
}

// FillRatio is the share of the bounding box covered by the region. A solid
// rectangle scores 1.
func (s Shape) FillRatio() float64 {
	if s.Bounds.Empty() {
		return 0
	}
	return float64(s.Pixels) / float64(s.Bounds.Area())
}

// Filter decides whether a shape is kept.
type Filter func(Shape) bool

// SizeFilter accepts shapes whose bounding box lies between minSize and
// maxSize in both dimensions and that fill at least minFill of it.
func SizeFilter(minSize, maxSize geometry.Size[geometry.SubPixel], minFill float64) Filter {
	return func(s Shape) bool {
		w, h := geometry.SubPixel(s.Bounds.Width), geometry.SubPixel(s.Bounds.Height)
		return w >= minSize.Width && w <= maxSize.Width &&
			h >= minSize.Height && h <= maxSize.Height &&
			s.FillRatio() >= minFill
	}
}

// FindShapes returns the foreground regions seeded inside any of regions,
// ordered top to bottom then left to right. Regions with more than
// maxPixels pixels are dropped, as are those filter rejects. A nil filter
// keeps everything.
func FindShapes(img *ballot.Image, regions []geometry.Rect, maxPixels int, filter Filter) []Shape {
	w, h := img.Width(), img.Height()
	visited := make([]bool, w*h)
	var shapes []Shape

	for _, region := range regions {
		r, ok := region.Intersect(img.Bounds())
		if !ok {
			continue
		}
		for y := int(r.Top); y <= int(r.Bottom()); y++ {
			for x := int(r.Left); x <= int(r.Right()); x++ {
				if visited[y*w+x] || !img.IsForeground(x, y) {
					continue
				}
				shape, ok := floodFill(img, visited, x, y, maxPixels)
				if !ok {
					continue
				}
				if filter == nil || filter(shape) {
					shapes = append(shapes, shape)
				}
			}
		}
	}

	sort.Slice(shapes, func(i, j int) bool {
		a, b := shapes[i].Bounds, shapes[j].Bounds
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
	return shapes
}

// floodFill marks the region containing (startX, startY) as visited and
// measures it. The whole region is always visited so that it is not seeded
// again; ok is false when it exceeded maxPixels.
//
// Uses an explicit stack rather than recursion so large regions cannot
// overflow the goroutine stack.
func floodFill(img *ballot.Image, visited []bool, startX, startY, maxPixels int) (Shape, bool) {
	w, h := img.Width(), img.Height()
	stack := []geometry.Point[geometry.Pixel]{{X: geometry.Pixel(startX), Y: geometry.Pixel(startY)}}
	visited[startY*w+startX] = true

	minX, minY, maxX, maxY := startX, startY, startX, startY
	count := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := int(p.X), int(p.Y)
		count++
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				i := ny*w + nx
				if visited[i] || !img.IsForeground(nx, ny) {
					continue
				}
				visited[i] = true
				stack = append(stack, geometry.Point[geometry.Pixel]{X: geometry.Pixel(nx), Y: geometry.Pixel(ny)})
			}
		}
	}

	shape := Shape{
		Bounds: geometry.RectFromPoints(
			geometry.Point[geometry.Pixel]{X: geometry.Pixel(minX), Y: geometry.Pixel(minY)},
			geometry.Point[geometry.Pixel]{X: geometry.Pixel(maxX), Y: geometry.Pixel(maxY)},
		),
		Pixels: count,
	}
	return shape, maxPixels <= 0 || count <= maxPixels
}
