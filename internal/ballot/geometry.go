package ballot

import (
	"math"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// AspectRatioTolerance is the largest difference between an image's aspect
// ratio and a canvas's for the canvas to be selected.
const AspectRatioTolerance = 0.05

// Geometry holds the layout constants of one paper size at one resolution.
// It is selected once per page and shared read-only.
type Geometry struct {
	PaperSize                   PaperSize                        `json:"paper_size"`
	PixelsPerInch               int                              `json:"pixels_per_inch"`
	CanvasSize                  geometry.Size[geometry.Inch]     `json:"canvas_size"`
	ContentArea                 geometry.Rect                    `json:"content_area"`
	TimingMarkSize              geometry.Size[geometry.Inch]     `json:"timing_mark_size"`
	TimingMarkVerticalSpacing   geometry.Inch                    `json:"timing_mark_vertical_spacing"`
	TimingMarkHorizontalSpacing geometry.Inch                    `json:"timing_mark_horizontal_spacing"`
	GridSize                    geometry.Size[geometry.GridUnit] `json:"grid_size"`
	OvalSize                    geometry.Size[geometry.Inch]     `json:"oval_size"`
}

func (g Geometry) ppi() geometry.SubPixel { return geometry.SubPixel(g.PixelsPerInch) }

// CanvasPixels is the expected image size.
func (g Geometry) CanvasPixels() geometry.Size[geometry.Pixel] {
	return geometry.Size[geometry.Pixel]{
		Width:  g.CanvasSize.Width.Pixels(g.ppi()).Round(),
		Height: g.CanvasSize.Height.Pixels(g.ppi()).Round(),
	}
}

// TimingMarkPixels is the expected timing mark size.
func (g Geometry) TimingMarkPixels() geometry.Size[geometry.SubPixel] {
	return geometry.Size[geometry.SubPixel]{
		Width:  g.TimingMarkSize.Width.Pixels(g.ppi()),
		Height: g.TimingMarkSize.Height.Pixels(g.ppi()),
	}
}

// OvalPixels is the expected oval size.
func (g Geometry) OvalPixels() geometry.Size[geometry.SubPixel] {
	return geometry.Size[geometry.SubPixel]{
		Width:  g.OvalSize.Width.Pixels(g.ppi()),
		Height: g.OvalSize.Height.Pixels(g.ppi()),
	}
}

// HorizontalPitch is the center-to-center distance of neighboring marks on
// the top and bottom borders.
func (g Geometry) HorizontalPitch() geometry.SubPixel {
	return (g.TimingMarkHorizontalSpacing + g.TimingMarkSize.Width).Pixels(g.ppi())
}

// VerticalPitch is the center-to-center distance of neighboring marks on
// the left and right borders.
func (g Geometry) VerticalPitch() geometry.SubPixel {
	return (g.TimingMarkVerticalSpacing + g.TimingMarkSize.Height).Pixels(g.ppi())
}

// Columns is the number of marks on the top and bottom borders.
func (g Geometry) Columns() int { return int(g.GridSize.Width) }

// Rows is the number of marks on the left and right borders.
func (g Geometry) Rows() int { return int(g.GridSize.Height) }

// MarkCenter is where the timing marks for column and row would cross on a
// perfectly aligned scan.
func (g Geometry) MarkCenter(column, row geometry.GridUnit) geometry.Point[geometry.SubPixel] {
	mark := g.TimingMarkPixels()
	return geometry.Point[geometry.SubPixel]{
		X: geometry.SubPixel(g.ContentArea.Left) + (mark.Width-1)/2 + geometry.SubPixel(column)*g.HorizontalPitch(),
		Y: geometry.SubPixel(g.ContentArea.Top) + (mark.Height-1)/2 + geometry.SubPixel(row)*g.VerticalPitch(),
	}
}

// GeometryForImageSize picks the candidate whose canvas aspect ratio is
// closest to size's, provided it is within AspectRatioTolerance.
func GeometryForImageSize(size geometry.Size[geometry.Pixel], candidates []PaperInfo) (Geometry, bool) {
	if size.Width <= 0 || size.Height <= 0 {
		return Geometry{}, false
	}
	ratio := size.AspectRatio()
	best := -1
	bestDelta := math.Inf(1)
	var geometries []Geometry
	for i, info := range candidates {
		g := info.Geometry()
		geometries = append(geometries, g)
		delta := math.Abs(g.CanvasSize.AspectRatio() - ratio)
		if delta <= AspectRatioTolerance && delta < bestDelta {
			best, bestDelta = i, delta
		}
	}
	if best < 0 {
		return Geometry{}, false
	}
	return geometries[best], true
}
