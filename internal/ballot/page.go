package ballot

import (
	"fmt"
	"image"
)

// Side is one face of a ballot card.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Sides lists both faces in interpretation order.
var Sides = [2]Side{SideFront, SideBack}

// Orientation is how a page was fed through the scanner.
type Orientation string

const (
	Portrait         Orientation = "portrait"
	PortraitReversed Orientation = "portrait-reversed"
)

// Page is a prepared page and the geometry selected for it.
type Page struct {
	Label    string
	Image    *Image
	Geometry Geometry
}

// PreparePage crops, measures and, when needed, resizes src so that its
// pixel size equals the selected geometry's canvas.
func PreparePage(label string, src image.Image, candidates []PaperInfo) (*Page, error) {
	img, err := NewImage(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	g, ok := GeometryForImageSize(img.Size(), candidates)
	if !ok {
		return nil, &DimensionsError{Label: label, Size: img.Size()}
	}
	return &Page{Label: label, Image: img.Resize(g.CanvasPixels()), Geometry: g}, nil
}
