package timingmarks

import (
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Border is one edge of the page.
type Border string

const (
	Top    Border = "top"
	Bottom Border = "bottom"
	Left   Border = "left"
	Right  Border = "right"
)

// Borders lists every edge.
var Borders = [4]Border{Top, Bottom, Left, Right}

// Corner is where two borders meet.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Corners lists every corner.
var Corners = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

// opposite is the corner a corner turns into when the page is rotated.
func (c Corner) opposite() Corner {
	switch c {
	case TopLeft:
		return BottomRight
	case TopRight:
		return BottomLeft
	case BottomLeft:
		return TopRight
	default:
		return TopLeft
	}
}

// Score measures how well a rectangle matches a printed timing mark.
type Score struct {
	// Mark is the share of the expected mark rectangle that is dark.
	Mark float64 `json:"mark_score"`

	// Padding is the share of the band around the expected rectangle that
	// is light.
	Padding float64 `json:"padding_score"`
}

// Total weighs both parts equally.
func (s Score) Total() float64 { return s.Mark + s.Padding }

// Candidate is a shape that may be a timing mark.
type Candidate struct {
	Rect geometry.Rect `json:"rect"`

	// Center is where the full mark's center would be. For a mark cut off
	// by the image edge it lies off the detected rectangle's center.
	Center geometry.Point[geometry.SubPixel] `json:"center"`

	Score Score `json:"score"`
}

// Mark is one position on a completed border.
type Mark struct {
	Rect     geometry.Rect                     `json:"rect"`
	Center   geometry.Point[geometry.SubPixel] `json:"center"`
	Score    Score                             `json:"score"`
	Inferred bool                              `json:"inferred,omitempty"`
}

// CornerPoints holds the four grid corners.
type CornerPoints struct {
	TopLeft     geometry.Point[geometry.SubPixel] `json:"top_left"`
	TopRight    geometry.Point[geometry.SubPixel] `json:"top_right"`
	BottomLeft  geometry.Point[geometry.SubPixel] `json:"bottom_left"`
	BottomRight geometry.Point[geometry.SubPixel] `json:"bottom_right"`
}

// Get returns the point of one corner.
func (c CornerPoints) Get(corner Corner) geometry.Point[geometry.SubPixel] {
	switch corner {
	case TopLeft:
		return c.TopLeft
	case TopRight:
		return c.TopRight
	case BottomLeft:
		return c.BottomLeft
	default:
		return c.BottomRight
	}
}

func (c *CornerPoints) set(corner Corner, p geometry.Point[geometry.SubPixel]) {
	switch corner {
	case TopLeft:
		c.TopLeft = p
	case TopRight:
		c.TopRight = p
	case BottomLeft:
		c.BottomLeft = p
	default:
		c.BottomRight = p
	}
}
