package ballot

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

var (
	// ErrBorderInsetNotFound is returned when no row or column of an image
	// is light enough to be paper.
	ErrBorderInsetNotFound = errors.New("could not find the paper inside the scanned image")

	// ErrUnexpectedDimensions is returned when no paper size matches an
	// image's aspect ratio.
	ErrUnexpectedDimensions = errors.New("image dimensions match no supported paper size")
)

// DimensionsError reports the size of an image no paper size matched.
type DimensionsError struct {
	Label string
	Size  geometry.Size[geometry.Pixel]
}

func (e *DimensionsError) Error() string {
	return fmt.Sprintf("%s: %v: %dx%d", e.Label, ErrUnexpectedDimensions, e.Size.Width, e.Size.Height)
}

func (e *DimensionsError) Unwrap() error { return ErrUnexpectedDimensions }

// CropBorderRatio is the share of pixels in an edge row or column that must
// be lighter than the threshold for the row or column to count as paper.
const CropBorderRatio = 0.1

// Inset is the number of pixels cropped from each edge.
type Inset struct {
	Top    geometry.Pixel `json:"top"`
	Bottom geometry.Pixel `json:"bottom"`
	Left   geometry.Pixel `json:"left"`
	Right  geometry.Pixel `json:"right"`
}

// IsZero reports whether nothing was cropped.
func (i Inset) IsZero() bool { return i == Inset{} }

// Rotate180 swaps opposite edges.
func (i Inset) Rotate180() Inset {
	return Inset{Top: i.Bottom, Bottom: i.Top, Left: i.Right, Right: i.Left}
}

// Image is a grayscale scan with a binarization threshold. A pixel is
// foreground when its luma is at or below the threshold, so a threshold of
// zero still treats pure black as foreground.
type Image struct {
	gray      *image.Gray
	threshold uint8
	inset     Inset
}

// NewImage converts src to grayscale, crops the dark border outside the
// paper and computes the Otsu threshold of what remains.
func NewImage(src image.Image) (*Image, error) {
	gray := ToGray(src)
	threshold := OtsuLevel(gray)
	inset, ok := FindInset(gray, threshold, CropBorderRatio)
	if !ok {
		return nil, ErrBorderInsetNotFound
	}
	if inset.IsZero() {
		return &Image{gray: gray, threshold: threshold}, nil
	}

	b := gray.Bounds()
	crop := image.Rect(
		b.Min.X+int(inset.Left),
		b.Min.Y+int(inset.Top),
		b.Max.X-int(inset.Right),
		b.Max.Y-int(inset.Bottom),
	)
	cropped := ToGray(gray.SubImage(crop))
	// cropping changes the histogram, so threshold again
	return &Image{gray: cropped, threshold: OtsuLevel(cropped), inset: inset}, nil
}

// NewImageWithThreshold wraps an already-prepared image with a caller
// supplied threshold. Nothing is cropped.
func NewImageWithThreshold(src image.Image, threshold uint8) *Image {
	return &Image{gray: ToGray(src), threshold: threshold}
}

// ToGray copies src into a zero-origin 8-bit grayscale image.
func ToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	default:
		draw.Draw(dst, dst.Bounds(), imaging.Grayscale(src), image.Point{}, draw.Src)
	}
	return dst
}

// OtsuLevel computes the threshold maximizing the between-class variance of
// the image histogram. Ties keep the lowest level.
func OtsuLevel(gray *image.Gray) uint8 {
	hist := histogram.NewRGBAHistogram(gray).R.Bins
	b := gray.Bounds()
	total := b.Dx() * b.Dy()

	var totalIntensity float64
	for level, count := range hist {
		totalIntensity += float64(level * count)
	}

	var (
		background    int
		sumIntensity  float64
		bestVariance  float64
		bestThreshold int
	)
	for level, count := range hist {
		background += count
		if background == 0 {
			continue
		}
		foreground := total - background
		if foreground == 0 {
			break
		}
		sumIntensity += float64(level * count)
		meanBackground := sumIntensity / float64(background)
		meanForeground := (totalIntensity - sumIntensity) / float64(foreground)
		diff := meanBackground - meanForeground
		variance := float64(background) * float64(foreground) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestThreshold = level
		}
	}
	return uint8(bestThreshold)
}

// FindInset finds the first and last rows and columns in which more than
// ratio of the pixels are lighter than threshold.
func FindInset(gray *image.Gray, threshold uint8, ratio float64) (Inset, bool) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Inset{}, false
	}
	rowLimit := int(float64(w) * ratio)
	colLimit := int(float64(h) * ratio)

	rowIsPaper := func(y int) bool {
		n := 0
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, v := range row {
			if v > threshold {
				n++
			}
		}
		return n > rowLimit
	}
	colIsPaper := func(x int) bool {
		n := 0
		for y := 0; y < h; y++ {
			if gray.Pix[y*gray.Stride+x] > threshold {
				n++
			}
		}
		return n > colLimit
	}

	top, bottom, left, right := -1, -1, -1, -1
	for y := 0; y < h && top < 0; y++ {
		if rowIsPaper(y) {
			top = y
		}
	}
	for y := h - 1; y >= 0 && bottom < 0; y-- {
		if rowIsPaper(y) {
			bottom = y
		}
	}
	for x := 0; x < w && left < 0; x++ {
		if colIsPaper(x) {
			left = x
		}
	}
	for x := w - 1; x >= 0 && right < 0; x-- {
		if colIsPaper(x) {
			right = x
		}
	}
	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return Inset{}, false
	}
	return Inset{
		Top:    geometry.Pixel(top),
		Bottom: geometry.Pixel(h - 1 - bottom),
		Left:   geometry.Pixel(left),
		Right:  geometry.Pixel(w - 1 - right),
	}, true
}

// Gray is the underlying pixel buffer. It must not be modified.
func (m *Image) Gray() *image.Gray { return m.gray }

func (m *Image) Threshold() uint8 { return m.threshold }

// Inset is what NewImage cropped off.
func (m *Image) Inset() Inset { return m.inset }

func (m *Image) Width() int  { return m.gray.Rect.Dx() }
func (m *Image) Height() int { return m.gray.Rect.Dy() }

func (m *Image) Size() geometry.Size[geometry.Pixel] {
	return geometry.Size[geometry.Pixel]{Width: geometry.Pixel(m.Width()), Height: geometry.Pixel(m.Height())}
}

// Bounds is the whole image as an inclusive rectangle.
func (m *Image) Bounds() geometry.Rect {
	return geometry.NewRect(0, 0, geometry.Pixel(m.Width()), geometry.Pixel(m.Height()))
}

// Luma returns the gray value at (x, y), which must be in bounds.
func (m *Image) Luma(x, y int) uint8 {
	return m.gray.Pix[y*m.gray.Stride+x]
}

// InBounds reports whether (x, y) is a pixel of the image.
func (m *Image) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width() && y < m.Height()
}

// IsForeground reports whether (x, y) is dark. Out-of-bounds pixels are
// background.
func (m *Image) IsForeground(x, y int) bool {
	return m.InBounds(x, y) && m.Luma(x, y) <= m.threshold
}

// ForegroundRatio is the share of in-bounds pixels of r that are
// foreground. It is zero when r lies entirely outside the image.
func (m *Image) ForegroundRatio(r geometry.Rect) float64 {
	clipped, ok := r.Intersect(m.Bounds())
	if !ok {
		return 0
	}
	n := 0
	for y := int(clipped.Top); y <= int(clipped.Bottom()); y++ {
		for x := int(clipped.Left); x <= int(clipped.Right()); x++ {
			if m.Luma(x, y) <= m.threshold {
				n++
			}
		}
	}
	return float64(n) / float64(clipped.Area())
}

// Binarized renders foreground black and background white.
func (m *Image) Binarized() *image.Gray {
	return Binarize(m.gray, m.threshold)
}

// Binarize maps luma at or below threshold to 0 and everything else to 255,
// the same split IsForeground makes.
func Binarize(src image.Image, threshold uint8) *image.Gray {
	gray := ToGray(src)
	dst := image.NewGray(gray.Rect)
	for y := 0; y < gray.Rect.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+gray.Rect.Dx()]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+dst.Rect.Dx()]
		for x, v := range row {
			if v > threshold {
				out[x] = 255
			}
		}
	}
	return dst
}

// WithThreshold returns a copy sharing pixels with a different threshold.
func (m *Image) WithThreshold(threshold uint8) *Image {
	return &Image{gray: m.gray, threshold: threshold, inset: m.inset}
}

// ClampThreshold limits the threshold to [lo, hi], useful when Otsu picks an
// extreme level on a nearly uniform image.
func (m *Image) ClampThreshold(lo, hi uint8) *Image {
	return m.WithThreshold(min(max(m.threshold, lo), hi))
}

// Rotate180 turns the image upside down. The threshold is unchanged since
// the histogram is.
func (m *Image) Rotate180() *Image {
	return &Image{gray: ToGray(imaging.Rotate180(m.gray)), threshold: m.threshold, inset: m.inset.Rotate180()}
}

// Resize scales the image to size and recomputes the threshold.
func (m *Image) Resize(size geometry.Size[geometry.Pixel]) *Image {
	if size == m.Size() {
		return m
	}
	resized := ToGray(imaging.Resize(m.gray, int(size.Width), int(size.Height), imaging.Lanczos))
	return &Image{gray: resized, threshold: OtsuLevel(resized), inset: m.inset}
}

// Crop copies the part of the image inside r, clipped to the image.
func (m *Image) Crop(r geometry.Rect) *image.Gray {
	return ToGray(imaging.Crop(m.gray, r.ImageRect()))
}
