package scoring

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// ErrEmptyTemplate is returned for a template image with no outline.
var ErrEmptyTemplate = errors.New("oval template has no dark pixels")

// OvalStroke is the outline width of the built-in template, in pixels.
const OvalStroke = 2.0

// Template is a binarized oval outline and the interior it encloses.
type Template struct {
	gray     *image.Gray
	interior []bool
	area     int
}

// DefaultTemplate draws an oval outline of the given size.
func DefaultTemplate(size geometry.Size[geometry.SubPixel]) *Template {
	w, h := int(size.Width.Round()), int(size.Height.Round())
	gray := image.NewGray(image.Rect(0, 0, w, h))
	e := geometry.Ellipse{SemiX: float64(size.Width) / 2, SemiY: float64(size.Height) / 2, Stroke: OvalStroke}
	cx, cy := float64(w-1)/2, float64(h-1)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255)
			if e.OnOutline(float64(x)-cx, float64(y)-cy) {
				v = 0
			}
			gray.Pix[y*gray.Stride+x] = v
		}
	}
	return newTemplate(gray)
}

// NewTemplate binarizes an image of an empty oval.
func NewTemplate(src image.Image) (*Template, error) {
	gray := ballot.ToGray(src)
	t := newTemplate(ballot.Binarize(gray, ballot.OtsuLevel(gray)))
	dark := 0
	for _, v := range t.gray.Pix {
		if v == 0 {
			dark++
		}
	}
	if dark == 0 {
		return nil, ErrEmptyTemplate
	}
	return t, nil
}

// LoadTemplate reads a template image file.
func LoadTemplate(path string) (*Template, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open oval template: %w", err)
	}
	return NewTemplate(img)
}

func newTemplate(gray *image.Gray) *Template {
	t := &Template{gray: gray}
	t.interior = interiorMask(gray)
	for _, in := range t.interior {
		if in {
			t.area++
		}
	}
	return t
}

// Width and Height are the template's pixel size.
func (t *Template) Width() int  { return t.gray.Rect.Dx() }
func (t *Template) Height() int { return t.gray.Rect.Dy() }

// Image is the binarized template.
func (t *Template) Image() *image.Gray { return t.gray }

// InteriorArea is the number of pixels counted by the fill score.
func (t *Template) InteriorArea() int { return t.area }

func (t *Template) at(x, y int) uint8 { return t.gray.Pix[y*t.gray.Stride+x] }

func (t *Template) inside(x, y int) bool { return t.interior[y*t.Width()+x] }

// interiorMask marks the light pixels the outline encloses: those not
// 4-connected to the image edge through light pixels, less a one pixel
// margin along the outline.
func interiorMask(gray *image.Gray) []bool {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	light := func(x, y int) bool { return gray.Pix[y*gray.Stride+x] != 0 }

	outside := make([]bool, w*h)
	var stack []image.Point
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= w || y >= h || outside[y*w+x] || !light(x, y) {
			return
		}
		outside[y*w+x] = true
		stack = append(stack, image.Pt(x, y))
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}

	enclosed := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && light(x, y) && !outside[y*w+x]
	}
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask[y*w+x] = enclosed(x, y) &&
				enclosed(x+1, y) && enclosed(x-1, y) && enclosed(x, y+1) && enclosed(x, y-1)
		}
	}
	return mask
}
