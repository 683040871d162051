package scoring

import (
	"context"
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/debug"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

const (
	DefaultMatchThreshold = 0.95
	DefaultSearchDistance = 2
)

// Locator maps grid coordinates to image points.
type Locator interface {
	PointForLocation(column, row geometry.GridUnit) (geometry.Point[geometry.SubPixel], bool)
	QuadForArea(x, y, width, height geometry.GridUnit) (geometry.Quadrilateral, bool)
}

// OvalScore is the result of scoring one oval.
type OvalScore struct {
	// MatchScore is how closely the window at MatchedBounds resembles the
	// empty template, in [0, 1].
	MatchScore float64 `json:"match_score"`

	// FillScore is the dark share of the oval's interior at MatchedBounds.
	FillScore float64 `json:"fill_score"`

	ExpectedBounds geometry.Rect `json:"expected_bounds"`
	MatchedBounds  geometry.Rect `json:"matched_bounds"`
}

// ScoredPosition pairs a grid position with its score. Score is nil when
// the position does not map into the image.
type ScoredPosition struct {
	Position election.GridPosition `json:"position"`
	Score    *OvalScore            `json:"score"`
}

// Scorer scores ovals against a template.
type Scorer struct {
	template       *Template
	matchThreshold float64
	searchDistance int
	log            logger.Logger
	debug          *debug.Writer
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMatchThreshold sets the match score at which the search stops.
func WithMatchThreshold(threshold float64) Option {
	return func(s *Scorer) { s.matchThreshold = threshold }
}

// WithSearchDistance sets how many pixels around the expected position are
// searched in each direction.
func WithSearchDistance(pixels int) Option {
	return func(s *Scorer) { s.searchDistance = max(pixels, 0) }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDebug renders scored ovals through w.
func WithDebug(w *debug.Writer) Option {
	return func(s *Scorer) { s.debug = w }
}

// NewScorer builds a Scorer for template.
func NewScorer(template *Template, opts ...Option) *Scorer {
	s := &Scorer{
		template:       template,
		matchThreshold: DefaultMatchThreshold,
		searchDistance: DefaultSearchDistance,
		log:            logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Template is the scorer's template.
func (s *Scorer) Template() *Template { return s.template }

// searchOffsets lists offsets within distance of the origin, nearest ring
// first.
func searchOffsets(distance int) []image.Point {
	offsets := []image.Point{{}}
	for r := 1; r <= distance; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) == r {
					offsets = append(offsets, image.Pt(dx, dy))
				}
			}
		}
	}
	return offsets
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ScoreOval scores the oval expected at center on a binarized page. The
// search accepts the first offset, nearest first, whose match reaches the
// threshold, and otherwise the best match seen. It returns nil when center
// is off the image or no window fits inside it.
func (s *Scorer) ScoreOval(binarized *image.Gray, center geometry.Point[geometry.SubPixel]) *OvalScore {
	b := binarized.Bounds()
	if center.X < 0 || center.Y < 0 || int(center.X.Round()) >= b.Dx() || int(center.Y.Round()) >= b.Dy() {
		return nil
	}
	t := s.template
	w, h := t.Width(), t.Height()
	left := int(center.X.Round()) - w/2
	top := int(center.Y.Round()) - h/2
	expected := geometry.NewRect(geometry.Pixel(left), geometry.Pixel(top), geometry.Pixel(w), geometry.Pixel(h))

	var best *OvalScore
	for _, off := range searchOffsets(s.searchDistance) {
		x, y := left+off.X, top+off.Y
		if x < 0 || y < 0 || x+w > b.Dx() || y+h > b.Dy() {
			continue
		}
		match := s.matchAt(binarized, x, y)
		if best == nil || match > best.MatchScore {
			best = &OvalScore{
				MatchScore:     match,
				ExpectedBounds: expected,
				MatchedBounds:  geometry.NewRect(geometry.Pixel(x), geometry.Pixel(y), geometry.Pixel(w), geometry.Pixel(h)),
			}
		}
		if match >= s.matchThreshold {
			break
		}
	}
	if best == nil {
		return nil
	}
	best.FillScore = s.fillAt(binarized, int(best.MatchedBounds.Left), int(best.MatchedBounds.Top))
	return best
}

// matchAt weighs each template pixel by how close the page pixel under it
// is: 255 - |page - template|, normalized over the template area.
func (s *Scorer) matchAt(binarized *image.Gray, x0, y0 int) float64 {
	t := s.template
	var sum int
	for y := 0; y < t.Height(); y++ {
		row := binarized.Pix[(y0+y)*binarized.Stride+x0:]
		for x := 0; x < t.Width(); x++ {
			sum += 255 - abs(int(row[x])-int(t.at(x, y)))
		}
	}
	return float64(sum) / float64(255*t.Width()*t.Height())
}

func (s *Scorer) fillAt(binarized *image.Gray, x0, y0 int) float64 {
	t := s.template
	if t.area == 0 {
		return 0
	}
	dark := 0
	for y := 0; y < t.Height(); y++ {
		row := binarized.Pix[(y0+y)*binarized.Stride+x0:]
		for x := 0; x < t.Width(); x++ {
			if t.inside(x, y) && row[x] == 0 {
				dark++
			}
		}
	}
	return float64(dark) / float64(t.area)
}

// ScorePositions scores every position through the grid, in parallel. The
// result keeps the order of positions.
func (s *Scorer) ScorePositions(ctx context.Context, img *ballot.Image, grid Locator, positions []election.GridPosition) []ScoredPosition {
	binarized := img.Binarized()
	scored := make([]ScoredPosition, len(positions))
	parallel.Line(len(positions), func(start, end int) {
		for i := start; i < end; i++ {
			p := positions[i]
			scored[i].Position = p
			center, ok := grid.PointForLocation(p.Column, p.Row)
			if !ok {
				continue
			}
			scored[i].Score = s.ScoreOval(binarized, center)
		}
	})

	unscored := 0
	for _, sp := range scored {
		if sp.Score == nil {
			unscored++
		}
	}
	if unscored > 0 {
		s.log.Warn(ctx, "ovals off the page", logger.Int("count", unscored))
	}
	s.log.Debug(ctx, "scored ovals", logger.Int("count", len(scored)))

	if err := s.debug.Write("scored_ovals", func(canvas *image.RGBA) { drawScored(canvas, scored) }); err != nil {
		s.log.Warn(ctx, "debug image not written", logger.Error(err))
	}
	return scored
}

func drawScored(canvas *image.RGBA, scored []ScoredPosition) {
	for _, sp := range scored {
		if sp.Score == nil {
			continue
		}
		debug.StrokeRect(canvas, sp.Score.ExpectedBounds, debug.Blue)
		debug.StrokeRect(canvas, sp.Score.MatchedBounds, debug.ScoreColor(sp.Score.FillScore))
	}
}
