package scoring

import (
	"context"
	"image"
	"math"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/debug"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// MinTextScore is the write-in area score above which text is read.
const MinTextScore = 0.01

// TextReader reads handwriting or print from a cropped area.
type TextReader interface {
	ReadText(ctx context.Context, img image.Image) (string, error)
}

// WriteInAreaScore is how much of a write-in area is covered.
type WriteInAreaScore struct {
	Position election.GridPosition  `json:"position"`
	Area     geometry.Quadrilateral `json:"area"`
	Score    float64                `json:"score"`
	Text     string                 `json:"text,omitempty"`
}

// ScoreWriteInAreas scores the declared area of every write-in position:
// the dark share of the pixels inside the area as mapped through the grid.
// Positions without an area, or whose area leaves the grid, are skipped.
// When reader is not nil, text is read from areas scoring at least
// MinTextScore.
func (s *Scorer) ScoreWriteInAreas(ctx context.Context, img *ballot.Image, grid Locator, positions []election.GridPosition, reader TextReader) []WriteInAreaScore {
	var scores []WriteInAreaScore
	for _, p := range positions {
		if !p.IsWriteIn() || p.WriteInArea == nil {
			continue
		}
		a := p.WriteInArea
		quad, ok := grid.QuadForArea(a.X, a.Y, a.Width, a.Height)
		if !ok {
			s.log.Warn(ctx, "write-in area off the grid", logger.String("position", p.String()))
			continue
		}
		score := WriteInAreaScore{Position: p, Area: quad, Score: quadForegroundRatio(img, quad)}

		if reader != nil && score.Score >= MinTextScore {
			text, err := reader.ReadText(ctx, img.Crop(quad.Bounds()))
			if err != nil {
				s.log.Warn(ctx, "write-in text not read", logger.String("position", p.String()), logger.Error(err))
			} else {
				score.Text = text
			}
		}
		scores = append(scores, score)
	}

	if err := s.debug.Write("write_in_areas", func(canvas *image.RGBA) {
		for _, sc := range scores {
			debug.Quad(canvas, sc.Area, debug.ScoreColor(math.Min(1, sc.Score*10)))
		}
	}); err != nil {
		s.log.Warn(ctx, "debug image not written", logger.Error(err))
	}
	return scores
}

func quadForegroundRatio(img *ballot.Image, q geometry.Quadrilateral) float64 {
	bounds, ok := q.Bounds().Intersect(img.Bounds())
	if !ok {
		return 0
	}
	var total, dark int
	for y := bounds.Top; y <= bounds.Bottom(); y++ {
		for x := bounds.Left; x <= bounds.Right(); x++ {
			if !q.Contains(geometry.ToSubPixel(geometry.Pt(x, y))) {
				continue
			}
			total++
			if img.IsForeground(int(x), int(y)) {
				dark++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
