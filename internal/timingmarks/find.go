package timingmarks

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/debug"
	"github.com/ironsheep/ballot-interpreter/internal/detection"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// Result is a located grid and the page image in the grid's frame. When the
// page was reversed, Image is the rotated scan.
type Result struct {
	Grid       *Grid
	Image      *ballot.Image
	Candidates []Candidate
}

// FindGrid locates the timing-mark border of a page.
func FindGrid(ctx context.Context, img *ballot.Image, g ballot.Geometry, options ...Option) (*Result, error) {
	opts := DefaultOptions()
	for _, o := range options {
		o(&opts)
	}
	log := opts.Logger
	size := img.Size()
	inset := opts.SearchInset.Pixels(geometry.SubPixel(g.PixelsPerInch)).Round()

	shapes := findShapes(img, g, inset)
	log.Debug(ctx, "found timing mark shapes", logger.Int("count", len(shapes)))
	writeDebug(ctx, opts, "shapes", func(canvas *image.RGBA) { drawShapes(canvas, shapes) })
	if len(shapes) == 0 {
		return nil, ErrNoCandidates
	}

	candidates := scoreShapes(img, g, shapes)
	writeDebug(ctx, opts, "candidates", func(canvas *image.RGBA) { drawCandidates(canvas, candidates) })

	mark := g.TimingMarkPixels()
	lines := make(borderLines, len(Borders))
	for border, bucket := range bucketByBorder(candidates, size, inset) {
		bucket = dropSizeOutliers(bucket, opts.OutlierSigmas)
		lines[border] = findBorderLine(border, bucket, opts.MaxLineAngle, float64(mark.Height))
	}
	for _, b := range Borders {
		if _, ok := lines[b]; !ok {
			lines[b] = borderLine{border: b}
		}
		log.Debug(ctx, "fitted border line", logger.String("border", string(b)), logger.Int("marks", len(lines[b].marks)))
	}
	writeDebug(ctx, opts, "lines", func(canvas *image.RGBA) { drawLines(canvas, lines, size) })

	corners, err := findCorners(lines, size, opts)
	if err != nil {
		log.Warn(ctx, "timing mark corners not found", logger.Error(err))
		return nil, err
	}
	writeDebug(ctx, opts, "corners", func(canvas *image.RGBA) { drawCorners(canvas, corners) })

	orientation := ballot.Portrait
	if len(lines[Bottom].marks) > len(lines[Top].marks) {
		orientation = ballot.PortraitReversed
		rot := geometry.NewRotator180(size)
		img = img.Rotate180()
		corners = corners.rotate180(rot)
		rotated := make(borderLines, len(lines))
		for _, l := range lines {
			r := l.rotate180(rot)
			rotated[r.border] = r
		}
		lines = rotated
		for i, c := range candidates {
			candidates[i] = Candidate{Rect: rot.Rect(c.Rect), Center: rot.Point(c.Center), Score: c.Score}
		}
		opts.Debug.SetSource(img.Gray())
		log.Debug(ctx, "page is upside down, rotated")
	}

	grid := &Grid{Geometry: g, Orientation: orientation, Corners: corners}
	borders := []struct {
		border     Border
		start, end Corner
		count      int
		dst        *[]Mark
	}{
		{Top, TopLeft, TopRight, g.Columns(), &grid.Top},
		{Bottom, BottomLeft, BottomRight, g.Columns(), &grid.Bottom},
		{Left, TopLeft, BottomLeft, g.Rows(), &grid.Left},
		{Right, TopRight, BottomRight, g.Rows(), &grid.Right},
	}
	var errs []error
	for _, b := range borders {
		marks, found, err := completeBorder(img, g, lines[b.border], corners.Get(b.start), corners.Get(b.end), b.count)
		if err == nil {
			err = checkBorderCount(b.border, b.count, found, opts)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*b.dst = marks
		log.Debug(ctx, "completed border",
			logger.String("border", string(b.border)),
			logger.Int("found", found),
			logger.Int("inferred", b.count-found))
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn(ctx, "timing mark borders incomplete", logger.Error(err))
		return nil, err
	}

	grid.computeSkew()
	writeDebug(ctx, opts, "grid", func(canvas *image.RGBA) { drawGrid(canvas, grid) })
	log.Info(ctx, "timing mark grid found",
		logger.String("orientation", string(orientation)),
		logger.Int("inferred", grid.InferredCount()),
		logger.Float64("skew_degrees", grid.Skew.Mean()))

	return &Result{Grid: grid, Image: img, Candidates: candidates}, nil
}

func writeDebug(ctx context.Context, opts Options, stage string, draw func(*image.RGBA)) {
	if err := opts.Debug.Write(stage, draw); err != nil {
		opts.Logger.Warn(ctx, "debug image not written", logger.String("stage", stage), logger.Error(err))
	}
}

func drawShapes(canvas *image.RGBA, shapes []detection.Shape) {
	for _, s := range shapes {
		debug.StrokeRect(canvas, s.Bounds, debug.Blue)
	}
}

func drawCandidates(canvas *image.RGBA, candidates []Candidate) {
	for _, c := range candidates {
		debug.StrokeRect(canvas, c.Rect, debug.ScoreColor(c.Score.Total()/2))
	}
}

func drawLines(canvas *image.RGBA, lines borderLines, size geometry.Size[geometry.Pixel]) {
	palette := debug.Palette(len(Borders))
	for i, b := range Borders {
		l := lines[b]
		for _, c := range l.marks {
			debug.FillRect(canvas, c.Rect, palette[i])
		}
		if len(l.marks) > 1 {
			debug.Line(canvas, l.segment(size), palette[i])
		}
	}
}

func drawCorners(canvas *image.RGBA, corners CornerPoints) {
	for _, c := range Corners {
		debug.Cross(canvas, corners.Get(c), 15, debug.Red)
	}
}

func drawGrid(canvas *image.RGBA, grid *Grid) {
	for _, b := range Borders {
		for _, m := range grid.Border(b) {
			c := debug.Green
			if m.Inferred {
				c = debug.Orange
			}
			debug.StrokeRect(canvas, m.Rect, c)
		}
	}
	for row := range grid.Geometry.Rows() {
		for col := range grid.Geometry.Columns() {
			if p, ok := grid.PointForLocation(geometry.GridUnit(col), geometry.GridUnit(row)); ok {
				debug.Cross(canvas, p, 3, debug.Red)
			}
		}
	}
}

// String summarizes a grid for logs.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%s %dx%d, %d inferred)", g.Orientation, len(g.Top), len(g.Left), g.InferredCount())
}
