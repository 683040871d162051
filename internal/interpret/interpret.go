package interpret

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/debug"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/timingmarks"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// Page is the interpretation of one side of a card. Fields are filled as
// far as the pipeline got; Err says where it stopped.
type Page struct {
	Side     ballot.Side                `json:"side"`
	Geometry *ballot.Geometry           `json:"geometry,omitempty"`
	Grid     *timingmarks.Grid          `json:"grid,omitempty"`
	Front    *metadata.Front            `json:"front_metadata,omitempty"`
	Back     *metadata.Back             `json:"back_metadata,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
	Marks    []scoring.ScoredPosition   `json:"marks,omitempty"`
	WriteIns []scoring.WriteInAreaScore `json:"write_ins,omitempty"`
	Error    string                     `json:"error,omitempty"`

	// Image is the page after border cropping, resizing and orientation
	// correction.
	Image *ballot.Image `json:"-"`
	Err   error         `json:"-"`

	debug *debug.Writer
}

// NormalizedImage is the registered page thresholded to black and white,
// or nil when the page could not be prepared.
func (p *Page) NormalizedImage() *image.Gray {
	if p.Image == nil {
		return nil
	}
	return p.Image.Binarized()
}

// Mark returns the score of the position with the given contest and
// option key.
func (p *Page) Mark(contestID, optionKey string) (scoring.ScoredPosition, bool) {
	for _, m := range p.Marks {
		if m.Position.ContestID == contestID && m.Position.OptionKey() == optionKey {
			return m, true
		}
	}
	return scoring.ScoredPosition{}, false
}

func (p *Page) fail(side ballot.Side, stage Stage, err error) {
	p.Err = errors.Join(p.Err, &SideError{Side: side, Stage: stage, Err: err})
}

// Card is the interpretation of both sides of a ballot card.
type Card struct {
	ID            uuid.UUID     `json:"id"`
	BallotStyleID string        `json:"ballot_style_id,omitempty"`
	Front         *Page         `json:"front"`
	Back          *Page         `json:"back"`
	Duration      time.Duration `json:"duration"`
}

// Page returns one side.
func (c *Card) Page(side ballot.Side) *Page {
	if side == ballot.SideBack {
		return c.Back
	}
	return c.Front
}

// Interpreter interprets ballot cards. It is safe for concurrent use.
type Interpreter struct {
	election       *election.Election
	ballotStyleID  string
	sheetNumber    int
	gridOptions    []timingmarks.Option
	template       *scoring.Template
	scoringOptions []scoring.Option
	scoreWriteIns  bool
	textReader     scoring.TextReader
	debugDir       string
	log            logger.Logger
	recorder       Recorder
}

// New returns an Interpreter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		sheetNumber: 1,
		log:         logger.Nop(),
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Interpret interprets a card. The returned card always holds both pages;
// the error joins every side failure with any card-level failure.
func (in *Interpreter) Interpret(ctx context.Context, front, back image.Image) (*Card, error) {
	start := time.Now()
	card := &Card{ID: uuid.New()}
	log := in.log.Named(card.ID.String()[:8])

	papers := ballot.ScannedPaperInfos()
	if in.election != nil {
		papers = []ballot.PaperInfo{ballot.ScannedPaperInfo(in.election.PaperSize())}
	}

	in.eachSide(card, func(side ballot.Side) *Page {
		src := front
		if side == ballot.SideBack {
			src = back
		}
		return in.locate(ctx, log, card.ID, side, src, papers)
	})

	var errs []error
	if g, h := card.Front.Geometry, card.Back.Geometry; g != nil && h != nil && *g != *h {
		errs = append(errs, fmt.Errorf("%w: front %s, back %s", ErrMismatchedGeometry, g.PaperSize, h.PaperSize))
	} else {
		layout, err := in.gridLayout(card)
		switch {
		case err != nil:
			log.Warn(ctx, "ballot not scored", logger.Error(err))
			errs = append(errs, err)
		case layout != nil:
			card.BallotStyleID = layout.BallotStyleID
			in.eachSide(card, func(side ballot.Side) *Page {
				page := card.Page(side)
				in.score(ctx, log, page, layout)
				return page
			})
		}
	}

	for _, side := range ballot.Sides {
		page := card.Page(side)
		if page.Err != nil {
			page.Error = page.Err.Error()
			errs = append(errs, page.Err)
		}
	}
	card.Duration = time.Since(start)

	err := errors.Join(errs...)
	if err != nil {
		in.recorder.RecordInterpretation("error")
		log.Warn(ctx, "ballot card interpreted with errors", logger.Error(err), logger.Duration("duration", card.Duration))
	} else {
		in.recorder.RecordInterpretation("ok")
		log.Info(ctx, "ballot card interpreted",
			logger.String("ballot_style", card.BallotStyleID),
			logger.Duration("duration", card.Duration))
	}
	return card, err
}

// eachSide runs fn for both sides in parallel and stores the pages.
func (in *Interpreter) eachSide(card *Card, fn func(ballot.Side) *Page) {
	var wg sync.WaitGroup
	var pages [2]*Page
	for i, side := range ballot.Sides {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pages[i] = fn(side)
		}()
	}
	wg.Wait()
	card.Front, card.Back = pages[0], pages[1]
}

func (in *Interpreter) observe(stage Stage, since time.Time) {
	in.recorder.ObserveStage(string(stage), time.Since(since))
}

// locate prepares one side, finds its grid and decodes its metadata.
func (in *Interpreter) locate(ctx context.Context, log logger.Logger, id uuid.UUID, side ballot.Side, src image.Image, papers []ballot.PaperInfo) *Page {
	page := &Page{Side: side}
	log = log.Named(string(side))
	failed := func(stage Stage, err error) *Page {
		page.fail(side, stage, err)
		in.recorder.RecordSideFailure(string(stage))
		log.Warn(ctx, "side failed", logger.String("stage", string(stage)), logger.Error(err))
		return page
	}

	t := time.Now()
	if src == nil {
		return failed(StagePrepare, errors.New("no image"))
	}
	prepared, err := ballot.PreparePage(string(side), src, papers)
	in.observe(StagePrepare, t)
	if err != nil {
		return failed(StagePrepare, err)
	}
	page.Image = prepared.Image
	page.Geometry = &prepared.Geometry
	page.debug = debug.New(in.debugDir, fmt.Sprintf("%s_%s", id.String()[:8], side), prepared.Image.Gray())

	if err := ctx.Err(); err != nil {
		return failed(StageGrid, err)
	}
	t = time.Now()
	opts := append([]timingmarks.Option{
		timingmarks.WithLogger(log),
		timingmarks.WithDebug(page.debug),
	}, in.gridOptions...)
	res, err := timingmarks.FindGrid(ctx, prepared.Image, prepared.Geometry, opts...)
	in.observe(StageGrid, t)
	if err != nil {
		return failed(StageGrid, err)
	}
	page.Grid = res.Grid
	page.Image = res.Image
	for _, b := range []timingmarks.Border{timingmarks.Top, timingmarks.Left, timingmarks.Right} {
		n := 0
		for _, m := range res.Grid.Border(b) {
			if m.Inferred {
				n++
			}
		}
		if n > 0 {
			in.recorder.AddInferredMarks(string(b), n)
		}
	}

	t = time.Now()
	err = in.decodeMetadata(ctx, log, page)
	in.observe(StageMetadata, t)
	if err != nil {
		return failed(StageMetadata, err)
	}
	return page
}

func (in *Interpreter) decodeMetadata(ctx context.Context, log logger.Logger, page *Page) error {
	bits, err := page.Grid.MetadataBits(page.Image)
	if err != nil {
		return err
	}
	if page.Side == ballot.SideBack {
		b, err := metadata.DecodeBack(bits)
		if err != nil {
			return err
		}
		page.Back = b
		log.Debug(ctx, "decoded back metadata",
			logger.String("election_date", b.ElectionDate().Format(time.DateOnly)),
			logger.String("election_type", string(b.ElectionTypeLetter())))
		return nil
	}

	f, err := metadata.DecodeFront(bits)
	if err != nil {
		return err
	}
	page.Front = f
	if err := f.Validate(); err != nil {
		page.Warnings = append(page.Warnings, err.Error())
		log.Warn(ctx, "front metadata implausible", logger.Error(err))
	}
	log.Debug(ctx, "decoded front metadata",
		logger.Int("batch_or_precinct", f.BatchOrPrecinct.Int()),
		logger.Int("card_number", f.CardNumber.Int()))
	return nil
}

// gridLayout picks the layout to score: the configured ballot style, else
// the one named by the front page's card number. It returns nil without an
// election.
func (in *Interpreter) gridLayout(card *Card) (*election.GridLayout, error) {
	if in.election == nil {
		return nil, nil
	}
	id := in.ballotStyleID
	if id == "" {
		if card.Front.Front == nil {
			return nil, fmt.Errorf("%w: no ballot style given and no front metadata", ErrMissingGridLayout)
		}
		id = election.CardNumberBallotStyleID(card.Front.Front.CardNumber.Int())
	}
	layout, ok := in.election.GridLayoutFor(id)
	if !ok {
		return nil, fmt.Errorf("%w: ballot style %q", ErrMissingGridLayout, id)
	}
	return layout, nil
}

// score scores the ovals and write-in areas of a page with a grid.
func (in *Interpreter) score(ctx context.Context, log logger.Logger, page *Page, layout *election.GridLayout) {
	if page.Grid == nil {
		return
	}
	if err := ctx.Err(); err != nil {
		page.fail(page.Side, StageScoring, err)
		in.recorder.RecordSideFailure(string(StageScoring))
		return
	}
	log = log.Named(string(page.Side))

	tpl := in.template
	if tpl == nil {
		tpl = scoring.DefaultTemplate(page.Geometry.OvalPixels())
	}
	opts := append([]scoring.Option{
		scoring.WithLogger(log),
		scoring.WithDebug(page.debug),
	}, in.scoringOptions...)
	scorer := scoring.NewScorer(tpl, opts...)

	t := time.Now()
	positions := layout.Positions(in.sheetNumber, page.Side)
	page.Marks = scorer.ScorePositions(ctx, page.Image, page.Grid, positions)
	if in.scoreWriteIns {
		page.WriteIns = scorer.ScoreWriteInAreas(ctx, page.Image, page.Grid, positions, in.textReader)
	}
	in.observe(StageScoring, t)
	in.recorder.AddOvalsScored(string(page.Side), len(page.Marks))
}
