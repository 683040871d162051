package interpret_test

import (
	"context"
	"errors"
	"image"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/ballot/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/config"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/timingmarks"
)

type location struct{ col, row geometry.GridUnit }

var (
	frontOvals = []location{{5, 5}, {5, 7}, {12, 5}, {20, 30}, {28, 36}}
	backOvals  = []location{{4, 10}, {15, 15}, {30, 3}}
)

func letter() ballot.Geometry { return ballot.ScannedPaperInfo(ballot.PaperLetter).Geometry() }

func testElection() *election.Election {
	var positions []election.GridPosition
	for i, l := range frontOvals {
		positions = append(positions, election.NewOption("mayor", string(rune('a'+i)), 1, ballot.SideFront, l.col, l.row))
	}
	for i, l := range backOvals {
		positions = append(positions, election.NewOption("measure", string(rune('a'+i)), 1, ballot.SideBack, l.col, l.row))
	}
	positions = append(positions, election.NewWriteIn("mayor", 0, 1, ballot.SideFront, 10, 20,
		&election.Area{X: 11, Y: 19.5, Width: 8, Height: 1}))

	return &election.Election{
		Title:        "General Election",
		Precincts:    []election.Precinct{{ID: "precinct-1", Name: "Precinct 1"}},
		BallotStyles: []election.BallotStyle{{ID: "card-number-5", PrecinctIDs: []string{"precinct-1"}}},
		BallotLayout: election.BallotLayout{PaperSize: ballot.PaperLetter, MetadataEncoding: election.EncodingTimingMarks},
		GridLayouts: []election.GridLayout{{
			BallotStyleID: "card-number-5",
			GridPositions: positions,
		}},
	}
}

type cardOptions struct {
	filled     bool
	cardNumber uint64
	front      []ballottest.Option
}

func renderCard(g ballot.Geometry, o cardOptions) (front, back image.Image) {
	frontOpts := []ballottest.Option{ballottest.WithFront(1234, o.cardNumber), ballottest.WithOval(10, 20, false)}
	for _, l := range frontOvals {
		frontOpts = append(frontOpts, ballottest.WithOval(l.col, l.row, o.filled))
	}
	if o.filled {
		frontOpts = append(frontOpts, ballottest.WithScribble(
			geometry.Point[geometry.GridUnit]{X: 12, Y: 20},
			geometry.Point[geometry.GridUnit]{X: 17, Y: 20}))
	}
	frontOpts = append(frontOpts, o.front...)

	backOpts := []ballottest.Option{ballottest.WithBack(15, 11, 24, 'G')}
	for _, l := range backOvals {
		backOpts = append(backOpts, ballottest.WithOval(l.col, l.row, o.filled))
	}
	return ballottest.Render(g, frontOpts...), ballottest.Render(g, backOpts...)
}

type fakeRecorder struct {
	mu       sync.Mutex
	results  []string
	failures []string
	stages   map[string]int
	ovals    map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{stages: map[string]int{}, ovals: map[string]int{}}
}

func (r *fakeRecorder) RecordInterpretation(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *fakeRecorder) RecordSideFailure(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, stage)
}

func (r *fakeRecorder) ObserveStage(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func (r *fakeRecorder) AddOvalsScored(side string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ovals[side] += n
}

func (r *fakeRecorder) AddInferredMarks(string, int) {}

func TestInterpretCard(t *testing.T) {
	ctx := context.Background()
	g := letter()

	convey.Convey("Given an interpreter with an election", t, func() {
		rec := newFakeRecorder()
		in := interpret.New(
			interpret.WithElection(testElection()),
			interpret.WithWriteInScoring(true),
			interpret.WithRecorder(rec),
		)

		convey.Convey("When every oval is filled", func() {
			front, back := renderCard(g, cardOptions{filled: true, cardNumber: 5})
			card, err := in.Interpret(ctx, front, back)

			convey.So(err, convey.ShouldBeNil)
			convey.So(card.BallotStyleID, convey.ShouldEqual, "card-number-5")

			convey.Convey("Then every position scores high", func() {
				convey.So(card.Front.Marks, convey.ShouldHaveLength, len(frontOvals)+1)
				convey.So(card.Back.Marks, convey.ShouldHaveLength, len(backOvals))
				for _, page := range []*interpret.Page{card.Front, card.Back} {
					for _, m := range page.Marks {
						if m.Position.IsWriteIn() {
							continue
						}
						convey.So(m.Score, convey.ShouldNotBeNil)
						convey.So(m.Score.FillScore, convey.ShouldBeGreaterThan, 0.8)
					}
				}
			})

			convey.Convey("Then the write-in area is marked", func() {
				convey.So(card.Front.WriteIns, convey.ShouldHaveLength, 1)
				convey.So(card.Front.WriteIns[0].Score, convey.ShouldBeGreaterThan, 0.01)
			})

			convey.Convey("Then both sides' metadata is decoded", func() {
				convey.So(card.Front.Front, convey.ShouldNotBeNil)
				convey.So(card.Front.Front.CardNumber.Int(), convey.ShouldEqual, 5)
				convey.So(card.Front.Front.BatchOrPrecinct.Int(), convey.ShouldEqual, 1234)
				convey.So(card.Front.Warnings, convey.ShouldBeEmpty)

				b := card.Back.Back
				convey.So(b, convey.ShouldNotBeNil)
				convey.So(b.ElectionDay.Int(), convey.ShouldEqual, 15)
				convey.So(b.ElectionMonth.Int(), convey.ShouldEqual, 11)
				convey.So(b.ElectionYear.Int(), convey.ShouldEqual, 24)
				convey.So(b.ElectionTypeLetter(), convey.ShouldEqual, byte('G'))
			})

			convey.Convey("Then metrics are recorded", func() {
				convey.So(rec.results, convey.ShouldResemble, []string{"ok"})
				convey.So(rec.failures, convey.ShouldBeEmpty)
				convey.So(rec.stages["grid"], convey.ShouldEqual, 2)
				convey.So(rec.ovals["front"], convey.ShouldEqual, len(frontOvals)+1)
			})
		})

		convey.Convey("When the ballot is blank", func() {
			front, back := renderCard(g, cardOptions{cardNumber: 5})
			card, err := in.Interpret(ctx, front, back)

			convey.So(err, convey.ShouldBeNil)
			convey.Convey("Then every position scores low", func() {
				for _, page := range []*interpret.Page{card.Front, card.Back} {
					convey.So(page.Marks, convey.ShouldNotBeEmpty)
					for _, m := range page.Marks {
						convey.So(m.Score, convey.ShouldNotBeNil)
						convey.So(m.Score.FillScore, convey.ShouldBeLessThan, 0.2)
					}
				}
				convey.So(card.Front.WriteIns[0].Score, convey.ShouldBeLessThan, 0.01)
			})

			convey.Convey("Then an option can be looked up by key", func() {
				m, ok := card.Front.Mark("mayor", "b")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(m.Position.Column, convey.ShouldEqual, geometry.GridUnit(5))
				convey.So(m.Position.Row, convey.ShouldEqual, geometry.GridUnit(7))
			})
		})

		convey.Convey("When the front's top-right corner is covered", func() {
			covered := ballottest.MarkRect(g, ballottest.Top, 33)
			front, back := renderCard(g, cardOptions{filled: true, cardNumber: 5,
				front: []ballottest.Option{ballottest.WithOcclusion(covered, ballottest.Paper)}})
			card, err := in.Interpret(ctx, front, back)

			convey.Convey("Then the error names the side, the stage and the corner", func() {
				convey.So(err, convey.ShouldNotBeNil)
				var sideErr *interpret.SideError
				convey.So(errors.As(err, &sideErr), convey.ShouldBeTrue)
				convey.So(sideErr.Side, convey.ShouldEqual, ballot.SideFront)
				convey.So(sideErr.Stage, convey.ShouldEqual, interpret.StageGrid)

				var cornerErr *timingmarks.CornerError
				convey.So(errors.As(err, &cornerErr), convey.ShouldBeTrue)
				convey.So(cornerErr.Corner, convey.ShouldEqual, timingmarks.TopRight)
				convey.So(errors.Is(err, interpret.ErrMissingGridLayout), convey.ShouldBeTrue)
			})

			convey.Convey("Then no grid is reported for the front but the back is complete", func() {
				convey.So(card.Front.Grid, convey.ShouldBeNil)
				convey.So(card.Front.Error, convey.ShouldNotBeEmpty)
				convey.So(card.Back.Grid, convey.ShouldNotBeNil)
				convey.So(card.Back.Back, convey.ShouldNotBeNil)
				convey.So(card.Back.Err, convey.ShouldBeNil)
				convey.So(rec.failures, convey.ShouldResemble, []string{"grid"})
				convey.So(rec.results, convey.ShouldResemble, []string{"error"})
			})
		})

		convey.Convey("When the card number has no layout", func() {
			front, back := renderCard(g, cardOptions{cardNumber: 9})
			card, err := in.Interpret(ctx, front, back)

			convey.So(errors.Is(err, interpret.ErrMissingGridLayout), convey.ShouldBeTrue)
			convey.So(card.Front.Grid, convey.ShouldNotBeNil)
			convey.So(card.Front.Marks, convey.ShouldBeEmpty)
		})

		convey.Convey("When a side is missing", func() {
			front, _ := renderCard(g, cardOptions{cardNumber: 5})
			card, err := in.Interpret(ctx, front, nil)

			var sideErr *interpret.SideError
			convey.So(errors.As(err, &sideErr), convey.ShouldBeTrue)
			convey.So(sideErr.Side, convey.ShouldEqual, ballot.SideBack)
			convey.So(sideErr.Stage, convey.ShouldEqual, interpret.StagePrepare)
			convey.So(card.Front.Marks, convey.ShouldNotBeEmpty)
		})
	})

	convey.Convey("Given an interpreter with an explicit ballot style", t, func() {
		in := interpret.New(
			interpret.WithElection(testElection()),
			interpret.WithBallotStyle("card-number-5"),
		)

		convey.Convey("When the front cannot be located", func() {
			covered := ballottest.MarkRect(g, ballottest.Top, 33)
			front, back := renderCard(g, cardOptions{filled: true, cardNumber: 5,
				front: []ballottest.Option{ballottest.WithOcclusion(covered, ballottest.Paper)}})
			card, err := in.Interpret(ctx, front, back)

			convey.Convey("Then the back is still scored", func() {
				convey.So(errors.Is(err, timingmarks.ErrMissingCorner), convey.ShouldBeTrue)
				convey.So(errors.Is(err, interpret.ErrMissingGridLayout), convey.ShouldBeFalse)
				convey.So(card.Back.Marks, convey.ShouldHaveLength, len(backOvals))
				convey.So(card.Front.Marks, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestInterpretWithoutElection(t *testing.T) {
	convey.Convey("Given an interpreter without an election", t, func() {
		in := interpret.New()

		convey.Convey("When the sides are on different paper", func() {
			front, _ := renderCard(letter(), cardOptions{cardNumber: 5})
			legal := ballottest.Render(ballot.ScannedPaperInfo(ballot.PaperLegal).Geometry(), ballottest.WithBack(1, 1, 0, 'A'))
			_, err := in.Interpret(context.Background(), front, legal)

			convey.So(errors.Is(err, interpret.ErrMismatchedGeometry), convey.ShouldBeTrue)
		})

		convey.Convey("When the card is upside down", func() {
			front := ballottest.Render(letter(), ballottest.WithFront(77, 3), ballottest.Reversed())
			_, back := renderCard(letter(), cardOptions{})
			card, err := in.Interpret(context.Background(), front, back)

			convey.So(err, convey.ShouldBeNil)
			convey.So(card.Front.Grid.Orientation, convey.ShouldEqual, ballot.PortraitReversed)
			convey.So(card.Front.Front.CardNumber.Int(), convey.ShouldEqual, 3)
			convey.So(card.Front.Marks, convey.ShouldBeEmpty)
			convey.So(card.Front.NormalizedImage(), convey.ShouldNotBeNil)
		})
	})
}

func TestOptionsFromConfig(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then options build without a template file", func() {
			opts, err := interpret.OptionsFromConfig(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts, convey.ShouldNotBeEmpty)
		})

		convey.Convey("Then a missing template file is reported", func() {
			cfg.OvalTemplatePath = "/nonexistent/oval.png"
			_, err := interpret.OptionsFromConfig(cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then debug renderings are written to the configured directory", func() {
			cfg.DebugDir = t.TempDir()
			opts, err := interpret.OptionsFromConfig(cfg)
			convey.So(err, convey.ShouldBeNil)

			front, back := renderCard(letter(), cardOptions{cardNumber: 5})
			_, err = interpret.New(append(opts, interpret.WithElection(testElection()))...).
				Interpret(context.Background(), front, back)
			convey.So(err, convey.ShouldBeNil)

			entries, err := os.ReadDir(cfg.DebugDir)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(entries), convey.ShouldBeGreaterThanOrEqualTo, 10)
		})
	})
}
