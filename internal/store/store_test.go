package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/store"
)

func testCard(fills ...float64) *interpret.Card {
	front := &interpret.Page{Side: ballot.SideFront}
	for i, f := range fills {
		front.Marks = append(front.Marks, scoring.ScoredPosition{
			Position: election.NewOption("mayor", string(rune('a'+i)), 1, ballot.SideFront, 5, 5),
			Score:    &scoring.OvalScore{MatchScore: 0.9, FillScore: f},
		})
	}
	front.Marks = append(front.Marks, scoring.ScoredPosition{
		Position: election.NewOption("mayor", "off-page", 1, ballot.SideFront, 50, 5),
	})
	return &interpret.Card{
		ID:            uuid.New(),
		BallotStyleID: "card-number-5",
		Front:         front,
		Back:          &interpret.Page{Side: ballot.SideBack},
		Duration:      1500 * time.Millisecond,
	}
}

func openSQLite(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "ballots.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSummarize(t *testing.T) {
	convey.Convey("Given a card with two marked ovals out of four", t, func() {
		card := testCard(0.95, 0.1, 0.6)

		convey.Convey("When it is summarized", func() {
			sum, err := store.Summarize(card, 0.5)

			convey.Convey("Then the counts and result are recorded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sum.ID, convey.ShouldEqual, card.ID)
				convey.So(sum.Ovals, convey.ShouldEqual, 4)
				convey.So(sum.Marked, convey.ShouldEqual, 2)
				convey.So(sum.Result, convey.ShouldEqual, "ok")
				convey.So(string(sum.Card), convey.ShouldContainSubstring, "card-number-5")
			})
		})

		convey.Convey("When the back failed", func() {
			card.Back.Error = "back side: grid: no timing mark candidates"
			sum, err := store.Summarize(card, 0.5)

			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.Result, convey.ShouldEqual, "error")
			convey.So(sum.BackError, convey.ShouldEqual, card.Back.Error)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a SQLite store", t, func() {
		s := openSQLite(t)
		convey.So(s.Driver(), convey.ShouldEqual, store.DriverSQLite)

		convey.Convey("When a summary is saved", func() {
			sum, err := store.Summarize(testCard(0.9, 0.05), 0.5)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Save(ctx, sum), convey.ShouldBeNil)

			convey.Convey("Then it reads back unchanged", func() {
				got, err := s.Get(ctx, sum.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.ID, convey.ShouldEqual, sum.ID)
				convey.So(got.BallotStyleID, convey.ShouldEqual, "card-number-5")
				convey.So(got.Marked, convey.ShouldEqual, 1)
				convey.So(got.Ovals, convey.ShouldEqual, 3)
				convey.So(got.Duration, convey.ShouldEqual, 1500*time.Millisecond)
				convey.So(string(got.Card), convey.ShouldEqual, string(sum.Card))
				convey.So(got.CreatedAt.UnixNano(), convey.ShouldEqual, sum.CreatedAt.UnixNano())
			})

			convey.Convey("Then saving it again replaces it", func() {
				sum.Marked = 2
				convey.So(s.Save(ctx, sum), convey.ShouldBeNil)
				list, err := s.List(ctx, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(list, convey.ShouldHaveLength, 1)
				convey.So(list[0].Marked, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When several summaries are saved", func() {
			var ids []uuid.UUID
			for i := 0; i < 3; i++ {
				sum, err := store.Summarize(testCard(0.9), 0.5)
				convey.So(err, convey.ShouldBeNil)
				sum.CreatedAt = time.Unix(int64(1000+i), 0).UTC()
				if i == 1 {
					sum.Result = "error"
				}
				convey.So(s.Save(ctx, sum), convey.ShouldBeNil)
				ids = append(ids, sum.ID)
			}

			convey.Convey("Then they list newest first", func() {
				list, err := s.List(ctx, 2)
				convey.So(err, convey.ShouldBeNil)
				convey.So(list, convey.ShouldHaveLength, 2)
				convey.So(list[0].ID, convey.ShouldEqual, ids[2])
				convey.So(list[1].ID, convey.ShouldEqual, ids[1])
			})

			convey.Convey("Then stats count them", func() {
				st, err := s.Stats(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(st.Total, convey.ShouldEqual, 3)
				convey.So(st.Errors, convey.ShouldEqual, 1)
				convey.So(st.Marked, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When an unknown ID is read", func() {
			_, err := s.Get(ctx, uuid.New())
			convey.So(errors.Is(err, store.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	convey.Convey("Given an unsupported driver", t, func() {
		_, err := store.Open(context.Background(), "mysql", "root@/ballots")
		convey.So(errors.Is(err, store.ErrUnsupportedDriver), convey.ShouldBeTrue)
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BALLOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BALLOT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	convey.Convey("Given a PostgreSQL store", t, func() {
		s, err := store.Open(ctx, store.DriverPostgres, dsn)
		convey.So(err, convey.ShouldBeNil)
		defer s.Close()

		convey.Convey("Then a saved summary reads back", func() {
			sum, err := store.Summarize(testCard(0.9), 0.5)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Save(ctx, sum), convey.ShouldBeNil)

			got, err := s.Get(ctx, sum.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Marked, convey.ShouldEqual, 1)
		})
	})
}
