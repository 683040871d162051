package election

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
)

const sampleElection = `{
  "title": "General Election",
  "precincts": [{"id": "precinct-1", "name": "North"}, {"id": "precinct-2", "name": "South"}],
  "ballotStyles": [{"id": "card-number-3", "precincts": ["precinct-1", "precinct-2"]}],
  "ballotLayout": {"paperSize": "letter", "metadataEncoding": "timing-marks"},
  "gridLayouts": [{
    "ballotStyleId": "card-number-3",
    "optionBoundsFromTargetMark": {"top": 1, "bottom": 1, "left": 1, "right": 9},
    "gridPositions": [
      {"type": "option", "contestId": "mayor", "sheetNumber": 1, "side": "front", "column": 2, "row": 12, "optionId": "alice"},
      {"type": "option", "contestId": "mayor", "sheetNumber": 1, "side": "front", "column": 2, "row": 14, "optionId": "bob"},
      {"type": "write-in", "contestId": "mayor", "sheetNumber": 1, "side": "front", "column": 2, "row": 16, "writeInIndex": 0,
       "writeInArea": {"x": 3, "y": 15.5, "width": 8, "height": 1}},
      {"type": "option", "contestId": "measure", "sheetNumber": 1, "side": "back", "column": 20, "row": 5, "optionId": "yes"}
    ]
  }]
}`

func TestParseElection(t *testing.T) {
	e, err := Parse([]byte(sampleElection))
	if err != nil {
		t.Fatal(err)
	}
	if e.PaperSize() != ballot.PaperLetter {
		t.Errorf("paper size = %s", e.PaperSize())
	}

	layout, ok := e.GridLayoutFor(CardNumberBallotStyleID(3))
	if !ok {
		t.Fatal("layout for card 3 not found")
	}
	front := layout.Positions(1, ballot.SideFront)
	if len(front) != 3 {
		t.Fatalf("front positions = %d, want 3", len(front))
	}
	if got := front[2]; !got.IsWriteIn() || got.OptionKey() != "write-in-0" || got.WriteInArea == nil || got.WriteInArea.Y != 15.5 {
		t.Errorf("write-in position = %+v", got)
	}
	if back := layout.Positions(1, ballot.SideBack); len(back) != 1 || back[0].OptionKey() != "yes" {
		t.Errorf("back positions = %+v", back)
	}
	if n := layout.Sheets(); n != 1 {
		t.Errorf("sheets = %d", n)
	}
	if _, ok := e.GridLayoutFor("card-number-4"); ok {
		t.Error("found layout for an unknown ballot style")
	}
}

func TestElectionSatisfiesElectionIndex(t *testing.T) {
	e, err := Parse([]byte(sampleElection))
	if err != nil {
		t.Fatal(err)
	}
	var index metadata.ElectionIndex = e

	id, count, ok := index.PrecinctIDAt(1)
	if !ok || id != "precinct-2" || count != 2 {
		t.Errorf("PrecinctIDAt(1) = %q, %d, %v", id, count, ok)
	}
	if _, count, ok := index.BallotStyleIDAt(5); ok || count != 1 {
		t.Errorf("BallotStyleIDAt(5) = %d, %v", count, ok)
	}
}

func TestParseRejectsMismatchedPositions(t *testing.T) {
	tests := []struct {
		name     string
		position string
		want     string
	}{
		{"option without id", `{"type": "option", "contestId": "c", "side": "front"}`, "missing optionId"},
		{"write-in with option id", `{"type": "write-in", "contestId": "c", "side": "front", "optionId": "x"}`, "unexpected optionId"},
		{"unknown type", `{"type": "ranked", "contestId": "c", "side": "front"}`, "unknown grid position type"},
		{"bad side", `{"type": "option", "contestId": "c", "side": "middle", "optionId": "x"}`, "side"},
		{"negative row", `{"type": "option", "contestId": "c", "side": "front", "optionId": "x", "row": -1}`, "negative location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"gridLayouts": [{"ballotStyleId": "s", "gridPositions": [` + tt.position + `]}]}`
			_, err := Parse([]byte(doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	doc := `{
	  "ballotStyles": [{"id": "s", "precincts": ["nowhere"]}],
	  "ballotLayout": {"paperSize": "a4"},
	  "gridLayouts": [{"ballotStyleId": "s"}, {"ballotStyleId": "s"}]
	}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrInvalidElection) {
		t.Fatalf("err = %v, want ErrInvalidElection", err)
	}
	for _, want := range []string{"unknown precinct nowhere", "a4", "duplicate grid layout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "election.json")
	if err := os.WriteFile(path, []byte(sampleElection), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Title != "General Election" {
		t.Errorf("title = %q", e.Title)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}
