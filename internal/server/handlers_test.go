package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/ballot/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/store"
)

const testElection = `{
  "title": "General Election",
  "precincts": [{"id": "precinct-1", "name": "North"}, {"id": "precinct-2", "name": "South"}],
  "ballotStyles": [{"id": "card-number-3", "precincts": ["precinct-1", "precinct-2"]}],
  "ballotLayout": {"paperSize": "letter", "metadataEncoding": "timing-marks"},
  "gridLayouts": [{
    "ballotStyleId": "card-number-3",
    "gridPositions": [
      {"type": "option", "contestId": "mayor", "sheetNumber": 1, "side": "front", "column": 2, "row": 12, "optionId": "alice"},
      {"type": "option", "contestId": "mayor", "sheetNumber": 1, "side": "front", "column": 2, "row": 14, "optionId": "bob"},
      {"type": "option", "contestId": "measure", "sheetNumber": 1, "side": "back", "column": 20, "row": 5, "optionId": "yes"}
    ]
  }]
}`

func letter() ballot.Geometry { return ballot.ScannedPaperInfo(ballot.PaperLetter).Geometry() }

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// writeCard renders a card for ballot style card-number-3 with alice and yes
// filled, and returns the paths of both sides and the election.
func writeCard(t *testing.T) (front, back, electionPath string) {
	t.Helper()
	dir := t.TempDir()
	g := letter()
	f := ballottest.Render(g,
		ballottest.WithFront(12, 3),
		ballottest.WithOval(2, 12, true),
		ballottest.WithOval(2, 14, false))
	b := ballottest.Render(g,
		ballottest.WithBack(5, 11, 24, 'G'),
		ballottest.WithOval(20, 5, true))
	return writeFile(t, dir, "front.png", encodePNG(t, f)),
		writeFile(t, dir, "back.png", encodePNG(t, b)),
		writeFile(t, dir, "election.json", []byte(testElection))
}

func call(t *testing.T, s *Server, name string, args interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return s.executeTool(context.Background(), name, raw)
}

func TestInterpretBallotCard(t *testing.T) {
	front, back, electionPath := writeCard(t)
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "interpretations.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	s := New(WithStore(st))

	out, err := call(t, s, "interpret_ballot_card", map[string]interface{}{
		"front":                     map[string]string{"path": front},
		"back":                      map[string]string{"path": back},
		"election_path":             electionPath,
		"include_normalized_images": true,
	})
	if err != nil {
		t.Fatalf("interpret_ballot_card: %v", err)
	}
	res := out.(*interpretResult)
	if res.Error != "" {
		t.Fatalf("card error: %s", res.Error)
	}
	if res.Card.BallotStyleID != "card-number-3" {
		t.Errorf("ballot style: got %q", res.Card.BallotStyleID)
	}

	marks := map[string]float64{}
	for _, side := range ballot.Sides {
		for _, m := range res.Card.Page(side).Marks {
			if m.Score == nil {
				t.Fatalf("%s unscored", m.Position)
			}
			marks[m.Position.OptionKey()] = m.Score.FillScore
		}
	}
	if marks["alice"] < 0.8 || marks["yes"] < 0.8 {
		t.Errorf("filled ovals scored low: %v", marks)
	}
	if marks["bob"] > 0.2 {
		t.Errorf("empty oval scored high: %v", marks)
	}

	for _, side := range ballot.Sides {
		enc, ok := res.NormalizedImages[side]
		if !ok {
			t.Fatalf("no normalized %s image", side)
		}
		if enc.MimeType != "image/png" || enc.Width != 1700 || enc.Height != 2200 {
			t.Errorf("%s image: %dx%d %s", side, enc.Width, enc.Height, enc.MimeType)
		}
	}

	if !res.Stored {
		t.Fatal("interpretation not stored")
	}
	listed, err := call(t, s, "list_interpretations", map[string]int{"limit": 10})
	if err != nil {
		t.Fatalf("list_interpretations: %v", err)
	}
	list := listed.(map[string]interface{})
	summaries := list["interpretations"].([]store.Summary)
	if len(summaries) != 1 || summaries[0].ID != res.Card.ID {
		t.Fatalf("summaries: %+v", summaries)
	}
	if summaries[0].Card != nil {
		t.Error("listed summaries should not carry the card")
	}
	if stats := list["stats"].(*store.Stats); stats.Total != 1 || stats.Marked != 2 {
		t.Errorf("stats: %+v", stats)
	}

	got, err := call(t, s, "get_interpretation", map[string]string{"id": res.Card.ID.String()})
	if err != nil {
		t.Fatalf("get_interpretation: %v", err)
	}
	if sum := got.(*store.Summary); sum.BallotStyleID != "card-number-3" || len(sum.Card) == 0 {
		t.Errorf("summary: %+v", sum)
	}
}

func TestInterpretBallotCardWithoutElection(t *testing.T) {
	front, back, _ := writeCard(t)
	s := New()

	out, err := call(t, s, "interpret_ballot_card", map[string]interface{}{
		"front": map[string]string{"path": front},
		"back":  map[string]string{"path": back},
	})
	if err != nil {
		t.Fatalf("interpret_ballot_card: %v", err)
	}
	res := out.(*interpretResult)
	if res.Error != "" {
		t.Fatalf("card error: %s", res.Error)
	}
	if res.Stored || res.NormalizedImages != nil {
		t.Errorf("unexpected extras: stored=%v images=%v", res.Stored, res.NormalizedImages)
	}
	if f := res.Card.Front.Front; f == nil || f.CardNumber.Int() != 3 {
		t.Errorf("front metadata: %+v", f)
	}
	if len(res.Card.Front.Marks) != 0 {
		t.Errorf("marks scored without an election: %d", len(res.Card.Front.Marks))
	}
}

func TestInterpretBallotCardReportsSideErrors(t *testing.T) {
	front, _, _ := writeCard(t)
	blank := writeFile(t, t.TempDir(), "blank.png", encodePNG(t, image.NewGray(image.Rect(0, 0, 1700, 2200))))
	s := New()

	out, err := call(t, s, "interpret_ballot_card", map[string]interface{}{
		"front": map[string]string{"path": front},
		"back":  map[string]string{"path": blank},
	})
	if err != nil {
		t.Fatalf("a failed side should not fail the tool: %v", err)
	}
	res := out.(*interpretResult)
	if !strings.Contains(res.Error, "back side") {
		t.Errorf("error: %q", res.Error)
	}
	if res.Card.Front.Grid == nil {
		t.Error("front grid lost")
	}
}

func TestFindTimingMarksAndDecode(t *testing.T) {
	page := ballottest.Render(letter(), ballottest.WithFront(12, 3))
	s := New()

	out, err := call(t, s, "find_timing_marks", map[string]interface{}{
		"image":      map[string]string{"image_base64": base64.StdEncoding.EncodeToString(encodePNG(t, page))},
		"paper_size": "letter",
	})
	if err != nil {
		t.Fatalf("find_timing_marks: %v", err)
	}
	res := out.(*findTimingMarksResult)
	if res.Geometry.PaperSize != ballot.PaperLetter {
		t.Errorf("paper size: %s", res.Geometry.PaperSize)
	}
	if res.Candidates == 0 || len(res.BottomMarks) != res.Geometry.Columns() {
		t.Errorf("candidates=%d bottom marks=%d", res.Candidates, len(res.BottomMarks))
	}
	if res.BitsError != "" {
		t.Fatalf("bits: %s", res.BitsError)
	}

	decoded, err := call(t, s, "decode_timing_mark_metadata", map[string]interface{}{
		"side":         "front",
		"bottom_marks": res.BottomMarks,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f := decoded.(*decodedTimingMarks).Front
	if f.BatchOrPrecinct.Int() != 12 || f.CardNumber.Int() != 3 {
		t.Errorf("front: %+v", f)
	}
}

func TestFindTimingMarksRejectsUnknownPaper(t *testing.T) {
	page := ballottest.Render(letter())
	path := writeFile(t, t.TempDir(), "page.png", encodePNG(t, page))
	_, err := call(t, New(), "find_timing_marks", map[string]interface{}{
		"image":      map[string]string{"path": path},
		"paper_size": "a4",
	})
	if err == nil {
		t.Fatal("expected error for unknown paper size")
	}
}

func TestEncodeDecodeTimingMarkMetadata(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"front", map[string]interface{}{"side": "front", "batch_or_precinct": 1234, "card_number": 5}},
		{"back", map[string]interface{}{"side": "back", "day": 15, "month": 11, "year": 24, "election_type": "G"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := call(t, s, "encode_timing_mark_metadata", tt.args)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			enc := out.(*encodedTimingMarks)
			if len(enc.Bits) != 32 || len(enc.BottomMarks) != 34 {
				t.Fatalf("bits=%d marks=%d", len(enc.Bits), len(enc.BottomMarks))
			}

			out, err = call(t, s, "decode_timing_mark_metadata", map[string]interface{}{"side": tt.name, "bits": enc.Bits})
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			dec := out.(*decodedTimingMarks)
			switch tt.name {
			case "front":
				if dec.Front == nil || dec.Front.BatchOrPrecinct.Int() != 1234 || dec.Front.CardNumber.Int() != 5 || len(dec.Warnings) != 0 {
					t.Errorf("front: %+v warnings %v", dec.Front, dec.Warnings)
				}
			case "back":
				if dec.Back == nil || dec.Back.ElectionTypeLetter() != 'G' {
					t.Errorf("back: %+v", dec.Back)
				}
			}
		})
	}
}

func TestEncodeTimingMarkMetadataErrors(t *testing.T) {
	s := New()
	tests := []map[string]interface{}{
		{"side": "front", "card_number": 1 << 13},
		{"side": "back", "day": 1, "month": 1, "year": 24, "election_type": "GG"},
		{"side": "back", "day": 32, "month": 1, "year": 24, "election_type": "G"},
		{"side": "middle"},
	}
	for _, args := range tests {
		if _, err := call(t, s, "encode_timing_mark_metadata", args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestDecodeQRMetadata(t *testing.T) {
	page, err := metadata.NewPageNumber(3)
	if err != nil {
		t.Fatal(err)
	}
	data, err := metadata.EncodeQRMetadata(&metadata.QRMetadata{
		BallotHash: "d27ab6588b1869544cde",
		PageNumber: page,
		BallotType: metadata.BallotTypeAbsentee,
	})
	if err != nil {
		t.Fatal(err)
	}
	electionPath := writeFile(t, t.TempDir(), "election.json", []byte(testElection))

	out, err := call(t, New(), "decode_qr_metadata", map[string]string{
		"data_base64":   base64.StdEncoding.EncodeToString(data),
		"election_path": electionPath,
	})
	if err != nil {
		t.Fatalf("decode_qr_metadata: %v", err)
	}
	res := out.(*decodedQR)
	if res.Metadata.PageNumber.Value() != 3 || res.OppositePage.PageNumber.Value() != 4 {
		t.Errorf("pages: %d / %d", res.Metadata.PageNumber.Value(), res.OppositePage.PageNumber.Value())
	}
	if res.PrecinctID != "precinct-1" || res.BallotStyleID != "card-number-3" {
		t.Errorf("resolved: %q %q", res.PrecinctID, res.BallotStyleID)
	}

	if _, err := call(t, New(), "decode_qr_metadata", map[string]string{"data_base64": "!!"}); err == nil {
		t.Error("expected error for bad base64")
	}
}

func TestImageInfoAndCrop(t *testing.T) {
	page := ballottest.Render(letter())
	path := writeFile(t, t.TempDir(), "page.png", encodePNG(t, page))
	s := New()

	out, err := call(t, s, "image_info", map[string]interface{}{"image": map[string]string{"path": path}})
	if err != nil {
		t.Fatalf("image_info: %v", err)
	}
	info := out.(map[string]interface{})
	if got := info["info"].(*imaging.ImageInfo); got.Width != 1700 || got.Format != "png" {
		t.Errorf("info: %+v", got)
	}
	if info["paper_size"] != ballot.PaperLetter {
		t.Errorf("paper size: %v", info["paper_size"])
	}

	out, err = call(t, s, "image_crop", map[string]interface{}{
		"image": map[string]string{"path": path},
		"x1":    0, "y1": 0, "x2": 100, "y2": 50,
	})
	if err != nil {
		t.Fatalf("image_crop: %v", err)
	}
	if enc := out.(*imaging.Encoded); enc.Width != 100 || enc.Height != 50 {
		t.Errorf("crop: %dx%d", enc.Width, enc.Height)
	}

	_, err = call(t, s, "image_ocr_region", map[string]interface{}{
		"image": map[string]string{"path": path},
		"x1":    100, "y1": 100, "x2": 50, "y2": 50,
	})
	if err == nil {
		t.Error("expected error for an empty region")
	}
}

func TestToolArgumentErrors(t *testing.T) {
	s := New()
	tests := []struct {
		name string
		tool string
		args interface{}
		want error
	}{
		{"no image", "image_info", map[string]interface{}{}, imaging.ErrEmptySource},
		{"no store list", "list_interpretations", map[string]interface{}{}, ErrNoStore},
		{"no store get", "get_interpretation", map[string]string{"id": "x"}, ErrNoStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := call(t, s, tt.tool, tt.args); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	both := map[string]interface{}{"image": map[string]string{"path": "/x.png", "image_base64": "AA=="}}
	if _, err := call(t, s, "image_info", both); err == nil {
		t.Error("expected error when both sources are given")
	}
	if _, err := call(t, s, "nope", nil); err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("unknown tool: %v", err)
	}
}

func TestHandleToolsCall(t *testing.T) {
	s := New()
	ctx := context.Background()

	resp := s.handleRequest(ctx, &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "tools/call",
		Params: json.RawMessage(`{"name":"encode_timing_mark_metadata","arguments":{"side":"front","batch_or_precinct":1,"card_number":2}}`),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("content: %+v", content)
	}
	var enc encodedTimingMarks
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &enc); err != nil {
		t.Fatalf("content text is not JSON: %v", err)
	}
	if len(enc.Bits) != 32 {
		t.Errorf("bits: %d", len(enc.Bits))
	}

	resp = s.handleRequest(ctx, &MCPRequest{
		JSONRPC: "2.0", ID: 2, Method: "tools/call",
		Params: json.RawMessage(`{"name":"image_info","arguments":{"image":{"path":"/does/not/exist.png"}}}`),
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("missing file: %+v", resp.Error)
	}

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "tools/call", Params: json.RawMessage(`[]`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("bad params: %+v", resp.Error)
	}
}
