package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func fakeEngine(res *Result, err error) func([]byte, string) (*Result, error) {
	return func(png []byte, _ string) (*Result, error) {
		if len(png) == 0 {
			return nil, errors.New("no image data")
		}
		if res == nil {
			return nil, err
		}
		copied := *res
		copied.Words = append([]Word(nil), res.Words...)
		return &copied, err
	}
}

func TestReadTextNormalizesWords(t *testing.T) {
	r := NewReader("", 0.5)
	if r.Language() != DefaultLanguage {
		t.Errorf("language = %q", r.Language())
	}
	r.engine = fakeEngine(&Result{
		Text: "jane ~ doe\n",
		Words: []Word{
			{Text: "jane", Confidence: 0.9},
			{Text: "~", Confidence: 0.2},
			{Text: "doe!", Confidence: 0.8},
			{Text: " ", Confidence: 0.99},
		},
	}, nil)

	text, err := r.ReadText(context.Background(), imaging.New(100, 20, color.White))
	if err != nil {
		t.Fatal(err)
	}
	if text != "JANE DOE" {
		t.Errorf("text = %q, want %q", text, "JANE DOE")
	}
}

func TestReadTextFallsBackToFullText(t *testing.T) {
	r := NewReader("eng", 0)
	r.engine = fakeEngine(&Result{Text: "  o'brien  "}, nil)

	text, err := r.ReadText(context.Background(), imaging.New(100, 20, color.White))
	if err != nil {
		t.Fatal(err)
	}
	if text != "O'BRIEN" {
		t.Errorf("text = %q", text)
	}
}

func TestReadErrors(t *testing.T) {
	r := NewReader("eng", 0)
	r.engine = fakeEngine(nil, ErrUnavailable)

	if _, err := r.Read(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("read an empty image")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Read(ctx, imaging.New(10, 10, color.White)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	if _, err := r.ReadText(context.Background(), imaging.New(10, 10, color.White)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
