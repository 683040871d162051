package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr: tesseract not available in this build")

// DefaultLanguage is the Tesseract language code used when none is set.
const DefaultLanguage = "eng"

// Word is one recognized word and where it was found.
type Word struct {
	Text string `json:"text"`

	// Confidence is Tesseract's certainty, from 0 to 1.
	Confidence float64       `json:"confidence"`
	Bounds     geometry.Rect `json:"bounds"`
}

// Result is the text recognized in one image.
type Result struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Reader recognizes text in cropped write-in areas.
type Reader struct {
	language      string
	minConfidence float64
	engine        func(png []byte, language string) (*Result, error)
}

// NewReader returns a Reader for a Tesseract language code. Words below
// minConfidence are dropped.
func NewReader(language string, minConfidence float64) *Reader {
	if language == "" {
		language = DefaultLanguage
	}
	return &Reader{language: language, minConfidence: minConfidence, engine: recognize}
}

// Language is the configured language code.
func (r *Reader) Language() string { return r.language }

// Read recognizes the text of img.
func (r *Reader) Read(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("ocr: empty image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("ocr: encode image: %w", err)
	}
	res, err := r.engine(buf.Bytes(), r.language)
	if err != nil {
		return nil, err
	}
	res.Words = filterWords(res.Words, r.minConfidence)
	return res, nil
}

// ReadText recognizes img and returns its words joined by single spaces,
// reduced to the characters a write-in name can hold.
func (r *Reader) ReadText(ctx context.Context, img image.Image) (string, error) {
	res, err := r.Read(ctx, img)
	if err != nil {
		return "", err
	}
	words := make([]string, len(res.Words))
	for i, w := range res.Words {
		words[i] = w.Text
	}
	text := strings.Join(words, " ")
	if len(words) == 0 {
		text = res.Text
	}
	return metadata.NormalizeWriteInName(text).String(), nil
}

func filterWords(words []Word, minConfidence float64) []Word {
	kept := words[:0]
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minConfidence {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
