//go:build cgo

package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

func recognize(png []byte, language string) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return nil, fmt.Errorf("ocr: set page mode: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("ocr: set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	res := &Result{Text: text}

	// word boxes are optional; the text alone is still useful
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return res, nil
	}
	for _, box := range boxes {
		res.Words = append(res.Words, Word{
			Text:       box.Word,
			Confidence: box.Confidence / 100,
			Bounds:     geometry.RectFromImage(box.Box),
		})
	}
	return res, nil
}
