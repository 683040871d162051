// Package ocr reads the text written in ballot write-in areas using the
// Tesseract engine (via gosseract/v2).
//
// Tesseract must be installed with the language data for the configured
// language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Binaries built without cgo carry no engine; every read returns
// ErrUnavailable and interpretation continues without text.
package ocr
