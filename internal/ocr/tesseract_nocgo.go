//go:build !cgo

package ocr

func recognize([]byte, string) (*Result, error) {
	return nil, ErrUnavailable
}
