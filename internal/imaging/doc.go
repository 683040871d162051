// Package imaging resolves ballot image sources to decoded images.
//
// A Source is either a file path or an in-memory buffer. Both decode
// through the same registered formats (PNG, JPEG, GIF, TIFF and BMP) and
// are cached by the Cache, so a scan inspected by several tools is read
// once. Pixel coordinates are 0-based with (0,0) at the top-left.
package imaging
