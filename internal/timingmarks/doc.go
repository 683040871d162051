// Package timingmarks locates the timing-mark border printed around a
// ballot page and builds the grid that maps (column, row) coordinates to
// image pixels.
//
// FindGrid runs a fixed sequence of stages, each consuming the previous
// stage's full output:
//
//  1. Shapes: connected dark regions near the page edges whose size could be
//     a timing mark, possibly cropped by the scanner.
//  2. Candidates: each shape scored against the expected mark rectangle and
//     the light padding around it.
//  3. Lines and corners: the largest near-straight run of candidates along
//     each edge. A corner exists only when the same candidate ends both of
//     its edges' runs.
//  4. Orientation: a page with more marks along its bottom edge than its top
//     was fed upside down and is rotated.
//  5. Borders: each edge is walked from corner to corner at the expected
//     pitch, matching candidates and, when allowed, inferring the rest.
//
// Any stage that cannot produce a complete structure returns a typed error
// naming the stage's subject (a corner or a border); no partial grid is
// ever returned.
package timingmarks
