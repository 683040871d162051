// Package ballot describes scanned ballot pages: the paper sizes a scanner
// may deliver, the layout geometry implied by each size, and the prepared
// grayscale image every later stage reads from.
//
// # Preparing a page
//
// PreparePage takes a decoded scan and
//
//  1. converts it to 8-bit grayscale,
//  2. computes an Otsu threshold and crops the dark scanner border,
//  3. selects the Geometry whose canvas aspect ratio matches the image,
//  4. resizes the image to that canvas when its pixel size differs.
//
// The returned Image is never modified afterwards; Rotate180 and Resize
// return new values.
package ballot
