// Package detection finds connected regions of dark pixels in a binarized
// ballot image.
//
// # Algorithm
//
// FindShapes walks every foreground pixel inside the requested search
// regions. Each unvisited pixel seeds an iterative, stack-based flood fill
// over its 8-connected foreground neighbors; the fill may leave the search
// region, so a mark straddling the region edge is still reported whole.
// Regions above a pixel budget are discarded, which keeps a stray scanner
// border or a large block of ink from being reported as a shape.
//
// # Coordinate System
//
// Coordinates follow the image convention: origin at the top-left, X
// rightward, Y downward. Shape bounds use inclusive edges, like every
// geometry.Rect.
package detection
