// Package geometry provides the value types shared by every stage of ballot
// interpretation: points, rectangles, sizes and segments, parameterized over
// distinct coordinate units.
//
// # Units
//
// Pixel, SubPixel, GridUnit and Inch are separate named types so that a
// pixel coordinate cannot be compared with a grid coordinate without an
// explicit conversion. Grid coordinates are turned into image coordinates
// only through a registered timing-mark grid.
//
// # Rectangles
//
// Rect follows inclusive edge semantics: Right() is Left+Width-1 and
// Bottom() is Top+Height-1. ImageRect converts to the half-open
// image.Rectangle used by the standard image packages.
package geometry
