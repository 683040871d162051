// Package interpret turns a scanned ballot card, one image per side, into
// located grids, decoded metadata and scored ovals.
//
// Both sides run in parallel and fail independently. A side that fails
// keeps whatever stages completed and carries a *SideError naming the
// stage; the card-level error joins every side error with any card-level
// problem such as a missing grid layout.
package interpret
