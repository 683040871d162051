package metadata

import (
	"github.com/ironsheep/ballot-interpreter/internal/coding"
)

type pageNumberRange struct{}

func (pageNumberRange) Name() string { return "page number" }
func (pageNumberRange) Min() uint64  { return 1 }
func (pageNumberRange) Max() uint64  { return 30 }

// PageNumber is a 1-based page within a ballot. Odd pages are the front of
// a sheet.
type PageNumber = coding.Int[pageNumberRange]

// NewPageNumber validates n.
func NewPageNumber(n uint64) (PageNumber, error) {
	return coding.Checked[pageNumberRange](n)
}

// OppositePage is the other side of the same sheet.
func OppositePage(p PageNumber) PageNumber {
	if IsRecto(p) {
		return coding.NewUnchecked[pageNumberRange](p.Value() + 1)
	}
	return coding.NewUnchecked[pageNumberRange](p.Value() - 1)
}

// IsRecto reports whether p is the front of its sheet.
func IsRecto(p PageNumber) bool {
	return p.Value()%2 == 1
}

// SheetNumber is the 1-based sheet holding p.
func SheetNumber(p PageNumber) int {
	return int(p.Value()+1) / 2
}
