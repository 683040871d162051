package election

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Outset is a distance in grid units from each side of a target.
type Outset struct {
	Top    geometry.GridUnit `json:"top"`
	Bottom geometry.GridUnit `json:"bottom"`
	Left   geometry.GridUnit `json:"left"`
	Right  geometry.GridUnit `json:"right"`
}

// GridLayout places every contest option of a ballot style on the timing
// mark grid.
type GridLayout struct {
	BallotStyleID              string         `json:"ballotStyleId"`
	OptionBoundsFromTargetMark Outset         `json:"optionBoundsFromTargetMark"`
	GridPositions              []GridPosition `json:"gridPositions"`
}

// Positions returns the positions printed on one side of one sheet, in
// layout order.
func (l *GridLayout) Positions(sheetNumber int, side ballot.Side) []GridPosition {
	var out []GridPosition
	for _, p := range l.GridPositions {
		if p.SheetNumber == sheetNumber && p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// Sheets is the highest sheet number in the layout.
func (l *GridLayout) Sheets() int {
	n := 0
	for _, p := range l.GridPositions {
		n = max(n, p.SheetNumber)
	}
	return n
}

// PositionType tags the variant of a GridPosition.
type PositionType string

const (
	PositionOption  PositionType = "option"
	PositionWriteIn PositionType = "write-in"
)

// Area is a rectangle in grid units.
type Area struct {
	X      geometry.GridUnit `json:"x"`
	Y      geometry.GridUnit `json:"y"`
	Width  geometry.GridUnit `json:"width"`
	Height geometry.GridUnit `json:"height"`
}

// GridPosition is either a contest option or a write-in slot. OptionID is
// set only on options; WriteInIndex and WriteInArea only on write-ins.
type GridPosition struct {
	Type        PositionType      `json:"type"`
	ContestID   string            `json:"contestId"`
	SheetNumber int               `json:"sheetNumber"`
	Side        ballot.Side       `json:"side"`
	Column      geometry.GridUnit `json:"column"`
	Row         geometry.GridUnit `json:"row"`

	OptionID string `json:"optionId,omitempty"`

	WriteInIndex int   `json:"writeInIndex,omitempty"`
	WriteInArea  *Area `json:"writeInArea,omitempty"`
}

// NewOption builds an option position.
func NewOption(contestID, optionID string, sheet int, side ballot.Side, column, row geometry.GridUnit) GridPosition {
	return GridPosition{
		Type:        PositionOption,
		ContestID:   contestID,
		OptionID:    optionID,
		SheetNumber: sheet,
		Side:        side,
		Column:      column,
		Row:         row,
	}
}

// NewWriteIn builds a write-in position; area may be nil.
func NewWriteIn(contestID string, index, sheet int, side ballot.Side, column, row geometry.GridUnit, area *Area) GridPosition {
	return GridPosition{
		Type:         PositionWriteIn,
		ContestID:    contestID,
		WriteInIndex: index,
		WriteInArea:  area,
		SheetNumber:  sheet,
		Side:         side,
		Column:       column,
		Row:          row,
	}
}

// IsWriteIn reports the variant.
func (p GridPosition) IsWriteIn() bool { return p.Type == PositionWriteIn }

// OptionKey identifies the option a mark at this position votes for.
// Write-ins use write-in-<index>.
func (p GridPosition) OptionKey() string {
	if p.IsWriteIn() {
		return "write-in-" + strconv.Itoa(p.WriteInIndex)
	}
	return p.OptionID
}

// Location is the position's grid coordinate.
func (p GridPosition) Location() geometry.Point[geometry.GridUnit] {
	return geometry.Pt(p.Column, p.Row)
}

func (p GridPosition) String() string {
	return fmt.Sprintf("%s/%s@(%v,%v)", p.ContestID, p.OptionKey(), p.Column, p.Row)
}

// UnmarshalJSON rejects positions whose fields do not match their type.
func (p *GridPosition) UnmarshalJSON(data []byte) error {
	type raw GridPosition
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Type {
	case PositionOption:
		if r.OptionID == "" {
			return fmt.Errorf("option position in %s: missing optionId", r.ContestID)
		}
		if r.WriteInArea != nil {
			return fmt.Errorf("option position %s: unexpected writeInArea", r.OptionID)
		}
	case PositionWriteIn:
		if r.OptionID != "" {
			return fmt.Errorf("write-in position in %s: unexpected optionId", r.ContestID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPositionType, r.Type)
	}
	*p = GridPosition(r)
	return nil
}
