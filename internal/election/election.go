// Package election holds the parts of an election definition the
// interpreter reads: precincts, ballot styles and the grid layout of every
// ballot style's contest options.
package election

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
)

var (
	// ErrInvalidElection is returned for definitions that parse but are
	// not consistent.
	ErrInvalidElection = errors.New("invalid election definition")

	// ErrUnknownPositionType is returned for a grid position whose type is
	// neither option nor write-in.
	ErrUnknownPositionType = errors.New("unknown grid position type")
)

// MetadataEncoding is how a ballot identifies itself.
type MetadataEncoding string

const (
	// EncodingTimingMarks stores metadata in the bottom timing-mark border.
	EncodingTimingMarks MetadataEncoding = "timing-marks"
	// EncodingQRCode stores metadata in a QR code.
	EncodingQRCode MetadataEncoding = "qr-code"
)

// Precinct is a voting precinct.
type Precinct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BallotStyle is one printed ballot variant.
type BallotStyle struct {
	ID          string   `json:"id"`
	PrecinctIDs []string `json:"precincts"`
}

// BallotLayout describes the paper the election is printed on.
type BallotLayout struct {
	PaperSize        ballot.PaperSize `json:"paperSize"`
	MetadataEncoding MetadataEncoding `json:"metadataEncoding"`
}

// Election is the subset of an election definition used for
// interpretation.
type Election struct {
	Title        string        `json:"title"`
	Precincts    []Precinct    `json:"precincts"`
	BallotStyles []BallotStyle `json:"ballotStyles"`
	BallotLayout BallotLayout  `json:"ballotLayout"`
	GridLayouts  []GridLayout  `json:"gridLayouts"`
}

// Load reads and validates an election definition file.
func Load(path string) (*Election, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read election: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an election definition.
func Parse(data []byte) (*Election, error) {
	var e Election
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse election: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks references between the definition's parts.
func (e *Election) Validate() error {
	var errs []error
	if e.BallotLayout.PaperSize != "" {
		if _, err := ballot.ParsePaperSize(string(e.BallotLayout.PaperSize)); err != nil {
			errs = append(errs, err)
		}
	}
	switch e.BallotLayout.MetadataEncoding {
	case "", EncodingTimingMarks, EncodingQRCode:
	default:
		errs = append(errs, fmt.Errorf("metadata encoding %q", e.BallotLayout.MetadataEncoding))
	}

	precincts := make(map[string]bool, len(e.Precincts))
	for _, p := range e.Precincts {
		precincts[p.ID] = true
	}
	for _, s := range e.BallotStyles {
		for _, id := range s.PrecinctIDs {
			if !precincts[id] {
				errs = append(errs, fmt.Errorf("ballot style %s: unknown precinct %s", s.ID, id))
			}
		}
	}

	seen := make(map[string]bool, len(e.GridLayouts))
	for _, l := range e.GridLayouts {
		if seen[l.BallotStyleID] {
			errs = append(errs, fmt.Errorf("duplicate grid layout for ballot style %s", l.BallotStyleID))
		}
		seen[l.BallotStyleID] = true
		for i, p := range l.GridPositions {
			if p.Column < 0 || p.Row < 0 {
				errs = append(errs, fmt.Errorf("ballot style %s position %d: negative location", l.BallotStyleID, i))
			}
			if p.Side != ballot.SideFront && p.Side != ballot.SideBack {
				errs = append(errs, fmt.Errorf("ballot style %s position %d: side %q", l.BallotStyleID, i, p.Side))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidElection, err)
	}
	return nil
}

// PaperSize is the configured paper size, Letter when unset.
func (e *Election) PaperSize() ballot.PaperSize {
	if e.BallotLayout.PaperSize == "" {
		return ballot.PaperLetter
	}
	return e.BallotLayout.PaperSize
}

// PrecinctIDAt resolves a precinct index. It also returns the number of
// precincts.
func (e *Election) PrecinctIDAt(index int) (string, int, bool) {
	if index < 0 || index >= len(e.Precincts) {
		return "", len(e.Precincts), false
	}
	return e.Precincts[index].ID, len(e.Precincts), true
}

// BallotStyleIDAt resolves a ballot style index. It also returns the number
// of ballot styles.
func (e *Election) BallotStyleIDAt(index int) (string, int, bool) {
	if index < 0 || index >= len(e.BallotStyles) {
		return "", len(e.BallotStyles), false
	}
	return e.BallotStyles[index].ID, len(e.BallotStyles), true
}

// GridLayoutFor returns the layout of a ballot style.
func (e *Election) GridLayoutFor(ballotStyleID string) (*GridLayout, bool) {
	for i := range e.GridLayouts {
		if e.GridLayouts[i].BallotStyleID == ballotStyleID {
			return &e.GridLayouts[i], true
		}
	}
	return nil, false
}

// CardNumberBallotStyleID names the ballot style that timing-mark ballots
// with the given front card number belong to.
func CardNumberBallotStyleID(cardNumber int) string {
	return "card-number-" + strconv.Itoa(cardNumber)
}
