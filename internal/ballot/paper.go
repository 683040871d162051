package ballot

import (
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// PaperSize names a supported sheet size.
type PaperSize string

const (
	PaperLetter   PaperSize = "letter"
	PaperLegal    PaperSize = "legal"
	PaperCustom17 PaperSize = "custom-8.5x17"
	PaperCustom19 PaperSize = "custom-8.5x19"
	PaperCustom22 PaperSize = "custom-8.5x22"
)

// PaperSizes lists every supported size, smallest first.
var PaperSizes = []PaperSize{PaperLetter, PaperLegal, PaperCustom17, PaperCustom19, PaperCustom22}

// Dimensions is the physical size of the sheet.
func (p PaperSize) Dimensions() geometry.Size[geometry.Inch] {
	switch p {
	case PaperLegal:
		return geometry.Size[geometry.Inch]{Width: 8.5, Height: 14}
	case PaperCustom17:
		return geometry.Size[geometry.Inch]{Width: 8.5, Height: 17}
	case PaperCustom19:
		return geometry.Size[geometry.Inch]{Width: 8.5, Height: 19}
	case PaperCustom22:
		return geometry.Size[geometry.Inch]{Width: 8.5, Height: 22}
	default:
		return geometry.Size[geometry.Inch]{Width: 8.5, Height: 11}
	}
}

// ParsePaperSize accepts the names above.
func ParsePaperSize(s string) (PaperSize, error) {
	for _, p := range PaperSizes {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown paper size %q", s)
}

// ScanPixelsPerInch is the resolution ballot scanners deliver.
const ScanPixelsPerInch = 200

// Margins is the unprinted band around the content area.
type Margins struct {
	Top    geometry.Inch `json:"top"`
	Bottom geometry.Inch `json:"bottom"`
	Left   geometry.Inch `json:"left"`
	Right  geometry.Inch `json:"right"`
}

// ScanMargins leaves 12pt at the top and bottom and 5mm at the sides.
var ScanMargins = Margins{
	Top:    1.0 / 6.0,
	Bottom: 1.0 / 6.0,
	Left:   5.0 / 25.4,
	Right:  5.0 / 25.4,
}

// TimingMarkSize is the printed size of every timing mark.
var TimingMarkSize = geometry.Size[geometry.Inch]{Width: 3.0 / 16.0, Height: 1.0 / 16.0}

// OvalSize is the printed size of a voting oval.
var OvalSize = geometry.Size[geometry.Inch]{Width: 0.2, Height: 0.13}

// PaperInfo is everything needed to derive a Geometry.
type PaperInfo struct {
	Size          PaperSize `json:"size"`
	Margins       Margins   `json:"margins"`
	PixelsPerInch int       `json:"pixels_per_inch"`
}

// ScannedPaperInfo describes a scan of the given size.
func ScannedPaperInfo(size PaperSize) PaperInfo {
	return PaperInfo{Size: size, Margins: ScanMargins, PixelsPerInch: ScanPixelsPerInch}
}

// ScannedPaperInfos describes every supported scan.
func ScannedPaperInfos() []PaperInfo {
	infos := make([]PaperInfo, len(PaperSizes))
	for i, p := range PaperSizes {
		infos[i] = ScannedPaperInfo(p)
	}
	return infos
}

// Geometry computes the layout of a sheet. The grid has four columns per
// inch of width and four rows per inch of height, less three rows.
func (p PaperInfo) Geometry() Geometry {
	canvas := p.Size.Dimensions()
	ppi := geometry.SubPixel(p.PixelsPerInch)
	contentWidth := canvas.Width - p.Margins.Left - p.Margins.Right
	contentHeight := canvas.Height - p.Margins.Top - p.Margins.Bottom

	content := geometry.NewRect(
		geometry.Pixel(p.Margins.Left.Pixels(ppi)),
		geometry.Pixel(p.Margins.Top.Pixels(ppi)),
		contentWidth.Pixels(ppi).Round(),
		contentHeight.Pixels(ppi).Round(),
	)

	const columnsPerInch, rowsPerInch = 4, 4
	grid := geometry.Size[geometry.GridUnit]{
		Width:  geometry.GridUnit(int(columnsPerInch * float64(canvas.Width))),
		Height: geometry.GridUnit(int(rowsPerInch*float64(canvas.Height)) - 3),
	}

	vertical := (contentHeight - geometry.Inch(grid.Height)*TimingMarkSize.Height) / geometry.Inch(grid.Height-1)
	horizontal := (contentWidth - geometry.Inch(grid.Width)*TimingMarkSize.Width) / geometry.Inch(grid.Width-1)

	return Geometry{
		PaperSize:                   p.Size,
		PixelsPerInch:               p.PixelsPerInch,
		CanvasSize:                  canvas,
		ContentArea:                 content,
		TimingMarkSize:              TimingMarkSize,
		TimingMarkVerticalSpacing:   vertical,
		TimingMarkHorizontalSpacing: horizontal,
		GridSize:                    grid,
		OvalSize:                    OvalSize,
	}
}
