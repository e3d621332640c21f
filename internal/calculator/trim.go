package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Door and transition openings are deducted at 3 ft each
const openingFt = 3

// TrimRoom is shared by the trim calculators. Perimeter wins over
// length and width when both are given.
type TrimRoom struct {
	Perimeter   float64 `json:"perimeter"`
	RoomLength  float64 `json:"roomLength"`
	RoomWidth   float64 `json:"roomWidth"`
	Profile     string  `json:"profile"`
	StockLength float64 `json:"stockLength"`
	Complexity  string  `json:"complexity"`
}

func (r TrimRoom) perimeter() float64 {
	if r.Perimeter > 0 {
		return r.Perimeter
	}
	if positive(r.RoomLength, r.RoomWidth) {
		return 2 * (r.RoomLength + r.RoomWidth)
	}
	return 0
}

// CrownInput adds corner counts to the room
type CrownInput struct {
	TrimRoom
	InsideCorners  *int `json:"insideCorners"`
	OutsideCorners int  `json:"outsideCorners"`
}

// CrownResult is crown stock and corner counts
type CrownResult struct {
	Perimeter      float64         `json:"perimeter"`
	LinearFt       float64         `json:"linearFt"`
	Pieces         int             `json:"pieces"`
	InsideCorners  int             `json:"insideCorners"`
	OutsideCorners int             `json:"outsideCorners"`
	CornerBlocks   int             `json:"cornerBlocks"`
	WastePercent   int             `json:"wastePercent"`
	MaterialCost   decimal.Decimal `json:"materialCost"`
	Note           string          `json:"note"`
}

// Crown calculates crown molding for a room, four inside corners by default
func Crown(in CrownInput) *CrownResult {
	perim := in.perimeter()
	if !positive(perim) {
		return nil
	}

	profile := trimPreset(CrownPresets, in.Profile, 1)
	stock := orDefault(in.StockLength, 12)
	waste := trimWasteFactor(in.Complexity)

	linear := dec(perim).Mul(decimal.NewFromInt(1).Add(dec(waste)))
	inside := 4
	if in.InsideCorners != nil {
		inside = *in.InsideCorners
	}

	notes := []string{fmt.Sprintf("%s @ %g' lengths", profile.Name, stock)}
	if inside > 0 {
		notes = append(notes, fmt.Sprintf("%d inside corners (cope or miter)", inside))
	}
	if in.OutsideCorners > 0 {
		notes = append(notes, fmt.Sprintf("%d outside corners (miter)", in.OutsideCorners))
	}
	if profile.PaintGrade {
		notes = append(notes, "Paint grade, prime before install")
	}

	return &CrownResult{
		Perimeter:      round(perim, 1),
		LinearFt:       roundTo(linear, 1),
		Pieces:         ceilDiv(linear, dec(stock)),
		InsideCorners:  inside,
		OutsideCorners: in.OutsideCorners,
		CornerBlocks:   inside + in.OutsideCorners,
		WastePercent:   int(round(waste*100, 0)),
		MaterialCost:   money(linear.Mul(dec(profile.PricePerFt))),
		Note:           strings.Join(notes, ". "),
	}
}

// BaseboardInput adds door openings and optional wainscot panels
type BaseboardInput struct {
	TrimRoom
	DoorOpenings  int     `json:"doorOpenings"`
	IncludePanels bool    `json:"includePanels"`
	PanelHeight   float64 `json:"panelHeight"`
	PanelWidth    float64 `json:"panelWidth"`
	PanelCount    int     `json:"panelCount"`
}

// PanelDetails is wainscot frame stock
type PanelDetails struct {
	Count         int     `json:"count"`
	FramePerPanel float64 `json:"framePerPanel"`
	TotalFraming  float64 `json:"totalFraming"`
}

// BaseboardResult is base and panel framing stock
type BaseboardResult struct {
	GrossPerimeter float64         `json:"grossPerimeter"`
	NetPerimeter   float64         `json:"netPerimeter"`
	LinearFt       float64         `json:"linearFt"`
	PanelFramingFt float64         `json:"panelFramingFt"`
	TotalLinearFt  float64         `json:"totalLinearFt"`
	Pieces         int             `json:"pieces"`
	TotalPieces    int             `json:"totalPieces"`
	WastePercent   int             `json:"wastePercent"`
	MaterialCost   decimal.Decimal `json:"materialCost"`
	PanelDetails   *PanelDetails   `json:"panelDetails"`
	Note           string          `json:"note"`
}

// Baseboard deducts doors from the perimeter; windows sit above the base
func Baseboard(in BaseboardInput) *BaseboardResult {
	perim := in.perimeter()
	if !positive(perim) {
		return nil
	}

	profile := trimPreset(BaseboardPresets, in.Profile, 1)
	stock := orDefault(in.StockLength, 12)
	waste := trimWasteFactor(in.Complexity)

	doors := float64(in.DoorOpenings * openingFt)
	net := max(0, perim-doors)
	linear := dec(net).Mul(decimal.NewFromInt(1).Add(dec(waste)))

	framing := decimal.Zero
	var panels *PanelDetails
	if in.IncludePanels && in.PanelCount > 0 {
		h := orDefault(in.PanelHeight, 24)
		w := orDefault(in.PanelWidth, 18)
		perPanel := dec(2 * (h + w)).Div(decimal.NewFromInt(12))
		framing = perPanel.Mul(decimal.NewFromInt(int64(in.PanelCount))).Mul(decimal.NewFromInt(1).Add(dec(trimWaste["coffered"])))
		panels = &PanelDetails{
			Count:         in.PanelCount,
			FramePerPanel: roundTo(perPanel, 1),
			TotalFraming:  roundTo(framing, 1),
		}
	}
	total := linear.Add(framing)

	notes := []string{fmt.Sprintf("%s @ %g' lengths", profile.Name, stock)}
	if doors > 0 {
		notes = append(notes, fmt.Sprintf("%d door(s) deducted (%g ft)", in.DoorOpenings, doors))
	}
	if panels != nil {
		notes = append(notes, fmt.Sprintf("%d wainscot panels (%.1f ft framing)", panels.Count, panels.TotalFraming))
	}

	return &BaseboardResult{
		GrossPerimeter: round(perim, 1),
		NetPerimeter:   round(net, 1),
		LinearFt:       roundTo(linear, 1),
		PanelFramingFt: roundTo(framing, 1),
		TotalLinearFt:  roundTo(total, 1),
		Pieces:         ceilDiv(linear, dec(stock)),
		TotalPieces:    ceilDiv(total, dec(stock)),
		WastePercent:   int(round(waste*100, 0)),
		MaterialCost:   money(total.Mul(dec(profile.PricePerFt))),
		PanelDetails:   panels,
		Note:           strings.Join(notes, ". "),
	}
}

// QuarterInput adds cabinet runs and transitions to deduct
type QuarterInput struct {
	TrimRoom
	DoorOpenings     int     `json:"doorOpenings"`
	CabinetRuns      float64 `json:"cabinetRuns"`
	TransitionStrips int     `json:"transitionStrips"`
}

// QuarterResult is quarter-round or shoe stock
type QuarterResult struct {
	GrossPerimeter float64         `json:"grossPerimeter"`
	Deductions     float64         `json:"deductions"`
	NetPerimeter   float64         `json:"netPerimeter"`
	LinearFt       float64         `json:"linearFt"`
	Pieces         int             `json:"pieces"`
	WastePercent   int             `json:"wastePercent"`
	MaterialCost   decimal.Decimal `json:"materialCost"`
	Note           string          `json:"note"`
}

// Quarter calculates quarter round in 8 ft sticks unless told otherwise
func Quarter(in QuarterInput) *QuarterResult {
	perim := in.perimeter()
	if !positive(perim) {
		return nil
	}

	profile := trimPreset(QuarterPresets, in.Profile, 1)
	stock := orDefault(in.StockLength, 8)
	waste := trimWasteFactor(in.Complexity)

	doors := float64(in.DoorOpenings * openingFt)
	cabinets := max(0, in.CabinetRuns)
	transitions := float64(in.TransitionStrips * openingFt)
	deductions := doors + cabinets + transitions

	net := max(0, perim-deductions)
	linear := dec(net).Mul(decimal.NewFromInt(1).Add(dec(waste)))

	notes := []string{fmt.Sprintf("%s @ %g' lengths", profile.Name, stock)}
	if profile.Shoe {
		notes = append(notes, "Shoe molding, flexible for uneven floors")
	}
	if deductions > 0 {
		var items []string
		if doors > 0 {
			items = append(items, fmt.Sprintf("%d doors", in.DoorOpenings))
		}
		if cabinets > 0 {
			items = append(items, fmt.Sprintf("%g ft cabinets", cabinets))
		}
		if transitions > 0 {
			items = append(items, fmt.Sprintf("%d transitions", in.TransitionStrips))
		}
		notes = append(notes, fmt.Sprintf("Deducted: %s (%.1f ft)", strings.Join(items, ", "), deductions))
	}

	return &QuarterResult{
		GrossPerimeter: round(perim, 1),
		Deductions:     round(deductions, 1),
		NetPerimeter:   round(net, 1),
		LinearFt:       roundTo(linear, 1),
		Pieces:         ceilDiv(linear, dec(stock)),
		WastePercent:   int(round(waste*100, 0)),
		MaterialCost:   money(linear.Mul(dec(profile.PricePerFt))),
		Note:           strings.Join(notes, ". "),
	}
}
