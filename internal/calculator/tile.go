package calculator

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Sanded cement grout density in lbs per cubic inch
	groutDensitySanded = 1.86
	groutDensityEpoxy  = 2.0
	groutWaste         = 1.1

	defaultJointWidth = 0.125
	defaultJointDepth = 0.375

	atticStockRate = 0.05
)

// TileInput holds the tile quantity inputs
type TileInput struct {
	Area         float64 `json:"area"`
	TileSize     string  `json:"tileSize"`
	Layout       string  `json:"layout"`
	Waste        float64 `json:"waste"`
	TilesPerBox  int     `json:"tilesPerBox"`
	SqftPerBox   float64 `json:"sqftPerBox"`
	AtticStock   bool    `json:"atticStock"`
	CustomWidth  float64 `json:"customWidth"`
	CustomHeight float64 `json:"customHeight"`
}

// TileResult is the tile and box count
type TileResult struct {
	AreaWithWaste float64 `json:"areaWithWaste"`
	TilesNeeded   int     `json:"tilesNeeded"`
	Boxes         int     `json:"boxes"`
	WastePercent  float64 `json:"wastePercent"`
	IsLargeFormat bool    `json:"isLargeFormat"`
	Note          string  `json:"note,omitempty"`
	Warning       string  `json:"warning,omitempty"`
}

// Tile calculates tiles and boxes for an area including layout waste
func Tile(in TileInput) *TileResult {
	if !positive(in.Area) {
		return nil
	}

	tile := tilePreset(in.TileSize)
	if tile.Custom {
		if !positive(in.CustomWidth, in.CustomHeight) {
			return nil
		}
		tile = customTile(tile, in.CustomWidth, in.CustomHeight)
	}

	layout := layoutPreset(in.Layout)
	waste := layout.Waste
	if in.Waste > 0 {
		waste = in.Waste
	}

	areaWithWaste := dec(in.Area).Mul(percent(waste))

	var tiles int
	if tile.Mosaic && tile.SheetCoverage > 0 {
		tiles = ceilDiv(areaWithWaste, dec(tile.SheetCoverage))
	} else {
		tiles = ceilDiv(areaWithWaste.Mul(sqIn), dec(tile.Width).Mul(dec(tile.Height)))
	}

	boxes := 0
	switch {
	case in.TilesPerBox > 0:
		boxes = ceilDiv(decimal.NewFromInt(int64(tiles)), decimal.NewFromInt(int64(in.TilesPerBox)))
	case in.SqftPerBox > 0:
		boxes = ceilDiv(areaWithWaste, dec(in.SqftPerBox))
	}
	if in.AtticStock && boxes > 0 {
		boxes += max(1, ceilInt(decimal.NewFromInt(int64(boxes)).Mul(dec(atticStockRate))))
	}

	var notes, warnings []string
	if tile.Mosaic {
		notes = append(notes, "Mosaic sheets (1 sq ft each)")
	}
	if tile.LargeFormat {
		notes = append(notes, "Large-format tile (LFT) requires 95% mortar coverage")
		if layout.LippageRisk {
			warnings = append(warnings, layout.LFTWarning)
		}
	}

	return &TileResult{
		AreaWithWaste: roundTo(areaWithWaste, 1),
		TilesNeeded:   tiles,
		Boxes:         boxes,
		WastePercent:  waste,
		IsLargeFormat: tile.LargeFormat,
		Note:          strings.Join(notes, ". "),
		Warning:       strings.Join(warnings, " "),
	}
}

func customTile(t TilePreset, w, h float64) TilePreset {
	t.Width, t.Height = w, h
	longest := math.Max(w, h)
	t.LargeFormat = longest >= lftMinSide
	t.Plank = longest >= 24 && math.Min(w, h) <= 12
	return t
}

// MortarInput holds the thinset inputs
type MortarInput struct {
	Area       float64 `json:"area"`
	Trowel     string  `json:"trowel"`
	BackButter bool    `json:"backButter"`
	TileSize   string  `json:"tileSize"`
}

// MortarResult is a 50 lb bag range
type MortarResult struct {
	BagsMin    int    `json:"bagsMin"`
	BagsMax    int    `json:"bagsMax"`
	Coverage   string `json:"coverage"`
	BackButter bool   `json:"backButter"`
	Note       string `json:"note,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

// Mortar estimates thinset bags from trowel coverage
func Mortar(in MortarInput) *MortarResult {
	if !positive(in.Area) {
		return nil
	}

	trowel := trowelPreset(in.Trowel)
	lft := false
	if t, ok := findTile(in.TileSize); ok {
		lft = t.LargeFormat
	}

	area := dec(in.Area)
	bagsMin := ceilDiv(area, dec(trowel.Max))
	bagsMax := ceilDiv(area, dec(trowel.Min))

	backButter := in.BackButter || lft
	if backButter {
		bagsMin = ceilInt(decimal.NewFromInt(int64(bagsMin)).Mul(dec(1.2)))
		bagsMax = ceilInt(decimal.NewFromInt(int64(bagsMax)).Mul(dec(1.3)))
	}

	coverage := fmt.Sprintf("%g–%g sq ft/bag", trowel.Min, trowel.Max)
	notes := []string{"Coverage: " + coverage + " per CBP TDS-132"}
	var warnings []string
	if backButter {
		notes = append(notes, "Includes ~25% extra for back-buttering")
	}
	if lft {
		if trowel.NotForLFT {
			warnings = append(warnings, trowel.Name+` NOT recommended for LFT, use 3/4" U-notch`)
		} else if trowel.ForLFT {
			notes = append(notes, "Correct trowel for LFT")
		}
	}

	return &MortarResult{
		BagsMin:    bagsMin,
		BagsMax:    bagsMax,
		Coverage:   coverage,
		BackButter: backButter,
		Note:       strings.Join(notes, ". "),
		Warning:    strings.Join(warnings, " "),
	}
}

// GroutInput holds joint geometry; tile dimensions may come from a preset
type GroutInput struct {
	Area          float64 `json:"area"`
	TileWidth     float64 `json:"tileWidth"`
	TileLength    float64 `json:"tileLength"`
	TileThickness float64 `json:"tileThickness"`
	JointWidth    float64 `json:"jointWidth"`
	TileSize      string  `json:"tileSize"`
	GroutType     string  `json:"groutType"`
}

// GroutResult is pounds of grout with bag counts
type GroutResult struct {
	Pounds     int     `json:"pounds"`
	Bags25lb   int     `json:"bags25lb"`
	Bags10lb   int     `json:"bags10lb"`
	Coverage   float64 `json:"coverage"`
	LbsPerSqFt float64 `json:"lbsPerSqFt"`
	VolumeCuFt float64 `json:"volumeCuFt"`
	Note       string  `json:"note"`
}

// Grout applies area × (L+W)/(L×W) × depth × width × density with 10% waste
func Grout(in GroutInput) *GroutResult {
	if !positive(in.Area) {
		return nil
	}

	w, l := in.TileWidth, in.TileLength
	if !positive(w, l) && in.TileSize != "" {
		if t, ok := findTile(in.TileSize); ok && t.Width > 0 {
			w, l = t.Width, t.Height
		}
	}
	if !positive(w, l) {
		return nil
	}

	joint := dec(orDefault(in.JointWidth, defaultJointWidth))
	depth := dec(orDefault(in.TileThickness, defaultJointDepth))
	density, kind := groutDensitySanded, "Sanded"
	if in.GroutType == "epoxy" {
		density, kind = groutDensityEpoxy, "Epoxy"
	}

	L, W := dec(l), dec(w)
	jointRatio := L.Add(W).Div(L.Mul(W))
	cuInPerSqIn := jointRatio.Mul(depth).Mul(joint)
	lbsPerSqFt := cuInPerSqIn.Mul(dec(density))
	if lbsPerSqFt.IsZero() {
		return nil
	}

	area := dec(in.Area)
	lbs := area.Mul(lbsPerSqFt).Mul(dec(groutWaste))
	volume := cuInPerSqIn.Mul(area).Mul(sqIn).Div(cuIn).Mul(dec(groutWaste))

	return &GroutResult{
		Pounds:     ceilInt(lbs),
		Bags25lb:   ceilDiv(lbs, decimal.NewFromInt(25)),
		Bags10lb:   ceilDiv(lbs, decimal.NewFromInt(10)),
		Coverage:   roundTo(decimal.NewFromInt(1).Div(lbsPerSqFt), 1),
		LbsPerSqFt: roundTo(lbsPerSqFt, 3),
		VolumeCuFt: roundTo(volume, 3),
		Note:       fmt.Sprintf("%s grout with 10%% waste. ~%s lbs/sq ft", kind, lbsPerSqFt.StringFixed(2)),
	}
}

// TrowelInput describes the tile to be set
type TrowelInput struct {
	TileSize  string  `json:"tileSize"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Substrate string  `json:"substrate"`
}

// TrowelResult is the recommended notch
type TrowelResult struct {
	TrowelID   string `json:"trowelId"`
	Name       string `json:"name"`
	BackButter bool   `json:"backButter"`
	Note       string `json:"note"`
	Warning    string `json:"warning,omitempty"`
}

var trowelOrder = []string{"3/16-v", "1/4-sq", "1/4x3/8-sq", "3/4-u-30", "3/4-u-45"}

// RecommendTrowel picks a notch from tile size per CBP TDS-132
func RecommendTrowel(in TrowelInput) *TrowelResult {
	tile := TilePreset{Width: in.Width, Height: in.Height}
	if t, ok := findTile(in.TileSize); ok && !t.Custom {
		tile = t
	}
	if !positive(tile.Width, tile.Height) {
		return nil
	}

	smallest := math.Min(tile.Width, tile.Height)
	largest := math.Max(tile.Width, tile.Height)
	lft := tile.LargeFormat || largest >= lftMinSide

	r := &TrowelResult{TrowelID: "1/4-sq"}
	switch {
	case tile.Mosaic || smallest <= 2:
		r.TrowelID = "3/16-v"
		r.Note = `Small tile/mosaic: 3/16" V-notch is standard for thin mosaics.`
	case largest <= 8:
		r.Note = `1/4" × 1/4" square notch per CBP TDS: 90-100 sq ft/bag coverage.`
	case largest <= 13:
		r.TrowelID = "1/4x3/8-sq"
		r.Note = `1/4" × 3/8" square notch per CBP TDS: 60-67 sq ft/bag coverage.`
	case lft:
		r.TrowelID = "3/4-u-30"
		r.BackButter = true
		r.Note = `Large-format tile: 3/4"×9/16" U-notch @ 30° recommended per CBP TDS-132. Back-butter required for 95% coverage.`
		r.Warning = `CBP does NOT recommend 1/2"×1/2" square notch for LFT.`
	default:
		r.TrowelID = "1/4x3/8-sq"
		r.BackButter = true
		r.Note = `1/4" × 3/8" square notch with back-buttering for this tile size.`
	}

	if in.Substrate == "needs-flattening" {
		for i, id := range trowelOrder[:len(trowelOrder)-1] {
			if id == r.TrowelID {
				r.TrowelID = trowelOrder[i+1]
				break
			}
		}
		r.Note += " Substrate may need flattening; a larger notch does not replace proper substrate prep."
	}

	r.Name = trowelPreset(r.TrowelID).Name
	return r
}
