package calculator

// TilePreset describes a stock tile size
type TilePreset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Mosaic        bool    `json:"isMosaic,omitempty"`
	SheetCoverage float64 `json:"sheetCoverage,omitempty"`
	Plank         bool    `json:"isPlank,omitempty"`
	LargeFormat   bool    `json:"isLargeFormat,omitempty"`
	Custom        bool    `json:"isCustom,omitempty"`
}

// LayoutPreset is an installation pattern and its waste allowance
type LayoutPreset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Waste       float64 `json:"waste"`
	LFTSafe     bool    `json:"lftSafe,omitempty"`
	LippageRisk bool    `json:"lippageRisk,omitempty"`
	LFTWarning  string  `json:"lftWarning,omitempty"`
}

// TrowelPreset holds mortar coverage per 50 lb bag for a notch size
type TrowelPreset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	ForTiles    string  `json:"forTiles"`
	NotForLFT   bool    `json:"notForLFT,omitempty"`
	ForLFT      bool    `json:"forLFT,omitempty"`
	Recommended bool    `json:"recommended,omitempty"`
}

// JointPreset is a grout joint width in inches
type JointPreset struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Size float64 `json:"size"`
	Note string  `json:"note"`
}

// TrimPreset is a molding profile with a per-foot price
type TrimPreset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Size       float64 `json:"size"`
	Kind       string  `json:"kind,omitempty"`
	PricePerFt float64 `json:"pricePerFt"`
	PaintGrade bool    `json:"paintGrade,omitempty"`
	StainGrade bool    `json:"stainGrade,omitempty"`
	Shoe       bool    `json:"isShoe,omitempty"`
}

// Large-format tile threshold: any side at or above 15"
const lftMinSide = 15

var TilePresets = []TilePreset{
	{ID: "mosaic-1x1", Name: "1×1 Mosaic (12×12 sheet)", Width: 1, Height: 1, Mosaic: true, SheetCoverage: 1},
	{ID: "mosaic-2x2", Name: "2×2 Mosaic (12×12 sheet)", Width: 2, Height: 2, Mosaic: true, SheetCoverage: 1},
	{ID: "3x6", Name: "3×6 Subway", Width: 3, Height: 6},
	{ID: "4x4", Name: "4×4", Width: 4, Height: 4},
	{ID: "4x12", Name: "4×12", Width: 4, Height: 12},
	{ID: "6x6", Name: "6×6", Width: 6, Height: 6},
	{ID: "6x24", Name: "6×24 Plank", Width: 6, Height: 24, Plank: true, LargeFormat: true},
	{ID: "8x48", Name: "8×48 Plank", Width: 8, Height: 48, Plank: true, LargeFormat: true},
	{ID: "12x12", Name: "12×12", Width: 12, Height: 12},
	{ID: "12x24", Name: "12×24", Width: 12, Height: 24, LargeFormat: true},
	{ID: "12x48", Name: "12×48 Plank", Width: 12, Height: 48, Plank: true, LargeFormat: true},
	{ID: "24x24", Name: "24×24", Width: 24, Height: 24, LargeFormat: true},
	{ID: "24x48", Name: "24×48", Width: 24, Height: 48, LargeFormat: true},
	{ID: "custom", Name: "Custom Size", Custom: true},
}

var LayoutPresets = []LayoutPreset{
	{ID: "straight", Name: "Straight / Stacked", Waste: 10},
	{ID: "subway-33", Name: "1/3 Offset (Recommended for LFT)", Waste: 12, LFTSafe: true},
	{ID: "subway-50", Name: "50% Offset (Brick)", Waste: 15, LippageRisk: true, LFTWarning: "NOT recommended for LFT, max 33% offset per TCNA"},
	{ID: "brick", Name: "Running Bond", Waste: 12},
	{ID: "diagonal", Name: "Diagonal", Waste: 18},
	{ID: "herringbone", Name: "Herringbone", Waste: 25},
	{ID: "mosaic", Name: "Mosaic Sheet", Waste: 12},
}

// Coverage per CBP VersaBond LFT TDS-132
var TrowelPresets = []TrowelPreset{
	{ID: "3/16-v", Name: `3/16" V-Notch`, Min: 100, Max: 130, ForTiles: "mosaic, small wall"},
	{ID: "1/4-sq", Name: `1/4" × 1/4" Square`, Min: 90, Max: 100, ForTiles: "up to 8×8"},
	{ID: "1/4x3/8-sq", Name: `1/4" × 3/8" Square`, Min: 60, Max: 67, ForTiles: "8×8 to 13×13"},
	{ID: "1/2-sq", Name: `1/2" × 1/2" Square`, Min: 42, Max: 47, ForTiles: "not recommended for LFT", NotForLFT: true},
	{ID: "3/4-u-45", Name: `3/4" × 9/16" U-Notch @ 45°`, Min: 34, Max: 38, ForTiles: `LFT ≥15"`, ForLFT: true},
	{ID: "3/4-u-30", Name: `3/4" × 9/16" U-Notch @ 30°`, Min: 42, Max: 47, ForTiles: `LFT ≥15" (best)`, ForLFT: true, Recommended: true},
}

var JointPresets = []JointPreset{
	{ID: "1/16", Name: `1/16" (minimum)`, Size: 0.0625, Note: "Absolute minimum per ANSI"},
	{ID: "1/8", Name: `1/8" (rectified)`, Size: 0.125, Note: "Standard for rectified tile"},
	{ID: "3/16", Name: `3/16" (calibrated)`, Size: 0.1875, Note: "Standard for non-rectified"},
	{ID: "1/4", Name: `1/4" (rustic/handmade)`, Size: 0.25, Note: "Handmade/high-variation tile"},
}

var CrownPresets = []TrimPreset{
	{ID: "2.25-finger", Name: `2-1/4" Finger-Joint Pine`, Size: 2.25, Kind: "pine", PricePerFt: 1.25, PaintGrade: true},
	{ID: "3.25-mdf", Name: `3-1/4" MDF`, Size: 3.25, Kind: "mdf", PricePerFt: 1.50, PaintGrade: true},
	{ID: "3.625-pine", Name: `3-5/8" Pine`, Size: 3.625, Kind: "pine", PricePerFt: 2.00, PaintGrade: true},
	{ID: "4.625-pine", Name: `4-5/8" Pine`, Size: 4.625, Kind: "pine", PricePerFt: 3.25, PaintGrade: true},
	{ID: "5.25-poplar", Name: `5-1/4" Poplar`, Size: 5.25, Kind: "poplar", PricePerFt: 4.50, PaintGrade: true},
	{ID: "4.5-oak", Name: `4-1/2" Red Oak`, Size: 4.5, Kind: "oak", PricePerFt: 6.50, StainGrade: true},
}

var BaseboardPresets = []TrimPreset{
	{ID: "3.25-mdf", Name: `3-1/4" MDF Baseboard`, Size: 3.25, Kind: "baseboard", PricePerFt: 0.85},
	{ID: "4.25-mdf", Name: `4-1/4" MDF Baseboard`, Size: 4.25, Kind: "baseboard", PricePerFt: 1.10},
	{ID: "5.25-mdf", Name: `5-1/4" MDF Baseboard`, Size: 5.25, Kind: "baseboard", PricePerFt: 1.35},
	{ID: "6-mdf", Name: `6" MDF Baseboard`, Size: 6, Kind: "baseboard", PricePerFt: 1.65},
	{ID: "7.25-mdf", Name: `7-1/4" MDF Baseboard`, Size: 7.25, Kind: "baseboard", PricePerFt: 2.10},
	{ID: "2.5-chair", Name: `2-1/2" Chair Rail`, Size: 2.5, Kind: "chair", PricePerFt: 1.75},
	{ID: "3-chair", Name: `3" Chair Rail`, Size: 3, Kind: "chair", PricePerFt: 2.25},
}

var QuarterPresets = []TrimPreset{
	{ID: "0.5-pine", Name: `1/2" Pine Quarter Round`, Size: 0.5, Kind: "pine", PricePerFt: 0.45},
	{ID: "0.75-pine", Name: `3/4" Pine Quarter Round`, Size: 0.75, Kind: "pine", PricePerFt: 0.65},
	{ID: "0.75-mdf", Name: `3/4" MDF Quarter Round`, Size: 0.75, Kind: "mdf", PricePerFt: 0.55},
	{ID: "0.5-shoe", Name: `1/2" × 3/4" Shoe Molding`, Size: 0.5, Kind: "pine", PricePerFt: 0.55, Shoe: true},
	{ID: "0.75-oak", Name: `3/4" Red Oak Quarter Round`, Size: 0.75, Kind: "oak", PricePerFt: 1.85},
}

var trimWaste = map[string]float64{
	"simple":   0.10,
	"moderate": 0.15,
	"complex":  0.20,
	"coffered": 0.25,
}

// Presets groups every lookup table for the calculator listing
type Presets struct {
	Tiles     []TilePreset   `json:"tiles"`
	Layouts   []LayoutPreset `json:"layouts"`
	Trowels   []TrowelPreset `json:"trowels"`
	Joints    []JointPreset  `json:"joints"`
	Crown     []TrimPreset   `json:"crown"`
	Baseboard []TrimPreset   `json:"baseboard"`
	Quarter   []TrimPreset   `json:"quarter"`
}

// AllPresets returns the preset tables
func AllPresets() Presets {
	return Presets{
		Tiles:     TilePresets,
		Layouts:   LayoutPresets,
		Trowels:   TrowelPresets,
		Joints:    JointPresets,
		Crown:     CrownPresets,
		Baseboard: BaseboardPresets,
		Quarter:   QuarterPresets,
	}
}

func findTile(id string) (TilePreset, bool) {
	for _, t := range TilePresets {
		if t.ID == id {
			return t, true
		}
	}
	return TilePreset{}, false
}

// tilePreset falls back to 12x12
func tilePreset(id string) TilePreset {
	if t, ok := findTile(id); ok {
		return t
	}
	t, _ := findTile("12x12")
	return t
}

func layoutPreset(id string) LayoutPreset {
	for _, l := range LayoutPresets {
		if l.ID == id {
			return l
		}
	}
	return LayoutPresets[0]
}

// trowelPreset falls back to the 1/4" square notch
func trowelPreset(id string) TrowelPreset {
	for _, t := range TrowelPresets {
		if t.ID == id {
			return t
		}
	}
	return TrowelPresets[1]
}

func trimPreset(list []TrimPreset, id string, fallback int) TrimPreset {
	for _, p := range list {
		if p.ID == id {
			return p
		}
	}
	return list[fallback]
}

func trimWasteFactor(complexity string) float64 {
	if w, ok := trimWaste[complexity]; ok {
		return w
	}
	return trimWaste["moderate"]
}
