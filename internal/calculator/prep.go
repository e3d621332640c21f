package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// Self-leveler yield per 50 lb bag
	levelerCuFtPerBag = 0.45

	deckMudLbsPerCuFt = 80
	deckMudBagLbs     = 60

	membraneSqFtPerGal = 50
	membraneCoats      = 2
	systemOverage      = 1.15
	nicheTapeFt        = 8
)

// LevelingInput is the self-leveler pour
type LevelingInput struct {
	Area     float64 `json:"area"`
	AvgDepth float64 `json:"avgDepth"`
	MaxDepth float64 `json:"maxDepth"`
}

// LevelingResult is a 50 lb bag range
type LevelingResult struct {
	Bags    int     `json:"bags"`
	BagsMax int     `json:"bagsMax"`
	Volume  float64 `json:"volume"`
	Note    string  `json:"note"`
}

// Leveling estimates self-leveler bags at 0.45 cu ft per bag
func Leveling(in LevelingInput) *LevelingResult {
	if !positive(in.Area, in.AvgDepth) {
		return nil
	}

	yield := dec(levelerCuFtPerBag)
	volume := dec(in.Area).Mul(dec(in.AvgDepth)).Div(decimal.NewFromInt(12))
	bags := ceilDiv(volume, yield)

	bagsMax := bags
	if in.MaxDepth > in.AvgDepth {
		bagsMax = ceilDiv(dec(in.Area).Mul(dec(in.MaxDepth)).Div(decimal.NewFromInt(12)), yield)
	}

	note := fmt.Sprintf("Based on 50lb bags @ %g cu ft/bag", levelerCuFtPerBag)
	if bagsMax != bags {
		note = fmt.Sprintf("Range: %d–%d bags (50lb)", bags, bagsMax)
	}

	return &LevelingResult{
		Bags:    bags,
		BagsMax: bagsMax,
		Volume:  roundTo(volume, 2),
		Note:    note,
	}
}

// SlopeInput is a round pre-slope from drain to wall
type SlopeInput struct {
	DrainToWall float64 `json:"drainToWall"`
	SlopeRatio  float64 `json:"slopeRatio"`
}

// SlopeResult is the rise at the wall and deck mud for a conical pre-slope
type SlopeResult struct {
	RiseAtWall  float64 `json:"riseAtWall"`
	Area        float64 `json:"area"`
	DeckMudCuFt float64 `json:"deckMudCuFt"`
	Bags60lb    int     `json:"bags60lb"`
	Note        string  `json:"note"`
}

// Slope treats the pan as a cone of radius drainToWall
func Slope(in SlopeInput) *SlopeResult {
	if !positive(in.DrainToWall) {
		return nil
	}
	ratio := orDefault(in.SlopeRatio, minSlopePerFt)

	rise := in.DrainToWall * ratio
	area := math.Pi * in.DrainToWall * in.DrainToWall
	volume := area * (rise / 12) / 3
	lbs := dec(volume).Mul(decimal.NewFromInt(deckMudLbsPerCuFt))

	return &SlopeResult{
		RiseAtWall:  round(rise, 2),
		Area:        round(area, 1),
		DeckMudCuFt: round(volume, 2),
		Bags60lb:    ceilDiv(lbs, decimal.NewFromInt(deckMudBagLbs)),
		Note:        fmt.Sprintf(`%g" per foot slope to drain`, ratio),
	}
}

const (
	// IPC 417.5.2 minimum
	minSlopePerFt = 0.25
	recSlopePerFt = 0.3125
)

type drainType struct {
	name       string
	multiplier float64
}

var drainTypes = map[string]drainType{
	"center": {"Center Drain", 1.0},
	"linear": {"Linear Drain", 0.75},
	"offset": {"Offset Drain", 1.15},
}

type constructionMethod struct {
	note   string
	source string
}

var constructionMethods = map[string]constructionMethod{
	"mud-bed": {
		note:   "Traditional mud bed allows precise slope control. Use dry-pack mortar (4:1 sand:cement ratio) reinforced with metal lath.",
		source: "TCNA Handbook",
	},
	"foam-pan": {
		note:   "Pre-sloped foam pans are factory-made to code. Verify slope before waterproofing.",
		source: "Product manufacturers",
	},
	"bonded": {
		note:   "Bonded waterproofing systems require substrate slope. Build slope into substrate before membrane installation.",
		source: "Schluter, Wedi installation guides",
	},
}

// ShowerSlopeInput is the IPC slope check
type ShowerSlopeInput struct {
	DistanceToDrainFt  float64 `json:"distanceToDrainFt"`
	DrainType          string  `json:"drainType"`
	ConstructionMethod string  `json:"constructionMethod"`
}

// ShowerSlopeResult gives minimum and recommended pre-slope heights
type ShowerSlopeResult struct {
	MinSlopeHeight    float64  `json:"minSlopeHeight"`
	MinSlopeFormatted string   `json:"minSlopeFormatted"`
	RecSlopeHeight    float64  `json:"recSlopeHeight"`
	RecSlopeFormatted string   `json:"recSlopeFormatted"`
	EffectiveDistance float64  `json:"effectiveDistance"`
	ConstructionNote  string   `json:"constructionNote"`
	Assumptions       []string `json:"assumptions"`
	Sources           []string `json:"sources"`
}

// ShowerSlope applies 1/4" per foot (5/16" recommended) over the effective run
func ShowerSlope(in ShowerSlopeInput) *ShowerSlopeResult {
	if !positive(in.DistanceToDrainFt) {
		return nil
	}
	drain, ok := drainTypes[in.DrainType]
	if !ok {
		drain = drainTypes["center"]
	}
	method, ok := constructionMethods[in.ConstructionMethod]
	if !ok {
		method = constructionMethods["mud-bed"]
	}

	effective := in.DistanceToDrainFt * drain.multiplier
	minH := effective * minSlopePerFt
	recH := effective * recSlopePerFt

	assumptions := []string{
		"Drain type: " + drain.name,
		fmt.Sprintf("Distance to drain: %g ft", in.DistanceToDrainFt),
	}
	if drain.multiplier != 1 {
		assumptions = append(assumptions, fmt.Sprintf("Effective distance adjusted: %.2f ft", effective))
	}
	assumptions = append(assumptions,
		`Minimum slope: 1/4"/ft (IPC code)`,
		`Recommended slope: 5/16"/ft`,
	)

	return &ShowerSlopeResult{
		MinSlopeHeight:    round(minH, 4),
		MinSlopeFormatted: fmt.Sprintf(`1/4"/ft (%s" at %g ft)`, fraction(minH), in.DistanceToDrainFt),
		RecSlopeHeight:    round(recH, 4),
		RecSlopeFormatted: fmt.Sprintf(`5/16"/ft (%s" at %g ft)`, fraction(recH), in.DistanceToDrainFt),
		EffectiveDistance: round(effective, 4),
		ConstructionNote:  method.note,
		Assumptions:       assumptions,
		Sources:           []string{"IPC Section 417.5.2", method.source},
	}
}

type membraneSystem struct {
	name          string
	unit          string
	coverage      float64
	tapePerCorner float64
}

var membraneSystems = map[string]membraneSystem{
	"schluter-kerdi":    {"Schluter KERDI", "roll (54.5 sf)", 54.5, 2},
	"laticrete":         {"LATICRETE Hydro Ban", "gallon (covers 50 sf @ 2 coats)", 50, 2},
	"custom-redgard":    {"Custom RedGard", "gallon (covers 55 sf @ 2 coats)", 55, 2},
	"mapei-aquadefense": {"Mapei AquaDefense", "gallon (covers 50 sf @ 2 coats)", 50, 2},
	"go-board":          {"GoBoard", "panel (3x5 ft = 15 sf)", 15, 2},
	"noble-deck":        {"Noble Deck", "roll (varies)", 32.5, 2},
}

// WaterproofInput is the membrane area; System selects a manufacturer table
type WaterproofInput struct {
	WallArea  float64 `json:"wallArea"`
	FloorArea float64 `json:"floorArea"`
	Corners   int     `json:"corners"`
	Pipes     int     `json:"pipes"`
	Niches    int     `json:"niches"`
	System    string  `json:"system"`
}

// WaterproofResult is membrane quantity and reinforcing band length
type WaterproofResult struct {
	Membrane int     `json:"membrane"`
	Unit     string  `json:"unit"`
	BandFeet float64 `json:"bandFeet"`
	Coats    int     `json:"coats"`
	System   string  `json:"system,omitempty"`
	Note     string  `json:"note"`
}

// Waterproof estimates liquid membrane at 50 sq ft per gallon, or a
// named system at its own coverage with 15% overage
func Waterproof(in WaterproofInput) *WaterproofResult {
	total := math.Max(in.WallArea, 0) + math.Max(in.FloorArea, 0)
	if !positive(total) {
		return nil
	}

	if in.System == "" {
		return &WaterproofResult{
			Membrane: ceilDiv(dec(total), decimal.NewFromInt(membraneSqFtPerGal)),
			Unit:     "gallon",
			BandFeet: float64(in.Corners*2 + in.Pipes*2),
			Coats:    membraneCoats,
			Note:     "Based on 50 sq ft/gallon, 2 coats",
		}
	}

	sys, ok := membraneSystems[in.System]
	if !ok {
		return nil
	}
	tape := float64(in.Corners)*sys.tapePerCorner + float64(in.Niches*nicheTapeFt)
	return &WaterproofResult{
		Membrane: ceilDiv(dec(total).Mul(dec(systemOverage)), dec(sys.coverage)),
		Unit:     sys.unit,
		BandFeet: tape,
		Coats:    membraneCoats,
		System:   sys.name,
		Note:     fmt.Sprintf("%s @ %g sf per unit with 15%% overage", sys.name, sys.coverage),
	}
}

// DeckMudInput is a sloped mortar bed
type DeckMudInput struct {
	AreaSqFt           float64 `json:"areaSqFt"`
	RunFeet            float64 `json:"runFeet"`
	MinThicknessInches float64 `json:"minThicknessInches"`
	SlopeInchesPerFoot float64 `json:"slopeInchesPerFoot"`
	BagYieldCuFt       float64 `json:"bagYieldCuFt"`
}

// DeckMudResult is bed volume and bag count
type DeckMudResult struct {
	VolumeCuFt         float64 `json:"volumeCuFt"`
	Bags               int     `json:"bags"`
	MaxThicknessInches float64 `json:"maxThicknessInches"`
}

// DeckMud averages min and max bed thickness over the area. The run to the
// drain defaults to the side of a square of the same area.
func DeckMud(in DeckMudInput) *DeckMudResult {
	if !positive(in.AreaSqFt) {
		return nil
	}
	run := orDefault(in.RunFeet, math.Sqrt(in.AreaSqFt))
	minT := orDefault(in.MinThicknessInches, 1.25)
	slope := orDefault(in.SlopeInchesPerFoot, minSlopePerFt)
	yield := orDefault(in.BagYieldCuFt, 0.5)

	maxT := dec(minT).Add(dec(slope).Mul(dec(run)))
	avg := dec(minT).Add(maxT).Div(decimal.NewFromInt(2))
	volume := dec(in.AreaSqFt).Mul(avg).Div(decimal.NewFromInt(12))

	return &DeckMudResult{
		VolumeCuFt:         roundTo(volume, 2),
		Bags:               ceilDiv(volume, dec(yield)),
		MaxThicknessInches: roundTo(maxT, 2),
	}
}

var primerCoverage = map[string]float64{
	"porous":    200,
	"nonporous": 300,
}

// PrimerInput is a substrate to prime before self-leveler
type PrimerInput struct {
	AreaSqFt    float64 `json:"areaSqFt"`
	Porosity    string  `json:"porosity"`
	DoublePrime bool    `json:"doublePrime"`
}

// PrimerResult is gallons at conservative coverage
type PrimerResult struct {
	Gallons            int     `json:"gallons"`
	Coats              int     `json:"coats"`
	CoverageSqFtPerGal float64 `json:"coverageSqFtPerGal"`
}

// Primer estimates gallons of primer
func Primer(in PrimerInput) *PrimerResult {
	if !positive(in.AreaSqFt) {
		return nil
	}
	porosity := in.Porosity
	if porosity == "" {
		porosity = "porous"
	}
	coverage, ok := primerCoverage[porosity]
	if !ok {
		return nil
	}

	coats := 1
	if in.DoublePrime {
		coats = 2
	}
	return &PrimerResult{
		Gallons:            ceilDiv(dec(in.AreaSqFt).Mul(decimal.NewFromInt(int64(coats))), dec(coverage)),
		Coats:              coats,
		CoverageSqFtPerGal: coverage,
	}
}
