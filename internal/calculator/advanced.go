package calculator

import (
	"fmt"
	"math"
)

// Movement joint grid per TCNA EJ171, in feet
var jointSpacing = map[bool]map[bool]float64{
	false: {false: 24, true: 20},
	true:  {false: 12, true: 8},
}

// MovementJointInput is a field of tile
type MovementJointInput struct {
	LengthFt     float64  `json:"lengthFt"`
	WidthFt      float64  `json:"widthFt"`
	Exposure     string   `json:"exposure"`
	TempSwingF   *float64 `json:"tempSwingF"`
	IsSunExposed bool     `json:"isSunExposed"`
}

// MovementJointResult is the joint count in each direction
type MovementJointResult struct {
	SpacingFt   float64  `json:"spacingFt"`
	JointsLong  int      `json:"jointsLong"`
	JointsShort int      `json:"jointsShort"`
	TotalJoints int      `json:"totalJoints"`
	Assumptions []string `json:"assumptions"`
}

// MovementJoints tightens spacing for exterior fields and swings of 40°F or more
func MovementJoints(in MovementJointInput) *MovementJointResult {
	if !positive(in.LengthFt, in.WidthFt) {
		return nil
	}
	swing := 30.0
	if in.TempSwingF != nil {
		swing = *in.TempSwingF
	}
	if swing < 0 {
		return nil
	}

	exterior := in.Exposure == "exterior" || in.IsSunExposed
	spacing := jointSpacing[exterior][swing >= 40]

	long := max(0, int(math.Ceil(in.LengthFt/spacing))-1)
	short := max(0, int(math.Ceil(in.WidthFt/spacing))-1)

	exposure := "Interior (conditioned)"
	if exterior {
		exposure = "Exterior/Sun/Heated"
	}
	return &MovementJointResult{
		SpacingFt:   spacing,
		JointsLong:  long,
		JointsShort: short,
		TotalJoints: long + short,
		Assumptions: []string{
			"Exposure: " + exposure,
			fmt.Sprintf("Temperature swing: %g°F", swing),
			fmt.Sprintf("Spacing target per EJ171: %g ft grid", spacing),
		},
	}
}

// DeflectionInput is a simply supported joist under uniform load
type DeflectionInput struct {
	SpanFeet           float64 `json:"spanFeet"`
	JoistSpacingInches float64 `json:"joistSpacingInches"`
	JoistWidthInches   float64 `json:"joistWidthInches"`
	JoistDepthInches   float64 `json:"joistDepthInches"`
	ModulusPsi         float64 `json:"modulusPsi"`
	LiveLoadPsf        float64 `json:"liveLoadPsf"`
	DeadLoadPsf        float64 `json:"deadLoadPsf"`
}

// DeflectionResult compares L/Δ against ceramic and stone limits
type DeflectionResult struct {
	DeflectionRatio float64  `json:"deflectionRatio"`
	DeltaInches     float64  `json:"deltaInches"`
	PassesCeramic   bool     `json:"passesCeramic"`
	PassesStone     bool     `json:"passesStone"`
	Assumptions     []string `json:"assumptions"`
}

const (
	ceramicLimit = 360
	stoneLimit   = 720
)

// Deflection computes Δ = 5wL⁴/(384EI)
func Deflection(in DeflectionInput) *DeflectionResult {
	if !positive(in.SpanFeet, in.JoistSpacingInches, in.JoistWidthInches, in.JoistDepthInches) {
		return nil
	}
	e := orDefault(in.ModulusPsi, 1_600_000)
	load := orDefault(in.LiveLoadPsf, 40) + orDefault(in.DeadLoadPsf, 10)

	l := in.SpanFeet * 12
	i := in.JoistWidthInches * math.Pow(in.JoistDepthInches, 3) / 12
	w := load * (in.JoistSpacingInches / 12) / 12

	delta := 5 * w * math.Pow(l, 4) / (384 * e * i)
	ratio := l / delta

	return &DeflectionResult{
		DeflectionRatio: round(ratio, 0),
		DeltaInches:     round(delta, 3),
		PassesCeramic:   ratio >= ceramicLimit,
		PassesStone:     ratio >= stoneLimit,
		Assumptions: []string{
			fmt.Sprintf("Load: %g psf (live + dead)", load),
			fmt.Sprintf("Modulus: %g psi", e),
			fmt.Sprintf("Section I: %g in^4", round(i, 2)),
		},
	}
}

// HeatedFloorInput is an electric radiant mat
type HeatedFloorInput struct {
	AreaSqFt          float64 `json:"areaSqFt"`
	WattsPerSqFt      float64 `json:"wattsPerSqFt"`
	Voltage           float64 `json:"voltage"`
	ThermostatMaxAmps float64 `json:"thermostatMaxAmps"`
}

// HeatedFloorResult is the electrical load and breaker sizing
type HeatedFloorResult struct {
	TotalWatts  float64  `json:"totalWatts"`
	Amps        float64  `json:"amps"`
	BreakerAmps int      `json:"breakerAmps"`
	Circuits    int      `json:"circuits"`
	NeedsRelay  bool     `json:"needsRelay"`
	Assumptions []string `json:"assumptions"`
}

// HeatedFloor sizes the breaker at 125% continuous load per NEC
func HeatedFloor(in HeatedFloorInput) *HeatedFloorResult {
	if !positive(in.AreaSqFt) {
		return nil
	}
	wpsf := orDefault(in.WattsPerSqFt, 12)
	volts := orDefault(in.Voltage, 120)
	thermostat := orDefault(in.ThermostatMaxAmps, 15)

	watts := in.AreaSqFt * wpsf
	amps := watts / volts
	raw := amps * 1.25

	breaker := 30
	switch {
	case raw <= 15:
		breaker = 15
	case raw <= 20:
		breaker = 20
	}

	return &HeatedFloorResult{
		TotalWatts:  round(watts, 1),
		Amps:        round(amps, 2),
		BreakerAmps: breaker,
		Circuits:    max(1, int(math.Ceil(raw/float64(breaker)))),
		NeedsRelay:  amps > thermostat,
		Assumptions: []string{
			"Continuous load factor 125% applied per NEC",
			fmt.Sprintf("Thermostat relay limit %g A", thermostat),
		},
	}
}

// MoistureInput holds slab readings and the product limits
type MoistureInput struct {
	MverLbs          float64 `json:"mverLbs"`
	RhPercent        float64 `json:"rhPercent"`
	ProductLimitMver float64 `json:"productLimitMver"`
	ProductLimitRh   float64 `json:"productLimitRh"`
}

// MoistureResult says whether mitigation is needed
type MoistureResult struct {
	MverPass           bool     `json:"mverPass"`
	RhPass             bool     `json:"rhPass"`
	RequiresMitigation bool     `json:"requiresMitigation"`
	Assumptions        []string `json:"assumptions"`
}

// Moisture passes only when both MVER and RH are within limits
func Moisture(in MoistureInput) *MoistureResult {
	if in.MverLbs < 0 || in.RhPercent < 0 || math.IsNaN(in.MverLbs) || math.IsNaN(in.RhPercent) {
		return nil
	}
	mverLimit := orDefault(in.ProductLimitMver, 5)
	rhLimit := orDefault(in.ProductLimitRh, 75)

	mver := in.MverLbs <= mverLimit
	rh := in.RhPercent <= rhLimit
	return &MoistureResult{
		MverPass:           mver,
		RhPass:             rh,
		RequiresMitigation: !(mver && rh),
		Assumptions:        []string{fmt.Sprintf("Product limits: %g lbs MVER, %g%% RH", mverLimit, rhLimit)},
	}
}

// ThinsetMixInput is a partial or full batch
type ThinsetMixInput struct {
	BagWeightLbs         float64 `json:"bagWeightLbs"`
	WaterQuartsPerBagMin float64 `json:"waterQuartsPerBagMin"`
	WaterQuartsPerBagMax float64 `json:"waterQuartsPerBagMax"`
	BatchWeightLbs       float64 `json:"batchWeightLbs"`
	PotLifeMinutes       float64 `json:"potLifeMinutes"`
	YieldCuFtPerBag      float64 `json:"yieldCuFtPerBag"`
}

// ThinsetMixResult is water for the batch and its yield
type ThinsetMixResult struct {
	WaterQuartsRange   [2]float64 `json:"waterQuartsRange"`
	BatchWeightLbs     float64    `json:"batchWeightLbs"`
	PotLifeMinutes     float64    `json:"potLifeMinutes"`
	EstimatedYieldCuFt float64    `json:"estimatedYieldCuFt"`
	Assumptions        []string   `json:"assumptions"`
}

// ThinsetMix scales water linearly with batch weight; a zero batch means a full bag
func ThinsetMix(in ThinsetMixInput) *ThinsetMixResult {
	if in.BatchWeightLbs < 0 {
		return nil
	}
	bag := orDefault(in.BagWeightLbs, 50)
	batch := orDefault(in.BatchWeightLbs, bag)
	ratio := batch / bag

	return &ThinsetMixResult{
		WaterQuartsRange: [2]float64{
			round(orDefault(in.WaterQuartsPerBagMin, 5)*ratio, 2),
			round(orDefault(in.WaterQuartsPerBagMax, 6)*ratio, 2),
		},
		BatchWeightLbs:     batch,
		PotLifeMinutes:     orDefault(in.PotLifeMinutes, 120),
		EstimatedYieldCuFt: round(orDefault(in.YieldCuFtPerBag, 0.45)*ratio, 2),
		Assumptions: []string{
			"Linear water scaling used for partial batches",
			"Yield is approximate; verify with product TDS",
		},
	}
}

type coverageRange struct {
	min, max float64
	note     string
}

var sealerCoverage = map[string]coverageRange{
	"polished":       {800, 1000, "Polished porcelain / dense stone"},
	"semi_porcelain": {400, 600, "Semi-porous porcelain/ceramic"},
	"natural_stone":  {200, 400, "Honed/rough natural stone"},
	"concrete":       {150, 250, "Broom finish or open concrete"},
}

// SealerInput is a surface to seal
type SealerInput struct {
	AreaSqFt float64 `json:"areaSqFt"`
	Surface  string  `json:"surface"`
	Coats    float64 `json:"coats"`
}

// SealerResult is gallons at the low end of coverage
type SealerResult struct {
	Gallons                int      `json:"gallons"`
	CoverageUsedSqFtPerGal float64  `json:"coverageUsedSqFtPerGal"`
	Assumptions            []string `json:"assumptions"`
}

// Sealer uses minimum coverage for a conservative count
func Sealer(in SealerInput) *SealerResult {
	if !positive(in.AreaSqFt) {
		return nil
	}
	surface := defaultString(in.Surface, "natural_stone")
	cov, ok := sealerCoverage[surface]
	if !ok {
		return nil
	}
	coats := orDefault(in.Coats, 2)

	return &SealerResult{
		Gallons:                ceilDiv(dec(in.AreaSqFt).Mul(dec(coats)), dec(cov.min)),
		CoverageUsedSqFtPerGal: cov.min,
		Assumptions: []string{
			fmt.Sprintf("Surface: %s (%s)", surface, cov.note),
			fmt.Sprintf("Coverage (conservative): %g sq ft/gal", cov.min),
			fmt.Sprintf("Coats: %g", coats),
		},
	}
}

// Cubic inches per US fluid ounce
const cuInPerFlOz = 1.80469

// SealantInput is a caulk joint
type SealantInput struct {
	LinearFeet         float64 `json:"linearFeet"`
	BeadDiameterInches float64 `json:"beadDiameterInches"`
	TubeVolumeOz       float64 `json:"tubeVolumeOz"`
}

// SealantResult is whole tubes
type SealantResult struct {
	Tubes            int      `json:"tubes"`
	VolumePerTubeIn3 float64  `json:"volumePerTubeIn3"`
	Assumptions      []string `json:"assumptions"`
}

// Sealant assumes a round bead
func Sealant(in SealantInput) *SealantResult {
	if !positive(in.LinearFeet) {
		return nil
	}
	bead := orDefault(in.BeadDiameterInches, 0.25)
	tube := orDefault(in.TubeVolumeOz, 10.1)

	r := bead / 2
	total := math.Pi * r * r * in.LinearFeet * 12
	perTube := tube * cuInPerFlOz

	return &SealantResult{
		Tubes:            int(math.Ceil(total / perTube)),
		VolumePerTubeIn3: round(perTube, 2),
		Assumptions: []string{
			fmt.Sprintf(`Bead: %g" diameter`, bead),
			fmt.Sprintf("Tube volume: %g oz (≈%g in³)", tube, round(perTube, 1)),
		},
	}
}
