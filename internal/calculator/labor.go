package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const workdayHours = 8

// LaborInput is the quick labor estimate
type LaborInput struct {
	Area        float64 `json:"area"`
	Complexity  string  `json:"complexity"`
	IncludePrep bool    `json:"includePrep"`
	IncludeDemo bool    `json:"includeDemo"`
}

// LaborResult is hours and working days
type LaborResult struct {
	Hours int    `json:"hours"`
	Days  int    `json:"days"`
	Rate  string `json:"rate"`
	Note  string `json:"note"`
}

// Labor estimates hours from sq ft per hour by complexity
func Labor(in LaborInput) *LaborResult {
	if !positive(in.Area) {
		return nil
	}

	rate := int64(25)
	switch in.Complexity {
	case "complex":
		rate = 15
	case "moderate":
		rate = 20
	}

	work := dec(in.Area)
	if in.IncludePrep {
		work = work.Mul(dec(1.3))
	}
	if in.IncludeDemo {
		work = work.Mul(dec(1.5))
	}
	hours := work.Div(decimal.NewFromInt(rate))

	return &LaborResult{
		Hours: ceilInt(hours),
		Days:  ceilDiv(hours, decimal.NewFromInt(workdayHours)),
		Rate:  fmt.Sprintf("%d sq ft/hour", rate),
		Note:  "Estimate only, varies by conditions",
	}
}

var (
	complexityMultipliers = map[string]float64{"standard": 1, "medium": 1.15, "high": 1.3}
	patternMultipliers    = map[string]float64{"straight": 1, "diagonal": 1.15, "herringbone": 1.3}
	surfaceMultipliers    = map[string]float64{"floor": 1, "wall": 1.2, "ceiling": 1.4}
)

// LaborSensitivityInput compounds multipliers over a base productivity
type LaborSensitivityInput struct {
	AreaSqFt                    float64 `json:"areaSqFt"`
	BaseProductivitySqFtPerHour float64 `json:"baseProductivitySqFtPerHour"`
	Complexity                  string  `json:"complexity"`
	Pattern                     string  `json:"pattern"`
	Surface                     string  `json:"surface"`
	CrewSize                    float64 `json:"crewSize"`
}

// LaborSensitivityResult is hours, crew days and effective productivity
type LaborSensitivityResult struct {
	Hours                            float64  `json:"hours"`
	CrewDays                         float64  `json:"crewDays"`
	EffectiveProductivitySqFtPerHour float64  `json:"effectiveProductivitySqFtPerHour"`
	Assumptions                      []string `json:"assumptions"`
}

// LaborSensitivity divides base productivity by complexity × pattern × surface
func LaborSensitivity(in LaborSensitivityInput) *LaborSensitivityResult {
	if !positive(in.AreaSqFt) {
		return nil
	}
	base := orDefault(in.BaseProductivitySqFtPerHour, 25)
	crew := orDefault(in.CrewSize, 1)

	cm, ok1 := complexityMultipliers[defaultString(in.Complexity, "standard")]
	pm, ok2 := patternMultipliers[defaultString(in.Pattern, "straight")]
	sm, ok3 := surfaceMultipliers[defaultString(in.Surface, "floor")]
	if !ok1 || !ok2 || !ok3 {
		return nil
	}

	total := dec(cm).Mul(dec(pm)).Mul(dec(sm))
	effective := dec(base).Div(total)
	hours := dec(in.AreaSqFt).Div(effective)
	days := hours.Div(dec(crew).Mul(decimal.NewFromInt(workdayHours)))

	return &LaborSensitivityResult{
		Hours:                            roundTo(hours, 2),
		CrewDays:                         roundTo(days, 2),
		EffectiveProductivitySqFtPerHour: roundTo(effective, 2),
		Assumptions: []string{
			fmt.Sprintf("Base productivity: %g sf/hr", base),
			fmt.Sprintf("Multipliers -> complexity %g, pattern %g, surface %g", cm, pm, sm),
			fmt.Sprintf("Crew size: %g", crew),
		},
	}
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type tierPrices map[string]int64

var (
	projectBase = map[string]tierPrices{
		"shower-only": {"budget": 3500, "mid": 6500, "premium": 12000, "luxury": 20000},
		"tub-shower":  {"budget": 4000, "mid": 7500, "premium": 14000, "luxury": 25000},
		"half-bath":   {"budget": 2500, "mid": 5000, "premium": 9000, "luxury": 15000},
		"full-bath":   {"budget": 6000, "mid": 12000, "premium": 22000, "luxury": 40000},
		"master-bath": {"budget": 10000, "mid": 20000, "premium": 40000, "luxury": 75000},
		"floor-only":  {"budget": 1500, "mid": 3000, "premium": 5500, "luxury": 9000},
		"backsplash":  {"budget": 800, "mid": 1500, "premium": 3000, "luxury": 5500},
	}
	tilePerSqFt = tierPrices{"budget": 8, "mid": 15, "premium": 28, "luxury": 50}
	costAddons  = map[string]tierPrices{
		"demo":       {"budget": 300, "mid": 500, "premium": 800, "luxury": 1200},
		"waterproof": {"budget": 200, "mid": 400, "premium": 700, "luxury": 1000},
		"plumbing":   {"budget": 400, "mid": 800, "premium": 1500, "luxury": 3000},
		"electrical": {"budget": 300, "mid": 600, "premium": 1200, "luxury": 2000},
		"fixtures":   {"budget": 200, "mid": 500, "premium": 1200, "luxury": 3000},
		"vanity":     {"budget": 400, "mid": 1000, "premium": 2500, "luxury": 5000},
		"glass":      {"budget": 500, "mid": 1200, "premium": 2500, "luxury": 4500},
		"niche":      {"budget": 150, "mid": 300, "premium": 600, "luxury": 1000},
	}
	// Full zip codes are checked before two-digit prefixes
	zipAdjustments = map[string]float64{
		"08":    1.05,
		"08401": 1.10,
		"08204": 1.08,
		"08742": 1.12,
	}
)

// CostInput is a remodel budget request
type CostInput struct {
	ProjectType string   `json:"projectType"`
	Quality     string   `json:"quality"`
	TileArea    float64  `json:"tileArea"`
	Zip         string   `json:"zip"`
	Addons      []string `json:"addons"`
}

// CostResult is a budget range with its breakdown, in whole dollars
type CostResult struct {
	Low           decimal.Decimal `json:"low"`
	High          decimal.Decimal `json:"high"`
	Labor         decimal.Decimal `json:"labor"`
	Materials     decimal.Decimal `json:"materials"`
	Fixtures      decimal.Decimal `json:"fixtures"`
	Contingency   decimal.Decimal `json:"contingency"`
	ZipMultiplier float64         `json:"zipMultiplier"`
	Addons        []string        `json:"addons,omitempty"`
}

// Cost prices a remodel from a base by project type, tile labor per sq ft
// and add-ons, adjusted by zip code
func Cost(in CostInput) *CostResult {
	tier := in.Quality
	if tier == "" || tier == "mid-range" {
		tier = "mid"
	}
	base, ok := projectBase[in.ProjectType]
	if !ok {
		return nil
	}
	if _, ok := tilePerSqFt[tier]; !ok {
		return nil
	}

	area := orDefault(in.TileArea, 100)
	subtotal := decimal.NewFromInt(base[tier]).Add(dec(area).Mul(decimal.NewFromInt(tilePerSqFt[tier])))

	var applied []string
	for _, id := range in.Addons {
		if prices, ok := costAddons[id]; ok {
			subtotal = subtotal.Add(decimal.NewFromInt(prices[tier]))
			applied = append(applied, id)
		}
	}
	sort.Strings(applied)

	zip := zipMultiplier(in.Zip)
	subtotal = subtotal.Mul(dec(zip))
	contingency := subtotal.Mul(dec(0.10))

	return &CostResult{
		Low:           subtotal.Mul(dec(0.85)).Round(0),
		High:          subtotal.Add(contingency).Mul(dec(1.15)).Round(0),
		Labor:         subtotal.Mul(dec(0.45)).Round(0),
		Materials:     subtotal.Mul(dec(0.35)).Round(0),
		Fixtures:      subtotal.Mul(dec(0.10)).Round(0),
		Contingency:   contingency.Round(0),
		ZipMultiplier: zip,
		Addons:        applied,
	}
}

func zipMultiplier(zip string) float64 {
	if len(zip) < 2 {
		return 1
	}
	if m, ok := zipAdjustments[zip]; ok {
		return m
	}
	if m, ok := zipAdjustments[zip[:2]]; ok {
		return m
	}
	return 1
}
