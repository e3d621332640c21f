package calculator

import (
	"strings"
	"testing"
)

func TestTile(t *testing.T) {
	tests := []struct {
		name     string
		in       TileInput
		tiles    int
		boxes    int
		area     float64
		lft      bool
		contains string
	}{
		{
			name:  "120 sq ft of 12x12 straight",
			in:    TileInput{Area: 120, TileSize: "12x12", Layout: "straight", TilesPerBox: 10},
			tiles: 132, boxes: 14, area: 132,
		},
		{
			name:  "attic stock adds at least one box",
			in:    TileInput{Area: 120, TileSize: "12x12", TilesPerBox: 10, AtticStock: true},
			tiles: 132, boxes: 15, area: 132,
		},
		{
			name:  "boxes by square feet",
			in:    TileInput{Area: 100, TileSize: "12x12", SqftPerBox: 15},
			tiles: 110, boxes: 8, area: 110,
		},
		{
			name:  "mosaic counts sheets",
			in:    TileInput{Area: 100, TileSize: "mosaic-1x1", Layout: "mosaic"},
			tiles: 112, area: 112, contains: "Mosaic sheets",
		},
		{
			name:  "waste override",
			in:    TileInput{Area: 100, TileSize: "12x12", Layout: "herringbone", Waste: 5},
			tiles: 105, area: 105,
		},
		{
			name:  "LFT with half offset warns",
			in:    TileInput{Area: 100, TileSize: "12x24", Layout: "subway-50"},
			tiles: 58, area: 115, lft: true, contains: "NOT recommended for LFT",
		},
		{
			name:  "custom size at 15 inches is large format",
			in:    TileInput{Area: 50, TileSize: "custom", CustomWidth: 16, CustomHeight: 16},
			tiles: 31, area: 55, lft: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tile(tt.in)
			if got == nil {
				t.Fatal("Tile() = nil")
			}
			if got.TilesNeeded != tt.tiles {
				t.Errorf("TilesNeeded = %d, want %d", got.TilesNeeded, tt.tiles)
			}
			if got.Boxes != tt.boxes {
				t.Errorf("Boxes = %d, want %d", got.Boxes, tt.boxes)
			}
			if got.AreaWithWaste != tt.area {
				t.Errorf("AreaWithWaste = %v, want %v", got.AreaWithWaste, tt.area)
			}
			if got.IsLargeFormat != tt.lft {
				t.Errorf("IsLargeFormat = %v, want %v", got.IsLargeFormat, tt.lft)
			}
			if tt.contains != "" && !strings.Contains(got.Note+got.Warning, tt.contains) {
				t.Errorf("note/warning %q missing %q", got.Note+got.Warning, tt.contains)
			}
		})
	}
}

// Area is swept in quarter square feet so the expected count stays in
// integers: ceil(q/4 * (100+waste)/100 * 144 / (w*h)).
func TestTileMatchesClosedFormAndIsMonotonic(t *testing.T) {
	sizes := [][2]int{{4, 4}, {12, 12}, {12, 24}, {24, 48}}

	for _, size := range sizes {
		w, h := size[0], size[1]
		prevByWaste := map[int]int{}

		for q := 1; q <= 2000; q += 7 {
			prevWaste := 0
			for waste := 1; waste <= 30; waste++ {
				got := Tile(TileInput{
					Area:         float64(q) / 4,
					TileSize:     "custom",
					CustomWidth:  float64(w),
					CustomHeight: float64(h),
					Waste:        float64(waste),
				})
				if got == nil {
					t.Fatalf("%dx%d area %v waste %d: Tile() = nil", w, h, float64(q)/4, waste)
				}

				num := q * (100 + waste) * 36
				den := 100 * w * h
				want := (num + den - 1) / den
				if got.TilesNeeded != want {
					t.Errorf("%dx%d area %v waste %d: TilesNeeded = %d, want %d", w, h, float64(q)/4, waste, got.TilesNeeded, want)
				}
				if got.TilesNeeded < prevWaste {
					t.Errorf("%dx%d area %v: waste %d gave %d, fewer than %d at lower waste", w, h, float64(q)/4, waste, got.TilesNeeded, prevWaste)
				}
				if got.TilesNeeded < prevByWaste[waste] {
					t.Errorf("%dx%d waste %d: area %v gave %d, fewer than %d at smaller area", w, h, waste, float64(q)/4, got.TilesNeeded, prevByWaste[waste])
				}
				prevWaste = got.TilesNeeded
				prevByWaste[waste] = got.TilesNeeded
			}
		}
	}
}

func TestTileInvalid(t *testing.T) {
	for _, in := range []TileInput{
		{},
		{Area: -5, TileSize: "12x12"},
		{Area: 50, TileSize: "custom"},
	} {
		if got := Tile(in); got != nil {
			t.Errorf("Tile(%+v) = %+v, want nil", in, got)
		}
	}
}

func TestMortar(t *testing.T) {
	tests := []struct {
		name       string
		in         MortarInput
		min, max   int
		backButter bool
		warning    bool
	}{
		{"quarter by three-eighths", MortarInput{Area: 100, Trowel: "1/4x3/8-sq"}, 2, 2, false, false},
		{"default trowel", MortarInput{Area: 100}, 1, 2, false, false},
		{"back butter", MortarInput{Area: 100, Trowel: "1/4x3/8-sq", BackButter: true}, 3, 3, true, false},
		{"LFT forces back butter and flags square notch", MortarInput{Area: 100, Trowel: "1/2-sq", TileSize: "12x24"}, 4, 4, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mortar(tt.in)
			if got == nil {
				t.Fatal("Mortar() = nil")
			}
			if got.BagsMin != tt.min || got.BagsMax != tt.max {
				t.Errorf("bags = %d–%d, want %d–%d", got.BagsMin, got.BagsMax, tt.min, tt.max)
			}
			if got.BackButter != tt.backButter {
				t.Errorf("BackButter = %v, want %v", got.BackButter, tt.backButter)
			}
			if (got.Warning != "") != tt.warning {
				t.Errorf("Warning = %q", got.Warning)
			}
		})
	}

	if got := Mortar(MortarInput{Area: 100, Trowel: "1/4x3/8-sq"}); got.Coverage != "60–67 sq ft/bag" {
		t.Errorf("Coverage = %q", got.Coverage)
	}
}

func TestGrout(t *testing.T) {
	tests := []struct {
		name       string
		in         GroutInput
		pounds     int
		bags25     int
		lbsPerSqFt float64
	}{
		{"12x12 defaults", GroutInput{Area: 100, TileWidth: 12, TileLength: 12}, 2, 1, 0.015},
		{"subway", GroutInput{Area: 200, TileWidth: 3, TileLength: 6, JointWidth: 0.125, TileThickness: 0.375}, 10, 1, 0.044},
		{"preset size", GroutInput{Area: 100, TileSize: "12x24"}, 2, 1, 0.011},
		{"epoxy", GroutInput{Area: 100, TileWidth: 12, TileLength: 12, GroutType: "epoxy"}, 2, 1, 0.016},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grout(tt.in)
			if got == nil {
				t.Fatal("Grout() = nil")
			}
			if got.Pounds != tt.pounds {
				t.Errorf("Pounds = %d, want %d", got.Pounds, tt.pounds)
			}
			if got.Bags25lb != tt.bags25 {
				t.Errorf("Bags25lb = %d, want %d", got.Bags25lb, tt.bags25)
			}
			if got.LbsPerSqFt != tt.lbsPerSqFt {
				t.Errorf("LbsPerSqFt = %v, want %v", got.LbsPerSqFt, tt.lbsPerSqFt)
			}
		})
	}

	if got := Grout(GroutInput{Area: 100, TileWidth: 12, TileLength: 12}); got.Coverage != 68.8 {
		t.Errorf("Coverage = %v, want 68.8", got.Coverage)
	}
	if got := Grout(GroutInput{Area: 100}); got != nil {
		t.Errorf("Grout without tile size = %+v, want nil", got)
	}
}

func TestRecommendTrowel(t *testing.T) {
	tests := []struct {
		in         TrowelInput
		want       string
		backButter bool
	}{
		{TrowelInput{TileSize: "mosaic-1x1"}, "3/16-v", false},
		{TrowelInput{TileSize: "6x6"}, "1/4-sq", false},
		{TrowelInput{TileSize: "12x12"}, "1/4x3/8-sq", false},
		{TrowelInput{TileSize: "24x24"}, "3/4-u-30", true},
		{TrowelInput{Width: 14, Height: 14}, "1/4x3/8-sq", true},
		{TrowelInput{TileSize: "12x12", Substrate: "needs-flattening"}, "3/4-u-30", false},
		{TrowelInput{TileSize: "24x48", Substrate: "needs-flattening"}, "3/4-u-45", true},
	}

	for _, tt := range tests {
		got := RecommendTrowel(tt.in)
		if got == nil {
			t.Fatalf("RecommendTrowel(%+v) = nil", tt.in)
		}
		if got.TrowelID != tt.want || got.BackButter != tt.backButter {
			t.Errorf("RecommendTrowel(%+v) = %s/%v, want %s/%v", tt.in, got.TrowelID, got.BackButter, tt.want, tt.backButter)
		}
	}

	if got := RecommendTrowel(TrowelInput{}); got != nil {
		t.Errorf("RecommendTrowel(empty) = %+v, want nil", got)
	}
}

func TestLeveling(t *testing.T) {
	got := Leveling(LevelingInput{Area: 100, AvgDepth: 0.25, MaxDepth: 0.5})
	if got.Bags != 5 || got.BagsMax != 10 {
		t.Errorf("bags = %d–%d, want 5–10", got.Bags, got.BagsMax)
	}
	if got.Volume != 2.08 {
		t.Errorf("Volume = %v, want 2.08", got.Volume)
	}
	if got.Note != "Range: 5–10 bags (50lb)" {
		t.Errorf("Note = %q", got.Note)
	}

	if Leveling(LevelingInput{Area: 100}) != nil {
		t.Error("Leveling without depth should be nil")
	}
}

func TestSlope(t *testing.T) {
	got := Slope(SlopeInput{DrainToWall: 4})
	if got.RiseAtWall != 1 || got.Area != 50.3 || got.DeckMudCuFt != 1.4 || got.Bags60lb != 2 {
		t.Errorf("Slope() = %+v", got)
	}
}

func TestShowerSlope(t *testing.T) {
	got := ShowerSlope(ShowerSlopeInput{DistanceToDrainFt: 4})
	if got.MinSlopeFormatted != `1/4"/ft (1" at 4 ft)` {
		t.Errorf("MinSlopeFormatted = %q", got.MinSlopeFormatted)
	}
	if got.RecSlopeFormatted != `5/16"/ft (1-1/4" at 4 ft)` {
		t.Errorf("RecSlopeFormatted = %q", got.RecSlopeFormatted)
	}

	linear := ShowerSlope(ShowerSlopeInput{DistanceToDrainFt: 4, DrainType: "linear", ConstructionMethod: "foam-pan"})
	if linear.EffectiveDistance != 3 || linear.MinSlopeHeight != 0.75 {
		t.Errorf("linear drain = %+v", linear)
	}
	if !strings.Contains(linear.ConstructionNote, "foam pans") {
		t.Errorf("ConstructionNote = %q", linear.ConstructionNote)
	}
}

func TestWaterproof(t *testing.T) {
	got := Waterproof(WaterproofInput{WallArea: 80, FloorArea: 20, Corners: 4, Pipes: 1})
	if got.Membrane != 2 || got.BandFeet != 10 || got.Coats != 2 {
		t.Errorf("Waterproof() = %+v", got)
	}

	kerdi := Waterproof(WaterproofInput{WallArea: 80, FloorArea: 20, Corners: 4, Niches: 1, System: "schluter-kerdi"})
	if kerdi.Membrane != 3 || kerdi.BandFeet != 16 {
		t.Errorf("kerdi = %+v", kerdi)
	}

	if Waterproof(WaterproofInput{WallArea: 10, System: "duct-tape"}) != nil {
		t.Error("unknown system should be nil")
	}
	if Waterproof(WaterproofInput{}) != nil {
		t.Error("empty area should be nil")
	}
}

func TestDeckMudAndPrimer(t *testing.T) {
	mud := DeckMud(DeckMudInput{AreaSqFt: 16, RunFeet: 2})
	if mud.VolumeCuFt != 2 || mud.Bags != 4 || mud.MaxThicknessInches != 1.75 {
		t.Errorf("DeckMud() = %+v", mud)
	}
	square := DeckMud(DeckMudInput{AreaSqFt: 16})
	if square.VolumeCuFt != 2.33 || square.Bags != 5 {
		t.Errorf("DeckMud(no run) = %+v", square)
	}

	tests := []struct {
		in   PrimerInput
		want int
	}{
		{PrimerInput{AreaSqFt: 500}, 3},
		{PrimerInput{AreaSqFt: 500, DoublePrime: true}, 5},
		{PrimerInput{AreaSqFt: 600, Porosity: "nonporous"}, 2},
	}
	for _, tt := range tests {
		if got := Primer(tt.in); got.Gallons != tt.want {
			t.Errorf("Primer(%+v) = %d, want %d", tt.in, got.Gallons, tt.want)
		}
	}
	if Primer(PrimerInput{AreaSqFt: 10, Porosity: "glass"}) != nil {
		t.Error("unknown porosity should be nil")
	}
}

func TestTrim(t *testing.T) {
	crown := Crown(CrownInput{TrimRoom: TrimRoom{RoomLength: 12, RoomWidth: 12}})
	if crown.Perimeter != 48 || crown.LinearFt != 55.2 || crown.Pieces != 5 || crown.CornerBlocks != 4 {
		t.Errorf("Crown() = %+v", crown)
	}
	if crown.MaterialCost.String() != "82.8" || crown.WastePercent != 15 {
		t.Errorf("crown cost = %s, waste %d", crown.MaterialCost, crown.WastePercent)
	}
	zero := 0
	if c := Crown(CrownInput{TrimRoom: TrimRoom{Perimeter: 40}, InsideCorners: &zero}); c.InsideCorners != 0 {
		t.Errorf("InsideCorners = %d, want 0", c.InsideCorners)
	}

	base := Baseboard(BaseboardInput{TrimRoom: TrimRoom{Perimeter: 48}, DoorOpenings: 2})
	if base.NetPerimeter != 42 || base.LinearFt != 48.3 || base.Pieces != 5 || base.MaterialCost.String() != "53.13" {
		t.Errorf("Baseboard() = %+v", base)
	}
	panels := Baseboard(BaseboardInput{TrimRoom: TrimRoom{Perimeter: 48}, DoorOpenings: 2, IncludePanels: true, PanelCount: 4})
	if panels.PanelFramingFt != 35 || panels.TotalLinearFt != 83.3 || panels.TotalPieces != 7 {
		t.Errorf("Baseboard(panels) = %+v", panels)
	}

	quarter := Quarter(QuarterInput{TrimRoom: TrimRoom{Perimeter: 48}, DoorOpenings: 1, CabinetRuns: 10, TransitionStrips: 1})
	if quarter.Deductions != 16 || quarter.LinearFt != 36.8 || quarter.Pieces != 5 {
		t.Errorf("Quarter() = %+v", quarter)
	}
	if !strings.Contains(quarter.Note, "Deducted: 1 doors, 10 ft cabinets, 1 transitions (16.0 ft)") {
		t.Errorf("Note = %q", quarter.Note)
	}

	if Crown(CrownInput{}) != nil || Baseboard(BaseboardInput{}) != nil || Quarter(QuarterInput{}) != nil {
		t.Error("trim without a perimeter should be nil")
	}
}

func TestLabor(t *testing.T) {
	tests := []struct {
		in          LaborInput
		hours, days int
	}{
		{LaborInput{Area: 100}, 4, 1},
		{LaborInput{Area: 100, Complexity: "moderate"}, 5, 1},
		{LaborInput{Area: 100, Complexity: "complex", IncludePrep: true, IncludeDemo: true}, 13, 2},
	}
	for _, tt := range tests {
		got := Labor(tt.in)
		if got.Hours != tt.hours || got.Days != tt.days {
			t.Errorf("Labor(%+v) = %d h / %d d, want %d / %d", tt.in, got.Hours, got.Days, tt.hours, tt.days)
		}
	}
}

func TestLaborSensitivity(t *testing.T) {
	base := LaborSensitivity(LaborSensitivityInput{AreaSqFt: 100})
	if base.Hours != 4 || base.CrewDays != 0.5 || base.EffectiveProductivitySqFtPerHour != 25 {
		t.Errorf("LaborSensitivity(defaults) = %+v", base)
	}

	got := LaborSensitivity(LaborSensitivityInput{AreaSqFt: 100, Pattern: "herringbone", Surface: "wall", CrewSize: 2})
	if got.Hours != 6.24 || got.CrewDays != 0.39 || got.EffectiveProductivitySqFtPerHour != 16.03 {
		t.Errorf("LaborSensitivity() = %+v", got)
	}

	if LaborSensitivity(LaborSensitivityInput{AreaSqFt: 100, Pattern: "basketweave"}) != nil {
		t.Error("unknown pattern should be nil")
	}
}

func TestCost(t *testing.T) {
	got := Cost(CostInput{ProjectType: "full-bath", Quality: "mid-range", TileArea: 100})
	want := map[string]string{
		"low": "11475", "high": "17078", "labor": "6075",
		"materials": "4725", "fixtures": "1350", "contingency": "1350",
	}
	gotMap := map[string]string{
		"low": got.Low.String(), "high": got.High.String(), "labor": got.Labor.String(),
		"materials": got.Materials.String(), "fixtures": got.Fixtures.String(), "contingency": got.Contingency.String(),
	}
	for k, v := range want {
		if gotMap[k] != v {
			t.Errorf("%s = %s, want %s", k, gotMap[k], v)
		}
	}

	shore := Cost(CostInput{ProjectType: "full-bath", TileArea: 100, Zip: "08401", Addons: []string{"glass", "demo", "hot-tub"}})
	if shore.ZipMultiplier != 1.10 || shore.Low.String() != "14212" || shore.High.String() != "21151" {
		t.Errorf("Cost(08401) = %+v", shore)
	}
	if len(shore.Addons) != 2 || shore.Addons[0] != "demo" {
		t.Errorf("Addons = %v", shore.Addons)
	}

	if z := zipMultiplier("08999"); z != 1.05 {
		t.Errorf("zipMultiplier(08999) = %v", z)
	}
	if Cost(CostInput{ProjectType: "garage"}) != nil {
		t.Error("unknown project type should be nil")
	}
}

func TestMovementJoints(t *testing.T) {
	hot := 50.0
	warm := 45.0
	tests := []struct {
		name    string
		in      MovementJointInput
		spacing float64
		total   int
	}{
		{"interior", MovementJointInput{LengthFt: 40, WidthFt: 20}, 24, 1},
		{"exterior", MovementJointInput{LengthFt: 40, WidthFt: 20, Exposure: "exterior"}, 12, 4},
		{"interior high swing", MovementJointInput{LengthFt: 40, WidthFt: 20, TempSwingF: &warm}, 20, 1},
		{"sun exposed high swing", MovementJointInput{LengthFt: 40, WidthFt: 20, IsSunExposed: true, TempSwingF: &hot}, 8, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovementJoints(tt.in)
			if got.SpacingFt != tt.spacing || got.TotalJoints != tt.total {
				t.Errorf("MovementJoints() = %+v, want spacing %v total %d", got, tt.spacing, tt.total)
			}
		})
	}
}

func TestDeflection(t *testing.T) {
	// 2x10 at 16" on center spanning 14 ft
	got := Deflection(DeflectionInput{SpanFeet: 14, JoistSpacingInches: 16, JoistWidthInches: 1.5, JoistDepthInches: 9.25})
	if got.DeltaInches != 0.364 || got.DeflectionRatio != 461 {
		t.Errorf("Deflection() = %+v", got)
	}
	if !got.PassesCeramic || got.PassesStone {
		t.Errorf("passes ceramic %v stone %v", got.PassesCeramic, got.PassesStone)
	}

	stiff := Deflection(DeflectionInput{SpanFeet: 12, JoistSpacingInches: 12, JoistWidthInches: 1.5, JoistDepthInches: 11.25})
	if !stiff.PassesStone {
		t.Errorf("2x12 at 12 ft should pass stone: %+v", stiff)
	}

	if Deflection(DeflectionInput{SpanFeet: 14}) != nil {
		t.Error("missing joist size should be nil")
	}
}

func TestHeatedFloor(t *testing.T) {
	tests := []struct {
		area     float64
		amps     float64
		breaker  int
		circuits int
		relay    bool
	}{
		{50, 5, 15, 1, false},
		{200, 20, 30, 1, true},
		{400, 40, 30, 2, true},
	}
	for _, tt := range tests {
		got := HeatedFloor(HeatedFloorInput{AreaSqFt: tt.area})
		if got.Amps != tt.amps || got.BreakerAmps != tt.breaker || got.Circuits != tt.circuits || got.NeedsRelay != tt.relay {
			t.Errorf("HeatedFloor(%v) = %+v", tt.area, got)
		}
	}
}

func TestMoistureAndMix(t *testing.T) {
	if got := Moisture(MoistureInput{MverLbs: 3, RhPercent: 70}); got.RequiresMitigation {
		t.Errorf("Moisture(pass) = %+v", got)
	}
	if got := Moisture(MoistureInput{MverLbs: 6, RhPercent: 70}); got.MverPass || !got.RequiresMitigation {
		t.Errorf("Moisture(fail) = %+v", got)
	}
	if Moisture(MoistureInput{MverLbs: -1}) != nil {
		t.Error("negative reading should be nil")
	}

	half := ThinsetMix(ThinsetMixInput{BatchWeightLbs: 25})
	if half.WaterQuartsRange != [2]float64{2.5, 3} {
		t.Errorf("WaterQuartsRange = %v", half.WaterQuartsRange)
	}
	full := ThinsetMix(ThinsetMixInput{})
	if full.BatchWeightLbs != 50 || full.EstimatedYieldCuFt != 0.45 || full.PotLifeMinutes != 120 {
		t.Errorf("ThinsetMix(full) = %+v", full)
	}
}

func TestSealerAndSealant(t *testing.T) {
	if got := Sealer(SealerInput{AreaSqFt: 300}); got.Gallons != 3 || got.CoverageUsedSqFtPerGal != 200 {
		t.Errorf("Sealer(stone) = %+v", got)
	}
	if got := Sealer(SealerInput{AreaSqFt: 1000, Surface: "polished", Coats: 1}); got.Gallons != 2 {
		t.Errorf("Sealer(polished) = %+v", got)
	}
	if Sealer(SealerInput{AreaSqFt: 10, Surface: "wood"}) != nil {
		t.Error("unknown surface should be nil")
	}

	got := Sealant(SealantInput{LinearFeet: 100})
	if got.Tubes != 4 || got.VolumePerTubeIn3 != 18.23 {
		t.Errorf("Sealant() = %+v", got)
	}
}

func TestBathLayout(t *testing.T) {
	tight, err := BathLayout(BathLayoutInput{RoomLengthFt: 8, RoomWidthFt: 5})
	if err != nil {
		t.Fatal(err)
	}
	if tight.LayoutWall != "width" || tight.FitsLinear != "No" || tight.WalkwayPass != "Yes" {
		t.Errorf("tight room = %+v", tight)
	}
	if tight.RequiredWallIn != 138 || tight.WalkwayWidthIn != 36 {
		t.Errorf("required %v walkway %v", tight.RequiredWallIn, tight.WalkwayWidthIn)
	}

	roomy, _ := BathLayout(BathLayoutInput{RoomLengthFt: 15, RoomWidthFt: 9})
	if roomy.LayoutWall != "length" || roomy.FitsLinear != "Yes" || roomy.AvailableWallIn != 148 {
		t.Errorf("roomy = %+v", roomy)
	}
	if len(roomy.Warnings) != 0 {
		t.Errorf("Warnings = %v", roomy.Warnings)
	}

	no := false
	_, err = BathLayout(BathLayoutInput{RoomLengthFt: 8, RoomWidthFt: 5, IncludeTub: &no, IncludeToilet: &no, IncludeVanity: &no})
	if err != ErrNoFixtures {
		t.Errorf("err = %v, want ErrNoFixtures", err)
	}
}

func TestFraction(t *testing.T) {
	tests := map[float64]string{
		1:      "1",
		0.75:   "3/4",
		1.25:   "1-1/4",
		1.5625: "1-5/8",
		0.0625: "1/8",
	}
	for in, want := range tests {
		if got := fraction(in); got != want {
			t.Errorf("fraction(%v) = %q, want %q", in, got, want)
		}
	}
}
