package calculator

import (
	"errors"
	"fmt"
)

// ErrNoFixtures is reported when a bath layout has nothing to place
var ErrNoFixtures = errors.New("select at least one fixture to place")

// BathLayoutInput describes the room, door and fixtures. Unset fixture
// toggles default to tub, toilet and vanity without a shower.
type BathLayoutInput struct {
	RoomLengthFt float64 `json:"roomLengthFt"`
	RoomWidthFt  float64 `json:"roomWidthFt"`
	DoorWidthIn  float64 `json:"doorWidthIn"`
	DoorWall     string  `json:"doorWall"`
	WalkwayMinIn float64 `json:"walkwayMinIn"`

	IncludeTub      *bool   `json:"includeTub"`
	TubLengthIn     float64 `json:"tubLengthIn"`
	TubWidthIn      float64 `json:"tubWidthIn"`
	TubFrontClearIn float64 `json:"tubFrontClearIn"`

	IncludeShower      *bool   `json:"includeShower"`
	ShowerWidthIn      float64 `json:"showerWidthIn"`
	ShowerDepthIn      float64 `json:"showerDepthIn"`
	ShowerFrontClearIn float64 `json:"showerFrontClearIn"`

	IncludeToilet      *bool   `json:"includeToilet"`
	ToiletSideClearIn  float64 `json:"toiletSideClearIn"`
	ToiletDepthIn      float64 `json:"toiletDepthIn"`
	ToiletFrontClearIn float64 `json:"toiletFrontClearIn"`

	IncludeVanity      *bool   `json:"includeVanity"`
	VanityWidthIn      float64 `json:"vanityWidthIn"`
	VanityDepthIn      float64 `json:"vanityDepthIn"`
	VanityFrontClearIn float64 `json:"vanityFrontClearIn"`
}

// BathLayoutResult reports the best fixture wall
type BathLayoutResult struct {
	LayoutWall      string   `json:"layoutWall"`
	AvailableWallIn float64  `json:"availableWallIn"`
	RequiredWallIn  float64  `json:"requiredWallIn"`
	FitsLinear      string   `json:"fitsLinear"`
	WalkwayWidthIn  float64  `json:"walkwayWidthIn"`
	WalkwayPass     string   `json:"walkwayPass"`
	MaxDepthClearIn float64  `json:"maxDepthClearIn"`
	Assumptions     []string `json:"assumptions"`
	Warnings        []string `json:"warnings"`
	Notes           []string `json:"notes"`
}

type fixture struct {
	width, depth float64
}

type wallFit struct {
	wall         string
	available    float64
	walkway      float64
	doorDeduct   float64
	fits, passes bool
}

func toggle(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// BathLayout places fixtures along the length or width wall, whichever
// passes more checks, then leaves the wider clear path
func BathLayout(in BathLayoutInput) (*BathLayoutResult, error) {
	if !positive(in.RoomLengthFt, in.RoomWidthFt) {
		return nil, nil
	}
	door := orDefault(in.DoorWidthIn, 32)
	walkwayMin := orDefault(in.WalkwayMinIn, 30)
	doorWall := defaultString(in.DoorWall, "primary")

	tub := toggle(in.IncludeTub, true)
	shower := toggle(in.IncludeShower, false)
	toilet := toggle(in.IncludeToilet, true)
	vanity := toggle(in.IncludeVanity, true)
	if !tub && !shower && !toilet && !vanity {
		return nil, ErrNoFixtures
	}

	var fixtures []fixture
	var warnings, notes []string

	if tub {
		w := orDefault(in.TubWidthIn, 30)
		front := orDefault(in.TubFrontClearIn, 30)
		fixtures = append(fixtures, fixture{orDefault(in.TubLengthIn, 60), w + front})
		if w < 30 {
			warnings = append(warnings, `Tub width under 30" may feel tight.`)
		}
		notes = append(notes, fmt.Sprintf(`Tub front clearance: %g"`, front))
	}
	if shower {
		w := orDefault(in.ShowerWidthIn, 36)
		d := orDefault(in.ShowerDepthIn, 36)
		front := orDefault(in.ShowerFrontClearIn, 30)
		fixtures = append(fixtures, fixture{w, d + front})
		if w < 30 || d < 30 {
			warnings = append(warnings, `Shower minimum is 30" x 30" per IPC; aim for 36" x 36".`)
		}
		notes = append(notes, fmt.Sprintf(`Shower front clearance: %g"`, front))
	}
	if toilet {
		side := orDefault(in.ToiletSideClearIn, 15)
		front := orDefault(in.ToiletFrontClearIn, 24)
		fixtures = append(fixtures, fixture{max(30, side*2), orDefault(in.ToiletDepthIn, 28) + front})
		if side < 15 {
			warnings = append(warnings, `Toilet side clearance below 15" violates IPC/IRC.`)
		}
		if front < 21 {
			warnings = append(warnings, `Toilet front clearance below 21" may violate code; 24"+ recommended.`)
		}
		notes = append(notes, fmt.Sprintf(`Toilet zone width uses %g" side clearances (30" min). Front clearance: %g"`, side, front))
	}
	if vanity {
		front := orDefault(in.VanityFrontClearIn, 30)
		fixtures = append(fixtures, fixture{orDefault(in.VanityWidthIn, 48), orDefault(in.VanityDepthIn, 22) + front})
		notes = append(notes, fmt.Sprintf(`Vanity front clearance: %g"`, front))
	}

	var required, deepest float64
	for _, f := range fixtures {
		required += f.width
		deepest = max(deepest, f.depth)
	}

	primary := "width"
	if in.RoomLengthFt >= in.RoomWidthFt {
		primary = "length"
	}
	lengthIn, widthIn := in.RoomLengthFt*12, in.RoomWidthFt*12

	deduct := func(wall string) float64 {
		switch doorWall {
		case "none":
			return 0
		case "primary":
			if wall == primary {
				return door
			}
			return 0
		case "length", "width":
			if wall == doorWall {
				return door
			}
			return 0
		}
		return door
	}

	evaluate := func(wall string) wallFit {
		along, across := lengthIn, widthIn
		if wall == "width" {
			along, across = widthIn, lengthIn
		}
		d := deduct(wall)
		fit := wallFit{
			wall:       wall,
			available:  max(0, along-d),
			walkway:    across - deepest,
			doorDeduct: d,
		}
		fit.fits = required <= fit.available
		fit.passes = fit.walkway >= walkwayMin
		return fit
	}

	byLength, byWidth := evaluate("length"), evaluate("width")
	selected, alternate := byLength, byWidth
	if better(byWidth, byLength, required, walkwayMin) {
		selected, alternate = byWidth, byLength
	}

	notes = append(notes, fmt.Sprintf(`Alternate (%s): Available wall: %g", Clear path: %g"`,
		alternate.wall, round(alternate.available, 1), round(alternate.walkway, 1)))
	if !selected.fits {
		warnings = append(warnings, "Fixtures exceed available wall length; consider switching walls or reducing widths.")
	}
	if !selected.passes {
		warnings = append(warnings, fmt.Sprintf(`Clear path under %g"; increase room width or reduce front clearances.`, walkwayMin))
	}

	return &BathLayoutResult{
		LayoutWall:      selected.wall,
		AvailableWallIn: round(selected.available, 1),
		RequiredWallIn:  round(required, 1),
		FitsLinear:      yesNo(selected.fits),
		WalkwayWidthIn:  round(selected.walkway, 1),
		WalkwayPass:     yesNo(selected.passes),
		MaxDepthClearIn: round(deepest, 1),
		Assumptions: []string{
			"Layout wall tested: length + width (best chosen)",
			"Selected fixture wall: " + selected.wall,
			"Door wall setting: " + doorWall,
			fmt.Sprintf(`Door width deducted on selected wall: %g"`, round(selected.doorDeduct, 1)),
			fmt.Sprintf(`Walkway minimum target: %g"`, walkwayMin),
		},
		Warnings: warnings,
		Notes:    notes,
	}, nil
}

// better ranks passing checks first, then clear path, then spare wall.
// Ties keep the length wall.
func better(a, b wallFit, required, walkwayMin float64) bool {
	score := func(f wallFit) int {
		s := 0
		if f.fits {
			s += 2
		}
		if f.passes {
			s++
		}
		return s
	}
	if sa, sb := score(a), score(b); sa != sb {
		return sa > sb
	}
	if a.walkway != b.walkway {
		return a.walkway-walkwayMin > b.walkway-walkwayMin
	}
	return a.available-required > b.available-required
}
