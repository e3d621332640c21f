// Package calculator holds the TillerPro material and labor calculators.
//
// Every calculator is a pure function of its input and returns nil when a
// required value is missing or out of range. Quantities that are bought in
// whole units always round up.
package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownCalculator = errors.New("unknown calculator")
	ErrInvalidInput      = errors.New("invalid or missing calculator input")
)

// Info describes a calculator for listings
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Remote      bool   `json:"remote"`
}

type runner func(raw json.RawMessage) (any, error)

// Calculator pairs metadata with a JSON-decoding runner
type Calculator struct {
	Info
	run runner
}

// Run decodes raw into the calculator's input and computes the result
func (c Calculator) Run(raw json.RawMessage) (any, error) {
	return c.run(raw)
}

func decode[I any](raw json.RawMessage) (I, error) {
	var in I
	if len(raw) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return in, nil
}

func pure[I, R any](fn func(I) *R) runner {
	return func(raw json.RawMessage) (any, error) {
		in, err := decode[I](raw)
		if err != nil {
			return nil, err
		}
		out := fn(in)
		if out == nil {
			return nil, ErrInvalidInput
		}
		return out, nil
	}
}

func checked[I, R any](fn func(I) (*R, error)) runner {
	return func(raw json.RawMessage) (any, error) {
		in, err := decode[I](raw)
		if err != nil {
			return nil, err
		}
		out, err := fn(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if out == nil {
			return nil, ErrInvalidInput
		}
		return out, nil
	}
}

// Local calculator ids and the remote toolkit's names for them
var apiTypes = map[string]string{
	"tile":       "tile_floor",
	"mortar":     "thinset_mortar",
	"grout":      "grout",
	"leveling":   "self_leveler",
	"slope":      "shower_slope",
	"waterproof": "waterproofing",
	"labor":      "labor",
}

// Registry maps calculator ids to runners
type Registry struct {
	calcs map[string]Calculator
}

// NewRegistry registers every calculator
func NewRegistry() *Registry {
	r := &Registry{calcs: make(map[string]Calculator)}

	r.add("tile", "Tile Quantity", "flooring", "Tiles and boxes with layout waste", pure(Tile))
	r.add("mortar", "Mortar / Thinset", "flooring", "Thinset bags by trowel notch", pure(Mortar))
	r.add("grout", "Grout", "flooring", "Grout pounds by joint size", pure(Grout))
	r.add("trowel", "Trowel Recommendation", "flooring", "Notch size by tile size and substrate", pure(RecommendTrowel))
	r.add("leveling", "Self-Leveler", "prep", "Leveler bags by pour depth", pure(Leveling))
	r.add("slope", "Shower Pre-Slope", "prep", "Rise at wall and deck mud for a pre-slope", pure(Slope))
	r.add("shower-slope", "Shower Slope (IPC)", "prep", "Minimum and recommended pre-slope by drain type", pure(ShowerSlope))
	r.add("waterproof", "Waterproofing", "prep", "Membrane requirements", pure(Waterproof))
	r.add("deck-mud", "Deck Mud", "prep", "Mortar bed volume and bags", pure(DeckMud))
	r.add("primer", "Primer", "prep", "Primer gallons before self-leveler", pure(Primer))
	r.add("crown", "Crown Molding", "trim", "Ceiling trim and corners", pure(Crown))
	r.add("baseboard", "Baseboard & Chair Rail", "trim", "Wall base and wainscot framing", pure(Baseboard))
	r.add("quarter", "Quarter Round", "trim", "Floor trim and shoe molding", pure(Quarter))
	r.add("labor", "Labor Estimate", "general", "Time and scheduling", pure(Labor))
	r.add("labor-sensitivity", "Labor Sensitivity", "general", "Hours by complexity, pattern and surface", pure(LaborSensitivity))
	r.add("cost", "Remodel Cost", "general", "Budget range by project type and quality", pure(Cost))
	r.add("movement-joints", "Movement Joints", "advanced", "Joint spacing per TCNA EJ171", pure(MovementJoints))
	r.add("deflection", "Deflection", "advanced", "Joist deflection against L/360 and L/720", pure(Deflection))
	r.add("heated-floor", "Heated Floor Load", "advanced", "Watts, amps and breaker sizing", pure(HeatedFloor))
	r.add("moisture", "Moisture Check", "advanced", "MVER and RH against product limits", pure(Moisture))
	r.add("thinset-mix", "Thinset Mix", "advanced", "Water and yield for a batch", pure(ThinsetMix))
	r.add("sealer", "Sealer", "advanced", "Sealer gallons by surface", pure(Sealer))
	r.add("sealant", "Sealant", "advanced", "Caulk tubes by bead size", pure(Sealant))
	r.add("bath-layout", "Bath Layout", "advanced", "Fixture fit and clearances", checked(BathLayout))

	return r
}

func (r *Registry) add(id, name, category, desc string, run runner) {
	_, remote := apiTypes[id]
	r.calcs[id] = Calculator{
		Info: Info{ID: id, Name: name, Category: category, Description: desc, Remote: remote},
		run:  run,
	}
}

// Get returns the calculator registered under id
func (r *Registry) Get(id string) (Calculator, bool) {
	c, ok := r.calcs[id]
	return c, ok
}

// List returns calculator metadata ordered by category then id
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.calcs))
	for _, c := range r.calcs {
		out = append(out, c.Info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Run looks up id and runs it against raw JSON input
func (r *Registry) Run(id string, raw json.RawMessage) (any, error) {
	c, ok := r.calcs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalculator, id)
	}
	return c.Run(raw)
}
