package project

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// ShoppingItem is one material line derived from a saved calculation
type ShoppingItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	Source   string `json:"source"`
}

// ShoppingList is every material line for a project with running totals
type ShoppingList struct {
	ProjectID string          `json:"projectId"`
	Project   string          `json:"project"`
	TotalArea float64         `json:"totalArea"`
	Items     []ShoppingItem  `json:"items"`
	Totals    map[string]int  `json:"totals"`
	TrimCost  decimal.Decimal `json:"trimCost"`
}

// savedResult is the union of the result fields a shopping list reads
type savedResult struct {
	Boxes        int             `json:"boxes"`
	TilesNeeded  int             `json:"tilesNeeded"`
	BagsMax      int             `json:"bagsMax"`
	Bags         int             `json:"bags"`
	Pounds       int             `json:"pounds"`
	Membrane     int             `json:"membrane"`
	Unit         string          `json:"unit"`
	BandFeet     float64         `json:"bandFeet"`
	Pieces       int             `json:"pieces"`
	TotalPieces  int             `json:"totalPieces"`
	MaterialCost decimal.Decimal `json:"materialCost"`
}

type lineRule struct {
	calc  string
	items func(r savedResult) []ShoppingItem
}

func one(item string, qty int, unit string) []ShoppingItem {
	if qty <= 0 {
		return nil
	}
	return []ShoppingItem{{Item: item, Quantity: qty, Unit: unit}}
}

// Calculators contribute lines in this order
var lineRules = []lineRule{
	{"tile", func(r savedResult) []ShoppingItem {
		if r.Boxes > 0 {
			return one("Tile", r.Boxes, "boxes")
		}
		return one("Tile", r.TilesNeeded, "pieces")
	}},
	{"mortar", func(r savedResult) []ShoppingItem {
		return one("Thinset mortar", r.BagsMax, "50 lb bags")
	}},
	{"grout", func(r savedResult) []ShoppingItem {
		return one("Grout", r.Pounds, "lbs")
	}},
	{"leveling", func(r savedResult) []ShoppingItem {
		return one("Self-leveler", max(r.Bags, r.BagsMax), "50 lb bags")
	}},
	{"waterproof", func(r savedResult) []ShoppingItem {
		unit := r.Unit
		if unit == "" || unit == "gallon" {
			unit = "gallons"
		}
		items := one("Waterproofing membrane", r.Membrane, unit)
		if r.BandFeet > 0 {
			items = append(items, one("Seam band", int(math.Ceil(r.BandFeet)), "linear ft")...)
		}
		return items
	}},
	{"crown", func(r savedResult) []ShoppingItem {
		return one("Crown molding", r.Pieces, "pieces")
	}},
	{"baseboard", func(r savedResult) []ShoppingItem {
		return one("Baseboard", max(r.Pieces, r.TotalPieces), "pieces")
	}},
	{"quarter", func(r savedResult) []ShoppingItem {
		return one("Quarter round", r.Pieces, "pieces")
	}},
}

var trimCalcs = map[string]bool{"crown": true, "baseboard": true, "quarter": true}

// BuildShoppingList derives material lines from p's saved calculations.
// Results that cannot be read contribute nothing.
func BuildShoppingList(p Project) ShoppingList {
	list := ShoppingList{
		ProjectID: p.ID,
		Project:   p.Name,
		TotalArea: p.TotalArea,
		Items:     []ShoppingItem{},
		Totals:    map[string]int{},
		TrimCost:  decimal.Zero,
	}

	for _, rule := range lineRules {
		calc, ok := p.Calculations[rule.calc]
		if !ok || len(calc.Results) == 0 {
			continue
		}
		var r savedResult
		if err := json.Unmarshal(calc.Results, &r); err != nil {
			continue
		}
		for _, it := range rule.items(r) {
			it.Source = rule.calc
			list.Items = append(list.Items, it)
			list.Totals[it.Unit] += it.Quantity
		}
		if trimCalcs[rule.calc] {
			list.TrimCost = list.TrimCost.Add(r.MaterialCost)
		}
	}
	list.TrimCost = list.TrimCost.Round(2)
	return list
}

// ShoppingList builds the list for project id
func (s *Store) ShoppingList(id string) (*ShoppingList, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	list := BuildShoppingList(*p)
	return &list, nil
}

// WriteCSV writes the list as Item,Quantity,Unit,Source rows
func WriteCSV(w io.Writer, list ShoppingList) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Item", "Quantity", "Unit", "Source"}); err != nil {
		return err
	}
	for _, it := range list.Items {
		row := []string{it.Item, strconv.Itoa(it.Quantity), it.Unit, it.Source}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", it.Item, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
