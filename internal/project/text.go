package project

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const textFooter = "Generated by TillerPro | tillerstead.com/tools/app/"

// FormatText renders a project as plain text for pasting into an email or
// a supplier order. Whole numbers carry thousands separators.
func FormatText(p Project) string {
	pr := message.NewPrinter(language.AmericanEnglish)

	var b strings.Builder
	b.WriteString("PROJECT: " + p.Name + "\n")
	b.WriteString("Date: " + p.UpdatedAt.Format("1/2/2006") + "\n")
	if p.TotalArea > 0 {
		b.WriteString("Total area: " + formatValue(pr, p.TotalArea) + " sq ft\n")
	}
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	ids := make([]string, 0, len(p.Calculations))
	for id := range p.Calculations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		var fields map[string]any
		if err := json.Unmarshal(p.Calculations[id].Results, &fields); err != nil || len(fields) == 0 {
			continue
		}
		b.WriteString(strings.ToUpper(id) + ":\n")

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("  " + k + ": " + formatValue(pr, fields[k]) + "\n")
		}
		b.WriteString("\n")
	}

	list := BuildShoppingList(p)
	if len(list.Items) > 0 {
		b.WriteString("SHOPPING LIST:\n")
		for _, it := range list.Items {
			b.WriteString(pr.Sprintf("  %s: %d %s\n", it.Item, it.Quantity, it.Unit))
		}
		b.WriteString("\n")
	}

	if p.Notes != "" {
		b.WriteString("NOTES:\n" + p.Notes + "\n")
	}

	b.WriteString("\n---\n" + textFooter)
	return b.String()
}

func formatValue(pr *message.Printer, v any) string {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return pr.Sprintf("%d", int64(x))
		}
		return decimal.NewFromFloat(x).String()
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case nil:
		return "-"
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}
