package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	sqIn    = decimal.NewFromInt(144)
	cuIn    = decimal.NewFromInt(1728)
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ceilInt rounds a material quantity up to whole units
func ceilInt(v decimal.Decimal) int {
	return int(v.Ceil().IntPart())
}

func ceilDiv(num, den decimal.Decimal) int {
	if den.IsZero() {
		return 0
	}
	return ceilInt(num.Div(den))
}

func roundTo(v decimal.Decimal, places int32) float64 {
	f, _ := v.Round(places).Float64()
	return f
}

func round(f float64, places int32) float64 {
	return roundTo(dec(f), places)
}

// percent turns 10 into 1.10
func percent(p float64) decimal.Decimal {
	return decimal.NewFromInt(1).Add(dec(p).Div(hundred))
}

func money(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// fraction renders inches to the nearest 1/8", e.g. 1-1/4
func fraction(inches float64) string {
	eighths := int(math.Round(inches * 8))
	whole, rem := eighths/8, eighths%8
	if rem == 0 {
		return fmt.Sprintf("%d", whole)
	}

	num, den := rem, 8
	for num%2 == 0 {
		num /= 2
		den /= 2
	}
	if whole == 0 {
		return fmt.Sprintf("%d/%d", num, den)
	}
	return fmt.Sprintf("%d-%d/%d", whole, num, den)
}

func positive(vals ...float64) bool {
	for _, v := range vals {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
