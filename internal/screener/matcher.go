package screener

import (
	"math"
	"strconv"
	"strings"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// ma5Gap is estimated from the session change and the 20D gap
const (
	ma5ChangeWeight = 0.65
	ma5MA20Weight   = 0.35
)

// NumericValue resolves the numeric field behind a range key.
// ok is false when the row carries no value for the key.
func NumericValue(row contracts.ScreenerRow, key string) (float64, bool) {
	switch key {
	case "price":
		return deref(row.Price)
	case "change1d":
		return deref(row.Change1D)
	case "change1m":
		return deref(row.Change1M)
	case "change1y":
		return deref(row.Change1Y)
	case "ma5Gap":
		return estimateMA5Gap(row)
	case "rsi":
		return deref(row.RSI)
	case "ma20Gap":
		return deref(row.MA20Gap)
	case "ma50Gap":
		return deref(row.MA50Gap)
	case "ma200Gap":
		return deref(row.MA200Gap)
	case "pe":
		return deref(row.PE)
	case "pb":
		return deref(row.PB)
	case "dividendYield":
		return deref(row.DividendYield)
	case "roe":
		return deref(row.ROE)
	case "revenueGrowth":
		return deref(row.RevenueGrowth)
	case "epsGrowth":
		return deref(row.EPSGrowth)
	case "momentumScore":
		return deref(row.MomentumScore)
	case "volume":
		return deref(row.Volume)
	default:
		return 0, false
	}
}

// CategoricalValue resolves the categorical field behind a select key
func CategoricalValue(row contracts.ScreenerRow, key string) (string, bool) {
	switch key {
	case "trend":
		return row.Trend, true
	case "valuation":
		return row.Valuation, true
	default:
		return "", false
	}
}

func estimateMA5Gap(row contracts.ScreenerRow) (float64, bool) {
	change, ok := deref(row.Change1D)
	if !ok {
		return 0, false
	}
	ma20, ok := deref(row.MA20Gap)
	if !ok {
		return 0, false
	}
	return roundTenth(ma5ChangeWeight*change + ma5MA20Weight*ma20), true
}

// roundTenth rounds to one decimal, halves toward +Inf like the web client
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func deref(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

// parseBound reads a min/max param. Blank or non-numeric means no bound.
func parseBound(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Matches decides whether one row satisfies one rule.
// Missing data and unknown keys never exclude a row.
func Matches(row contracts.ScreenerRow, rule contracts.Rule, reg *Registry) bool {
	def, ok := reg.Definition(rule.Key)
	if !ok {
		return true
	}

	switch def.Mode {
	case contracts.ModeRange:
		return matchRange(row, rule)
	case contracts.ModeSelect:
		return matchSelect(row, rule)
	default:
		return true
	}
}

func matchRange(row contracts.ScreenerRow, rule contracts.Rule) bool {
	value, ok := NumericValue(row, rule.Key)
	if !ok {
		return true
	}

	if lo, ok := parseBound(rule.Param(contracts.ParamMin)); ok && value < lo {
		return false
	}
	if hi, ok := parseBound(rule.Param(contracts.ParamMax)); ok && value > hi {
		return false
	}
	return true
}

func matchSelect(row contracts.ScreenerRow, rule contracts.Rule) bool {
	want := rule.Param(contracts.ParamValue)
	if want == "" {
		return true
	}

	got, ok := CategoricalValue(row, rule.Key)
	if !ok {
		// no opinion on select keys without a backing field
		return true
	}
	return got == want
}

// MatchesAll reports whether the row satisfies every rule
func MatchesAll(row contracts.ScreenerRow, rules []contracts.Rule, reg *Registry) bool {
	for _, rule := range rules {
		if !Matches(row, rule, reg) {
			return false
		}
	}
	return true
}

// Filter returns the rows satisfying all rules, in input order.
// With no rules the input slice is returned as is.
func Filter(rows []contracts.ScreenerRow, rules []contracts.Rule, reg *Registry) []contracts.ScreenerRow {
	if len(rules) == 0 {
		return rows
	}

	out := make([]contracts.ScreenerRow, 0, len(rows))
	for _, row := range rows {
		if MatchesAll(row, rules, reg) {
			out = append(out, row)
		}
	}
	return out
}
