package screener

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

func f(v float64) *float64 { return contracts.Float(v) }

func rangeRule(key, min, max string) contracts.Rule {
	return contracts.Rule{ID: key + "-r", Key: key, Params: map[string]string{"min": min, "max": max}}
}

func selectRule(key, value string) contracts.Rule {
	return contracts.Rule{ID: key + "-s", Key: key, Params: map[string]string{"value": value}}
}

func TestFilter_TrendAndPEScenario(t *testing.T) {
	reg := MustLoadRegistry()
	rows := []contracts.ScreenerRow{
		{Ticker: "X", Trend: "uptrend", PE: f(12)},
		{Ticker: "Y", Trend: "uptrend", PE: f(20)},
	}
	rules := []contracts.Rule{
		selectRule("trend", "uptrend"),
		rangeRule("pe", "", "15"),
	}

	got := Filter(rows, rules, reg)

	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].Ticker)
}

func TestFilter_EmptyRulesIsIdentity(t *testing.T) {
	reg := MustLoadRegistry()
	rows := []contracts.ScreenerRow{{Ticker: "C"}, {Ticker: "A"}, {Ticker: "B"}}

	assert.Equal(t, rows, Filter(rows, nil, reg))
	assert.Equal(t, rows, Filter(rows, []contracts.Rule{}, reg))
}

func TestMatches_FailOpenOnMissingField(t *testing.T) {
	reg := MustLoadRegistry()
	row := contracts.ScreenerRow{Ticker: "NODATA"}

	for _, key := range []string{"rsi", "pe", "pb", "roe", "ma20Gap", "ma5Gap", "momentumScore", "price", "change1d", "change1m", "change1y"} {
		t.Run(key, func(t *testing.T) {
			assert.True(t, Matches(row, rangeRule(key, "1000", "2000"), reg))
			assert.True(t, Matches(row, rangeRule(key, "-5", "-1"), reg))
		})
	}
}

func TestMatches_Range(t *testing.T) {
	reg := MustLoadRegistry()
	row := contracts.ScreenerRow{Ticker: "R", RSI: f(45)}

	tests := []struct {
		name     string
		min, max string
		want     bool
	}{
		{"inside", "30", "70", true},
		{"min inclusive", "45", "", true},
		{"max inclusive", "", "45", true},
		{"below min", "50", "", false},
		{"above max", "", "40", false},
		{"no bounds", "", "", true},
		{"non numeric bounds ignored", "abc", "n/a", true},
		{"whitespace bound ignored", "  ", "", true},
		{"inverted bounds reject", "60", "40", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(row, rangeRule("rsi", tt.min, tt.max), reg))
		})
	}
}

func TestMatches_Select(t *testing.T) {
	reg := MustLoadRegistry()
	row := contracts.ScreenerRow{Ticker: "S", Trend: "sideways", Valuation: "value"}

	tests := []struct {
		name string
		rule contracts.Rule
		want bool
	}{
		{"trend equal", selectRule("trend", "sideways"), true},
		{"trend differs", selectRule("trend", "uptrend"), false},
		{"trend blank", selectRule("trend", ""), true},
		{"valuation equal", selectRule("valuation", "value"), true},
		{"valuation differs", selectRule("valuation", "premium"), false},
		{"case sensitive", selectRule("valuation", "Value"), false},
		{"no backing field", selectRule("pattern", "breakout"), true},
		{"missing value param", contracts.Rule{Key: "trend"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(row, tt.rule, reg))
		})
	}
}

func TestMatches_UnknownKeyAccepts(t *testing.T) {
	reg := MustLoadRegistry()
	assert.True(t, Matches(contracts.ScreenerRow{}, rangeRule("beta", "1", "2"), reg))
}

func TestNumericValue_MA5GapIsComputed(t *testing.T) {
	row := contracts.ScreenerRow{Change1D: f(2.0), MA20Gap: f(4.0)}

	// 0.65*2 + 0.35*4 = 2.7
	v, ok := NumericValue(row, "ma5Gap")
	require.True(t, ok)
	assert.InDelta(t, 2.7, v, 1e-9)

	_, ok = NumericValue(contracts.ScreenerRow{Change1D: f(2.0)}, "ma5Gap")
	assert.False(t, ok)

	_, ok = NumericValue(contracts.ScreenerRow{MA20Gap: f(4.0)}, "ma5Gap")
	assert.False(t, ok, "session change required")
}

func TestMatches_MA5GapRange(t *testing.T) {
	reg := MustLoadRegistry()
	row := contracts.ScreenerRow{Change1D: f(-1.0), MA20Gap: f(-3.0)} // -1.7

	assert.True(t, Matches(row, rangeRule("ma5Gap", "-1.8", ""), reg))
	assert.False(t, Matches(row, rangeRule("ma5Gap", "-1.6", ""), reg))
}

func TestRoundTenth(t *testing.T) {
	assert.Equal(t, 0.3, roundTenth(0.25))
	assert.Equal(t, -0.2, roundTenth(-0.25))
	assert.Equal(t, -1.3, roundTenth(-1.26))
	assert.Equal(t, 0.0, roundTenth(-0.04))
}

func TestMatches_FailOpenOnDecodedRow(t *testing.T) {
	reg := MustLoadRegistry()
	var row contracts.ScreenerRow
	require.NoError(t, json.Unmarshal([]byte(`{"ticker":"X","trend":"uptrend"}`), &row))

	for _, key := range []string{"price", "change1d", "change1m", "change1y", "ma5Gap"} {
		assert.True(t, Matches(row, rangeRule(key, "5", ""), reg), key)
	}

	require.NoError(t, json.Unmarshal([]byte(`{"ticker":"Y","price":3}`), &row))
	assert.False(t, Matches(row, rangeRule("price", "5", ""), reg))
}

func TestMatches_Deterministic(t *testing.T) {
	reg := MustLoadRegistry()
	row := contracts.ScreenerRow{Ticker: "D", PE: f(14), Trend: "uptrend"}
	rule := rangeRule("pe", "10", "15")
	before := rule.Clone()

	first := Matches(row, rule, reg)
	second := Matches(row, rule, reg)

	assert.Equal(t, first, second)
	assert.Equal(t, before, rule)
	assert.Equal(t, 14.0, *row.PE)
}

func TestFilter_Monotonic(t *testing.T) {
	reg := MustLoadRegistry()
	rows := []contracts.ScreenerRow{
		{Ticker: "A", Trend: "uptrend", PE: f(10), RSI: f(55), ROE: f(18)},
		{Ticker: "B", Trend: "downtrend", PE: f(30), RSI: f(25)},
		{Ticker: "C", Trend: "uptrend", PE: f(18), ROE: f(8)},
		{Ticker: "D", Valuation: "value"},
	}
	candidates := []contracts.Rule{
		selectRule("trend", "uptrend"),
		rangeRule("pe", "", "20"),
		rangeRule("rsi", "30", "70"),
		rangeRule("roe", "10", ""),
		selectRule("valuation", "value"),
	}

	var active []contracts.Rule
	prev := Filter(rows, active, reg)
	for _, rule := range candidates {
		active = append(active, rule)
		next := Filter(rows, active, reg)

		prevSet := make(map[string]bool, len(prev))
		for _, r := range prev {
			prevSet[r.Ticker] = true
		}
		for _, r := range next {
			assert.True(t, prevSet[r.Ticker], "adding %s admitted %s", rule.Key, r.Ticker)
		}
		assert.LessOrEqual(t, len(next), len(prev))
		prev = next
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	reg := MustLoadRegistry()
	rows := []contracts.ScreenerRow{
		{Ticker: "Z", PE: f(5)},
		{Ticker: "M", PE: f(50)},
		{Ticker: "A", PE: f(8)},
	}

	got := Filter(rows, []contracts.Rule{rangeRule("pe", "", "10")}, reg)

	require.Len(t, got, 2)
	assert.Equal(t, "Z", got[0].Ticker)
	assert.Equal(t, "A", got[1].Ticker)
}
