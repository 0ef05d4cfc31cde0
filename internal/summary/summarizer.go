package summary

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// QualityTier is the qualitative label derived from the Sharpe ratio
type QualityTier string

const (
	QualityUnknown   QualityTier = "Unknown"
	QualityPoor      QualityTier = "Poor"
	QualityGood      QualityTier = "Good"
	QualityExcellent QualityTier = "Excellent"
)

// MaxHoldings caps the top holdings list
const MaxHoldings = 3

// Palette is the fixed holding color palette. Slot n uses Palette[n-1].
var Palette = [5]string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6"}

// Holding is one entry of the top holdings list
type Holding struct {
	Symbol    string `json:"symbol"`
	ColorSlot int    `json:"colorSlot"`
	Color     string `json:"color"`
}

// Metadata is the fixed presentation summary of a backtest result.
// Float KPIs are nil when the result does not carry them.
type Metadata struct {
	TotalReturn  *float64    `json:"totalReturn"`
	MaxDrawdown  *float64    `json:"maxDrawdown"`
	SuccessRate  *float64    `json:"successRate"`
	SharpeRatio  *float64    `json:"sharpeRatio"`
	TotalTrades  int         `json:"totalTrades"`
	TotalStocks  int         `json:"totalStocks"`
	QualityScore QualityTier `json:"qualityScore"`
	TopHoldings  []Holding   `json:"topHoldings"`
}

// SummarizeJSON decodes a result document and summarizes it.
// Undecodable input yields the empty summary.
func SummarizeJSON(data []byte) Metadata {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Summarize(nil)
	}
	return Summarize(doc)
}

// Summarize reduces a result document to Metadata. It never fails;
// missing or malformed fields degrade to nil or zero.
func Summarize(doc map[string]interface{}) Metadata {
	block := asMap(doc["summary"])

	md := Metadata{
		TotalReturn: floatPtr(block["totalReturn"]),
		MaxDrawdown: floatPtr(block["maxDrawdown"]),
		SuccessRate: floatPtr(block["successRate"]),
		SharpeRatio: floatPtr(block["sharpeRatio"]),
		TotalTrades: intValue(block["totalTrades"]),
	}
	if md.SuccessRate == nil {
		md.SuccessRate = floatPtr(block["winRate"])
	}
	md.QualityScore = Tier(md.SharpeRatio)

	top := asSlice(doc["signals"])
	recent := asSlice(asMap(doc["recentSignals"])["signals"])

	totals := top
	if totals == nil {
		totals = recent
	}
	md.TotalStocks = countDistinct(totals)

	holdings := recent
	if holdings == nil {
		holdings = top
	}
	md.TopHoldings = TopHoldings(holdings)

	return md
}

// Tier maps a Sharpe ratio to its quality tier. Both boundaries are Good.
func Tier(sharpe *float64) QualityTier {
	if sharpe == nil || math.IsNaN(*sharpe) {
		return QualityUnknown
	}
	switch s := *sharpe; {
	case s < 1.0:
		return QualityPoor
	case s <= 2.0:
		return QualityGood
	default:
		return QualityExcellent
	}
}

type signal struct {
	ticker string
	date   time.Time
}

// TopHoldings ranks signals by date, most recent first, keeps the first
// occurrence of each ticker and assigns palette slots in list order.
func TopHoldings(signals []interface{}) []Holding {
	parsed := make([]signal, 0, len(signals))
	for _, raw := range signals {
		m := asMap(raw)
		ticker := tickerOf(m)
		if ticker == "" {
			continue
		}
		parsed = append(parsed, signal{ticker: ticker, date: parseDate(m["date"])})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].date.After(parsed[j].date)
	})

	out := make([]Holding, 0, MaxHoldings)
	seen := make(map[string]bool, MaxHoldings)
	for _, s := range parsed {
		if seen[s.ticker] {
			continue
		}
		seen[s.ticker] = true
		slot := len(out) + 1
		out = append(out, Holding{Symbol: s.ticker, ColorSlot: slot, Color: Palette[(slot-1)%len(Palette)]})
		if len(out) == MaxHoldings {
			break
		}
	}
	return out
}

func countDistinct(signals []interface{}) int {
	seen := make(map[string]bool, len(signals))
	for _, raw := range signals {
		if t := tickerOf(asMap(raw)); t != "" {
			seen[t] = true
		}
	}
	return len(seen)
}

func tickerOf(m map[string]interface{}) string {
	for _, key := range []string{"ticker", "symbol"} {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate returns the zero time for anything unparseable, which sorts earliest
func parseDate(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// toFloat coerces numbers and numeric strings
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "%"), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func floatPtr(v interface{}) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func intValue(v interface{}) int {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return int(f)
}
