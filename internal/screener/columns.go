package screener

import (
	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// Column is one displayed field
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Cell is one projected value. Value is nil when the row has no data.
type Cell struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// DefaultTemplate is used when neither a known template nor valid ids are given
const DefaultTemplate = "overview"

var columnLabels = map[string]string{
	"ticker":        "Ticker",
	"company":       "Company",
	"sector":        "Sector",
	"marketCap":     "Market Cap",
	"shariah":       "Shariah",
	"price":         "Price",
	"change1d":      "1D %",
	"change1m":      "1M %",
	"change1y":      "1Y %",
	"trend":         "Trend",
	"valuation":     "Valuation",
	"rsi":           "RSI",
	"ma5Gap":        "vs MA5 %",
	"ma20Gap":       "vs MA20 %",
	"ma50Gap":       "vs MA50 %",
	"ma200Gap":      "vs MA200 %",
	"pe":            "P/E",
	"pb":            "P/B",
	"dividendYield": "Div Yield %",
	"roe":           "ROE %",
	"revenueGrowth": "Rev Growth %",
	"epsGrowth":     "EPS Growth %",
	"momentumScore": "Momentum",
	"volume":        "Volume",
}

var templates = map[string][]string{
	"overview":    {"ticker", "company", "sector", "marketCap", "price", "change1d"},
	"technical":   {"ticker", "price", "rsi", "ma5Gap", "ma20Gap", "ma50Gap", "ma200Gap", "trend"},
	"fundamental": {"ticker", "company", "pe", "pb", "dividendYield", "roe", "revenueGrowth", "valuation"},
	"performance": {"ticker", "change1d", "change1m", "change1y", "momentumScore"},
}

// Templates returns the names of the built-in column templates
func Templates() []string {
	return []string{"overview", "technical", "fundamental", "performance"}
}

// Columns resolves the displayed columns. Explicit ids win over the template;
// unknown and repeated ids are dropped.
func Columns(template string, ids []string) []Column {
	if cols := toColumns(ids); len(cols) > 0 {
		return cols
	}
	if tmpl, ok := templates[template]; ok {
		return toColumns(tmpl)
	}
	return toColumns(templates[DefaultTemplate])
}

func toColumns(ids []string) []Column {
	seen := make(map[string]bool, len(ids))
	cols := make([]Column, 0, len(ids))
	for _, id := range ids {
		label, ok := columnLabels[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		cols = append(cols, Column{ID: id, Label: label})
	}
	return cols
}

// Project extracts the given columns from a row
func Project(row contracts.ScreenerRow, cols []Column) []Cell {
	cells := make([]Cell, 0, len(cols))
	for _, col := range cols {
		cells = append(cells, Cell{ID: col.ID, Label: col.Label, Value: cellValue(row, col.ID)})
	}
	return cells
}

func cellValue(row contracts.ScreenerRow, id string) interface{} {
	if id == "shariah" {
		return row.Shariah
	}
	if s, ok := stringField(row, id); ok {
		return s
	}
	if v, ok := NumericValue(row, id); ok {
		return v
	}
	return nil
}
