package screener

import (
	"sort"
	"strings"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// DefaultPageSize is used when a page size is not positive
const DefaultPageSize = 25

// descendingByDefault lists the "bigger is better" sort keys.
// Every other key starts ascending.
var descendingByDefault = map[string]bool{
	"change1d":      true,
	"change1m":      true,
	"change1y":      true,
	"momentumScore": true,
	"dividendYield": true,
	"roe":           true,
	"revenueGrowth": true,
	"epsGrowth":     true,
	"volume":        true,
	"ma5Gap":        true,
	"ma20Gap":       true,
	"ma50Gap":       true,
	"ma200Gap":      true,
}

// SortState is the active sort key and direction
type SortState struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// DefaultSort orders by ticker ascending
func DefaultSort() SortState {
	return SortState{Key: "ticker"}
}

// DefaultDesc reports the initial direction for a sort key
func DefaultDesc(key string) bool {
	return descendingByDefault[key]
}

// Select returns the state after the user picks key: the same key flips
// direction, a new key starts in its default direction.
func (s SortState) Select(key string) SortState {
	if key == s.Key {
		return SortState{Key: key, Desc: !s.Desc}
	}
	return SortState{Key: key, Desc: DefaultDesc(key)}
}

func stringField(row contracts.ScreenerRow, key string) (string, bool) {
	switch key {
	case "ticker":
		return row.Ticker, true
	case "company":
		return row.Company, true
	case "sector":
		return row.Sector, true
	case "marketCap":
		return row.MarketCap, true
	case "trend":
		return row.Trend, true
	case "valuation":
		return row.Valuation, true
	default:
		return "", false
	}
}

// compareRows returns <0, 0 or >0 in ascending order.
// Missing numeric values are reported through the missing flags.
func compareRows(a, b contracts.ScreenerRow, key string) (cmp float64, aMissing, bMissing bool) {
	if sa, ok := stringField(a, key); ok {
		sb, _ := stringField(b, key)
		return float64(strings.Compare(sa, sb)), false, false
	}

	va, okA := NumericValue(a, key)
	vb, okB := NumericValue(b, key)
	if !okA || !okB {
		return 0, !okA, !okB
	}
	return va - vb, false, false
}

// Sort returns a stably sorted copy of rows.
// Rows without a value for a numeric key go last in either direction.
func Sort(rows []contracts.ScreenerRow, state SortState) []contracts.ScreenerRow {
	out := make([]contracts.ScreenerRow, len(rows))
	copy(out, rows)
	if state.Key == "" {
		return out
	}

	sign := 1.0
	if state.Desc {
		sign = -1.0
	}

	sort.SliceStable(out, func(i, j int) bool {
		cmp, iMissing, jMissing := compareRows(out[i], out[j], state.Key)
		if iMissing || jMissing {
			return !iMissing && jMissing
		}
		return sign*cmp < 0
	})
	return out
}

// Page is one slice of a sorted result
type Page struct {
	Rows       []contracts.ScreenerRow `json:"rows"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"totalPages"`
}

// Paginate returns the 1-based page of rows. Out-of-range pages are empty.
func Paginate(rows []contracts.ScreenerRow, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}

	total := len(rows)
	result := Page{
		Rows:       []contracts.ScreenerRow{},
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	}

	start := (page - 1) * size
	if start >= total {
		return result
	}
	end := start + size
	if end > total {
		end = total
	}
	result.Rows = rows[start:end]
	return result
}
