package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

func tickers(rows []contracts.ScreenerRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Ticker
	}
	return out
}

func TestDefaultDesc(t *testing.T) {
	ascending := []string{"ticker", "company", "sector", "marketCap", "pe", "pb", "rsi", "price"}
	descending := []string{
		"change1d", "change1m", "change1y", "momentumScore", "dividendYield", "roe",
		"revenueGrowth", "epsGrowth", "volume", "ma5Gap", "ma20Gap", "ma50Gap", "ma200Gap",
	}

	for _, key := range ascending {
		assert.False(t, DefaultDesc(key), key)
	}
	for _, key := range descending {
		assert.True(t, DefaultDesc(key), key)
	}
	assert.False(t, DefaultDesc("unlisted"))
}

func TestSortState_Select(t *testing.T) {
	state := DefaultSort()
	assert.Equal(t, SortState{Key: "ticker", Desc: false}, state)

	state = state.Select("ticker")
	assert.True(t, state.Desc, "same key flips")

	state = state.Select("momentumScore")
	assert.Equal(t, SortState{Key: "momentumScore", Desc: true}, state)

	state = state.Select("pe")
	assert.Equal(t, SortState{Key: "pe", Desc: false}, state, "new key resets direction")

	state = state.Select("pe")
	assert.True(t, state.Desc)
}

func TestSort_Strings(t *testing.T) {
	rows := []contracts.ScreenerRow{{Ticker: "MSFT"}, {Ticker: "AAPL"}, {Ticker: "GOOG"}}

	assert.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, tickers(Sort(rows, SortState{Key: "ticker"})))
	assert.Equal(t, []string{"MSFT", "GOOG", "AAPL"}, tickers(Sort(rows, SortState{Key: "ticker", Desc: true})))
	assert.Equal(t, "MSFT", rows[0].Ticker, "input untouched")
}

func TestSort_NumericStableAndMissingLast(t *testing.T) {
	rows := []contracts.ScreenerRow{
		{Ticker: "A", PE: f(15)},
		{Ticker: "B"},
		{Ticker: "C", PE: f(10)},
		{Ticker: "D", PE: f(15)},
		{Ticker: "E"},
	}

	asc := Sort(rows, SortState{Key: "pe"})
	assert.Equal(t, []string{"C", "A", "D", "B", "E"}, tickers(asc))

	desc := Sort(rows, SortState{Key: "pe", Desc: true})
	assert.Equal(t, []string{"A", "D", "C", "B", "E"}, tickers(desc))
}

func TestSort_EmptyKeyKeepsOrder(t *testing.T) {
	rows := []contracts.ScreenerRow{{Ticker: "B"}, {Ticker: "A"}}
	assert.Equal(t, []string{"B", "A"}, tickers(Sort(rows, SortState{})))
}

func TestPaginate(t *testing.T) {
	rows := make([]contracts.ScreenerRow, 7)
	for i := range rows {
		rows[i] = contracts.ScreenerRow{Ticker: string(rune('A' + i))}
	}

	page := Paginate(rows, 2, 3)
	assert.Equal(t, []string{"D", "E", "F"}, tickers(page.Rows))
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	last := Paginate(rows, 3, 3)
	assert.Equal(t, []string{"G"}, tickers(last.Rows))

	beyond := Paginate(rows, 9, 3)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 7, beyond.Total)

	defaults := Paginate(rows, 0, 0)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, DefaultPageSize, defaults.PageSize)
	require.Len(t, defaults.Rows, 7)
}
