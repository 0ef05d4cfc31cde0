package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/internal/summary"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed section title
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintField prints one aligned key/value line
func PrintField(key string, value interface{}) {
	fmt.Printf("  %-14s: %v\n", key, value)
}

// PrintFooter closes a section
func PrintFooter() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintResultTable prints a projected screener page
func PrintResultTable(res screener.Result) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, c := range res.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Label)
	}
	fmt.Fprintln(tw)

	for _, row := range res.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, formatCell(cell.Value))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()

	fmt.Printf("\n%d of %d matched · page %d/%d\n", res.Matched, res.Input, res.Page, res.Pages)
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(t)
	}
}

// PrintSummary prints the presentation summary of a run
func PrintSummary(m summary.Metadata) {
	PrintHeader("Backtest Summary")
	PrintField("Total Return", formatPct(m.TotalReturn))
	PrintField("Max Drawdown", formatPct(m.MaxDrawdown))
	PrintField("Success Rate", formatPct(m.SuccessRate))
	PrintField("Sharpe Ratio", formatOptional(m.SharpeRatio))
	PrintField("Quality", m.QualityScore)
	PrintField("Trades", m.TotalTrades)
	PrintField("Stocks", m.TotalStocks)
	for _, h := range m.TopHoldings {
		PrintField(fmt.Sprintf("Top #%d", h.ColorSlot), fmt.Sprintf("%s (%s)", h.Symbol, h.Color))
	}
	PrintFooter()
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatOptional(v) + "%"
}
