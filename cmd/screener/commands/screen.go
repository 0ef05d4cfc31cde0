package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/marketdata"
	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

var (
	screenRows     string
	screenRules    string
	screenSort     string
	screenDesc     bool
	screenPage     int
	screenPageSize int
	screenTemplate string
	screenColumns  []string
	screenJSON     bool
)

// screenCmd filters a row file with a rule file
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "스냅샷 파일 스크리닝",
	Long: `JSON 행 파일에 규칙 파일(YAML/JSON)을 적용하고 결과 페이지를 출력합니다.

Rules file:
  - {id: r1, key: trend, params: {value: uptrend}}
  - {id: r2, key: pe, params: {min: "", max: "20"}}

Example:
  go run ./cmd/screener screen --rows rows.json --rules rules.yaml
  go run ./cmd/screener screen --rows rows.json --sort pe --template fundamental`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenRows, "rows", "", "JSON array of screener rows")
	screenCmd.Flags().StringVar(&screenRules, "rules", "", "rule file (YAML or JSON)")
	screenCmd.Flags().StringVar(&screenSort, "sort", "", "sort key (default ticker)")
	screenCmd.Flags().BoolVar(&screenDesc, "desc", false, "sort descending")
	screenCmd.Flags().IntVar(&screenPage, "page", 1, "page number")
	screenCmd.Flags().IntVar(&screenPageSize, "page-size", screener.DefaultPageSize, "rows per page")
	screenCmd.Flags().StringVar(&screenTemplate, "template", screener.DefaultTemplate, "column template")
	screenCmd.Flags().StringSliceVar(&screenColumns, "columns", nil, "explicit column ids")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print the result as JSON")
	_ = screenCmd.MarkFlagRequired("rows")
}

func runScreen(cmd *cobra.Command, args []string) error {
	reg, err := screener.LoadRegistry()
	if err != nil {
		return err
	}

	rules, err := readRules(screenRules)
	if err != nil {
		return err
	}
	// 규칙 검증: 알 수 없는 키는 여기서 실패
	set, err := screener.RuleSetFrom(reg, rules)
	if err != nil {
		return err
	}

	rows, err := marketdata.NewFileSource(screenRows).Rows(context.Background())
	if err != nil {
		return err
	}

	sortState := screener.DefaultSort()
	if screenSort != "" {
		sortState = screener.SortState{Key: screenSort, Desc: screenDesc}
	}

	res := screener.NewScreener(reg, logger.NewNop()).Screen(rows, screener.Query{
		Rules:    set.Rules(),
		Sort:     sortState,
		Page:     screenPage,
		PageSize: screenPageSize,
		Template: screenTemplate,
		Columns:  screenColumns,
	})

	if screenJSON {
		return printJSON(res)
	}
	PrintResultTable(res)
	return nil
}
