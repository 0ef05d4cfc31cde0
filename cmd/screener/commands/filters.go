package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/screener"
)

var filtersJSON bool

// filtersCmd prints the filter registry
var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "필터 레지스트리 조회",
	Long: `등록된 스크리너 필터를 카테고리별로 출력합니다.

Example:
  go run ./cmd/screener filters
  go run ./cmd/screener filters --json`,
	RunE: runFilters,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.Flags().BoolVar(&filtersJSON, "json", false, "print definitions as JSON")
}

func runFilters(cmd *cobra.Command, args []string) error {
	reg, err := screener.LoadRegistry()
	if err != nil {
		return err
	}
	if filtersJSON {
		return printJSON(reg.Definitions())
	}

	for _, c := range []contracts.Category{contracts.CategoryTechnical, contracts.CategoryFundamental} {
		PrintHeader(fmt.Sprintf("%s filters (registry %s)", strings.ToUpper(string(c)), reg.Version()))
		for _, def := range reg.ByCategory(c) {
			PrintField(def.Key, fmt.Sprintf("%s [%s] %s", def.Label, def.Mode, describeDefaults(def)))
		}
	}
	PrintFooter()
	return nil
}

func describeDefaults(def contracts.FilterDefinition) string {
	if def.Mode == contracts.ModeSelect {
		values := make([]string, 0, len(def.Options))
		for _, o := range def.Options {
			values = append(values, o.Value)
		}
		return strings.Join(values, "|")
	}

	keys := make([]string, 0, len(def.DefaultParams))
	for k := range def.DefaultParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, def.DefaultParams[k]))
	}
	return strings.Join(parts, " ")
}
