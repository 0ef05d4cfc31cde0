package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/screener"
)

var (
	buildInput    string
	buildRules    string
	buildDefaults string
	applyRequest  string
	applyJSON     bool
)

// buildConfigCmd converts editor input into a normalized request
var buildConfigCmd = &cobra.Command{
	Use:   "build-config",
	Short: "백테스트 요청 생성",
	Long: `에디터 입력(YAML/JSON)과 스크리너 규칙으로 정규화된 백테스트 요청 JSON을 생성합니다.

Example:
  go run ./cmd/screener build-config --input editor.yaml
  go run ./cmd/screener build-config --rules rules.yaml --defaults defaults.yaml`,
	RunE: runBuildConfig,
}

// applyConfigCmd reverses a normalized request into editor state
var applyConfigCmd = &cobra.Command{
	Use:   "apply-config",
	Short: "백테스트 요청 → 에디터 상태",
	Long: `정규화된 백테스트 요청 JSON을 에디터 상태로 되돌립니다.

Example:
  go run ./cmd/screener apply-config --request request.json`,
	RunE: runApplyConfig,
}

func init() {
	rootCmd.AddCommand(buildConfigCmd)
	rootCmd.AddCommand(applyConfigCmd)

	buildConfigCmd.Flags().StringVar(&buildInput, "input", "", "editor input file (YAML or JSON)")
	buildConfigCmd.Flags().StringVar(&buildRules, "rules", "", "screener rule file to convert into indicators")
	buildConfigCmd.Flags().StringVar(&buildDefaults, "defaults", "", "execution defaults YAML (default embedded)")

	applyConfigCmd.Flags().StringVar(&applyRequest, "request", "", "normalized request JSON")
	applyConfigCmd.Flags().BoolVar(&applyJSON, "json", false, "print JSON instead of YAML")
	_ = applyConfigCmd.MarkFlagRequired("request")
}

// buildRequest reads editor input and rules and builds the request
func buildRequest(inputPath, rulesPath, defaultsPath string) (*backtestcfg.Request, error) {
	defaults, err := loadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}

	in, err := readInput(inputPath)
	if err != nil {
		return nil, err
	}

	rules, err := readRules(rulesPath)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		reg, err := screener.LoadRegistry()
		if err != nil {
			return nil, err
		}
		in.Indicators = append(append([]contracts.Indicator{}, in.Indicators...),
			backtestcfg.IndicatorsFromRules(rules, reg)...)
	}

	return backtestcfg.NewBuilder(defaults).Build(in), nil
}

func runBuildConfig(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(buildInput, buildRules, buildDefaults)
	if err != nil {
		return err
	}
	return printJSON(req)
}

func runApplyConfig(cmd *cobra.Command, args []string) error {
	req, err := readRequest(applyRequest)
	if err != nil {
		return err
	}

	state := backtestcfg.ApplyConfig(req)
	if applyJSON {
		return printJSON(state)
	}
	return printYAML(state)
}
