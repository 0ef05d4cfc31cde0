package backtestcfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// EditorState is the editor model reconstructed from a normalized request
type EditorState struct {
	Indicators []contracts.Indicator `json:"indicators"`
	Universe   Universe              `json:"universe"`
	Run        Run                   `json:"run"`
}

// ApplyConfig reverses Build. Names come from the inverse of the forward
// tables; unknown wire types become title-cased names.
func ApplyConfig(req *Request) EditorState {
	state := EditorState{Indicators: make([]contracts.Indicator, 0)}
	if req == nil {
		return state
	}

	for i, f := range req.FundamentalIndicators {
		name, ok := fundamentalNames[f.Type]
		if !ok {
			name = titleCase(f.Type)
		}
		state.Indicators = append(state.Indicators, contracts.Indicator{
			ID:   indicatorID(contracts.IndicatorFundamental, i),
			Name: name,
			Type: contracts.IndicatorFundamental,
			Params: map[string]string{
				contracts.ParamMin: formatOptional(f.Min),
				contracts.ParamMax: formatOptional(f.Max),
			},
		})
	}

	for i, t := range req.TechnicalIndicators {
		name := titleCase(t.Type)
		if kind, ok := technicalByType[t.Type]; ok {
			name = technicalShapes[kind].name
		}
		params := make(map[string]string, len(t.Params))
		for k, v := range t.Params {
			params[k] = formatNumber(v)
		}
		state.Indicators = append(state.Indicators, contracts.Indicator{
			ID:     indicatorID(contracts.IndicatorTechnical, i),
			Name:   name,
			Type:   contracts.IndicatorTechnical,
			Params: params,
		})
	}

	state.Universe = Universe{
		MarketCaps:  append([]string(nil), req.Filters.MarketCaps...),
		ShariahOnly: req.Filters.ShariahOnly,
		Tickers:     append([]string(nil), req.Filters.Tickers...),
		Sectors:     append([]string(nil), req.Filters.Sectors...),
	}

	exec := req.ExecutionConfig
	state.Run = Run{
		InitialCapital: exec.InitialCapital,
		StartDate:      exec.StartDate,
		EndDate:        exec.EndDate,
		StopLossPct:    contracts.Float(exec.RiskManagement.StopLossPct),
		TakeProfitPct:  contracts.Float(exec.RiskManagement.TakeProfitPct),
		MaxDrawdownPct: contracts.Float(exec.RiskManagement.MaxDrawdownPct),
	}

	return state
}

func indicatorID(t contracts.IndicatorType, i int) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(string(t)), i+1)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
