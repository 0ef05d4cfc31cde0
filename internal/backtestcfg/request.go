package backtestcfg

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Request is the normalized backtest request sent to the remote executor
type Request struct {
	Filters               Filters                `json:"filters"`
	FundamentalIndicators []FundamentalIndicator `json:"fundamentalIndicators"`
	TechnicalIndicators   []TechnicalIndicator   `json:"technicalIndicators"`
	ExecutionConfig       ExecutionConfig        `json:"executionConfig"`
}

// Filters selects the universe. Empty ticker and sector lists are omitted
// from the wire, which the executor reads as "no restriction".
type Filters struct {
	MarketCaps  []string `json:"marketCaps"`
	ShariahOnly bool     `json:"shariahOnly"`
	Tickers     []string `json:"tickers,omitempty"`
	Sectors     []string `json:"sectors,omitempty"`
}

// FundamentalIndicator bounds one fundamental metric. Nil bounds are open.
type FundamentalIndicator struct {
	Type string   `json:"type"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// TechnicalIndicator is a typed indicator whose params sit next to "type" on the wire:
// {"type":"RSI","period":14,"oversold":30,"overbought":70}
type TechnicalIndicator struct {
	Type   string
	Params map[string]float64
}

// MarshalJSON flattens Params into the indicator object
func (t TechnicalIndicator) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(t.Params)+1)
	for k, v := range t.Params {
		obj[k] = v
	}
	obj["type"] = t.Type
	return json.Marshal(obj)
}

// UnmarshalJSON reads "type" and every numeric sibling as a param.
// Non-numeric siblings are ignored.
func (t *TechnicalIndicator) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	typ, ok := raw["type"]
	if !ok {
		return fmt.Errorf("technical indicator: missing type")
	}
	if err := json.Unmarshal(typ, &t.Type); err != nil {
		return fmt.Errorf("technical indicator type: %w", err)
	}

	t.Params = make(map[string]float64, len(raw)-1)
	for k, v := range raw {
		if k == "type" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			t.Params[k] = f
		}
	}
	return nil
}

// ParamNames returns the param names in sorted order
func (t TechnicalIndicator) ParamNames() []string {
	names := make([]string, 0, len(t.Params))
	for k := range t.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ExecutionConfig is the fixed run block
type ExecutionConfig struct {
	InitialCapital float64        `json:"initialCapital"`
	StartDate      string         `json:"startDate"`
	EndDate        string         `json:"endDate"`
	TradingCosts   TradingCosts   `json:"tradingCosts"`
	PositionSizing PositionSizing `json:"positionSizing"`
	RiskManagement RiskManagement `json:"riskManagement"`
}

// TradingCosts is the cost schedule, in percent
type TradingCosts struct {
	CommissionPct float64 `json:"commissionPct"`
	SlippagePct   float64 `json:"slippagePct"`
	MinCommission float64 `json:"minCommission"`
}

// PositionSizing is the sizing policy
type PositionSizing struct {
	Method         string  `json:"method"`
	MaxPositions   int     `json:"maxPositions"`
	MaxPositionPct float64 `json:"maxPositionPct"`
}

// RiskManagement holds the risk thresholds, in percent
type RiskManagement struct {
	StopLossPct    float64 `json:"stopLossPct"`
	TakeProfitPct  float64 `json:"takeProfitPct"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
}
