package contracts

// Category classifies a filterable attribute
type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryFundamental Category = "fundamental"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c == CategoryTechnical || c == CategoryFundamental
}

// MatchMode is how a rule is evaluated against a row
type MatchMode string

const (
	ModeRange  MatchMode = "range"
	ModeSelect MatchMode = "select"
)

// Valid reports whether m is a known mode
func (m MatchMode) Valid() bool {
	return m == ModeRange || m == ModeSelect
}

// Rule param names
const (
	ParamMin   = "min"
	ParamMax   = "max"
	ParamValue = "value"
)

// Option is one choice of a select-mode filter
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// BacktestMapping converts a rule of this definition into an editor indicator
type BacktestMapping struct {
	Indicator string            `yaml:"indicator" json:"indicator"`
	Params    map[string]string `yaml:"params" json:"params,omitempty"`   // rule param -> indicator param
	Defaults  map[string]string `yaml:"defaults" json:"defaults,omitempty"` // indicator params filled when absent
}

// FilterDefinition describes one filterable attribute.
// Definitions are loaded once at startup and never mutated.
type FilterDefinition struct {
	Key           string            `yaml:"key" json:"key"`
	Label         string            `yaml:"label" json:"label"`
	Category      Category          `yaml:"category" json:"category"`
	Mode          MatchMode         `yaml:"mode" json:"mode"`
	Description   string            `yaml:"description" json:"description"`
	DefaultParams map[string]string `yaml:"default_params" json:"defaultParams,omitempty"`
	Options       []Option          `yaml:"options" json:"options,omitempty"`
	Backtest      *BacktestMapping  `yaml:"backtest" json:"backtest,omitempty"`
}

// Rule is one active filter instance.
// The category is not stored; it is looked up from the definition.
type Rule struct {
	ID     string            `yaml:"id" json:"id"`
	Key    string            `yaml:"key" json:"key"`
	Params map[string]string `yaml:"params" json:"params"`
}

// Param returns a rule param or "" when absent
func (r Rule) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// Clone returns a deep copy of the rule
func (r Rule) Clone() Rule {
	params := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	return Rule{ID: r.ID, Key: r.Key, Params: params}
}

// Trend classification values
const (
	TrendUp       = "uptrend"
	TrendSideways = "sideways"
	TrendDown     = "downtrend"
)

// Valuation classification values
const (
	ValuationValue   = "value"
	ValuationFair    = "fair"
	ValuationPremium = "premium"
)

// ScreenerRow is one instrument's point-in-time snapshot.
// Optional indicators are nil when the data vendor has no value.
type ScreenerRow struct {
	Ticker    string `json:"ticker"`
	Company   string `json:"company"`
	Sector    string `json:"sector"`
	MarketCap string `json:"marketCap"` // large | mid | small
	Shariah   bool   `json:"shariah"`

	Price    *float64 `json:"price,omitempty"`
	Change1D *float64 `json:"change1d,omitempty"`
	Change1M *float64 `json:"change1m,omitempty"`
	Change1Y *float64 `json:"change1y,omitempty"`

	Trend     string `json:"trend"`
	Valuation string `json:"valuation"`

	RSI           *float64 `json:"rsi,omitempty"`
	MA20Gap       *float64 `json:"ma20Gap,omitempty"`
	MA50Gap       *float64 `json:"ma50Gap,omitempty"`
	MA200Gap      *float64 `json:"ma200Gap,omitempty"`
	PE            *float64 `json:"pe,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	DividendYield *float64 `json:"dividendYield,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	RevenueGrowth *float64 `json:"revenueGrowth,omitempty"`
	EPSGrowth     *float64 `json:"epsGrowth,omitempty"`
	MomentumScore *float64 `json:"momentumScore,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
}

// IndicatorType is the editor-side indicator family
type IndicatorType string

const (
	IndicatorFundamental IndicatorType = "fundamental"
	IndicatorTechnical   IndicatorType = "technical"
)

// Indicator is the human-editable model behind the backtest config editor.
// Param values are numeric strings or blank.
type Indicator struct {
	ID     string            `yaml:"id" json:"id"`
	Name   string            `yaml:"name" json:"name"`
	Type   IndicatorType     `yaml:"type" json:"type"`
	Params map[string]string `yaml:"params" json:"params"`
}

// Float returns a pointer to v, for optional row fields
func Float(v float64) *float64 {
	return &v
}
