package strategyconfig

// Config is the fixed execution block attached to every backtest request.
// Users pick indicators, universe and risk thresholds; everything here is
// operator-owned and changes by deployment only.
type Config struct {
	Meta           Meta           `yaml:"meta" json:"meta"`
	Capital        Capital        `yaml:"capital" json:"capital"`
	Universe       Universe       `yaml:"universe" json:"universe"`
	TradingCosts   TradingCosts   `yaml:"trading_costs" json:"trading_costs"`
	PositionSizing PositionSizing `yaml:"position_sizing" json:"position_sizing"`
	Risk           Risk           `yaml:"risk" json:"risk"`
}

// Meta identifies the defaults document
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Capital holds the starting equity and the default backtest window
type Capital struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	LookbackDays   int     `yaml:"lookback_days" json:"lookback_days"` // endDate - lookback = default startDate
}

// Universe defaults applied when the user leaves a list empty
type Universe struct {
	MarketCaps []string `yaml:"market_caps" json:"market_caps"`
}

// TradingCosts is the fixed cost schedule
type TradingCosts struct {
	CommissionPct float64 `yaml:"commission_pct" json:"commission_pct"`
	SlippagePct   float64 `yaml:"slippage_pct" json:"slippage_pct"`
	MinCommission float64 `yaml:"min_commission" json:"min_commission"`
}

// Position sizing methods
const (
	SizingEqualWeight   = "EQUAL_WEIGHT"
	SizingFixedFraction = "FIXED_FRACTION"
)

// PositionSizing is the fixed sizing policy
type PositionSizing struct {
	Method         string  `yaml:"method" json:"method"`
	MaxPositions   int     `yaml:"max_positions" json:"max_positions"`
	MaxPositionPct float64 `yaml:"max_position_pct" json:"max_position_pct"`
}

// Risk holds the default thresholds. Callers may override each one.
type Risk struct {
	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
}
