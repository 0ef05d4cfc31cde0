package backtestcfg

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/internal/strategyconfig"
)

// DateLayout is the wire date format
const DateLayout = "2006-01-02"

// DefaultMarketCap is used when neither the user nor the defaults name a bucket
const DefaultMarketCap = "large"

// Universe is the user's universe selection
type Universe struct {
	MarketCaps  []string `json:"marketCaps" yaml:"market_caps"`
	ShariahOnly bool     `json:"shariahOnly" yaml:"shariah_only"`
	Tickers     []string `json:"tickers" yaml:"tickers"`
	Sectors     []string `json:"sectors" yaml:"sectors"`
}

// Run holds the user-controlled run parameters. Zero values and nil
// thresholds take the execution defaults.
type Run struct {
	InitialCapital float64  `json:"initialCapital" yaml:"initial_capital"`
	StartDate      string   `json:"startDate" yaml:"start_date"`
	EndDate        string   `json:"endDate" yaml:"end_date"`
	StopLossPct    *float64 `json:"stopLossPct,omitempty" yaml:"stop_loss_pct"`
	TakeProfitPct  *float64 `json:"takeProfitPct,omitempty" yaml:"take_profit_pct"`
	MaxDrawdownPct *float64 `json:"maxDrawdownPct,omitempty" yaml:"max_drawdown_pct"`
}

// Input is everything Build needs
type Input struct {
	Indicators []contracts.Indicator `json:"indicators" yaml:"indicators"`
	Universe   Universe              `json:"universe" yaml:"universe"`
	Run        Run                   `json:"run" yaml:"run"`
}

// Builder turns editor input into a normalized request
type Builder struct {
	defaults *strategyconfig.Config
	now      func() time.Time
}

// NewBuilder creates a builder over the given execution defaults
func NewBuilder(defaults *strategyconfig.Config) *Builder {
	return &Builder{defaults: defaults, now: time.Now}
}

// WithClock overrides the clock used for default dates
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build produces the normalized request. It never fails: unknown indicator
// names fall back to a transliterated type.
func (b *Builder) Build(in Input) *Request {
	req := &Request{
		Filters:               b.buildFilters(in.Universe),
		FundamentalIndicators: make([]FundamentalIndicator, 0),
		TechnicalIndicators:   make([]TechnicalIndicator, 0),
		ExecutionConfig:       b.buildExecution(in.Run),
	}

	for _, ind := range in.Indicators {
		switch ind.Type {
		case contracts.IndicatorFundamental:
			req.FundamentalIndicators = append(req.FundamentalIndicators, buildFundamental(ind))
		case contracts.IndicatorTechnical:
			req.TechnicalIndicators = append(req.TechnicalIndicators, buildTechnical(ind))
		}
	}

	return req
}

func buildFundamental(ind contracts.Indicator) FundamentalIndicator {
	return FundamentalIndicator{
		Type: FundamentalType(ind.Name),
		Min:  optionalNumber(ind.Params[contracts.ParamMin]),
		Max:  optionalNumber(ind.Params[contracts.ParamMax]),
	}
}

func buildTechnical(ind contracts.Indicator) TechnicalIndicator {
	kind := TechnicalKindOf(ind.Name)
	if kind == TechnicalUnknown {
		params := make(map[string]float64, len(ind.Params))
		for k, v := range ind.Params {
			params[k] = number(v)
		}
		return TechnicalIndicator{Type: Transliterate(ind.Name), Params: params}
	}

	shape := technicalShapes[kind]
	params := make(map[string]float64, len(shape.params))
	for _, name := range shape.params {
		params[name] = number(ind.Params[name])
	}
	return TechnicalIndicator{Type: shape.wireType, Params: params}
}

func (b *Builder) buildFilters(u Universe) Filters {
	f := Filters{
		MarketCaps:  cleanList(u.MarketCaps, strings.ToLower),
		ShariahOnly: u.ShariahOnly,
		Tickers:     cleanList(u.Tickers, strings.ToUpper),
		Sectors:     cleanList(u.Sectors, nil),
	}
	if len(f.MarketCaps) == 0 {
		f.MarketCaps = b.defaultMarketCaps()
	}
	return f
}

func (b *Builder) defaultMarketCaps() []string {
	if b.defaults != nil && len(b.defaults.Universe.MarketCaps) > 0 {
		return append([]string(nil), b.defaults.Universe.MarketCaps...)
	}
	return []string{DefaultMarketCap}
}

func (b *Builder) buildExecution(run Run) ExecutionConfig {
	d := b.defaults
	if d == nil {
		d = strategyconfig.MustDefault()
	}

	end := strings.TrimSpace(run.EndDate)
	if end == "" {
		end = b.now().Format(DateLayout)
	}
	start := strings.TrimSpace(run.StartDate)
	if start == "" {
		start = startFor(end, d.Capital.LookbackDays, b.now())
	}

	capital := run.InitialCapital
	if capital <= 0 {
		capital = d.Capital.InitialCapital
	}

	return ExecutionConfig{
		InitialCapital: capital,
		StartDate:      start,
		EndDate:        end,
		TradingCosts: TradingCosts{
			CommissionPct: d.TradingCosts.CommissionPct,
			SlippagePct:   d.TradingCosts.SlippagePct,
			MinCommission: d.TradingCosts.MinCommission,
		},
		PositionSizing: PositionSizing{
			Method:         d.PositionSizing.Method,
			MaxPositions:   d.PositionSizing.MaxPositions,
			MaxPositionPct: d.PositionSizing.MaxPositionPct,
		},
		RiskManagement: RiskManagement{
			StopLossPct:    orDefault(run.StopLossPct, d.Risk.StopLossPct),
			TakeProfitPct:  orDefault(run.TakeProfitPct, d.Risk.TakeProfitPct),
			MaxDrawdownPct: orDefault(run.MaxDrawdownPct, d.Risk.MaxDrawdownPct),
		},
	}
}

// startFor counts lookback days back from end. An unparseable end date
// counts back from now.
func startFor(end string, lookbackDays int, now time.Time) string {
	t, err := time.Parse(DateLayout, end)
	if err != nil {
		t = now
	}
	return t.AddDate(0, 0, -lookbackDays).Format(DateLayout)
}

// IndicatorsFromRules converts screener rules into editor indicators through
// the registry's backtest mappings. Rules without a mapping are skipped.
func IndicatorsFromRules(rules []contracts.Rule, reg *screener.Registry) []contracts.Indicator {
	out := make([]contracts.Indicator, 0, len(rules))
	for _, rule := range rules {
		def, ok := reg.Definition(rule.Key)
		if !ok || def.Backtest == nil || def.Mode != contracts.ModeRange {
			continue
		}

		params := make(map[string]string, len(def.Backtest.Defaults)+len(def.Backtest.Params))
		for k, v := range def.Backtest.Defaults {
			params[k] = v
		}
		for from, to := range def.Backtest.Params {
			params[to] = rule.Param(from)
		}

		typ := contracts.IndicatorTechnical
		if def.Category == contracts.CategoryFundamental {
			typ = contracts.IndicatorFundamental
		}

		out = append(out, contracts.Indicator{
			ID:     rule.ID,
			Name:   def.Backtest.Indicator,
			Type:   typ,
			Params: params,
		})
	}
	return out
}

// optionalNumber parses a fundamental bound: blank or non-numeric is absent
func optionalNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// number parses a technical param: blank, missing or non-numeric is 0
func number(s string) float64 {
	if v := optionalNumber(s); v != nil {
		return *v
	}
	return 0
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func cleanList(in []string, norm func(string) string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if norm != nil {
			s = norm(s)
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
