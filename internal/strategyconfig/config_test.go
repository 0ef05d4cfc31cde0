package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "retail_default", cfg.Meta.ProfileID)
	assert.Equal(t, 100000.0, cfg.Capital.InitialCapital)
	assert.Equal(t, 365, cfg.Capital.LookbackDays)
	assert.Equal(t, []string{"large"}, cfg.Universe.MarketCaps)
	assert.Equal(t, SizingEqualWeight, cfg.PositionSizing.Method)

	// 동일 설정 → 동일 해시
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(MustDefault())
	assert.Equal(t, hash, hash2)
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded defaults", func(t *testing.T) {
		cfg, data, err := Load("")
		require.NoError(t, err)
		assert.NotEmpty(t, data)
		assert.Equal(t, "retail_default", cfg.Meta.ProfileID)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "defaults.yaml")
		content := `meta: {profile_id: aggressive, version: "1"}
capital: {initial_capital: 50000, lookback_days: 180}
universe: {market_caps: [mid, small]}
trading_costs: {commission_pct: 0.05, slippage_pct: 0.1, min_commission: 0}
position_sizing: {method: FIXED_FRACTION, max_positions: 20, max_position_pct: 5}
risk: {stop_loss_pct: 8, take_profit_pct: 25, max_drawdown_pct: 30}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, _, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "aggressive", cfg.Meta.ProfileID)
		assert.Equal(t, []string{"mid", "small"}, cfg.Universe.MarketCaps)
		assert.Equal(t, 8.0, cfg.Risk.StopLossPct)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, err := Parse([]byte("meta: {profile_id: x, verison: typo}\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"profile id", func(c *Config) { c.Meta.ProfileID = "" }, "meta.profile_id"},
		{"capital", func(c *Config) { c.Capital.InitialCapital = 0 }, "capital.initial_capital"},
		{"lookback", func(c *Config) { c.Capital.LookbackDays = -1 }, "capital.lookback_days"},
		{"market caps empty", func(c *Config) { c.Universe.MarketCaps = nil }, "universe.market_caps"},
		{"market cap unknown", func(c *Config) { c.Universe.MarketCaps = []string{"mega"} }, "universe.market_caps[0]"},
		{"commission", func(c *Config) { c.TradingCosts.CommissionPct = -0.1 }, "trading_costs.commission_pct"},
		{"sizing method", func(c *Config) { c.PositionSizing.Method = "KELLY" }, "position_sizing.method"},
		{"max positions", func(c *Config) { c.PositionSizing.MaxPositions = 0 }, "position_sizing.max_positions"},
		{"position pct", func(c *Config) { c.PositionSizing.MaxPositionPct = 150 }, "position_sizing.max_position_pct"},
		{"stop loss", func(c *Config) { c.Risk.StopLossPct = 120 }, "risk.stop_loss_pct"},
		{"drawdown", func(c *Config) { c.Risk.MaxDrawdownPct = -1 }, "risk.max_drawdown_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MustDefault()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(MustDefault()))

	cfg := MustDefault()
	cfg.TradingCosts.SlippagePct = 0
	cfg.PositionSizing.MaxPositions = 5
	cfg.Risk.StopLossPct = 0

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"ZERO_SLIPPAGE", "UNDER_INVESTED", "NO_STOP_LOSS"}, codes)
}
