package strategyconfig

import (
	"fmt"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Capital ===
	if cfg.Capital.InitialCapital <= 0 {
		return ValidationError{"capital.initial_capital", "must be > 0"}
	}
	if cfg.Capital.LookbackDays <= 0 {
		return ValidationError{"capital.lookback_days", "must be > 0"}
	}

	// === Universe ===
	if len(cfg.Universe.MarketCaps) == 0 {
		return ValidationError{"universe.market_caps", "required"}
	}
	for i, mc := range cfg.Universe.MarketCaps {
		if mc != "large" && mc != "mid" && mc != "small" {
			return ValidationError{fmt.Sprintf("universe.market_caps[%d]", i), "must be large, mid or small"}
		}
	}

	// === TradingCosts ===
	if err := validatePct(cfg.TradingCosts.CommissionPct, "trading_costs.commission_pct"); err != nil {
		return err
	}
	if err := validatePct(cfg.TradingCosts.SlippagePct, "trading_costs.slippage_pct"); err != nil {
		return err
	}
	if cfg.TradingCosts.MinCommission < 0 {
		return ValidationError{"trading_costs.min_commission", "must be >= 0"}
	}

	// === PositionSizing ===
	ps := cfg.PositionSizing
	if ps.Method != SizingEqualWeight && ps.Method != SizingFixedFraction {
		return ValidationError{"position_sizing.method", "must be EQUAL_WEIGHT or FIXED_FRACTION"}
	}
	if ps.MaxPositions < 1 {
		return ValidationError{"position_sizing.max_positions", "must be >= 1"}
	}
	if ps.MaxPositionPct <= 0 || ps.MaxPositionPct > 100 {
		return ValidationError{"position_sizing.max_position_pct", "must be in (0, 100]"}
	}

	// === Risk ===
	if err := validatePct(cfg.Risk.StopLossPct, "risk.stop_loss_pct"); err != nil {
		return err
	}
	if cfg.Risk.TakeProfitPct < 0 {
		return ValidationError{"risk.take_profit_pct", "must be >= 0"}
	}
	if err := validatePct(cfg.Risk.MaxDrawdownPct, "risk.max_drawdown_pct"); err != nil {
		return err
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 슬리피지 0 은 낙관적
	if cfg.TradingCosts.SlippagePct == 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_SLIPPAGE",
			Message: "slippage_pct is 0: results will be optimistic",
		})
	}

	// 포지션 한도 합 < 100% 이면 현금이 남음
	if float64(cfg.PositionSizing.MaxPositions)*cfg.PositionSizing.MaxPositionPct < 100 {
		warnings = append(warnings, Warning{
			Code:    "UNDER_INVESTED",
			Message: "max_positions * max_position_pct < 100: part of the capital stays in cash",
		})
	}

	if cfg.Risk.StopLossPct == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_STOP_LOSS",
			Message: "stop_loss_pct is 0: positions are never stopped out",
		})
	}

	return warnings
}

// validatePct는 퍼센트 값이 0~100 범위인지 검증
func validatePct(pct float64, field string) error {
	if pct < 0 || pct > 100 {
		return ValidationError{field, "must be in range [0, 100]"}
	}
	return nil
}
