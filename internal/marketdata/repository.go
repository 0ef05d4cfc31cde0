package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// ErrNoSnapshot is returned when no snapshot has been loaded yet
var ErrNoSnapshot = errors.New("no market snapshot available")

// Querier is the subset of *pgxpool.Pool the repository uses
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads screener snapshots written by the data vendor loader
// ⭐ SSOT: 스크리너 스냅샷 조회는 여기서만
type Repository struct {
	db Querier
}

// NewRepository creates a new snapshot repository
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// LatestDate returns the most recent snapshot date
func (r *Repository) LatestDate(ctx context.Context) (time.Time, error) {
	query := `SELECT MAX(trade_date) FROM screener.snapshots`

	var date *time.Time
	if err := r.db.QueryRow(ctx, query).Scan(&date); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest snapshot date: %w", err)
	}
	if date == nil {
		return time.Time{}, ErrNoSnapshot
	}
	return *date, nil
}

// RowsFor returns the snapshot rows of one trade date, ordered by ticker
func (r *Repository) RowsFor(ctx context.Context, date time.Time) ([]contracts.ScreenerRow, error) {
	query := `
		SELECT ticker, company, sector, market_cap, shariah,
		       price, change_1d, change_1m, change_1y, trend, valuation,
		       rsi, ma20_gap, ma50_gap, ma200_gap, pe, pb, dividend_yield, roe,
		       revenue_growth, eps_growth, momentum_score, volume
		FROM screener.snapshots
		WHERE trade_date = $1
		ORDER BY ticker ASC
	`

	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.ScreenerRow, 0)
	for rows.Next() {
		var s contracts.ScreenerRow
		err := rows.Scan(
			&s.Ticker, &s.Company, &s.Sector, &s.MarketCap, &s.Shariah,
			&s.Price, &s.Change1D, &s.Change1M, &s.Change1Y, &s.Trend, &s.Valuation,
			&s.RSI, &s.MA20Gap, &s.MA50Gap, &s.MA200Gap, &s.PE, &s.PB, &s.DividendYield, &s.ROE,
			&s.RevenueGrowth, &s.EPSGrowth, &s.MomentumScore, &s.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return out, nil
}
