package screener

import (
	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// Screener runs the display path: filter, sort, paginate, project.
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	reg    *Registry
	logger *logger.Logger
}

// Query is one screening request
type Query struct {
	Rules    []contracts.Rule `json:"rules"`
	Sort     SortState        `json:"sort"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Template string           `json:"template"`
	Columns  []string         `json:"columns"`
}

// Result is a projected page of matching rows
type Result struct {
	Columns []Column `json:"columns"`
	Rows    [][]Cell `json:"rows"`
	Page    int      `json:"page"`
	Total   int      `json:"total"`
	Pages   int      `json:"pages"`
	Matched int      `json:"matched"`
	Input   int      `json:"input"`
}

// NewScreener creates a new screener
func NewScreener(reg *Registry, log *logger.Logger) *Screener {
	return &Screener{reg: reg, logger: log.WithComponent("screener")}
}

// Registry returns the filter registry the screener evaluates against
func (s *Screener) Registry() *Registry {
	return s.reg
}

// Screen applies q to rows. rows is not modified.
func (s *Screener) Screen(rows []contracts.ScreenerRow, q Query) Result {
	matched := Filter(rows, q.Rules, s.reg)

	state := q.Sort
	if state.Key == "" {
		state = DefaultSort()
	}
	page := Paginate(Sort(matched, state), q.Page, q.PageSize)
	cols := Columns(q.Template, q.Columns)

	projected := make([][]Cell, 0, len(page.Rows))
	for _, row := range page.Rows {
		projected = append(projected, Project(row, cols))
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(rows),
		"rules":        len(q.Rules),
		"passed":       len(matched),
		"filtered_out": len(rows) - len(matched),
		"sort":         state.Key,
	}).Debug("Screening completed")

	return Result{
		Columns: cols,
		Rows:    projected,
		Page:    page.Page,
		Total:   page.Total,
		Pages:   page.TotalPages,
		Matched: len(matched),
		Input:   len(rows),
	}
}
