package handlers

import (
	"net/http"

	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/marketdata"
	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// ScreenerHandler serves the filter registry and the screening display path
// ⭐ SSOT: 스크리너 API 핸들러는 이 구조체에서만
type ScreenerHandler struct {
	screener *screener.Screener
	source   marketdata.Source
	logger   *logger.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(s *screener.Screener, source marketdata.Source, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		screener: s,
		source:   source,
		logger:   log.WithComponent("api.screener"),
	}
}

// FiltersResponse lists the registry grouped by category
type FiltersResponse struct {
	Version     string                       `json:"version"`
	Technical   []contracts.FilterDefinition `json:"technical"`
	Fundamental []contracts.FilterDefinition `json:"fundamental"`
	Templates   []string                     `json:"templates"`
}

// GetFilters returns every filter definition
// GET /api/screener/filters
func (h *ScreenerHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	reg := h.screener.Registry()
	respondJSON(w, http.StatusOK, FiltersResponse{
		Version:     reg.Version(),
		Technical:   reg.ByCategory(contracts.CategoryTechnical),
		Fundamental: reg.ByCategory(contracts.CategoryFundamental),
		Templates:   screener.Templates(),
	})
}

// Screen filters the latest snapshot
// POST /api/screener/screen
func (h *ScreenerHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var q screener.Query
	if err := decodeJSON(r, &q); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.source.Rows(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load market snapshot")
		return
	}

	respondJSON(w, http.StatusOK, h.screener.Screen(rows, q))
}
