package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// QuotaHandler reports the caller's backtest quota
type QuotaHandler struct {
	store  quota.Store
	logger *logger.Logger
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(store quota.Store, log *logger.Logger) *QuotaHandler {
	return &QuotaHandler{store: store, logger: log.WithComponent("api.quota")}
}

// QuotaResponse is the caller's quota. Remaining is -1 when unlimited.
type QuotaResponse struct {
	UserID    string `json:"userId"`
	Limit     int64  `json:"limit"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// GetQuota returns the quota of the identity in the X-User-ID header
// GET /api/quota
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" || h.store == nil {
		respondCode(w, http.StatusUnauthorized, "identity_not_found", "Caller identity not found", nil)
		return
	}

	q, err := h.store.Lookup(r.Context(), userID)
	if errors.Is(err, quota.ErrUserNotFound) {
		respondCode(w, http.StatusUnauthorized, "identity_not_found", "Caller identity not found", nil)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to look up quota")
		respondError(w, http.StatusInternalServerError, "Failed to look up quota")
		return
	}

	respondJSON(w, http.StatusOK, QuotaResponse{
		UserID:    userID,
		Limit:     q.Limit,
		Used:      q.Used,
		Remaining: q.Remaining(),
		Unlimited: q.IsUnlimited(),
	})
}
