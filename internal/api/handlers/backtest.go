package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/contracts"
	"github.com/wonny/stockscreen/backend/internal/execution"
	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/internal/summary"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// BacktestHandler builds, reverses and runs backtest configurations
type BacktestHandler struct {
	builder     *backtestcfg.Builder
	registry    *screener.Registry
	executor    *execution.Executor
	requireUser bool
	logger      *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(builder *backtestcfg.Builder, reg *screener.Registry, exec *execution.Executor, requireUser bool, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		builder:     builder,
		registry:    reg,
		executor:    exec,
		requireUser: requireUser,
		logger:      log.WithComponent("api.backtest"),
	}
}

// ConfigBody is editor input. Screener rules, when given, are converted
// and appended after the explicit indicators.
type ConfigBody struct {
	backtestcfg.Input
	Rules []contracts.Rule `json:"rules,omitempty"`
}

// RunBody runs either a prebuilt request or one built from the editor input
type RunBody struct {
	ConfigBody
	Request *backtestcfg.Request `json:"request,omitempty"`
	RunID   string               `json:"runId,omitempty"`
}

// RunResponse is a successful run with its presentation summary
type RunResponse struct {
	*execution.RunResult
	Summary summary.Metadata `json:"summary"`
}

func (h *BacktestHandler) build(body ConfigBody) *backtestcfg.Request {
	in := body.Input
	if len(body.Rules) > 0 {
		in.Indicators = append(append([]contracts.Indicator{}, in.Indicators...),
			backtestcfg.IndicatorsFromRules(body.Rules, h.registry)...)
	}
	return h.builder.Build(in)
}

// BuildConfig returns the normalized request for editor input
// POST /api/backtest/config
func (h *BacktestHandler) BuildConfig(w http.ResponseWriter, r *http.Request) {
	var body ConfigBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.build(body))
}

// ApplyConfig reconstructs editor state from a normalized request
// POST /api/backtest/apply
func (h *BacktestHandler) ApplyConfig(w http.ResponseWriter, r *http.Request) {
	var req backtestcfg.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, backtestcfg.ApplyConfig(&req))
}

// Run executes a quota-gated backtest for the caller
// POST /api/backtest/run
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var body RunBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := body.Request
	if req == nil {
		req = h.build(body.ConfigBody)
	}

	res, err := h.executor.Run(r.Context(), execution.RunInput{
		Request:     req,
		UserID:      r.Header.Get(UserHeader),
		ApplyQuota:  true,
		RequireUser: h.requireUser,
		RunID:       body.RunID,
	})
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		RunResult: res,
		Summary:   summary.Summarize(res.Document),
	})
}

func (h *BacktestHandler) respondRunError(w http.ResponseWriter, err error) {
	var qerr *execution.QuotaExceededError
	var rerr *execution.RemoteExecutionError

	switch {
	case errors.Is(err, execution.ErrConfigurationMissing):
		respondCode(w, http.StatusServiceUnavailable, "configuration_missing", "Backtest execution is not configured", nil)
	case errors.Is(err, execution.ErrIdentityNotFound):
		respondCode(w, http.StatusUnauthorized, "identity_not_found", "Caller identity not found", nil)
	case errors.As(err, &qerr):
		respondCode(w, http.StatusTooManyRequests, "quota_exceeded", "Backtest quota exceeded",
			map[string]int64{"limit": qerr.Limit, "used": qerr.Used})
	case errors.Is(err, execution.ErrRunIDConsumed):
		respondCode(w, http.StatusConflict, "run_id_consumed", "Run id was already used", nil)
	case errors.As(err, &rerr) && rerr.Status == 0:
		// transport errors carry the executor address
		h.logger.WithError(err).Warn("Backtest executor unreachable")
		respondCode(w, http.StatusBadGateway, "remote_execution_failed", "Backtest executor unreachable",
			map[string]interface{}{"status": 0, "retryable": rerr.Retryable()})
	case errors.As(err, &rerr):
		respondCode(w, http.StatusBadGateway, "remote_execution_failed", rerr.Error(),
			map[string]interface{}{"status": rerr.Status, "body": rerr.Body, "retryable": rerr.Retryable()})
	default:
		h.logger.WithError(err).Error("Backtest run failed")
		respondError(w, http.StatusInternalServerError, "Backtest run failed")
	}
}
