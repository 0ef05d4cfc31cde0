package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stockscreen/backend/internal/api/handlers"
	"github.com/wonny/stockscreen/backend/pkg/database"
	"github.com/wonny/stockscreen/backend/pkg/logger"
)

// HealthChecker reports backing store health. *database.DB implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// Handlers groups the endpoint handlers
type Handlers struct {
	Screener *handlers.ScreenerHandler
	Backtest *handlers.BacktestHandler
	Quota    *handlers.QuotaHandler
	Metrics  http.Handler  // nil disables /metrics
	Database HealthChecker // nil when running without Postgres
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler(h.Database)).Methods(http.MethodGet)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Screener
	api.HandleFunc("/screener/filters", h.Screener.GetFilters).Methods(http.MethodGet)
	api.HandleFunc("/screener/screen", h.Screener.Screen).Methods(http.MethodPost)

	// Backtest
	api.HandleFunc("/backtest/config", h.Backtest.BuildConfig).Methods(http.MethodPost)
	api.HandleFunc("/backtest/apply", h.Backtest.ApplyConfig).Methods(http.MethodPost)
	api.HandleFunc("/backtest/run", h.Backtest.Run).Methods(http.MethodPost)

	// Quota
	api.HandleFunc("/quota", h.Quota.GetQuota).Methods(http.MethodGet)

	log = log.WithComponent("api")
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))

	return r
}

// healthCheckHandler returns server health, including the database when configured
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "stockscreen-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health := db.HealthCheck(ctx)
			body["database"] = health
			if !health.Healthy {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
