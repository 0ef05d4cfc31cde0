package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/api"
	"github.com/wonny/stockscreen/backend/internal/api/handlers"
	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/execution"
	"github.com/wonny/stockscreen/backend/internal/screener"
	"github.com/wonny/stockscreen/backend/internal/strategyconfig"
	"github.com/wonny/stockscreen/backend/pkg/httputil"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                 - Health check
  GET  /metrics                - Prometheus metrics
  GET  /api/screener/filters   - 필터 레지스트리
  POST /api/screener/screen    - 스크리닝
  POST /api/backtest/config    - 에디터 입력 → 요청
  POST /api/backtest/apply     - 요청 → 에디터 상태
  POST /api/backtest/run       - 쿼터 적용 실행 (X-User-ID)
  GET  /api/quota              - 사용량 조회 (X-User-ID)

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080 --rows rows.json`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiRows string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().StringVar(&apiRows, "rows", "", "serve a JSON row file instead of the database snapshot")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stock Screener API Server ===")

	// 1. Config, logger, connections
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}
	log := rt.log

	ctx := context.Background()

	// 2. Registry and execution defaults
	reg, err := screener.LoadRegistry()
	if err != nil {
		return err
	}
	defaults, err := rt.strategyDefaults()
	if err != nil {
		return err
	}
	hash, _ := strategyconfig.Hash(defaults)

	// 3. Market snapshot source
	source, err := rt.snapshotSource(apiRows)
	if err != nil {
		return err
	}

	// 4. Quota store
	store, err := rt.quotaStore(ctx)
	if err != nil {
		return err
	}

	// 5. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := execution.NewMetrics(registry)

	// 6. Executor
	client := httputil.New(log, rt.cfg.Executor.Timeout).WithRateLimit(rt.cfg.Executor.RatePerSec)
	remote := execution.NewHTTPRemote(client, rt.cfg.Executor.URL)
	if !remote.Configured() {
		log.Warn("EXECUTOR_URL is not set; backtest runs will fail with 503")
	}
	exec := execution.NewExecutor(remote, store, log, metrics)

	// 7. Router
	h := api.Handlers{
		Screener: handlers.NewScreenerHandler(screener.NewScreener(reg, log), source, log),
		Backtest: handlers.NewBacktestHandler(backtestcfg.NewBuilder(defaults), reg, exec, rt.cfg.Quota.RequireUser, log),
		Quota:    handlers.NewQuotaHandler(store, log),
	}
	if rt.db != nil {
		h.Database = rt.db
	}
	if rt.cfg.MetricsEnabled {
		h.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	server := api.New(rt.cfg, log, api.NewRouter(h, log))

	log.WithFields(map[string]interface{}{
		"registry":      reg.Version(),
		"defaults":      defaults.Meta.ProfileID,
		"defaults_hash": hash,
		"quota_backend": rt.cfg.Quota.Backend,
	}).Info("Initializing API server")

	// 8. Start with graceful shutdown
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
