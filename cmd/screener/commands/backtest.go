package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/execution"
	"github.com/wonny/stockscreen/backend/internal/quota"
	"github.com/wonny/stockscreen/backend/internal/summary"
	"github.com/wonny/stockscreen/backend/pkg/httputil"
)

var (
	backtestInput   string
	backtestRules   string
	backtestRequest string
	backtestUser    string
	backtestRunID   string
	backtestSystem  bool
	backtestRaw     bool
)

// backtestCmd builds a request and runs it through the quota-gated executor
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "백테스트 실행 (쿼터 적용)",
	Long: `에디터 입력 또는 요청 파일로 원격 백테스트를 실행합니다.

이 명령어는:
- 요청 생성 (--input/--rules) 또는 기존 요청 사용 (--request)
- 사용자 쿼터 확인 후 원격 실행 1회
- 성공 시 사용량 1 증가 및 결과 요약 출력

Example:
  go run ./cmd/screener backtest --input editor.yaml --user u-1
  go run ./cmd/screener backtest --request request.json --system`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestInput, "input", "", "editor input file (YAML or JSON)")
	backtestCmd.Flags().StringVar(&backtestRules, "rules", "", "screener rule file to convert into indicators")
	backtestCmd.Flags().StringVar(&backtestRequest, "request", "", "prebuilt request JSON (overrides --input)")
	backtestCmd.Flags().StringVar(&backtestUser, "user", "", "identity to charge")
	backtestCmd.Flags().StringVar(&backtestRunID, "run-id", "", "idempotency key (default generated)")
	backtestCmd.Flags().BoolVar(&backtestSystem, "system", false, "internal run without quota accounting")
	backtestCmd.Flags().BoolVar(&backtestRaw, "raw", false, "print the raw result JSON")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var req *backtestcfg.Request
	if backtestRequest != "" {
		req, err = readRequest(backtestRequest)
	} else {
		req, err = buildRequest(backtestInput, backtestRules, rt.cfg.StrategyDefaultsPath)
	}
	if err != nil {
		return err
	}

	var store quota.Store
	if !backtestSystem {
		if store, err = rt.quotaStore(ctx); err != nil {
			return err
		}
	}

	client := httputil.New(rt.log, rt.cfg.Executor.Timeout).WithRateLimit(rt.cfg.Executor.RatePerSec)
	remote := execution.NewHTTPRemote(client, rt.cfg.Executor.URL)
	exec := execution.NewExecutor(remote, store, rt.log, execution.NewMetrics(prometheus.NewRegistry()))

	res, err := exec.Run(ctx, execution.RunInput{
		Request:     req,
		UserID:      backtestUser,
		ApplyQuota:  !backtestSystem,
		RequireUser: rt.cfg.Quota.RequireUser,
		RunID:       backtestRunID,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if backtestRaw {
		_, err := os.Stdout.Write(append(res.Raw, '\n'))
		return err
	}

	PrintHeader("Backtest Run")
	PrintField("Run ID", res.RunID)
	PrintField("Period", fmt.Sprintf("%s ~ %s", req.ExecutionConfig.StartDate, req.ExecutionConfig.EndDate))
	if res.Quota != nil {
		PrintField("Quota", fmt.Sprintf("%d/%d used before run", res.Quota.Used, res.Quota.Limit))
	}
	PrintField("Accounted", res.Accounted)
	PrintSummary(summary.Summarize(res.Document))
	return nil
}
