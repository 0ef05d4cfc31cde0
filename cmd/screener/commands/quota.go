package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/quota"
)

// quotaCmd manages backtest quotas
var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "사용자 쿼터 관리",
	Long: `백테스트 쿼터를 조회하거나 한도를 설정합니다.

Example:
  go run ./cmd/screener quota show u-1
  go run ./cmd/screener quota set-limit u-1 20
  go run ./cmd/screener quota set-limit vip unlimited`,
}

var (
	quotaShowCmd = &cobra.Command{
		Use:   "show [user_id]",
		Short: "쿼터 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuotaShow,
	}

	quotaSetLimitCmd = &cobra.Command{
		Use:   "set-limit [user_id] [limit|unlimited]",
		Short: "쿼터 한도 설정",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuotaSetLimit,
	}
)

func init() {
	rootCmd.AddCommand(quotaCmd)
	quotaCmd.AddCommand(quotaShowCmd, quotaSetLimitCmd)
}

// parseLimit accepts a non-negative count or "unlimited"
func parseLimit(s string) (int64, error) {
	if s == "unlimited" {
		return quota.Unlimited, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer or \"unlimited\": %q", s)
	}
	return n, nil
}

func formatLimit(n int64) string {
	if n == quota.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(n, 10)
}

func runQuotaShow(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()
	store, err := rt.quotaStore(ctx)
	if err != nil {
		return err
	}

	q, err := store.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	PrintHeader("Quota " + args[0])
	PrintField("Limit", formatLimit(q.Limit))
	PrintField("Used", q.Used)
	PrintField("Remaining", formatLimit(q.Remaining()))
	PrintFooter()
	return nil
}

func runQuotaSetLimit(cmd *cobra.Command, args []string) error {
	limit, err := parseLimit(args[1])
	if err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()
	store, err := rt.quotaStore(ctx)
	if err != nil {
		return err
	}
	if err := store.SetLimit(ctx, args[0], limit); err != nil {
		return err
	}

	fmt.Printf("✅ %s limit set to %s\n", args[0], formatLimit(limit))
	return nil
}
