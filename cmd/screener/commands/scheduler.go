package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockscreen/backend/internal/scheduler"
	"github.com/wonny/stockscreen/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `유지보수 작업 스케줄러를 시작하거나 작업을 즉시 실행합니다.

등록되는 작업:
- quota_reset: QUOTA_RESET_SCHEDULE (기본 매월 1일 00:00)
- snapshot_warm: 평일 06:30 (DATABASE_URL 설정 시)

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler run quota_reset`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerListCmd, schedulerRunCmd)
}

// buildScheduler registers every job the runtime can support
func buildScheduler(ctx context.Context, rt *runtime) (*scheduler.Scheduler, error) {
	s := scheduler.New(rt.log)

	store, err := rt.quotaStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.AddJob(jobs.NewQuotaResetJob(store, rt.cfg.Quota.ResetSchedule, rt.log)); err != nil {
		return nil, err
	}

	if rt.db != nil {
		source, err := rt.snapshotSource("")
		if err != nil {
			return nil, err
		}
		if err := s.AddJob(jobs.NewSnapshotWarmJob(source, rt.log)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := buildScheduler(context.Background(), rt)
	if err != nil {
		return err
	}

	s.Start()
	fmt.Printf("✅ Scheduler running with jobs: %v\n", s.Jobs())
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := buildScheduler(context.Background(), rt)
	if err != nil {
		return err
	}

	PrintHeader("Registered Jobs")
	for _, name := range s.Jobs() {
		PrintField(name, "registered")
	}
	PrintFooter()
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildScheduler(ctx, rt)
	if err != nil {
		return err
	}

	res, err := s.RunNow(ctx, args[0])
	if err != nil {
		return err
	}

	PrintHeader("Job " + res.JobName)
	PrintField("Success", res.Success)
	PrintField("Attempts", res.Attempts)
	PrintField("Duration", res.Duration)
	if res.Error != "" {
		PrintField("Error", res.Error)
	}
	PrintFooter()

	if !res.Success {
		return fmt.Errorf("job %s failed", res.JobName)
	}
	return nil
}
