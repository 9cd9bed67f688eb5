package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/external/sina"
	"github.com/luwei/stocklab/internal/market"
	"github.com/luwei/stocklab/internal/scheduler"
	"github.com/luwei/stocklab/internal/scheduler/jobs"
	"github.com/luwei/stocklab/internal/stocks"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "调度器管理",
	Long: `启动调度器或管理定时任务.

注册的任务:
- spot_warm: 每分钟 (全市场快照缓存预热)
- overview_warm: 每 5 分钟 (大盘概览缓存预热)

Subcommands:
  start   - 启动调度器
  list    - 已注册任务列表
  run     - 立即执行指定任务

Example:
  go run ./cmd/stocklab scheduler start
  go run ./cmd/stocklab scheduler run overview_warm`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "启动调度器",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "已注册任务列表",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "立即执行指定任务",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockLab Scheduler ===")

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func initScheduler() (*scheduler.Scheduler, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to Redis (预热缓存没有 Redis 就没意义)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(redisClient, "stocklab")

	// 4. Create HTTP client and external API clients
	httpClient := httputil.New(cfg, log)
	emClient := eastmoney.NewClient(cfg, httpClient, log)
	sinaClient := sina.NewClient(cfg, httpClient, log)

	// 5. Create services
	marketSvc := market.NewService(emClient, cache, log)
	stockSvc := stocks.NewService(emClient, sinaClient, cache, log)

	// 6. Create scheduler and register jobs
	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewSpotWarmJob(stockSvc, log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewOverviewWarmJob(marketSvc, log)); err != nil {
		return nil, err
	}

	return sched, nil
}
