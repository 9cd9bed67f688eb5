package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luwei/stocklab/internal/api"
	"github.com/luwei/stocklab/internal/api/handlers"
	"github.com/luwei/stocklab/internal/external/eastmoney"
	"github.com/luwei/stocklab/internal/external/sina"
	"github.com/luwei/stocklab/internal/market"
	"github.com/luwei/stocklab/internal/runner"
	"github.com/luwei/stocklab/internal/signals"
	"github.com/luwei/stocklab/internal/stocks"
	"github.com/luwei/stocklab/internal/store"
	"github.com/luwei/stocklab/internal/strategy"
	"github.com/luwei/stocklab/pkg/config"
	"github.com/luwei/stocklab/pkg/database"
	"github.com/luwei/stocklab/pkg/httputil"
	"github.com/luwei/stocklab/pkg/logger"
	"github.com/luwei/stocklab/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务",
	Long: `启动 REST API 服务.

这个命令会:
- 启动 HTTP API 服务
- 提供行情 / 个股 / 策略端点
- 提供 websocket 行情推送

Endpoints:
  GET  /health                       - Health check
  GET  /api/market/overview          - 大盘概览
  GET  /api/stocks/search            - 个股搜索
  GET  /api/stocks/{ts_code}/kline   - 日 K 线
  POST /api/strategies               - 创建策略
  POST /api/strategies/{id}/run      - 执行选股

Example:
  go run ./cmd/stocklab api
  go run ./cmd/stocklab api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 服务端口 (默认取配置)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== StockLab API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database and ensure schema
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		cancel()
		return fmt.Errorf("ensure schema: %w", err)
	}
	cancel()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional, degrades to passthrough)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "stocklab")

	// 5. Create HTTP client and external API clients
	httpClient := httputil.New(cfg, log)
	emClient := eastmoney.NewClient(cfg, httpClient, log)
	sinaClient := sina.NewClient(cfg, httpClient, log)

	// 6. Create repositories
	strategyRepo := store.NewStrategyRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	// 7. Create services
	marketSvc := market.NewService(emClient, cache, log)
	stockSvc := stocks.NewService(emClient, sinaClient, cache, log)
	engine := signals.NewEngine(emClient, log)
	strategySvc := strategy.NewService(strategyRepo, runRepo, emClient, runner.New(log), log)

	// 8. Create handlers
	marketHandler := handlers.NewMarketHandler(marketSvc, log)
	stockHandler := handlers.NewStockHandler(stockSvc, engine, log)
	strategyHandler := handlers.NewStrategyHandler(strategySvc, log)
	streamHandler := handlers.NewStreamHandler(marketSvc, log)

	// 9. Create router and server
	router := api.NewRouter(marketHandler, stockHandler, strategyHandler, streamHandler, log)
	server := api.New(cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
