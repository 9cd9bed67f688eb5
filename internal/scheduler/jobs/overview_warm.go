package jobs

import (
	"context"
	"fmt"

	"github.com/luwei/stocklab/internal/market"
	"github.com/luwei/stocklab/pkg/logger"
)

// OverviewWarmJob keeps the market overview cache warm during trading hours
// ⭐ SSOT: 大盘概览预热只在这个 Job
type OverviewWarmJob struct {
	market *market.Service
	logger *logger.Logger
}

// NewOverviewWarmJob creates a new overview warm job
func NewOverviewWarmJob(m *market.Service, log *logger.Logger) *OverviewWarmJob {
	return &OverviewWarmJob{
		market: m,
		logger: log,
	}
}

// Name returns the job name
func (j *OverviewWarmJob) Name() string {
	return "overview_warm"
}

// Schedule returns the cron schedule (every 5 minutes, with seconds)
func (j *OverviewWarmJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run rebuilds the latest overview so API reads hit the cache
func (j *OverviewWarmJob) Run(ctx context.Context) error {
	ov, err := j.market.Overview(ctx, "")
	if err != nil {
		return fmt.Errorf("warm overview: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"trade_date": ov.TradeDate,
		"mock":       ov.Mock,
	}).Info("Overview cache warmed")

	return nil
}
