package jobs

import (
	"context"
	"fmt"

	"github.com/luwei/stocklab/internal/stocks"
	"github.com/luwei/stocklab/pkg/logger"
)

// SpotWarmJob refreshes the full A-share spot snapshot cache
// ⭐ SSOT: 行情快照预热只在这个 Job
type SpotWarmJob struct {
	stocks *stocks.Service
	logger *logger.Logger
}

// NewSpotWarmJob creates a new spot warm job
func NewSpotWarmJob(s *stocks.Service, log *logger.Logger) *SpotWarmJob {
	return &SpotWarmJob{
		stocks: s,
		logger: log,
	}
}

// Name returns the job name
func (j *SpotWarmJob) Name() string {
	return "spot_warm"
}

// Schedule returns the cron schedule (every minute, with seconds)
// 快照 TTL 只有 30 秒, 预热频率要跟上
func (j *SpotWarmJob) Schedule() string {
	return "0 * * * * *"
}

// Run fetches the snapshot and seeds the cache
func (j *SpotWarmJob) Run(ctx context.Context) error {
	n, err := j.stocks.WarmSpot(ctx)
	if err != nil {
		return fmt.Errorf("warm spot snapshot: %w", err)
	}

	j.logger.WithField("rows", n).Info("Spot snapshot cache warmed")
	return nil
}
