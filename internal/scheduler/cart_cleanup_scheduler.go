package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartCleanupScheduler periodically deletes cart lines nobody touched for a while.
type CartCleanupScheduler struct {
	cron        *cron.Cron
	cartService service.CartService
	schedule    string
	staleAfter  time.Duration
	timeout     time.Duration
}

func NewCartCleanupScheduler(cartService service.CartService, schedule string, staleAfter time.Duration) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		// a slow purge must not overlap the next tick
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		cartService: cartService,
		schedule:    schedule,
		staleAfter:  staleAfter,
		timeout:     5 * time.Minute,
	}
}

// Start registers the purge job and starts the cron loop.
func (s *CartCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for cart cleanup", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started", map[string]interface{}{
		"schedule":    s.schedule,
		"stale_after": s.staleAfter.String(),
	})

	return nil
}

// RunOnce performs a single purge and reports how many lines were removed.
func (s *CartCleanupScheduler) RunOnce(ctx context.Context) int64 {
	logger.Info("Starting scheduled cart cleanup")

	removed, err := s.cartService.PurgeStale(ctx, s.staleAfter)
	if err != nil {
		logger.Error("Failed to purge stale cart lines", err)
		return 0
	}

	logger.Info("Cart cleanup finished", map[string]interface{}{
		"removed": removed,
	})
	return removed
}

// Stop halts the cron loop and waits for a running purge to finish.
func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cart cleanup scheduler stopped")
}
