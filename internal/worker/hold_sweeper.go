package worker

import (
	"context"
	"time"

	"hotelbooking/internal/logging"
	"hotelbooking/internal/metrics"

	"github.com/rs/zerolog"
)

type expiredHoldDeleter interface {
	DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

// HoldSweeper removes holds left behind by attempts that never released them.
type HoldSweeper struct {
	store    expiredHoldDeleter
	interval time.Duration
	logger   *zerolog.Logger
}

func NewHoldSweeper(store expiredHoldDeleter, interval time.Duration, logger *zerolog.Logger) *HoldSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HoldSweeper{store: store, interval: interval, logger: logging.Component(logger, "hold_sweeper")}
}

func (s *HoldSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

func (s *HoldSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredHolds(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Hold sweep failed")
		return 0, err
	}
	if n > 0 {
		metrics.AddSwept(n)
		s.logger.Warn().Int64("count", n).Msg("Swept expired holds")
	}
	return n, nil
}
