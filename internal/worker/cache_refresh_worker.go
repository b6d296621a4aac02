package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheWarmer refreshes cached exam data.
type CacheWarmer interface {
	PrewarmAllCaches(ctx context.Context) error
}

// CacheRefreshWorker re-reads the exam source on a fixed interval so edits
// to data files or the database reach the cache before the TTL runs out.
type CacheRefreshWorker struct {
	warmer   CacheWarmer
	interval time.Duration
	log      zerolog.Logger
}

func NewCacheRefreshWorker(warmer CacheWarmer, interval time.Duration, log zerolog.Logger) *CacheRefreshWorker {
	return &CacheRefreshWorker{
		warmer:   warmer,
		interval: interval,
		log:      log.With().Str("component", "cache_refresh_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled. A non-positive interval disables it.
func (w *CacheRefreshWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("CacheRefreshWorker disabled")
		return
	}
	w.log.Info().Dur("interval", w.interval).Msg("CacheRefreshWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("CacheRefreshWorker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *CacheRefreshWorker) refresh(ctx context.Context) {
	start := time.Now()
	if err := w.warmer.PrewarmAllCaches(ctx); err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Cache refresh failed")
		}
		return
	}
	w.log.Debug().Dur("took", time.Since(start)).Msg("Cache refreshed")
}
