package dashboard

import (
	"context"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

const initialRetry = 15 * time.Second

// Watch builds a dashboard for q right away and again every interval until ctx
// is cancelled, handing each result to emit. A failed refresh is retried
// sooner, backing off exponentially up to interval.
func (s *Service) Watch(ctx context.Context, clock clockwork.Clock, interval time.Duration, q Query, emit func(domain.Dashboard, error)) {
	s.logger.Info("watch started", append([]any{"interval", interval}, queryAttrs(q)...)...)
	s.metrics.WatchRunning.Set(1)
	defer s.metrics.WatchRunning.Set(0)

	retry := min(initialRetry, interval)
	for {
		d, err := s.Build(ctx, q)
		if ctx.Err() != nil {
			s.logger.Info("watch stopping", "reason", ctx.Err())
			return
		}
		emit(d, err)

		wait := interval
		if err != nil {
			s.logger.Error("refresh failed", "error", err, "retry_in", retry)
			wait = retry
			retry = nextBackoff(retry, interval)
		} else {
			retry = min(initialRetry, interval)
		}

		if !sleepWithContext(ctx, clock, wait) {
			s.logger.Info("watch stopping", "reason", ctx.Err())
			return
		}
	}
}

// queryAttrs describes q for logging.
func queryAttrs(q Query) []any {
	if q.Coordinates != nil {
		return []any{"lat", q.Coordinates.Lat, "lon", q.Coordinates.Lon, "picked", q.Picked}
	}
	return []any{"city", q.City}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
