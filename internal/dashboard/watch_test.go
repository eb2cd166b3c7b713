package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/couchcryptid/weather-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConditions struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (s *stubConditions) CurrentByCity(_ context.Context, city string) (domain.Observation, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return domain.Observation{}, errors.New("provider down")
	}
	return domain.Observation{Location: domain.Location{Name: city}, Code: 800}, nil
}

func (s *stubConditions) CurrentByCoords(ctx context.Context, _, _ float64) (domain.Observation, error) {
	return s.CurrentByCity(ctx, "point")
}

type stubForecast struct{}

func (stubForecast) DailyForecast(context.Context, float64, float64, int) ([]domain.DailyForecast, error) {
	return nil, nil
}

type stubAir struct{}

func (stubAir) AirPollution(context.Context, float64, float64) (domain.AirQuality, error) {
	return domain.CalculateAQI(nil), nil
}

func newWatchService(cond *stubConditions, metrics *observability.Metrics) *Service {
	return New(Providers{Conditions: cond, Forecast: stubForecast{}, AirQuality: stubAir{}}, nil,
		Options{Units: domain.UnitsMetric, ForecastDays: 10, DefaultCity: "New York"},
		slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
}

type emitted struct {
	d   domain.Dashboard
	err error
}

func TestService_Watch_RefreshesOnInterval(t *testing.T) {
	cond := &stubConditions{}
	metrics := observability.NewMetricsForTesting()
	svc := newWatchService(cond, metrics)
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan emitted, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Watch(ctx, clock, 10*time.Minute, Query{City: "Oslo"}, func(d domain.Dashboard, err error) {
			results <- emitted{d, err}
		})
	}()

	first := <-results
	require.NoError(t, first.err)
	assert.Equal(t, "Oslo", first.d.Location.Name)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.WatchRunning), 0)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Minute)

	second := <-results
	require.NoError(t, second.err)
	assert.Equal(t, int32(2), cond.calls.Load())

	cancel()
	<-done
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.WatchRunning), 0)
}

func TestService_Watch_RetriesSoonerAfterFailure(t *testing.T) {
	cond := &stubConditions{}
	cond.fail.Store(true)
	svc := newWatchService(cond, observability.NewMetricsForTesting())
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := make(chan emitted, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Watch(ctx, clock, 10*time.Minute, Query{}, func(d domain.Dashboard, err error) {
			results <- emitted{d, err}
		})
	}()

	first := <-results
	require.Error(t, first.err)

	// The retry fires after initialRetry rather than the full interval.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cond.fail.Store(false)
	clock.Advance(initialRetry)

	second := <-results
	require.NoError(t, second.err)
	assert.Equal(t, "New York", second.d.Location.Name)

	cancel()
	<-done
}

func TestService_Watch_StopsOnCancel(t *testing.T) {
	svc := newWatchService(&stubConditions{}, observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	svc.Watch(ctx, clockwork.NewFakeClock(), time.Minute, Query{}, func(domain.Dashboard, error) {
		called = true
	})
	assert.False(t, called)
}

func TestService_Watch_LogsQuery(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		want    []string
		notWant string
	}{
		{name: "city", q: Query{City: "Oslo"}, want: []string{"city=Oslo"}, notWant: "lat="},
		{
			name:    "coordinates",
			q:       Query{Coordinates: &Coordinates{Lat: 59.91, Lon: 10.75}},
			want:    []string{"lat=59.91", "lon=10.75", "picked=false"},
			notWant: "city=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			svc := newWatchService(&stubConditions{}, observability.NewMetricsForTesting())
			svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			svc.Watch(ctx, clockwork.NewFakeClock(), time.Minute, tt.q, func(domain.Dashboard, error) {})

			line := strings.SplitN(logs.String(), "\n", 2)[0]
			assert.Contains(t, line, "watch started")
			for _, w := range tt.want {
				assert.Contains(t, line, w)
			}
			assert.NotContains(t, line, tt.notWant)
		})
	}
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 30*time.Second, nextBackoff(15*time.Second, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, nextBackoff(8*time.Minute, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, nextBackoff(10*time.Minute, 10*time.Minute))
}

func TestSleepWithContext(t *testing.T) {
	clock := clockwork.NewFakeClock()

	assert.True(t, sleepWithContext(context.Background(), clock, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepWithContext(ctx, clock, time.Hour))
}
