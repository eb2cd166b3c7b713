package openweather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/couchcryptid/weather-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingLocator struct {
	mu     sync.Mutex
	calls  int
	result domain.Location
	err    error
}

func (m *countingLocator) ResolveCity(_ context.Context, _ string) (domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result, m.err
}

// --- CachedLocator tests ---

func TestCachedLocator_CacheHit(t *testing.T) {
	inner := &countingLocator{result: domain.Location{Name: "Austin", Country: "US", Lat: 30.27, Lon: -97.74}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedLocator(inner, 10, metrics)

	l1, err := cached.ResolveCity(context.Background(), "Austin")
	require.NoError(t, err)
	assert.Equal(t, "Austin", l1.Name)

	l2, err := cached.ResolveCity(context.Background(), "  AUSTIN ")
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LocationCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LocationCache.WithLabelValues("miss")), 0)
}

func TestCachedLocator_DifferentKeysMiss(t *testing.T) {
	inner := &countingLocator{result: domain.Location{Name: "Place"}}
	cached := NewCachedLocator(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ResolveCity(context.Background(), "Austin")
	_, _ = cached.ResolveCity(context.Background(), "Dallas")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedLocator_ErrorsNotCached(t *testing.T) {
	inner := &countingLocator{err: fmt.Errorf("resolve: %w", ErrNotFound)}
	cached := NewCachedLocator(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ResolveCity(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrNotFound)

	inner.err = errors.New("boom")
	_, err = cached.ResolveCity(context.Background(), "Atlantis")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.cache.size())
}

func TestCachedLocator_EmptyResultNotCached(t *testing.T) {
	inner := &countingLocator{}
	cached := NewCachedLocator(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ResolveCity(context.Background(), "Nowhere")
	_, _ = cached.ResolveCity(context.Background(), "Nowhere")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedLocator_Concurrent(t *testing.T) {
	inner := &countingLocator{result: domain.Location{Name: "Oslo"}}
	cached := NewCachedLocator(inner, 4, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.ResolveCity(context.Background(), fmt.Sprintf("city-%d", i%8))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, cached.cache.size(), 4)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.Location{Name: "A"})
	c.put("b", domain.Location{Name: "B"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Location{Name: "A"})
	c.put("b", domain.Location{Name: "B"})
	c.put("c", domain.Location{Name: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.Name)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.Name)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Location{Name: "A"})
	c.put("b", domain.Location{Name: "B"})

	c.get("a")

	// "b" is now least recently used.
	c.put("c", domain.Location{Name: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Location{Name: "A1"})
	c.put("a", domain.Location{Name: "A2"})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.Name)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_NonPositiveSize(t *testing.T) {
	c := newLRUCache(0)

	c.put("a", domain.Location{Name: "A"})
	c.put("b", domain.Location{Name: "B"})

	assert.Equal(t, 1, c.size())
	_, ok := c.get("b")
	assert.True(t, ok)
}
