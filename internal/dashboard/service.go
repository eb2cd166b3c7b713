package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/couchcryptid/weather-dashboard/internal/observability"
)

const (
	// NoticeLocationFailed is shown when a coordinate lookup failed and the
	// default city is displayed instead.
	NoticeLocationFailed = "Failed to fetch location data."
	// NoticeLocationUnavailable is shown when the coordinates were unusable.
	NoticeLocationUnavailable = "Location unavailable. Showing default city."

	// MessageCityNotFound is shown when a city search has no match.
	MessageCityNotFound = "City not found. Please try again."
	// MessageFetchFailed is shown for any other failed request.
	MessageFetchFailed = "Failed to fetch weather data."
	// MessageSelectedLocationFailed is shown when a point picked on the map
	// could not be loaded.
	MessageSelectedLocationFailed = "Failed to fetch weather for selected location."
)

var (
	// ErrCityNotFound is returned when a searched city has no match.
	ErrCityNotFound = errors.New("city not found")
	// ErrInvalidCoordinates is returned for latitudes outside [-90, 90] or
	// longitudes outside [-180, 180].
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrSelectedLocation wraps failures for a point picked on the map.
	ErrSelectedLocation = errors.New("selected location failed")
)

// Locator resolves a city name to a location.
type Locator interface {
	ResolveCity(ctx context.Context, name string) (domain.Location, error)
}

// ConditionsProvider fetches current weather.
type ConditionsProvider interface {
	CurrentByCity(ctx context.Context, city string) (domain.Observation, error)
	CurrentByCoords(ctx context.Context, lat, lon float64) (domain.Observation, error)
}

// ForecastProvider fetches the daily forecast.
type ForecastProvider interface {
	DailyForecast(ctx context.Context, lat, lon float64, days int) ([]domain.DailyForecast, error)
}

// AirQualityProvider fetches the current air quality.
type AirQualityProvider interface {
	AirPollution(ctx context.Context, lat, lon float64) (domain.AirQuality, error)
}

// Publisher receives every dashboard the service builds.
type Publisher interface {
	Publish(ctx context.Context, d domain.Dashboard) error
}

// Providers groups the upstream data sources. Locator is optional; without it
// cities are looked up by the conditions provider directly.
type Providers struct {
	Locator    Locator
	Conditions ConditionsProvider
	Forecast   ForecastProvider
	AirQuality AirQualityProvider
}

// Options controls how dashboards are built.
type Options struct {
	Units        domain.Units
	ForecastDays int
	DefaultCity  string
}

// Coordinates is a point picked by the user.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies on the globe.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Query selects the location to build a dashboard for. Coordinates win over
// City; an empty query means the default city.
type Query struct {
	City        string
	Coordinates *Coordinates
	// Picked marks Coordinates as chosen on the map rather than the device
	// location. A picked point never falls back to the default city.
	Picked bool
}

const (
	sourceCity        = "city"
	sourceCoordinates = "coordinates"
	sourceFallback    = "fallback"
)

// Service builds dashboards from the weather providers. Each call fetches
// current conditions, then the forecast, then air quality, one after another.
type Service struct {
	providers Providers
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Service. publisher may be nil.
func New(p Providers, publisher Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		providers: p,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one dashboard has been built.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no dashboard has been built yet")
	}
	return nil
}

// Build dispatches q to ForCoordinates or ForCity.
func (s *Service) Build(ctx context.Context, q Query) (domain.Dashboard, error) {
	if q.Coordinates != nil {
		if q.Picked {
			return s.ForSelectedPoint(ctx, q.Coordinates.Lat, q.Coordinates.Lon)
		}
		return s.ForCoordinates(ctx, q.Coordinates.Lat, q.Coordinates.Lon)
	}
	city := strings.TrimSpace(q.City)
	if city == "" {
		city = s.opts.DefaultCity
	}
	return s.ForCity(ctx, city)
}

// ForCity builds the dashboard for a searched city. A city with no match
// returns ErrCityNotFound.
func (s *Service) ForCity(ctx context.Context, city string) (domain.Dashboard, error) {
	d, err := s.buildForCity(ctx, city)
	if err != nil {
		s.metrics.DashboardErrors.Inc()
		return domain.Dashboard{}, err
	}
	s.finish(ctx, d, sourceCity)
	return d, nil
}

// ForCoordinates builds the dashboard for a point. If the point is invalid or
// any required fetch fails, the default city is shown instead with Fallback
// set and a Notice. The fallback is attempted once.
func (s *Service) ForCoordinates(ctx context.Context, lat, lon float64) (domain.Dashboard, error) {
	pt := Coordinates{Lat: lat, Lon: lon}

	var (
		d      domain.Dashboard
		err    error
		notice string
	)
	if !pt.Valid() {
		err = fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, lat, lon)
		notice = NoticeLocationUnavailable
	} else {
		d, err = s.buildForCoordinates(ctx, pt)
		notice = NoticeLocationFailed
	}
	if err == nil {
		s.finish(ctx, d, sourceCoordinates)
		return d, nil
	}
	if ctx.Err() != nil {
		return domain.Dashboard{}, err
	}

	s.logger.Warn("location lookup failed, falling back to default city",
		"lat", lat, "lon", lon, "default_city", s.opts.DefaultCity, "error", err)

	d, ferr := s.buildForCity(ctx, s.opts.DefaultCity)
	if ferr != nil {
		s.metrics.DashboardErrors.Inc()
		return domain.Dashboard{}, fmt.Errorf("fallback to %q after %w: %w", s.opts.DefaultCity, err, ferr)
	}
	d.Fallback = true
	d.Notice = notice
	s.finish(ctx, d, sourceFallback)
	return d, nil
}

// ForSelectedPoint builds the dashboard for a point picked on the map. Unlike
// ForCoordinates it does not fall back; any failure wraps ErrSelectedLocation.
func (s *Service) ForSelectedPoint(ctx context.Context, lat, lon float64) (domain.Dashboard, error) {
	pt := Coordinates{Lat: lat, Lon: lon}
	if !pt.Valid() {
		s.metrics.DashboardErrors.Inc()
		return domain.Dashboard{}, fmt.Errorf("%w: %w: lat=%v lon=%v", ErrSelectedLocation, ErrInvalidCoordinates, lat, lon)
	}
	d, err := s.buildForCoordinates(ctx, pt)
	if err != nil {
		s.metrics.DashboardErrors.Inc()
		return domain.Dashboard{}, fmt.Errorf("%w: %w", ErrSelectedLocation, err)
	}
	s.finish(ctx, d, sourceCoordinates)
	return d, nil
}

func (s *Service) buildForCity(ctx context.Context, city string) (domain.Dashboard, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.Dashboard{}, ErrCityNotFound
	}

	var (
		obs domain.Observation
		loc domain.Location
		err error
	)
	if s.providers.Locator != nil {
		loc, err = s.providers.Locator.ResolveCity(ctx, city)
		if err != nil {
			return domain.Dashboard{}, cityError(city, err)
		}
		obs, err = s.providers.Conditions.CurrentByCoords(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return domain.Dashboard{}, fmt.Errorf("current weather for %q: %w", city, err)
		}
	} else {
		obs, err = s.providers.Conditions.CurrentByCity(ctx, city)
		if err != nil {
			return domain.Dashboard{}, cityError(city, err)
		}
		loc = obs.Location
	}

	return s.assemble(ctx, loc, obs)
}

func (s *Service) buildForCoordinates(ctx context.Context, pt Coordinates) (domain.Dashboard, error) {
	obs, err := s.providers.Conditions.CurrentByCoords(ctx, pt.Lat, pt.Lon)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("current weather: %w", err)
	}
	loc := obs.Location
	loc.Lat, loc.Lon = pt.Lat, pt.Lon
	return s.assemble(ctx, loc, obs)
}

// assemble fetches the forecast and air quality for an observation. A
// forecast failure is fatal; an air quality failure degrades to unknown.
func (s *Service) assemble(ctx context.Context, loc domain.Location, obs domain.Observation) (domain.Dashboard, error) {
	forecast, err := s.providers.Forecast.DailyForecast(ctx, loc.Lat, loc.Lon, s.opts.ForecastDays)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("forecast: %w", err)
	}

	aq, err := s.providers.AirQuality.AirPollution(ctx, loc.Lat, loc.Lon)
	if err != nil {
		s.logger.Warn("air quality unavailable", "lat", loc.Lat, "lon", loc.Lon, "error", err)
		aq = domain.CalculateAQI(nil)
	}

	cur := domain.BuildCurrent(obs, s.opts.Units)
	return domain.NewDashboard(loc, cur, forecast, aq, s.opts.Units, s.opts.ForecastDays), nil
}

// finish records metrics, publishes, and marks the service ready.
func (s *Service) finish(ctx context.Context, d domain.Dashboard, source string) {
	s.metrics.DashboardsBuilt.WithLabelValues(source).Inc()
	s.metrics.AQIResults.WithLabelValues(string(d.AirQuality.Status), severityLabel(d.AirQuality)).Inc()
	s.ready.Store(true)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, d); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish dashboard failed", "city", d.Location.Name, "error", err)
	}
}

func cityError(city string, err error) error {
	if errors.Is(err, domain.ErrLocationNotFound) {
		return fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	return fmt.Errorf("look up %q: %w", city, err)
}

// UserMessage returns the text to display for an error from the service.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrSelectedLocation):
		return MessageSelectedLocationFailed
	case errors.Is(err, ErrCityNotFound):
		return MessageCityNotFound
	case errors.Is(err, ErrInvalidCoordinates):
		return NoticeLocationUnavailable
	default:
		return MessageFetchFailed
	}
}

func severityLabel(aq domain.AirQuality) string {
	if !aq.Available() {
		return "none"
	}
	b, err := aq.Severity.MarshalText()
	if err != nil {
		return "none"
	}
	return string(b)
}
