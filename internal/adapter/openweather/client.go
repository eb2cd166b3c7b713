package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/couchcryptid/weather-dashboard/internal/observability"
)

const providerName = "openweather"

// ErrNotFound is returned when OpenWeatherMap has no match for a city or point.
// It wraps domain.ErrLocationNotFound.
var ErrNotFound = fmt.Errorf("openweather: %w", domain.ErrLocationNotFound)

// APIError is a non-200, non-404 response from OpenWeatherMap.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweather API error: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the OpenWeatherMap current weather, air pollution, and
// direct geocoding endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	geoURL     string
	units      domain.Units
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. baseURL points at /data/2.5 and
// geoURL at /geo/1.0.
func NewClient(apiKey, baseURL, geoURL string, units domain.Units, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		geoURL:  geoURL,
		units:   units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentByCity fetches current weather by city name.
func (c *Client) CurrentByCity(ctx context.Context, city string) (domain.Observation, error) {
	params := url.Values{
		"q":     {city},
		"units": {string(c.units)},
	}
	return c.current(ctx, params)
}

// CurrentByCoords fetches current weather for a point.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64) (domain.Observation, error) {
	params := url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"units": {string(c.units)},
	}
	return c.current(ctx, params)
}

func (c *Client) current(ctx context.Context, params url.Values) (domain.Observation, error) {
	var resp currentResponse
	if err := c.get(ctx, c.baseURL+"/weather", params, &resp); err != nil {
		return domain.Observation{}, err
	}
	return resp.toObservation(), nil
}

// AirPollution fetches the current air pollution sample for a point and
// computes its AQI. A response with no samples yields an unknown reading.
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) (domain.AirQuality, error) {
	params := url.Values{
		"lat": {formatCoord(lat)},
		"lon": {formatCoord(lon)},
	}

	var resp airPollutionResponse
	if err := c.get(ctx, c.baseURL+"/air_pollution", params, &resp); err != nil {
		return domain.AirQuality{}, err
	}
	if len(resp.List) == 0 {
		return domain.CalculateAQI(nil), nil
	}

	sample := resp.List[0]
	aq := domain.CalculateAQI(sample.Components.PM25)
	if sample.Main.AQI != 0 {
		p := domain.ClassifyProviderAQI(sample.Main.AQI)
		aq.Provider = &p
	}
	return aq, nil
}

// ResolveCity looks up a city name with the direct geocoding endpoint.
// A name with no match returns ErrNotFound.
func (c *Client) ResolveCity(ctx context.Context, name string) (domain.Location, error) {
	params := url.Values{
		"q":     {name},
		"limit": {"1"},
	}

	var resp []geoResult
	if err := c.get(ctx, c.geoURL+"/direct", params, &resp); err != nil {
		return domain.Location{}, err
	}
	if len(resp) == 0 {
		return domain.Location{}, fmt.Errorf("resolve %q: %w", name, ErrNotFound)
	}

	r := resp[0]
	return domain.Location{
		Name:    r.Name,
		Country: r.Country,
		State:   r.State,
		Lat:     r.Lat,
		Lon:     r.Lon,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return fmt.Errorf("openweather request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.ProviderRequests.WithLabelValues(providerName, "not_found").Inc()
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}

	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	c.logger.Debug("openweather request complete", "path", req.URL.Path, "duration", time.Since(start))
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// OpenWeatherMap API response types.

type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility *int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

func (r currentResponse) toObservation() domain.Observation {
	obs := domain.Observation{
		Location: domain.Location{
			Name:    r.Name,
			Country: r.Sys.Country,
			Lat:     r.Coord.Lat,
			Lon:     r.Coord.Lon,
		},
		Temp:           r.Main.Temp,
		FeelsLike:      r.Main.FeelsLike,
		TempMin:        r.Main.TempMin,
		TempMax:        r.Main.TempMax,
		Humidity:       r.Main.Humidity,
		Pressure:       r.Main.Pressure,
		Visibility:     r.Visibility,
		WindSpeed:      r.Wind.Speed,
		ObservedAt:     r.Dt,
		Sunrise:        r.Sys.Sunrise,
		Sunset:         r.Sys.Sunset,
		TimezoneOffset: r.Timezone,
	}
	// A missing weather entry leaves Code at 0, which normalizes as unmapped.
	if len(r.Weather) > 0 {
		obs.Code = r.Weather[0].ID
		obs.Summary = r.Weather[0].Description
	}
	return obs
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			PM25 *float64 `json:"pm2_5"`
		} `json:"components"`
	} `json:"list"`
}

type geoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}
