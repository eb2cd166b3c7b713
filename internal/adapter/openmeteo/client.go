package openmeteo

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

const (
	providerName = "openmeteo"
	dateLayout   = "2006-01-02"
	dailyFields  = "weather_code,temperature_2m_max,temperature_2m_min"
)

// APIError is a non-200 response from Open-Meteo. Reason is taken from the
// error body when one is present.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.StatusCode, e.Reason)
}

// Client fetches daily forecasts from the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	units      domain.Units
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. baseURL points at /v1.
func NewClient(baseURL string, units domain.Units, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		units:   units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// DailyForecast fetches up to days days of forecast for a point. Dates are
// calendar days in the location's own time zone.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64, days int) ([]domain.DailyForecast, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', -1, 64)},
		"daily":         {dailyFields},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(days)},
	}
	if c.units == domain.UnitsImperial {
		params.Set("temperature_unit", "fahrenheit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, decodeAPIError(resp)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}

	out, err := fr.toDailyForecasts()
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}

	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	c.logger.Debug("open-meteo forecast fetched", "lat", lat, "lon", lon, "days", len(out), "duration", time.Since(start))
	return out, nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Reason == "" {
		e.Reason = string(body)
	}
	return &APIError{StatusCode: resp.StatusCode, Reason: e.Reason}
}

// Open-Meteo API response types. Daily values are parallel arrays indexed by
// day; any entry may be null.

type forecastResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	Daily            struct {
		Time           []string   `json:"time"`
		WeatherCode    []*int     `json:"weather_code"`
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		TemperatureMin []*float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (r forecastResponse) toDailyForecasts() ([]domain.DailyForecast, error) {
	d := r.Daily
	n := len(d.Time)
	if len(d.WeatherCode) != n || len(d.TemperatureMax) != n || len(d.TemperatureMin) != n {
		return nil, fmt.Errorf("daily arrays differ in length: time=%d weather_code=%d max=%d min=%d",
			n, len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin))
	}

	loc := time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
	out := make([]domain.DailyForecast, 0, n)
	for i, s := range d.Time {
		date, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}
		if d.TemperatureMax[i] == nil || d.TemperatureMin[i] == nil {
			return nil, fmt.Errorf("day %s: missing temperature", s)
		}
		// A null code normalizes as unmapped.
		code := -1
		if d.WeatherCode[i] != nil {
			code = *d.WeatherCode[i]
		}
		out = append(out, domain.NewDailyForecast(date, code, *d.TemperatureMax[i], *d.TemperatureMin[i]))
	}
	return out, nil
}
