package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrLocationNotFound is wrapped by provider errors when a city or point has
// no match upstream.
var ErrLocationNotFound = errors.New("location not found")

// Units selects the measurement system requested from the providers.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits accepts "metric" or "imperial", case-insensitively.
func ParseUnits(s string) (Units, error) {
	switch u := Units(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitsMetric, UnitsImperial:
		return u, nil
	default:
		return "", fmt.Errorf("unsupported units %q", s)
	}
}

// TemperatureSymbol returns "°C" or "°F".
func (u Units) TemperatureSymbol() string {
	if u == UnitsImperial {
		return "°F"
	}
	return "°C"
}

// WindUnit returns the unit wind speed is displayed in.
func (u Units) WindUnit() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "km/h"
}

// Location is a named point on the map.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Observation is a current-weather reading as delivered by the provider,
// before normalization. Times are Unix seconds in UTC.
type Observation struct {
	Location       Location
	Code           int    // OpenWeatherMap condition id
	Summary        string // provider wording, e.g. "light rain"
	Temp           float64
	FeelsLike      float64
	TempMin        float64
	TempMax        float64
	Humidity       int     // %
	Pressure       int     // hPa
	Visibility     *int    // metres; not always reported
	WindSpeed      float64 // m/s for metric, mph for imperial
	ObservedAt     int64 // 0 when not reported
	Sunrise        int64 // 0 when not reported
	Sunset         int64 // 0 when not reported
	TimezoneOffset int // seconds east of UTC
}

// CurrentConditions is the display-ready current weather block.
type CurrentConditions struct {
	Condition    Condition `json:"condition"`
	Summary      string    `json:"summary"`
	Temperature  int       `json:"temperature"`
	FeelsLike    int       `json:"feels_like"`
	High         int       `json:"high"`
	Low          int       `json:"low"`
	Humidity     int       `json:"humidity"`
	Pressure     int       `json:"pressure"`
	VisibilityKm *float64  `json:"visibility_km,omitempty"`
	WindSpeed    float64   `json:"wind_speed"`
	WindUnit     string    `json:"wind_unit"`
	ObservedAt   time.Time `json:"observed_at,omitzero"`
	Sunrise      time.Time `json:"sunrise,omitzero"`
	Sunset       time.Time `json:"sunset,omitzero"`
	UTCOffset    int       `json:"utc_offset"`
}

// BuildCurrent normalizes a provider observation. Temperatures are rounded to
// whole degrees, wind is converted from m/s to km/h for metric units, and
// visibility from metres to kilometres. Times are shifted into the
// observation's own UTC offset.
func BuildCurrent(obs Observation, units Units) CurrentConditions {
	cur := CurrentConditions{
		Condition:   NormalizeOpenWeatherCode(obs.Code),
		Summary:     obs.Summary,
		Temperature: roundInt(obs.Temp),
		FeelsLike:   roundInt(obs.FeelsLike),
		High:        roundInt(obs.TempMax),
		Low:         roundInt(obs.TempMin),
		Humidity:    obs.Humidity,
		Pressure:    obs.Pressure,
		WindSpeed:   windSpeed(obs.WindSpeed, units),
		WindUnit:    units.WindUnit(),
		ObservedAt:  reportedTime(obs.ObservedAt, obs.TimezoneOffset),
		Sunrise:     reportedTime(obs.Sunrise, obs.TimezoneOffset),
		Sunset:      reportedTime(obs.Sunset, obs.TimezoneOffset),
		UTCOffset:   obs.TimezoneOffset,
	}
	if cur.Summary == "" {
		cur.Summary = cur.Condition.Description
	}
	if obs.Visibility != nil {
		km := roundTenth(float64(*obs.Visibility) / 1000)
		cur.VisibilityKm = &km
	}
	return cur
}

// reportedTime converts a provider timestamp, leaving the zero time for an
// unreported (0) value rather than the Unix epoch.
func reportedTime(sec int64, offsetSeconds int) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return LocalTimeFromUnix(sec, offsetSeconds)
}

func windSpeed(v float64, units Units) float64 {
	if units == UnitsImperial {
		return roundTenth(v)
	}
	return roundTenth(v * 3.6)
}

func roundInt(v float64) int { return int(math.Round(v)) }

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }

// DailyForecast is one day of the multi-day forecast.
type DailyForecast struct {
	Date      time.Time `json:"date"`
	Condition Condition `json:"condition"`
	TempMax   float64   `json:"temp_max"`
	TempMin   float64   `json:"temp_min"`
}

// NewDailyForecast builds a forecast day from a WMO weather code. Daily
// records only ever carry WMO codes.
func NewDailyForecast(date time.Time, wmoCode int, tempMax, tempMin float64) DailyForecast {
	return DailyForecast{
		Date:      date,
		Condition: NormalizeWMOCode(wmoCode),
		TempMax:   tempMax,
		TempMin:   tempMin,
	}
}

// Dashboard is everything the presentation layer renders for one location.
type Dashboard struct {
	Location    Location          `json:"location"`
	Current     CurrentConditions `json:"current"`
	Forecast    []DailyForecast   `json:"forecast"`
	AirQuality  AirQuality        `json:"air_quality"`
	Background  string            `json:"background"`
	Units       Units             `json:"units"`
	GeneratedAt time.Time         `json:"generated_at"`

	// Fallback is set when the requested location failed and the default
	// city was shown instead; Notice carries the message to display.
	Fallback bool   `json:"fallback,omitempty"`
	Notice   string `json:"notice,omitempty"`
}

// NewDashboard assembles a dashboard and picks the background from the
// current condition. The forecast is truncated to maxDays when maxDays > 0.
func NewDashboard(loc Location, cur CurrentConditions, forecast []DailyForecast, aq AirQuality, units Units, maxDays int) Dashboard {
	if maxDays > 0 && len(forecast) > maxDays {
		forecast = forecast[:maxDays]
	}
	return Dashboard{
		Location:    loc,
		Current:     cur,
		Forecast:    forecast,
		AirQuality:  aq,
		Background:  cur.Condition.Category.BackgroundImage(),
		Units:       units,
		GeneratedAt: Now(),
	}
}
