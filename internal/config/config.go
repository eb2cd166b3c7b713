package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"
	defaultGeoURL         = "https://api.openweathermap.org/geo/1.0"
	defaultOpenMeteoURL   = "https://api.open-meteo.com/v1"

	// MaxForecastDays is the longest daily forecast Open-Meteo serves.
	MaxForecastDays = 16
)

// Config holds all dashboard settings, populated from environment variables.
type Config struct {
	// Provider configuration.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherGeoURL  string
	OpenMeteoBaseURL   string
	ProviderTimeout    time.Duration

	// Display configuration.
	Units             string
	ForecastDays      int
	DefaultCity       string
	LocationCacheSize int

	// Watch mode and ops.
	RefreshInterval time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot publishing.
	KafkaBrokers   []string
	KafkaTopic     string
	PublishEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	forecastDays, err := parseIntInRange("FORECAST_DAYS", 10, 1, MaxForecastDays)
	if err != nil {
		return nil, err
	}

	units := strings.ToLower(sharedcfg.EnvOrDefault("UNITS", "metric"))
	if units != "metric" && units != "imperial" {
		return nil, fmt.Errorf("invalid UNITS %q: must be metric or imperial", units)
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}
	publishEnabled := len(brokers) > 0
	if v := os.Getenv("PUBLISH_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", defaultOpenWeatherURL),
		OpenWeatherGeoURL:  sharedcfg.EnvOrDefault("OPENWEATHER_GEO_URL", defaultGeoURL),
		OpenMeteoBaseURL:   sharedcfg.EnvOrDefault("OPENMETEO_BASE_URL", defaultOpenMeteoURL),
		ProviderTimeout:    providerTimeout,

		Units:             units,
		ForecastDays:      forecastDays,
		DefaultCity:       sharedcfg.EnvOrDefault("DEFAULT_CITY", "New York"),
		LocationCacheSize: parseLocationCacheSize(),

		RefreshInterval: refreshInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:   brokers,
		KafkaTopic:     sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-dashboards"),
		PublishEnabled: publishEnabled,
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if strings.TrimSpace(cfg.DefaultCity) == "" {
		return nil, errors.New("DEFAULT_CITY must not be blank")
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when publishing")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s %q: must be between %d and %d", key, s, minVal, maxVal)
	}
	return n, nil
}

func parseLocationCacheSize() int {
	if s := os.Getenv("LOCATION_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
