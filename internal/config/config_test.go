package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "owm-test-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testAPIKey, cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, "https://api.openweathermap.org/geo/1.0", cfg.OpenWeatherGeoURL)
	assert.Equal(t, "https://api.open-meteo.com/v1", cfg.OpenMeteoBaseURL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, "metric", cfg.Units)
	assert.Equal(t, 10, cfg.ForecastDays)
	assert.Equal(t, "New York", cfg.DefaultCity)
	assert.Equal(t, 1000, cfg.LocationCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "weather-dashboards", cfg.KafkaTopic)
	assert.False(t, cfg.PublishEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("OPENWEATHER_BASE_URL", "http://owm.local/data/2.5")
	t.Setenv("OPENWEATHER_GEO_URL", "http://owm.local/geo/1.0")
	t.Setenv("OPENMETEO_BASE_URL", "http://meteo.local/v1")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("UNITS", "Imperial")
	t.Setenv("FORECAST_DAYS", "7")
	t.Setenv("DEFAULT_CITY", "London")
	t.Setenv("LOCATION_CACHE_SIZE", "50")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "dashboards")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://owm.local/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, "http://owm.local/geo/1.0", cfg.OpenWeatherGeoURL)
	assert.Equal(t, "http://meteo.local/v1", cfg.OpenMeteoBaseURL)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, "imperial", cfg.Units)
	assert.Equal(t, 7, cfg.ForecastDays)
	assert.Equal(t, "London", cfg.DefaultCity)
	assert.Equal(t, 50, cfg.LocationCacheSize)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "dashboards", cfg.KafkaTopic)
	assert.True(t, cfg.PublishEnabled)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"PROVIDER_TIMEOUT", "REFRESH_INTERVAL"} {
		for _, val := range []string{"bad", "0s", "-1m"} {
			t.Run(key+"="+val, func(t *testing.T) {
				t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
				t.Setenv(key, val)
				_, err := Load()
				require.Error(t, err)
				assert.Contains(t, err.Error(), key)
			})
		}
	}
}

func TestLoad_ForecastDaysRange(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"1", false},
		{"16", false},
		{"0", true},
		{"17", true},
		{"ten", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
			t.Setenv("FORECAST_DAYS", tt.value)
			_, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "FORECAST_DAYS")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoad_InvalidUnits(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("UNITS", "kelvin")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNITS")
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("LOCATION_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.LocationCacheSize)
}

func TestLoad_PublishEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("PUBLISH_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_PublishExplicitlyDisabled(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("PUBLISH_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}
