// Command weather fetches current conditions, the daily forecast and air
// quality for a city or a point and prints them as a dashboard.
//
// Usage:
//
//	weather -city Paris
//	weather -lat 48.85 -lon 2.35 -format json
//	weather -lat 48.85 -lon 2.35 -pick
//	weather -city Oslo -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/weather-dashboard/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-dashboard/internal/adapter/openweather"
	"github.com/couchcryptid/weather-dashboard/internal/config"
	"github.com/couchcryptid/weather-dashboard/internal/dashboard"
	"github.com/couchcryptid/weather-dashboard/internal/domain"
	"github.com/couchcryptid/weather-dashboard/internal/observability"
	"github.com/couchcryptid/weather-dashboard/internal/render"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	city     string
	lat, lon float64
	hasPoint bool
	pick     bool
	format   string
	watch    bool
	interval time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if opts.interval <= 0 {
		opts.interval = cfg.RefreshInterval
	}

	renderer, err := render.New(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	units, err := domain.ParseUnits(cfg.Units)
	if err != nil {
		slog.Error("invalid units", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	owm := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherGeoURL,
		units, cfg.ProviderTimeout, logger, metrics)
	meteo := openmeteo.NewClient(cfg.OpenMeteoBaseURL, units, cfg.ProviderTimeout, logger, metrics)

	var publisher dashboard.Publisher
	if cfg.PublishEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	svc := dashboard.New(dashboard.Providers{
		Locator:    openweather.NewCachedLocator(owm, cfg.LocationCacheSize, metrics),
		Conditions: owm,
		Forecast:   meteo,
		AirQuality: owm,
	}, publisher, dashboard.Options{
		Units:        units,
		ForecastDays: cfg.ForecastDays,
		DefaultCity:  cfg.DefaultCity,
	}, logger, metrics)

	q := dashboard.Query{City: opts.city}
	if opts.hasPoint {
		q.Coordinates = &dashboard.Coordinates{Lat: opts.lat, Lon: opts.lon}
		q.Picked = opts.pick
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !opts.watch {
		return once(ctx, svc, q, renderer, stdout, stderr, logger)
	}
	return watch(ctx, cfg, svc, q, opts.interval, renderer, stdout, stderr, logger)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("weather", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.city, "city", "", "city to show (default DEFAULT_CITY)")
	fs.Float64Var(&opts.lat, "lat", 0, "latitude of a point to show; requires -lon")
	fs.Float64Var(&opts.lon, "lon", 0, "longitude of a point to show; requires -lat")
	fs.BoolVar(&opts.pick, "pick", false, "treat -lat/-lon as a map pick: report failures instead of showing DEFAULT_CITY")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.BoolVar(&opts.watch, "watch", false, "keep refreshing and serve /healthz, /readyz and /metrics")
	fs.DurationVar(&opts.interval, "interval", 0, "refresh interval in watch mode (default REFRESH_INTERVAL)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["lat"] != set["lon"] {
		err := errors.New("-lat and -lon must be given together")
		fmt.Fprintln(stderr, err)
		return opts, err
	}
	opts.hasPoint = set["lat"]
	if opts.hasPoint && opts.city != "" {
		err := errors.New("use either -city or -lat/-lon, not both")
		fmt.Fprintln(stderr, err)
		return opts, err
	}
	if opts.pick && !opts.hasPoint {
		err := errors.New("-pick requires -lat and -lon")
		fmt.Fprintln(stderr, err)
		return opts, err
	}
	return opts, nil
}

func once(ctx context.Context, svc *dashboard.Service, q dashboard.Query, r render.Renderer, stdout, stderr io.Writer, logger *slog.Logger) int {
	d, err := svc.Build(ctx, q)
	if err != nil {
		logger.Error("dashboard failed", "error", err)
		fmt.Fprintln(stderr, dashboard.UserMessage(err))
		return 1
	}
	if err := r.Render(stdout, d); err != nil {
		logger.Error("render failed", "error", err)
		return 1
	}
	return 0
}

func watch(ctx context.Context, cfg *config.Config, svc *dashboard.Service, q dashboard.Query, interval time.Duration,
	r render.Renderer, stdout, stderr io.Writer, logger *slog.Logger,
) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, prometheus.DefaultGatherer, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	svc.Watch(ctx, clockwork.NewRealClock(), interval, q, func(d domain.Dashboard, err error) {
		if err != nil {
			fmt.Fprintln(stderr, dashboard.UserMessage(err))
			return
		}
		if err := r.Render(stdout, d); err != nil {
			logger.Error("render failed", "error", err)
		}
		fmt.Fprintln(stdout)
	})

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return 0
}
