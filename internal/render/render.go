// Package render turns a dashboard into terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Renderer writes one dashboard to w.
type Renderer interface {
	Render(w io.Writer, d domain.Dashboard) error
}

// New returns the renderer for format.
func New(format string) (Renderer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return Text{}, nil
	case FormatJSON:
		return JSON{Indent: "  "}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want text or json)", format)
	}
}

// JSON renders the dashboard as a JSON document.
type JSON struct {
	Indent string
}

func (r JSON) Render(w io.Writer, d domain.Dashboard) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", r.Indent)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

// Text renders the dashboard as aligned terminal text.
type Text struct{}

const (
	headerDate   = "Monday, 2 January 2006 15:04"
	forecastDate = "Mon 2 Jan"
	clockTime    = "15:04"
)

func (Text) Render(w io.Writer, d domain.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cur := d.Current
	deg := d.Units.TemperatureSymbol()

	if d.Notice != "" {
		fmt.Fprintf(tw, "! %s\n\n", d.Notice)
	}

	fmt.Fprintf(tw, "%s\n", placeName(d.Location))
	if !cur.ObservedAt.IsZero() {
		fmt.Fprintf(tw, "%s (%s)\n", cur.ObservedAt.Format(headerDate), cur.ObservedAt.Format("MST"))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "%s  %d%s  %s\n", cur.Condition.Category.Glyph(), cur.Temperature, deg, cur.Summary)
	fmt.Fprintf(tw, "H: %d%s  L: %d%s  Feels like: %d%s\n", cur.High, deg, cur.Low, deg, cur.FeelsLike, deg)
	fmt.Fprintln(tw)

	if len(d.Forecast) > 0 {
		fmt.Fprintf(tw, "%d-Day Forecast\n", len(d.Forecast))
		for _, day := range d.Forecast {
			fmt.Fprintf(tw, "%s\t%s %s\t%d%s\t%d%s\n",
				day.Date.Format(forecastDate),
				day.Condition.Category.Glyph(), day.Condition.Category,
				roundInt(day.TempMax), deg, roundInt(day.TempMin), deg)
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw, "Highlights")
	fmt.Fprintf(tw, "Wind\t%.1f %s\n", cur.WindSpeed, cur.WindUnit)
	fmt.Fprintf(tw, "Humidity\t%d%%\n", cur.Humidity)
	fmt.Fprintf(tw, "Visibility\t%s\n", visibility(cur.VisibilityKm))
	fmt.Fprintf(tw, "Pressure\t%d hPa\n", cur.Pressure)
	fmt.Fprintf(tw, "Sunrise\t%s\n", clock(cur.Sunrise))
	fmt.Fprintf(tw, "Sunset\t%s\n", clock(cur.Sunset))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Air Quality")
	writeAirQuality(tw, d.AirQuality)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Background\t%s\n", d.Background)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render text: %w", err)
	}
	return nil
}

func writeAirQuality(w io.Writer, aq domain.AirQuality) {
	if !aq.Available() {
		fmt.Fprintf(w, "Status\t%s\n", aq.Label())
	} else {
		fmt.Fprintf(w, "Status\t%s (%s)\n", aq.Label(), aq.Severity.Color())
		fmt.Fprintf(w, "AQI\t%d\n", aq.Index)
	}
	if aq.PM25 != nil {
		fmt.Fprintf(w, "PM2.5\t%.1f µg/m³\n", *aq.PM25)
	}
	if aq.Provider != nil {
		fmt.Fprintf(w, "Provider index\t%d (%s)\n", aq.Provider.Level, aq.Provider.Label)
	}
}

func placeName(loc domain.Location) string {
	parts := []string{loc.Name}
	if loc.State != "" {
		parts = append(parts, loc.State)
	}
	if loc.Country != "" {
		parts = append(parts, loc.Country)
	}
	return strings.Join(parts, ", ")
}

func visibility(km *float64) string {
	if km == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f km", *km)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(clockTime)
}

func roundInt(v float64) int { return int(math.Round(v)) }
