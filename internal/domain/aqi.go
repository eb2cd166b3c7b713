package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConcentration is returned for negative or NaN pollutant readings.
var ErrInvalidConcentration = errors.New("invalid concentration")

// MaxAQI is the top of the index scale; concentrations beyond the last
// breakpoint clamp here.
const MaxAQI = 500

// Breakpoint is one row of a piecewise-linear concentration-to-index table.
type Breakpoint struct {
	CLow  float64 `json:"c_low"`
	CHigh float64 `json:"c_high"`
	ILow  int     `json:"i_low"`
	IHigh int     `json:"i_high"`
}

// PM25Breakpoints is the US EPA PM2.5 table in µg/m³, ascending. Each row
// starts 0.1 above the previous CHigh, so selecting the first row with
// C <= CHigh covers [0, 500.4] without gaps.
var PM25Breakpoints = []Breakpoint{
	{CLow: 0.0, CHigh: 12.0, ILow: 0, IHigh: 50},
	{CLow: 12.1, CHigh: 35.4, ILow: 51, IHigh: 100},
	{CLow: 35.5, CHigh: 55.4, ILow: 101, IHigh: 150},
	{CLow: 55.5, CHigh: 150.4, ILow: 151, IHigh: 200},
	{CLow: 150.5, CHigh: 250.4, ILow: 201, IHigh: 300},
	{CLow: 250.5, CHigh: 350.4, ILow: 301, IHigh: 400},
	{CLow: 350.5, CHigh: 500.4, ILow: 401, IHigh: 500},
}

// interpolate applies the EPA formula to c within b.
// Rounding is half away from zero; inputs are non-negative so this matches
// round-half-up.
func (b Breakpoint) interpolate(c float64) int {
	slope := float64(b.IHigh-b.ILow) / (b.CHigh - b.CLow)
	return int(math.Round(slope*(c-b.CLow) + float64(b.ILow)))
}

// PM25Index converts a PM2.5 concentration in µg/m³ to a 0–500 index.
// Values above the last breakpoint clamp to MaxAQI.
func PM25Index(c float64) (int, error) {
	if math.IsNaN(c) || c < 0 {
		return 0, fmt.Errorf("pm2.5 %v: %w", c, ErrInvalidConcentration)
	}
	for _, b := range PM25Breakpoints {
		if c <= b.CHigh {
			return b.interpolate(c), nil
		}
	}
	return MaxAQI, nil
}

// Severity is the qualitative tier of an AQI value.
type Severity int

const (
	// SeverityUnknown is the zero value; no index maps to it.
	SeverityUnknown Severity = iota
	SeverityGood
	SeverityModerate
	SeverityUnhealthySensitive
	SeverityUnhealthy
	SeverityVeryUnhealthy
	SeverityHazardous
)

// Severities lists the tiers from best to worst.
var Severities = []Severity{
	SeverityGood,
	SeverityModerate,
	SeverityUnhealthySensitive,
	SeverityUnhealthy,
	SeverityVeryUnhealthy,
	SeverityHazardous,
}

type severityInfo struct {
	key   string
	label string
	color string
}

var severityTable = map[Severity]severityInfo{
	SeverityGood:               {key: "good", label: "Good", color: "green"},
	SeverityModerate:           {key: "moderate", label: "Moderate", color: "yellow"},
	SeverityUnhealthySensitive: {key: "unhealthy_sensitive", label: "Unhealthy for Sensitive Groups", color: "orange"},
	SeverityUnhealthy:          {key: "unhealthy", label: "Unhealthy", color: "red"},
	SeverityVeryUnhealthy:      {key: "very_unhealthy", label: "Very Unhealthy", color: "purple"},
	SeverityHazardous:          {key: "hazardous", label: "Hazardous", color: "rose"},
}

// SeverityForIndex maps an AQI value to its tier:
// <=50 good, <=100 moderate, <=150 unhealthy for sensitive groups,
// <=200 unhealthy, <=300 very unhealthy, otherwise hazardous.
func SeverityForIndex(index int) Severity {
	switch {
	case index <= 50:
		return SeverityGood
	case index <= 100:
		return SeverityModerate
	case index <= 150:
		return SeverityUnhealthySensitive
	case index <= 200:
		return SeverityUnhealthy
	case index <= 300:
		return SeverityVeryUnhealthy
	default:
		return SeverityHazardous
	}
}

// String returns the display label.
func (s Severity) String() string {
	if i, ok := severityTable[s]; ok {
		return i.label
	}
	return "Unknown"
}

// Color returns the display tint for the tier.
func (s Severity) Color() string {
	if i, ok := severityTable[s]; ok {
		return i.color
	}
	return "gray"
}

// MarshalText encodes the severity as its snake_case key.
func (s Severity) MarshalText() ([]byte, error) {
	i, ok := severityTable[s]
	if !ok {
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
	return []byte(i.key), nil
}

// UnmarshalText parses a key written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	for sev, i := range severityTable {
		if i.key == string(text) {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// AQIStatus says whether an AirQuality carries a usable index.
type AQIStatus string

const (
	AQIValid AQIStatus = "valid"
	// AQIInvalid marks a negative or NaN reading (InvalidConcentration).
	AQIInvalid AQIStatus = "invalid"
	// AQIUnknown marks an absent reading (UnknownSample).
	AQIUnknown AQIStatus = "unknown"
)

// AirQuality is the result of an AQI calculation. Index and Severity are only
// meaningful when Status is AQIValid.
type AirQuality struct {
	Status   AQIStatus
	Index    int
	Severity Severity
	PM25     *float64

	// Provider is the upstream 1–5 categorical index, reported separately.
	Provider *ProviderAQI
}

type airQualityJSON struct {
	Status   AQIStatus    `json:"status"`
	Index    *int         `json:"index,omitempty"`
	Severity Severity     `json:"severity,omitempty"`
	Label    string       `json:"label"`
	PM25     *float64     `json:"pm2_5,omitempty"`
	Provider *ProviderAQI `json:"provider,omitempty"`
}

// MarshalJSON omits index and severity unless the status is valid, so an
// unknown reading never shows up as an index of 0.
func (a AirQuality) MarshalJSON() ([]byte, error) {
	out := airQualityJSON{
		Status:   a.Status,
		Label:    a.Label(),
		PM25:     a.PM25,
		Provider: a.Provider,
	}
	if a.Available() {
		index := a.Index
		out.Index = &index
		out.Severity = a.Severity
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON; a missing index stays 0.
func (a *AirQuality) UnmarshalJSON(data []byte) error {
	var in airQualityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = AirQuality{
		Status:   in.Status,
		Severity: in.Severity,
		PM25:     in.PM25,
		Provider: in.Provider,
	}
	if in.Index != nil {
		a.Index = *in.Index
	}
	return nil
}

// Available reports whether the index can be displayed.
func (a AirQuality) Available() bool { return a.Status == AQIValid }

// Label returns the severity label, or "Unknown" when no index is available.
func (a AirQuality) Label() string {
	if !a.Available() {
		return "Unknown"
	}
	return a.Severity.String()
}

// CalculateAQI computes the air quality for an optional PM2.5 sample.
// A nil sample yields AQIUnknown; a negative or NaN one yields AQIInvalid.
// Neither is ever coerced to an index of 0.
func CalculateAQI(pm25 *float64) AirQuality {
	if pm25 == nil {
		return AirQuality{Status: AQIUnknown}
	}
	c := *pm25
	index, err := PM25Index(c)
	if err != nil {
		aq := AirQuality{Status: AQIInvalid}
		if !math.IsNaN(c) {
			aq.PM25 = &c
		}
		return aq
	}
	return AirQuality{
		Status:   AQIValid,
		Index:    index,
		Severity: SeverityForIndex(index),
		PM25:     &c,
	}
}

// ProviderAQI is OpenWeatherMap's own 1–5 air quality level. It is a separate
// scale from the 0–500 index and is never converted into it.
type ProviderAQI struct {
	Level int    `json:"level"`
	Label string `json:"label"`
}

var providerAQILabels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// ClassifyProviderAQI labels an OpenWeatherMap air quality level.
// Levels outside 1–5 are labelled "Unknown".
func ClassifyProviderAQI(level int) ProviderAQI {
	label, ok := providerAQILabels[level]
	if !ok {
		label = "Unknown"
	}
	return ProviderAQI{Level: level, Label: label}
}
