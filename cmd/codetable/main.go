// Command codetable writes the weather-code and AQI lookup tables as JSON so
// the front-end can ship the same mappings the engine uses. With -verify it
// instead checks a previously published table against the current engine.
//
// Usage:
//
//	go run ./cmd/codetable -out data/codetable.json
//	go run ./cmd/codetable -verify data/codetable.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/weather-dashboard/internal/domain"
)

const (
	wmoMin, wmoMax           = 0, 99
	providerMin, providerMax = 100, 999
)

// Table is the published document.
type Table struct {
	WMO         []CodeEntry  `json:"wmo"`
	OpenWeather []CodeEntry  `json:"openweather"`
	AQI         []AQIBracket `json:"aqi_pm25"`
}

// CodeEntry is one weather code and its normalized category.
type CodeEntry struct {
	Code     int             `json:"code"`
	Category domain.Category `json:"category"`
	Icon     string          `json:"icon"`
	Unmapped bool            `json:"unmapped,omitempty"`
}

// AQIBracket is a breakpoint row with the index and severity at both edges.
type AQIBracket struct {
	CLow         float64         `json:"c_low"`
	CHigh        float64         `json:"c_high"`
	IndexLow     int             `json:"index_low"`
	IndexHigh    int             `json:"index_high"`
	SeverityLow  domain.Severity `json:"severity_low"`
	SeverityHigh domain.Severity `json:"severity_high"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the JSON table (default stdout)")
	verify := flag.String("verify", "", "check a published table against the engine instead of writing one")
	flag.Parse()

	table, err := buildTable()
	if err != nil {
		return err
	}

	if *verify != "" {
		published, err := readTable(*verify)
		if err != nil {
			return err
		}
		problems := compare(published, table)
		for _, p := range problems {
			log.Print(p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%s: %d mismatches", *verify, len(problems))
		}
		log.Printf("%s: matches engine", *verify)
		return nil
	}

	if err := writeJSON(*out, table); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	printStats(table)
	return nil
}

func buildTable() (Table, error) {
	var t Table
	for code := wmoMin; code <= wmoMax; code++ {
		t.WMO = append(t.WMO, entry(domain.NormalizeWMOCode(code)))
	}
	for code := providerMin; code <= providerMax; code++ {
		t.OpenWeather = append(t.OpenWeather, entry(domain.NormalizeOpenWeatherCode(code)))
	}
	for _, b := range domain.PM25Breakpoints {
		low, err := domain.PM25Index(b.CLow)
		if err != nil {
			return Table{}, fmt.Errorf("index at %v: %w", b.CLow, err)
		}
		high, err := domain.PM25Index(b.CHigh)
		if err != nil {
			return Table{}, fmt.Errorf("index at %v: %w", b.CHigh, err)
		}
		t.AQI = append(t.AQI, AQIBracket{
			CLow:         b.CLow,
			CHigh:        b.CHigh,
			IndexLow:     low,
			IndexHigh:    high,
			SeverityLow:  domain.SeverityForIndex(low),
			SeverityHigh: domain.SeverityForIndex(high),
		})
	}
	return t, nil
}

func entry(c domain.Condition) CodeEntry {
	return CodeEntry{Code: c.Code, Category: c.Category, Icon: c.Icon, Unmapped: c.Unmapped}
}

// compare lists every row where published disagrees with want.
func compare(published, want Table) []string {
	var problems []string
	problems = append(problems, compareCodes("wmo", published.WMO, want.WMO)...)
	problems = append(problems, compareCodes("openweather", published.OpenWeather, want.OpenWeather)...)
	if len(published.AQI) != len(want.AQI) {
		problems = append(problems, fmt.Sprintf("aqi: %d brackets, want %d", len(published.AQI), len(want.AQI)))
		return problems
	}
	for i := range want.AQI {
		if published.AQI[i] != want.AQI[i] {
			problems = append(problems, fmt.Sprintf("aqi bracket %d: got %+v, want %+v", i, published.AQI[i], want.AQI[i]))
		}
	}
	return problems
}

func compareCodes(scheme string, published, want []CodeEntry) []string {
	var problems []string
	got := make(map[int]CodeEntry, len(published))
	for _, e := range published {
		got[e.Code] = e
	}
	for _, w := range want {
		e, ok := got[w.Code]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s %d: missing", scheme, w.Code))
		case e != w:
			problems = append(problems, fmt.Sprintf("%s %d: got %s, want %s", scheme, w.Code, e.Category, w.Category))
		}
	}
	return problems
}

func readTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(t.WMO) == 0 && len(t.OpenWeather) == 0 {
		return Table{}, errors.New("table has no weather codes")
	}
	return t, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(t Table) {
	for _, scheme := range []struct {
		name    string
		entries []CodeEntry
	}{{"wmo", t.WMO}, {"openweather", t.OpenWeather}} {
		counts := map[string]int{}
		for _, e := range scheme.entries {
			if e.Unmapped {
				counts["unmapped"]++
				continue
			}
			counts[e.Category.String()]++
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		line := scheme.name + ":"
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%d", k, counts[k])
		}
		log.Print(line)
	}
}
