package domain

import "fmt"

// Category is the canonical weather condition used to pick icons and backgrounds.
type Category int

const (
	CategoryClear Category = iota
	CategoryClouds
	CategoryFog
	CategoryDrizzle
	CategoryRain
	CategorySnow
	CategoryThunderstorm
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryClear,
	CategoryClouds,
	CategoryFog,
	CategoryDrizzle,
	CategoryRain,
	CategorySnow,
	CategoryThunderstorm,
}

type categoryInfo struct {
	key         string
	label       string
	description string
	icon        string
	glyph       string
	background  string
}

const backgroundBase = "https://images.unsplash.com/"

var categoryTable = map[Category]categoryInfo{
	CategoryClear: {
		key:         "clear",
		label:       "Clear",
		description: "Clear sky",
		icon:        "01d",
		glyph:       "☀",
		background:  backgroundBase + "photo-1601297183305-6df142704ea2?q=80&w=1920&auto=format&fit=crop",
	},
	CategoryClouds: {
		key:         "clouds",
		label:       "Clouds",
		description: "Partly cloudy",
		icon:        "03d",
		glyph:       "☁",
		background:  backgroundBase + "photo-1534088568595-a066f410bcda?q=80&w=1920&auto=format&fit=crop",
	},
	CategoryFog: {
		key:         "fog",
		label:       "Fog",
		description: "Fog",
		icon:        "50d",
		glyph:       "🌫",
		background:  backgroundBase + "photo-1487621167305-5d248087c724?q=80&w=1920&auto=format&fit=crop",
	},
	CategoryDrizzle: {
		key:         "drizzle",
		label:       "Drizzle",
		description: "Drizzle",
		icon:        "09d",
		glyph:       "🌦",
		background:  backgroundBase + "photo-1541913485800-4b9538c82352?q=80&w=1920&auto=format&fit=crop",
	},
	CategoryRain: {
		key:         "rain",
		label:       "Rain",
		description: "Rain",
		icon:        "10d",
		glyph:       "🌧",
		background:  backgroundBase + "photo-1515694346937-94d85e41e6f0?q=80&w=1920&auto=format&fit=crop",
	},
	CategorySnow: {
		key:         "snow",
		label:       "Snow",
		description: "Snow",
		icon:        "13d",
		glyph:       "❄",
		background:  backgroundBase + "photo-1491002052546-bf38f186af56?q=80&w=1920&auto=format&fit=crop",
	},
	CategoryThunderstorm: {
		key:         "thunderstorm",
		label:       "Thunderstorm",
		description: "Thunderstorm",
		icon:        "11d",
		glyph:       "⛈",
		background:  backgroundBase + "photo-1605727216801-e27ce1d0cc28?q=80&w=1920&auto=format&fit=crop",
	},
}

func (c Category) info() categoryInfo {
	if i, ok := categoryTable[c]; ok {
		return i
	}
	return categoryTable[CategoryClear]
}

// String returns the display label, e.g. "Thunderstorm".
func (c Category) String() string { return c.info().label }

// Description returns the generic human description for the category.
func (c Category) Description() string { return c.info().description }

// Icon returns the OpenWeatherMap-style icon key, e.g. "11d".
func (c Category) Icon() string { return c.info().icon }

// Glyph returns the terminal glyph used by the text renderer.
func (c Category) Glyph() string { return c.info().glyph }

// BackgroundImage returns the dashboard background image URL for the category.
// Unknown categories get the clear-sky image, which doubles as the default.
func (c Category) BackgroundImage() string { return c.info().background }

// MarshalText encodes the category as its lowercase key, e.g. "rain".
func (c Category) MarshalText() ([]byte, error) {
	i, ok := categoryTable[c]
	if !ok {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(i.key), nil
}

// UnmarshalText decodes a lowercase category key.
func (c *Category) UnmarshalText(text []byte) error {
	for cat, i := range categoryTable {
		if i.key == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", text)
}

// CodeScheme identifies which upstream numbering a weather code belongs to.
type CodeScheme string

const (
	// SchemeOpenWeather is the 3-digit OpenWeatherMap condition id (weather[].id).
	SchemeOpenWeather CodeScheme = "openweather"
	// SchemeWMO is the WMO interpretation code (0–99) used by Open-Meteo.
	SchemeWMO CodeScheme = "wmo"
)

// Condition is a normalized weather condition.
type Condition struct {
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Code        int        `json:"code"`
	Scheme      CodeScheme `json:"scheme"`
	// Unmapped is set when the code matched no bracket and the default applied.
	Unmapped bool `json:"unmapped,omitempty"`
}

func newCondition(c Category, code int, scheme CodeScheme, unmapped bool) Condition {
	return Condition{
		Category:    c,
		Description: c.Description(),
		Icon:        c.Icon(),
		Code:        code,
		Scheme:      scheme,
		Unmapped:    unmapped,
	}
}

// NormalizeOpenWeatherCode maps an OpenWeatherMap condition id to a Condition.
//
// The function is total. Codes outside every bracket (negative, below 200)
// resolve to Clear with Unmapped set; no error is returned.
func NormalizeOpenWeatherCode(code int) Condition {
	var c Category
	switch {
	case code >= 200 && code < 300:
		c = CategoryThunderstorm
	case code >= 300 && code < 500:
		c = CategoryDrizzle
	case code >= 500 && code < 600:
		c = CategoryRain
	case code >= 600 && code < 700:
		c = CategorySnow
	case code >= 700 && code < 800:
		c = CategoryFog
	case code == 800:
		c = CategoryClear
	case code > 800:
		c = CategoryClouds
	default:
		return newCondition(CategoryClear, code, SchemeOpenWeather, true)
	}
	return newCondition(c, code, SchemeOpenWeather, false)
}

// NormalizeWMOCode maps a WMO weather interpretation code to a Condition.
//
//	0        clear sky
//	1-3      mainly clear, partly cloudy, overcast
//	45, 48   fog and depositing rime fog
//	51-57    drizzle, including freezing drizzle
//	61-67    rain, including freezing rain
//	71-77    snow fall and snow grains
//	80-82    rain showers
//	85-86    snow showers
//	95-99    thunderstorm, with or without hail
//
// Anything else resolves to Clear with Unmapped set.
func NormalizeWMOCode(code int) Condition {
	var c Category
	switch {
	case code == 0:
		c = CategoryClear
	case code >= 1 && code <= 3:
		c = CategoryClouds
	case code == 45 || code == 48:
		c = CategoryFog
	case code >= 51 && code <= 57:
		c = CategoryDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		c = CategoryRain
	case (code >= 71 && code <= 77) || (code >= 85 && code <= 86):
		c = CategorySnow
	case code >= 95 && code <= 99:
		c = CategoryThunderstorm
	default:
		return newCondition(CategoryClear, code, SchemeWMO, true)
	}
	return newCondition(c, code, SchemeWMO, false)
}

// NormalizerFor returns the normalizer for exactly one scheme. The two
// numbering schemes overlap and are never probed together.
func NormalizerFor(scheme CodeScheme) (func(int) Condition, error) {
	switch scheme {
	case SchemeOpenWeather:
		return NormalizeOpenWeatherCode, nil
	case SchemeWMO:
		return NormalizeWMOCode, nil
	default:
		return nil, fmt.Errorf("unknown code scheme %q", scheme)
	}
}
