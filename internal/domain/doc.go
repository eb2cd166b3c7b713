// Package domain normalizes weather provider data for the dashboard.
//
// # Data Sources
//
// Current conditions and air pollution come from OpenWeatherMap
// (https://openweathermap.org/api). The daily forecast comes from Open-Meteo
// (https://open-meteo.com/en/docs). The two providers use incompatible
// weather code vocabularies and are normalized by separate functions.
//
// # Weather Codes
//
// OpenWeatherMap condition ids ("weather[].id"):
//
//	2xx thunderstorm | 3xx drizzle | 5xx rain | 6xx snow | 7xx atmosphere (fog, mist, haze)
//	800 clear | 80x clouds
//
// Normalized by [NormalizeOpenWeatherCode].
//
// WMO weather interpretation codes ("daily.weather_code", 0–99):
//
//	0 clear | 1-3 clouds | 45,48 fog | 51-57 drizzle | 61-67,80-82 rain
//	71-77,85-86 snow | 95-99 thunderstorm
//
// Normalized by [NormalizeWMOCode]. Codes outside the listed ranges in
// either scheme resolve to Clear and are flagged Unmapped.
//
// # Air Quality
//
// The dashboard index is the US EPA AQI derived from PM2.5 (µg/m³) by linear
// interpolation over [PM25Breakpoints]:
//
//	C range        index
//	0.0-12.0       0-50      good
//	12.1-35.4      51-100    moderate
//	35.5-55.4      101-150   unhealthy for sensitive groups
//	55.5-150.4     151-200   unhealthy
//	150.5-250.4    201-300   very unhealthy
//	250.5-350.4    301-400   hazardous
//	350.5-500.4    401-500   hazardous
//	>500.4         500
//
// OpenWeatherMap also reports its own 1–5 level ("list[].main.aqi"). That
// scale is kept as [ProviderAQI] next to the EPA index and never mixed into it.
//
// Missing readings are "unknown", negative ones "invalid"; see [CalculateAQI].
//
// # Time
//
// OpenWeatherMap reports Unix timestamps plus a "timezone" offset in seconds.
// [LocalTime] applies that offset with a fixed zone and never reads the
// host's zone.
package domain
