package models

import "strings"

type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Valid reports whether u is a unit system the weather provider understands.
// The zero value is treated as metric.
func (u Units) Valid() bool {
	switch u {
	case "", UnitsMetric, UnitsImperial:
		return true
	}
	return false
}

func (u Units) OrDefault() Units {
	if u == "" {
		return UnitsMetric
	}
	return u
}

func (u Units) TemperatureSuffix() string {
	if u.OrDefault() == UnitsImperial {
		return "°F"
	}
	return "°C"
}

func (u Units) SpeedSuffix() string {
	if u.OrDefault() == UnitsImperial {
		return "mph"
	}
	return "m/s"
}

type WeatherQuery struct {
	City  string `json:"city"`
	Units Units  `json:"units"`
}

// NewWeatherQuery trims the city name the way the form submission does.
func NewWeatherQuery(city string, units Units) WeatherQuery {
	return WeatherQuery{
		City:  strings.TrimSpace(city),
		Units: units.OrDefault(),
	}
}

// WeatherSnapshot is a normalized reading. Every field except ResolvedCity is
// optional because the provider payload shape is not guaranteed.
type WeatherSnapshot struct {
	ResolvedCity string   `json:"resolved_city"`
	CountryCode  *string  `json:"country_code,omitempty"`
	Temperature  *float64 `json:"temperature_c,omitempty"`
	FeelsLike    *float64 `json:"feels_like_c,omitempty"`
	Humidity     *int     `json:"humidity_pct,omitempty"`
	Description  *string  `json:"description,omitempty"`
	WindSpeed    *float64 `json:"wind_speed_mps,omitempty"`
	IconID       *string  `json:"icon_id,omitempty"`
	IconURL      *string  `json:"icon_url,omitempty"`
}

type LLMQuery struct {
	Prompt string `json:"prompt"`
}

type LLMAnswer struct {
	Text string `json:"text"`
}
