package api

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
)

// weatherView is what the weather form displays. Lines for absent snapshot
// fields are omitted rather than shown empty.
type weatherView struct {
	Title       string                 `json:"title"`
	Conditions  string                 `json:"conditions"`
	IconURL     string                 `json:"icon_url,omitempty"`
	Temperature string                 `json:"temperature,omitempty"`
	FeelsLike   string                 `json:"feels_like,omitempty"`
	Humidity    string                 `json:"humidity,omitempty"`
	WindSpeed   string                 `json:"wind_speed,omitempty"`
	Units       models.Units           `json:"units"`
	Snapshot    models.WeatherSnapshot `json:"snapshot"`
}

func renderWeather(s models.WeatherSnapshot, units models.Units) weatherView {
	units = units.OrDefault()

	country := "N/A"
	if s.CountryCode != nil && *s.CountryCode != "" {
		country = *s.CountryCode
	}
	description := "N/A"
	if s.Description != nil && *s.Description != "" {
		description = capitalize(*s.Description)
	}

	view := weatherView{
		Title:      fmt.Sprintf("Weather in %s, %s", s.ResolvedCity, country),
		Conditions: description,
		Units:      units,
		Snapshot:   s,
	}
	if s.IconURL != nil {
		view.IconURL = *s.IconURL
	}
	if s.Temperature != nil {
		view.Temperature = formatFloat(*s.Temperature) + units.TemperatureSuffix()
	}
	if s.FeelsLike != nil {
		view.FeelsLike = formatFloat(*s.FeelsLike) + units.TemperatureSuffix()
	}
	if s.Humidity != nil {
		view.Humidity = strconv.Itoa(*s.Humidity) + "%"
	}
	if s.WindSpeed != nil {
		view.WindSpeed = formatFloat(*s.WindSpeed) + " " + units.SpeedSuffix()
	}
	return view
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
