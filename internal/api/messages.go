package api

import (
	"errors"
	"fmt"

	"github.com/bobby-s-dev/weather-assistant/internal/services"
	"github.com/bobby-s-dev/weather-assistant/pkg/client"
	"github.com/gofiber/fiber/v2"
)

const (
	msgEmptyCity   = "Please enter a city name."
	msgEmptyPrompt = "Please enter a question for the LLM."
	msgBadUnits    = "Units must be either metric or imperial."

	msgWeatherKeyMissing = "Please update the OPENWEATHER_API_KEY setting with your actual OpenWeatherMap API key. " +
		"You can get a free API key from OpenWeatherMap."
	msgLLMKeyMissing = "Google API Key Not Configured for LLM feature. " +
		"To use this feature, please set your Google API Key. You can get one from Google AI Studio. " +
		"It's recommended to set it as the GOOGLE_API_KEY environment variable."
	msgEmptyAnswer = "The LLM did not return any content."
)

// weatherFailure maps a weather lookup error onto a status code and the
// message shown to the user.
func weatherFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyCity):
		return fiber.StatusBadRequest, msgEmptyCity
	case errors.Is(err, services.ErrWeatherNotConfigured):
		return fiber.StatusServiceUnavailable, msgWeatherKeyMissing
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return fiber.StatusServiceUnavailable, "Error: The weather service is temporarily unavailable. Please try again later."
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fiber.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred: %v", err)
	}

	switch apiErr.Kind {
	case client.KindUnauthorized:
		return fiber.StatusBadGateway, "Error: Invalid API Key. Please check your API key."
	case client.KindNotFound:
		return fiber.StatusNotFound, fmt.Sprintf("Error: City '%s' not found.", apiErr.Subject)
	case client.KindConnectionFailed:
		return fiber.StatusBadGateway, "Error: Could not connect to the weather service. Check your internet connection."
	case client.KindTimeout:
		return fiber.StatusGatewayTimeout, "Error: The request to the weather service timed out."
	case client.KindHTTP:
		return fiber.StatusBadGateway, fmt.Sprintf("HTTP error occurred: %d %s", apiErr.StatusCode, apiErr.Detail)
	case client.KindMalformedResponse:
		return fiber.StatusBadGateway, fmt.Sprintf("Error parsing weather data: %s. "+
			"The received data might be incomplete or in an unexpected format.", apiErr.Detail)
	default:
		return fiber.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred: %s", apiErr.Detail)
	}
}

func llmFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		return fiber.StatusBadRequest, msgEmptyPrompt
	case errors.Is(err, services.ErrLLMNotConfigured):
		return fiber.StatusServiceUnavailable, msgLLMKeyMissing
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return fiber.StatusServiceUnavailable, "Error calling Google LLM: service temporarily unavailable. Please try again later."
	}

	detail := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		detail = apiErr.Detail
	}
	return fiber.StatusBadGateway, fmt.Sprintf("Error calling Google LLM: %s", detail)
}

func errorKind(err error) string {
	if errors.Is(err, services.ErrUpstreamUnavailable) {
		return "circuit_open"
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return ""
}
