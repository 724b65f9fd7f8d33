package api

import (
	"context"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/config"
	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"github.com/bobby-s-dev/weather-assistant/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

type Handler struct {
	assistant    *services.Assistant
	defaultUnits models.Units
	model        string
	logger       *zap.Logger
}

func NewHandler(assistant *services.Assistant, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		assistant:    assistant,
		defaultUnits: models.Units(cfg.WeatherAPI.Units).OrDefault(),
		model:        cfg.LLM.Model,
		logger:       logger,
	}
}

type weatherRequest struct {
	City  string `validate:"required"`
	Units string `validate:"omitempty,oneof=metric imperial"`
}

type askRequest struct {
	Prompt string `json:"prompt" form:"prompt" validate:"required"`
}

// GetCurrentWeather handles GET /api/v1/weather
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	req := weatherRequest{
		City:  strings.TrimSpace(c.Query("city")),
		Units: strings.ToLower(strings.TrimSpace(c.Query("units"))),
	}
	if err := validate.Struct(req); err != nil {
		message := msgEmptyCity
		if req.City != "" {
			message = msgBadUnits
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   message,
			"success": false,
		})
	}

	units := models.Units(req.Units)
	if units == "" {
		units = h.defaultUnits
	}
	query := models.NewWeatherQuery(req.City, units)

	snapshot, err := h.assistant.CurrentWeather(callContext(c), query)
	if err != nil {
		status, message := weatherFailure(err)
		return c.Status(status).JSON(fiber.Map{
			"error":   message,
			"kind":    errorKind(err),
			"success": false,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"weather": renderWeather(snapshot, query.Units),
	})
}

// Ask handles POST /api/v1/ask
func (h *Handler) Ask(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   msgEmptyPrompt,
			"success": false,
		})
	}

	answer, err := h.assistant.Ask(callContext(c), models.LLMQuery{Prompt: req.Prompt})
	if err != nil {
		status, message := llmFailure(err)
		return c.Status(status).JSON(fiber.Map{
			"error":   message,
			"kind":    errorKind(err),
			"success": false,
		})
	}

	resp := fiber.Map{
		"success": true,
		"model":   h.model,
		"answer":  answer.Text,
	}
	if strings.TrimSpace(answer.Text) == "" {
		resp["note"] = msgEmptyAnswer
	}
	return c.JSON(resp)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":             "healthy",
		"timestamp":          time.Now(),
		"last_call":          h.assistant.GetLastCallTime(),
		"uptime":             time.Since(startTime).String(),
		"weather_configured": h.assistant.WeatherConfigured(),
		"llm_configured":     h.assistant.LLMConfigured(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.assistant.GetStats(),
		"timestamp": time.Now(),
	})
}

var startTime = time.Now()

// callContext carries the request id set by the requestid middleware into
// the service so both log the same id.
func callContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if id, ok := c.Locals(requestIDKey).(string); ok {
		ctx = services.WithCallID(ctx, id)
	}
	return ctx
}
