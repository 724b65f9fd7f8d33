package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-assistant/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-1.5-flash-latest"
	DefaultLLMTimeout  = 60 * time.Second
)

// GeminiClient asks Google's generative language API for a single,
// non-streaming completion. The provider does not expose error codes the
// caller can rely on, so every failure is reported as KindUnknown.
type GeminiClient struct {
	*BaseClient
	baseURL string
	model   string
}

func NewGeminiClient(baseURL, model string, config ClientConfig, logger *zap.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultLLMTimeout
	}
	return &GeminiClient{
		BaseClient: NewBaseClient("gemini", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

func (c *GeminiClient) Model() string { return c.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Ask submits query.Prompt as the whole content and waits for the reply. An
// empty reply is a successful, empty answer.
func (c *GeminiClient) Ask(ctx context.Context, query models.LLMQuery, apiKey string) (models.LLMAnswer, error) {
	data, err := json.Marshal(generateContentRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: query.Prompt}}},
		},
	})
	if err != nil {
		return models.LLMAnswer{}, unknown(err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return models.LLMAnswer{}, unknown(fmt.Errorf("creating request failed: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, apiErr := c.do(req)
	if apiErr != nil {
		return models.LLMAnswer{}, collapse(apiErr)
	}

	if !isSuccess(resp.StatusCode) {
		var errBody geminiErrorResponse
		detail := strings.TrimSpace(string(resp.Body))
		if json.Unmarshal(resp.Body, &errBody) == nil && errBody.Error.Message != "" {
			detail = errBody.Error.Message
		}
		return models.LLMAnswer{}, &APIError{
			Kind:   KindUnknown,
			Detail: fmt.Sprintf("gemini http %d: %s", resp.StatusCode, detail),
		}
	}

	var out generateContentResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return models.LLMAnswer{}, unknown(fmt.Errorf("decoding gemini response: %w", err))
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return models.LLMAnswer{}, unknown(fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason))
		}
		return models.LLMAnswer{}, nil
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return models.LLMAnswer{Text: text.String()}, nil
}

// collapse downgrades a transport classification to KindUnknown, keeping the
// cause for logs.
func collapse(apiErr *APIError) *APIError {
	cause := apiErr.Err
	if cause == nil {
		cause = errors.New(apiErr.Error())
	}
	return &APIError{Kind: KindUnknown, Detail: apiErr.Error(), Err: cause}
}
