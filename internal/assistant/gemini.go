package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// GeminiGenerator calls the Gemini generateContent REST endpoint
type GeminiGenerator struct {
	client *resty.Client
	model  string
	apiKey string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiGenerator returns nil when no API key is configured
func NewGeminiGenerator(cfg config.GeminiConfig) *GeminiGenerator {
	if cfg.APIKey == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(60*time.Second).
		SetTransport(telemetry.NewInstrumentedTransport(http.DefaultTransport)).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate sends prompt as a single user turn and returns the first candidate's text
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (reply string, err error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}

	ctx, span := telemetry.StartExternalCall(ctx, "gemini", "generate_content",
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.prompt_length", len(prompt)))
	defer func() { telemetry.EndExternalCall(span, err) }()

	var out geminiResponse
	var apiErr geminiError
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(geminiRequest{Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}}}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/models/" + g.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode())
	}

	for _, candidate := range out.Candidates {
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("gemini response had no text candidates")
}
