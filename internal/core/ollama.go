package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaGenerator calls a local Ollama server's generate API.
type OllamaGenerator struct {
	client *resty.Client
	model  string
}

func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &OllamaGenerator{client: c, model: model}
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (g *OllamaGenerator) GenerateReply(ctx context.Context, message string, profile *UserProfile) (string, error) {
	body := generateRequest{
		Model:  g.model,
		System: assistantSystemPrompt,
		Prompt: buildPrompt(message, profile),
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode(), resp.String())
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	text := strings.TrimSpace(gr.Response)
	if text == "" {
		return "", errEmptyReply
	}
	return text, nil
}
