package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const defaultChatModelName = "gemini-1.5-flash-latest"

// LLMService is the Gemini-backed TextGenerator.
type LLMService struct {
	client     *genai.Client
	modelName  string
	maxRetries uint64
}

func NewLLMService(ctx context.Context, apiKey, modelName string, maxRetries uint64) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = defaultChatModelName
	}
	return &LLMService{client: client, modelName: modelName, maxRetries: maxRetries}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GenAI client")
		} else {
			log.Info().Msg("GenAI client closed")
		}
	}
}

func (s *LLMService) GenerateReply(ctx context.Context, message string, profile *UserProfile) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(assistantSystemPrompt)},
	}
	temp := float32(0.7)
	maxTokens := int32(256)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	prompt := buildPrompt(message, profile)
	var reply string
	op := func() error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("gemini request failed: %w", err)
		}
		text := responseText(resp)
		if text == "" {
			return backoff.Permanent(errEmptyReply)
		}
		reply = text
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("gemini call failed, retrying")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", err
	}
	return reply, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
