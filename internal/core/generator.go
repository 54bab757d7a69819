package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/config"
)

// TextGenerator answers chat messages no rule matched.
type TextGenerator interface {
	GenerateReply(ctx context.Context, message string, profile *UserProfile) (string, error)
}

var errEmptyReply = errors.New("text generator returned an empty reply")

const assistantSystemPrompt = "You are Glow, the shopping assistant of an online beauty and fashion subscription box. " +
	"The store sells women's, men's and kids' clothing, laptops and skincare. " +
	"Customers build a monthly, quarterly or yearly box and can add or remove products at any time. " +
	"Answer in two or three friendly sentences, suggest product types rather than inventing product names, " +
	"and never claim to have changed the customer's cart or order."

// cannedFallbacks are used whenever no generator is configured or it fails.
var cannedFallbacks = []string{
	"I'm not sure I caught that. You can ask me to show skincare, women's, men's or kids' picks, or say \"add <product> to my cart\".",
	"Happy to help! Try asking for serum recommendations, or tell me about your skin type.",
	"I can recommend products, add them to your cart, or take you to checkout. What would you like to do?",
	"Could you tell me a little more? For example, \"show me moisturizers\" or \"I have dry skin\".",
	"I'm still learning! Ask me about our skincare, clothing or laptops and I'll find something you'll love.",
}

// CannedFallbacks returns a copy of the fixed fallback lines.
func CannedFallbacks() []string {
	return append([]string(nil), cannedFallbacks...)
}

// buildPrompt adds what is known about the customer to their message.
func buildPrompt(message string, profile *UserProfile) string {
	if profile.Empty() {
		return message
	}
	var b strings.Builder
	b.WriteString("What I know about the customer:\n")
	if profile.SkinType != "" {
		fmt.Fprintf(&b, "- skin type: %s\n", profile.SkinType)
	}
	if len(profile.Concerns) > 0 {
		fmt.Fprintf(&b, "- concerns: %s\n", strings.Join(profile.Concerns, ", "))
	}
	if profile.AgeRange != "" {
		fmt.Fprintf(&b, "- age range: %s\n", profile.AgeRange)
	}
	if len(profile.Preferences) > 0 {
		fmt.Fprintf(&b, "- preferences: %s\n", strings.Join(profile.Preferences, ", "))
	}
	if len(profile.Categories) > 0 {
		cats := make([]string, len(profile.Categories))
		for i, c := range profile.Categories {
			cats[i] = string(c)
		}
		fmt.Fprintf(&b, "- browsed: %s\n", strings.Join(cats, ", "))
	}
	fmt.Fprintf(&b, "\nCustomer message: %s", message)
	return b.String()
}

// NewTextGenerator builds the configured generator. A nil generator with a nil
// error means replies always come from the canned list.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, func(), error) {
	noop := func() {}
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Warn().Msg("GEMINI_API_KEY not set, chat fallback will use canned replies")
			return nil, noop, nil
		}
		svc, err := NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMMaxRetries)
		if err != nil {
			return nil, noop, err
		}
		return svc, svc.Close, nil
	case "ollama":
		return NewOllamaGenerator(cfg.OllamaURL, cfg.OllamaModel, cfg.LLMTimeout), noop, nil
	default:
		return nil, noop, nil
	}
}
