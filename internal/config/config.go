package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config is read from BOX_-prefixed variables; the unprefixed names are accepted too.
type Config struct {
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:"beautybox.db"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret   string `envconfig:"JWT_SECRET"`

	LLMProvider   string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash-latest"`
	OllamaURL     string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel   string        `envconfig:"OLLAMA_MODEL" default:"llama3.2"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"20s"`
	LLMMaxRetries uint64        `envconfig:"LLM_MAX_RETRIES" default:"2"`

	WSBuffer int `envconfig:"WS_BUFFER" default:"16"`
}

var AppConfig Config

// LoadConfig reads .env (if present) and the environment into AppConfig.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := envconfig.Process("BOX", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("store_driver", cfg.StoreDriver).
		Str("llm_provider", cfg.LLMProvider).
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.StoreDriver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	switch c.LLMProvider {
	case "gemini", "ollama", "none":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLMProvider)
	}
	if c.WSBuffer <= 0 {
		c.WSBuffer = 16
	}
	return nil
}
