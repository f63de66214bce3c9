package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// ReferenceTimezone is the IANA zone used when the system prompt states
	// the current date and time.
	ReferenceTimezone string

	// AuthTokens maps bearer tokens to principal identifiers, parsed from
	// APP_AUTH_TOKENS ("token:principal" pairs, comma separated).
	AuthTokens map[string]string

	ProviderTimeout time.Duration

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	GroqLargeModel string

	TelegramBotToken    string
	TelegramAPIBase     string
	TelegramSendTimeout time.Duration
	RelayProvider       string
	RelayFallbackText   string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "chatrelay"),
		ReferenceTimezone: envOrDefault("APP_REFERENCE_TIMEZONE", "UTC"),
		OpenRouterAPIKey:  stringsTrimSpace("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: envOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   envOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-r1-distill-llama-70b:free"),
		GroqAPIKey:        stringsTrimSpace("GROQ_API_KEY"),
		GroqBaseURL:       envOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:         envOrDefault("GROQ_MODEL", "llama3-8b-8192"),
		GroqLargeModel:    envOrDefault("GROQ_LARGE_MODEL", "llama3-70b-8192"),
		TelegramBotToken:  stringsTrimSpace("TELEGRAM_BOT_TOKEN"),
		TelegramAPIBase:   envOrDefault("TELEGRAM_API_BASE", "https://api.telegram.org"),
		RelayProvider:     envOrDefault("RELAY_PROVIDER", "groq"),
		RelayFallbackText: envOrDefault("RELAY_FALLBACK_TEXT", "Oops! AI backend error."),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),

		ShutdownTimeout:     15 * time.Second,
		ProviderTimeout:     60 * time.Second,
		TelegramSendTimeout: 10 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ProviderTimeout, err = durationFromEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TelegramSendTimeout, err = durationFromEnv("TELEGRAM_SEND_TIMEOUT", cfg.TelegramSendTimeout)
	if err != nil {
		return Config{}, err
	}

	cfg.AuthTokens, err = parseAuthTokens(stringsTrimSpace("APP_AUTH_TOKENS"))
	if err != nil {
		return Config{}, err
	}

	if _, err := time.LoadLocation(cfg.ReferenceTimezone); err != nil {
		return Config{}, fmt.Errorf("APP_REFERENCE_TIMEZONE invalid: %w", err)
	}
	if cfg.ProviderTimeout <= 0 {
		return Config{}, fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if cfg.TelegramSendTimeout <= 0 {
		return Config{}, fmt.Errorf("TELEGRAM_SEND_TIMEOUT must be positive")
	}

	return cfg, nil
}

// ReferenceLocation resolves the configured reference timezone. Load has
// already validated the name, so lookup failures fall back to UTC.
func (c Config) ReferenceLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseAuthTokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	if raw == "" {
		return tokens, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, principal, ok := strings.Cut(pair, ":")
		token = strings.TrimSpace(token)
		principal = strings.TrimSpace(principal)
		if !ok || token == "" || principal == "" {
			return nil, fmt.Errorf("APP_AUTH_TOKENS parse error: expected token:principal, got %q", pair)
		}
		tokens[token] = principal
	}
	return tokens, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
