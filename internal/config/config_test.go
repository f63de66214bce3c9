package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.ReferenceTimezone != "UTC" {
		t.Fatalf("ReferenceTimezone = %q, want %q", cfg.ReferenceTimezone, "UTC")
	}
	if cfg.GroqModel != "llama3-8b-8192" {
		t.Fatalf("GroqModel = %q, want default", cfg.GroqModel)
	}
	if cfg.TelegramSendTimeout != 10*time.Second {
		t.Fatalf("TelegramSendTimeout = %v, want 10s", cfg.TelegramSendTimeout)
	}
	if len(cfg.AuthTokens) != 0 {
		t.Fatalf("AuthTokens = %v, want empty", cfg.AuthTokens)
	}
}

func TestLoadParsesAuthTokens(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_AUTH_TOKENS", "tok-a:alice, tok-b:bob")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AuthTokens["tok-a"] != "alice" || cfg.AuthTokens["tok-b"] != "bob" {
		t.Fatalf("AuthTokens = %v, want alice/bob mapping", cfg.AuthTokens)
	}
}

func TestLoadRejectsMalformedAuthTokens(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_AUTH_TOKENS", "token-without-principal")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want parse error")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_REFERENCE_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want timezone error")
	}
}

func TestReferenceLocation(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_REFERENCE_TIMEZONE", "Europe/Rome")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.ReferenceLocation().String(); got != "Europe/Rome" {
		t.Fatalf("ReferenceLocation() = %q, want %q", got, "Europe/Rome")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_REFERENCE_TIMEZONE",
		"APP_AUTH_TOKENS",
		"PROVIDER_TIMEOUT",
		"OPENROUTER_API_KEY",
		"OPENROUTER_BASE_URL",
		"OPENROUTER_MODEL",
		"GROQ_API_KEY",
		"GROQ_BASE_URL",
		"GROQ_MODEL",
		"GROQ_LARGE_MODEL",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_API_BASE",
		"TELEGRAM_SEND_TIMEOUT",
		"RELAY_PROVIDER",
		"RELAY_FALLBACK_TEXT",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
