package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider      string // openai, anthropic, ollama
	AnthropicKey     string // API key (X-Api-Key header)
	AnthropicToken   string // OAuth token (Authorization: Bearer header)
	OpenAIKey        string
	OpenAIBaseURL    string
	LLMModel         string
	OllamaBaseURL    string
	MaxContextTokens int

	TTSVoice  string
	TTSModel  string
	VoiceMock bool // silent audio instead of the speech API

	DatabasePath string
	MediaDir     string
	PublicURL    string

	HTTPAddr    string
	CORSOrigins []string
	AuthHeader  string // trusted header carrying the user id

	Timezone           string
	PhaseSyncCron      string
	SessionIdleTimeout time.Duration

	DiscordToken   string
	DiscordWebhook string

	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	return &Config{
		LLMProvider:      envOr("LLM_PROVIDER", "openai"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken:   os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		OllamaBaseURL:    envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 32000),

		TTSVoice:  envOr("TTS_VOICE", "nova"),
		TTSModel:  envOr("TTS_MODEL", "tts-1"),
		VoiceMock: envBool("VOICE_MOCK", false),

		DatabasePath: envOr("DATABASE_PATH", "./mira.db"),
		MediaDir:     envOr("MEDIA_DIR", "./data/media"),
		PublicURL:    envOr("PUBLIC_URL", "http://localhost:8080"),

		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		CORSOrigins: envList("CORS_ORIGINS"),
		AuthHeader:  envOr("AUTH_HEADER", "X-Mira-User"),

		Timezone:           envOr("TIMEZONE", "UTC"),
		PhaseSyncCron:      envOr("PHASE_SYNC_CRON", "@every 1m"),
		SessionIdleTimeout: envDuration("SESSION_IDLE_TIMEOUT", 10*time.Minute),

		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordWebhook: os.Getenv("DISCORD_WEBHOOK_URL"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LLMKey picks the API key and base URL for the configured provider.
func (c *Config) LLMKey() (apiKey, baseURL string) {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicKey, ""
	case "ollama":
		return "", c.OllamaBaseURL
	default:
		return c.OpenAIKey, c.OpenAIBaseURL
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
