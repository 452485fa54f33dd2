package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Env        string
	StatusAddr string

	// Discord
	DiscordBotToken string

	// Automation webhook (n8n)
	WebhookURL    string
	WebhookSecret string // Optional shared secret sent as x-willybot-secret

	// ElevenLabs
	ElevenLabsAPIKey       string
	ElevenLabsVoiceID      string
	ElevenLabsModelID      string
	ElevenLabsOutputFormat string

	// Moderation
	AislarDuration time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		StatusAddr: getEnv("STATUS_ADDR", ":8080"),

		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),

		WebhookURL:    getEnv("N8N_WEBHOOK_URL", ""),
		WebhookSecret: getEnv("WILLYBOT_SECRET", ""),

		ElevenLabsAPIKey:       getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:      getEnv("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsModelID:      getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		ElevenLabsOutputFormat: getEnv("ELEVENLABS_OUTPUT_FORMAT", "opus_48000_64"),

		AislarDuration: getEnvDuration("AISLAR_DURATION", 5*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
// ElevenLabs credentials are deliberately not required here: their absence
// is surfaced as a user-visible message when /willytts is invoked.
func (c *Config) Validate() error {
	if c.DiscordBotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.WebhookURL == "" {
		return fmt.Errorf("N8N_WEBHOOK_URL is required")
	}
	return nil
}

// HasElevenLabs reports whether the TTS credentials are configured
func (c *Config) HasElevenLabs() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsVoiceID != ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
