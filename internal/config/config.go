// Package config loads harness configuration from the environment,
// with an optional .env file for local runs.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the validation harness.
type Config struct {
	// OpenAI pipeline configuration
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// LiveKit deployment the conversation runs through
	LiveKitURL       string `envconfig:"LIVEKIT_URL"`
	LiveKitAPIKey    string `envconfig:"LIVEKIT_API_KEY"`
	LiveKitAPISecret string `envconfig:"LIVEKIT_API_SECRET"`

	// Harness file layout
	BaselineDir string `envconfig:"BASELINE_DIR" default:"tests/baselines"`
	AudioDir    string `envconfig:"AUDIO_DIR" default:"audio_samples"`
	OutputDir   string `envconfig:"OUTPUT_DIR" default:"test_outputs"`

	// Noise generation seed, fixed so degraded audio is reproducible
	NoiseSeed int64 `envconfig:"NOISE_SEED" default:"20240115"`

	// LogLevel: debug, info, warn, error
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// RequirePipeline validates the fields needed to call the live voice
// pipeline. Runs against the fake robot don't need them.
func (c *Config) RequirePipeline() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for live pipeline runs")
	}
	return nil
}

// RequireLiveKit validates the fields needed to join a LiveKit room.
func (c *Config) RequireLiveKit() error {
	if c.LiveKitURL == "" {
		return fmt.Errorf("LIVEKIT_URL is required")
	}
	if c.LiveKitAPIKey == "" || c.LiveKitAPISecret == "" {
		return fmt.Errorf("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
	}
	return nil
}
