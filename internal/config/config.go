// Package config loads worker configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Drive    DriveConfig
	LLM      LLMConfig
	Callback CallbackConfig
	Worker   WorkerConfig
	Server   ServerConfig
}

// DatabaseConfig holds connection settings for the shared job table.
type DatabaseConfig struct {
	DSN              string        `env:"DB_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0"`
}

// DriveConfig holds settings for the source-file download transport.
type DriveConfig struct {
	BaseURL         string        `env:"DRIVE_BASE_URL" envDefault:"https://www.googleapis.com/drive/v3"`
	AccessToken     string        `env:"DRIVE_ACCESS_TOKEN"`
	DownloadTimeout time.Duration `env:"DRIVE_DOWNLOAD_TIMEOUT" envDefault:"300s"`
	MaxRetries      int           `env:"DRIVE_MAX_RETRIES" envDefault:"3"`
}

// LLMConfig holds settings for the structured-extraction model.
type LLMConfig struct {
	APIKey       string        `env:"GROQ_API_KEY"`
	BaseURL      string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model        string        `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	Temperature  float32       `env:"GROQ_TEMPERATURE" envDefault:"0.0"`
	Timeout      time.Duration `env:"GROQ_TIMEOUT" envDefault:"90s"`
	MaxTextChars int           `env:"LLM_MAX_TEXT_CHARS" envDefault:"10000"`
}

// CallbackConfig holds settings for outcome delivery to the backend.
type CallbackConfig struct {
	BackendURL string        `env:"BACKEND_URL"`
	Secret     string        `env:"CALLBACK_SECRET"`
	Timeout    time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"180s"`
}

// WorkerConfig holds the poll-loop settings.
type WorkerConfig struct {
	ID             string        `env:"WORKER_ID" envDefault:"worker-1"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT" envDefault:"10m"`
	MinTextChars   int           `env:"MIN_TEXT_CHARS" envDefault:"50"`
}

// ServerConfig holds the operational HTTP surface settings.
type ServerConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8090"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &c, nil
}

// Validate checks the fields the worker cannot start without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.Callback.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.Callback.Secret == "" {
		return fmt.Errorf("CALLBACK_SECRET is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.Drive.AccessToken == "" {
		return fmt.Errorf("DRIVE_ACCESS_TOKEN is required")
	}
	return nil
}
