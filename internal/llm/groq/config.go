package groq

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Groq client. The API is OpenAI-compatible, so BaseURL can
// point at any chat/completions endpoint.
type Config struct {
	APIKey       string        // if empty, falls back to env GROQ_API_KEY
	BaseURL      string        // default https://api.groq.com/openai/v1
	Model        string        // e.g. "llama-3.3-70b-versatile"
	Temperature  float32       // 0..2
	Timeout      time.Duration // http client timeout
	MaxTextChars int           // input truncation bound; 0 = default 10000
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GROQ_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 10000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
