// Package drive downloads source files from Google Drive. It owns its own
// bounded retry policy; callers see only the final error.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL     string        // default https://www.googleapis.com/drive/v3
	AccessToken string        // bearer token with drive.readonly scope
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // download attempts before giving up
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/drive/v3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Fetch downloads the file contents by Drive file ID. Failed attempts back
// off exponentially (2^attempt seconds) up to MaxRetries.
func (c *Client) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/files/%s?alt=media", strings.TrimRight(c.cfg.BaseURL, "/"), fileID)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		data, err := c.download(ctx, url)
		if err == nil {
			c.log.Info("drive.download.ok", "file_id", fileID, "bytes", len(data), "attempt", attempt)
			return data, nil
		}
		lastErr = err
		c.log.Warn("drive.download.attempt_failed",
			"file_id", fileID, "attempt", attempt, "max_retries", c.cfg.MaxRetries, "error", err)

		if attempt < c.cfg.MaxRetries {
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("download %s after %d attempts: %w", fileID, c.cfg.MaxRetries, lastErr)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("drive status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return io.ReadAll(resp.Body)
}
