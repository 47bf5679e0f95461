package callback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akdino27/invoice-poc/internal/entity"
)

// SignatureHeader carries the HMAC tag on every callback request.
const SignatureHeader = "X-Callback-HMAC"

// SenderConfig configures the outcome sender.
type SenderConfig struct {
	BackendURL string        // base URL of the receiving backend
	Secret     string        // shared HMAC secret
	Timeout    time.Duration // generous; the receiver does synchronous work
}

// Sender posts signed outcomes to the backend. Delivery is at-least-once:
// failures are surfaced to the caller and never retried here, because the
// job's lock is already released by the time Deliver runs.
type Sender struct {
	cfg  SenderConfig
	http *http.Client
	log  *slog.Logger
}

func NewSender(cfg SenderConfig, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	return &Sender{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

// Deliver serializes, signs, and posts one outcome. A 2xx response means the
// backend accepted it; anything else is an error.
func (s *Sender) Deliver(ctx context.Context, outcome *entity.Outcome) error {
	body, err := Canonicalize(outcome)
	if err != nil {
		return fmt.Errorf("serialize outcome: %w", err)
	}
	tag := Sign(body, s.cfg.Secret)

	url := strings.TrimRight(s.cfg.BackendURL, "/") + "/api/ai/callback"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, tag)

	start := time.Now()
	s.log.Info("callback.send", "job_id", outcome.JobID, "status", outcome.Status, "bytes", len(body))

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error("callback.send_error", "job_id", outcome.JobID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("callback request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.log.Warn("callback.body_close_error", "job_id", outcome.JobID, "error", cerr)
		}
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		s.log.Error("callback.rejected", "job_id", outcome.JobID,
			"http_status", resp.StatusCode, "response", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	s.log.Info("callback.accepted", "job_id", outcome.JobID, "status", outcome.Status,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
