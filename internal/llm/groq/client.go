package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akdino27/invoice-poc/internal/entity"
	"github.com/akdino27/invoice-poc/internal/llm"
)

const systemPrompt = `You are an expert invoice data extraction system.

Extract structured invoice data from the provided text and return ONLY valid JSON.

CRITICAL FIELDS (must extract accurately):
1. InvoiceNumber: The invoice/receipt number (REQUIRED)
2. VendorName: The SELLER/COMPANY issuing the invoice (REQUIRED)
3. BillTo.Name: The CUSTOMER/BUYER name (who is being billed)
4. TotalAmount: The final total (REQUIRED)

Rules:
- Return ONLY a JSON object matching the provided schema, no prose.
- LineItems must contain every billed row with ProductName, ProductId, Quantity, UnitRate, Amount.
- Currency is a 3-letter ISO 4217 code; default to USD if uncertain.
- Never output null. If a field is not present, omit it.`

// ExtractInvoice implements llm.InvoiceExtractor over chat/completions.
func (c *Client) ExtractInvoice(ctx context.Context, text string) (*entity.Invoice, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	text = llm.TruncateText(text, c.cfg.MaxTextChars)
	schema := llm.BuildInvoiceJSONSchema()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": "Invoice text:\n\n" + text},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, raw, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices", "req_id", rid, "raw", string(raw))
		return nil, raw, fmt.Errorf("no choices in chat response")
	}

	content, err := llm.ExtractJSONContent(cc.Choices[0].Message.Content)
	if err != nil {
		c.log.Error("llm.extract.malformed_reply", "req_id", rid, "error", err)
		return nil, raw, err
	}
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, fmt.Errorf("schema validation failed: %w", err)
	}

	var inv entity.Invoice
	if err := json.Unmarshal(rawContent, &inv); err != nil {
		c.log.Error("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, rawContent, fmt.Errorf("unmarshal invoice: %w", err)
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"invoice_number", inv.InvoiceNumber,
		"vendor", inv.VendorName,
		"total", inv.TotalAmount,
		"line_items", len(inv.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &inv, rawContent, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq http error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("groq response body close error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("groq status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
