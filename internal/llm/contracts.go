// Package llm defines the structured-extraction contract: normalized invoice
// text in, a validated invoice record out.
package llm

import (
	"context"

	"github.com/akdino27/invoice-poc/internal/entity"
)

// InvoiceExtractor is the interface the pipeline depends on. The raw model
// output is returned alongside the record for logging and diagnostics.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, text string) (*entity.Invoice, []byte /*rawJSON*/, error)
}

// TruncateText caps input length for the model, marking the cut.
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + "\n\n[Text truncated due to length...]"
}
