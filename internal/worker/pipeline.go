package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/akdino27/invoice-poc/internal/entity"
	"github.com/akdino27/invoice-poc/internal/extract"
	"github.com/akdino27/invoice-poc/internal/filetype"
	"github.com/akdino27/invoice-poc/internal/llm"
	"github.com/akdino27/invoice-poc/internal/ocr"
	"github.com/akdino27/invoice-poc/internal/validate"
)

// PipelineConfig tunes the per-job processing stages.
type PipelineConfig struct {
	// MinTextChars is the minimum amount of extracted text worth sending to
	// the model. Shorter documents are reported as INVALID.
	MinTextChars int
}

// Pipeline processes one claimed job end to end and always produces exactly
// one Outcome. It never touches the job store: claiming and lock release are
// the supervisor's responsibility.
type Pipeline struct {
	cfg       PipelineConfig
	files     FileFetcher
	imageText extract.TextExtractor
	pdfText   extract.TextExtractor
	extractor llm.InvoiceExtractor
	log       *slog.Logger
}

// NewPipeline wires the processing stages together.
func NewPipeline(cfg PipelineConfig, files FileFetcher, imageText, pdfText extract.TextExtractor, extractor llm.InvoiceExtractor, logger *slog.Logger) *Pipeline {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		files:     files,
		imageText: imageText,
		pdfText:   pdfText,
		extractor: extractor,
		log:       logger,
	}
}

// Process runs the stages for one job: download, content-type verification,
// text extraction, structured extraction, arithmetic validation. The returned
// outcome distinguishes unusable input (INVALID) from processing failures
// (FAILED); only the latter should be retried by the producer.
func (p *Pipeline) Process(ctx context.Context, job *entity.Job, workerID string) *entity.Outcome {
	jobID := job.ID.String()
	payload := job.Payload
	log := p.log.With("job_id", jobID, "file_id", payload.FileID, "file", payload.OriginalName)

	data, err := p.files.Fetch(ctx, payload.FileID)
	if err != nil {
		log.Error("pipeline.fetch_failed", "error", err)
		return entity.FailedOutcome(jobID, workerID, fmt.Sprintf("download failed: %v", err))
	}
	log.Info("pipeline.fetched", "bytes", len(data))

	detected := filetype.Detect(data)
	if !filetype.Equivalent(detected, payload.MimeType) {
		log.Warn("pipeline.mime_mismatch", "declared", payload.MimeType, "detected", detected)
		return entity.InvalidOutcome(jobID, workerID,
			fmt.Sprintf("content type mismatch: declared %s, detected %s", payload.MimeType, detected))
	}

	var text string
	switch filetype.Classify(detected) {
	case filetype.PipelineImage:
		text, err = p.imageText.ExtractText(ctx, data)
		if err != nil {
			log.Error("pipeline.ocr_failed", "error", err)
			return entity.FailedOutcome(jobID, workerID, fmt.Sprintf("image OCR failed: %v", err))
		}
		text = ocr.Normalize(text)
	case filetype.PipelinePDF:
		text, err = p.pdfText.ExtractText(ctx, data)
		if err != nil {
			log.Error("pipeline.pdf_text_failed", "error", err)
			return entity.FailedOutcome(jobID, workerID, fmt.Sprintf("pdf text extraction failed: %v", err))
		}
		text = strings.TrimSpace(text)
	default:
		log.Warn("pipeline.unsupported_type", "detected", detected)
		return entity.InvalidOutcome(jobID, workerID, fmt.Sprintf("unsupported content type: %s", detected))
	}

	chars := utf8.RuneCountInString(text)
	if chars < p.cfg.MinTextChars {
		log.Warn("pipeline.insufficient_text", "chars", chars, "min", p.cfg.MinTextChars)
		return entity.InvalidOutcome(jobID, workerID,
			fmt.Sprintf("insufficient text extracted: %d chars (minimum %d)", chars, p.cfg.MinTextChars))
	}
	log.Info("pipeline.text_extracted", "chars", chars)

	inv, _, err := p.extractor.ExtractInvoice(ctx, text)
	if err != nil {
		log.Error("pipeline.extract_failed", "error", err)
		return entity.FailedOutcome(jobID, workerID, fmt.Sprintf("invoice extraction failed: %v", err))
	}

	if err := validate.Invoice(inv); err != nil {
		log.Warn("pipeline.validation_failed", "invoice", inv.InvoiceNumber, "error", err)
		return entity.FailedOutcome(jobID, workerID, fmt.Sprintf("invoice validation failed: %v", err))
	}

	log.Info("pipeline.completed", "invoice", inv.InvoiceNumber, "total", inv.TotalAmount)
	return entity.CompletedOutcome(jobID, workerID, inv)
}
