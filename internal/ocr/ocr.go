// Package ocr extracts text from invoice documents by shelling out to
// tesseract (images) and pdftotext (PDFs). Both read the document from stdin
// so no temp files are needed.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	Pdftotext     string // binary name or absolute path; if empty -> "pdftotext"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // page segmentation mode; 0 = tesseract default
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// ExtractImage runs tesseract over the image bytes.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte) (string, error) {
	args := []string{"stdin", "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, data, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// ExtractPDF runs pdftotext over the PDF bytes, preserving layout.
func (e *Extractor) ExtractPDF(ctx context.Context, data []byte) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix - -
	out, errb, err := e.runner.Run(ctx, data, e.cfg.Pdftotext,
		"-layout", "-enc", "UTF-8", "-eol", "unix", "-", "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
