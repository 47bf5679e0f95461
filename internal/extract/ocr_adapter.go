package extract

import (
	"context"

	"github.com/akdino27/invoice-poc/internal/ocr"
)

// ImageAdapter exposes the image-OCR path as a TextExtractor.
type ImageAdapter struct {
	e *ocr.Extractor
}

func NewImageAdapter(e *ocr.Extractor) *ImageAdapter {
	return &ImageAdapter{e: e}
}

func (a *ImageAdapter) ExtractText(ctx context.Context, data []byte) (string, error) {
	return a.e.ExtractImage(ctx, data)
}

// PDFAdapter exposes the PDF-text path as a TextExtractor.
type PDFAdapter struct {
	e *ocr.Extractor
}

func NewPDFAdapter(e *ocr.Extractor) *PDFAdapter {
	return &PDFAdapter{e: e}
}

func (a *PDFAdapter) ExtractText(ctx context.Context, data []byte) (string, error) {
	return a.e.ExtractPDF(ctx, data)
}
