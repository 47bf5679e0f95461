// Package filetype routes documents to an extraction pipeline based on the
// content type sniffed from file bytes. The declared type from the upload
// metadata is never trusted on its own.
package filetype

import (
	"net/http"
	"strings"
)

// Pipeline selects the extraction path for a detected content type.
type Pipeline string

const (
	PipelineImage       Pipeline = "image"
	PipelinePDF         Pipeline = "pdf"
	PipelineUnsupported Pipeline = "unsupported"
)

// aliasGroups collects spellings that name the same underlying type.
var aliasGroups = [][]string{
	{"application/pdf"},
	{"image/jpeg", "image/jpg"},
	{"image/png"},
}

// Detect sniffs the MIME type from the leading file bytes (magic numbers).
func Detect(data []byte) string {
	mime := http.DetectContentType(data)
	// DetectContentType may append parameters ("text/plain; charset=utf-8").
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

// Equivalent reports whether detected and declared name the same type,
// treating known aliases (image/jpg vs image/jpeg) as equal.
func Equivalent(detected, declared string) bool {
	if detected == declared {
		return true
	}
	for _, group := range aliasGroups {
		if contains(group, detected) && contains(group, declared) {
			return true
		}
	}
	return false
}

// Classify maps a detected MIME type to its pipeline. Anything unhandled is
// Unsupported, which callers treat as a terminal data problem, not a failure.
func Classify(mime string) Pipeline {
	switch mime {
	case "image/jpeg", "image/jpg", "image/png":
		return PipelineImage
	case "application/pdf":
		return PipelinePDF
	default:
		return PipelineUnsupported
	}
}

func contains(group []string, s string) bool {
	for _, g := range group {
		if g == s {
			return true
		}
	}
	return false
}
