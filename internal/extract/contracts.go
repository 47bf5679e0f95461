// Package extract defines the text-extraction contract the pipeline depends
// on, with one implementation per supported content family.
package extract

import "context"

// TextExtractor turns raw file bytes into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}
