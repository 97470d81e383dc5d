// Package llm wraps the generative model used to read uploaded documents.
package llm

import "context"

// TextExtractor turns a document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, mimeType string, data []byte) (string, error)
	Close() error
}
