// Package plaintext implements the minimal text extractor used by the
// upload endpoint: contract text arrives as UTF-8 plain text or is treated
// as such, since PDF/DOCX extraction is handled by an external collaborator.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Extractor reads the full body as UTF-8 text for any mimeType it is
// given; richer formats are expected to have already been converted
// upstream by an external extraction service.
type Extractor struct{}

// NewExtractor returns a pass-through text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads body fully and returns it as text, normalizing line endings.
func (e *Extractor) Extract(_ context.Context, _ string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return text, nil
}
