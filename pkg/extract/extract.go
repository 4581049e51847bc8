// Package extract pulls plain text out of uploaded requirements documents.
// Extraction is best effort; fidelity is not guaranteed.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// Extractor turns a binary document into plain text.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// DocumentExtractor handles PDF and plain-text documents.
type DocumentExtractor struct{}

// Ensure DocumentExtractor implements Extractor interface at compile time
var _ Extractor = DocumentExtractor{}

// Extract sniffs the content and extracts text accordingly.
func (DocumentExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty document: %s", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if isPDF(data) {
		return extractPDF(data)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return collapseWhitespace(string(data)), nil
	}
	if ext == ".pdf" {
		return "", fmt.Errorf("file %s claims pdf but is missing the %%PDF header", name)
	}
	return "", fmt.Errorf("unsupported document type: %s", name)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

var (
	spaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// collapseWhitespace squeezes horizontal whitespace and keeps at most one blank line.
func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
