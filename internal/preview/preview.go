// Package preview renders a static, read-only representation of one
// formatted artifact entirely client-side. It predates the live editor
// integration and remains the fallback when the editor runtime is
// unavailable: one fetch of the raw bytes, no runtime, no save barrier,
// nothing mutated.
package preview

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ledongthuc/pdf"

	"github.com/resumekit/resumedesk/internal/domain"
)

// Fetcher supplies raw artifact bytes, keyed by the backend filename.
type Fetcher interface {
	Download(ctx context.Context, filename string) ([]byte, error)
}

// Renderer produces terminal previews of artifacts.
type Renderer struct {
	fetcher Fetcher
}

// NewRenderer creates a preview renderer over the given fetcher.
func NewRenderer(fetcher Fetcher) *Renderer {
	return &Renderer{fetcher: fetcher}
}

// Render fetches target once and renders it read-only to the given width.
// PDF and DOCX artifacts are reduced to extracted text; everything else
// is treated as text and run through the markdown renderer, which leaves
// plain prose readable.
func (r *Renderer) Render(ctx context.Context, target domain.FormatResult, width int) (string, error) {
	data, err := r.fetcher.Download(ctx, target.Filename)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target.Filename, err)
	}

	switch strings.ToLower(filepath.Ext(target.Filename)) {
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("reading pdf %s: %w", target.Filename, err)
		}
		return renderText(text, width), nil
	case ".docx":
		text, err := extractDOCX(data)
		if err != nil {
			return "", fmt.Errorf("reading docx %s: %w", target.Filename, err)
		}
		return renderText(text, width), nil
	default:
		return renderMarkdown(string(data), width), nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX pulls the document body text out of the OOXML package,
// inserting a newline at each paragraph and line break.
func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// renderMarkdown renders content with glamour, falling back to plain
// wrapping if the renderer cannot be built.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wrapText(content, width)
	}

	rendered, err := r.Render(content)
	if err != nil {
		return wrapText(content, width)
	}

	return strings.TrimSuffix(rendered, "\n")
}

func renderText(text string, width int) string {
	return wrapText(strings.TrimSpace(text), width)
}

// wrapText wraps at word boundaries, preserving existing line breaks.
func wrapText(content string, width int) string {
	if width < 1 {
		width = 80
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		if len(line) <= width {
			out = append(out, line)
			continue
		}

		var current strings.Builder
		for _, word := range strings.Fields(line) {
			if current.Len() > 0 && current.Len()+1+len(word) > width {
				out = append(out, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
		if current.Len() > 0 {
			out = append(out, current.String())
		}
	}
	return strings.Join(out, "\n")
}
