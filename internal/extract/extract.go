// Package extract pulls plain text out of the supported document formats and
// infers coarse category labels from file names.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned for file extensions the ingestor does not handle.
var ErrUnsupported = errors.New("unsupported file type")

// Meta describes the provenance of extracted text.
type Meta struct {
	Source   string // origin file name
	Type     string // ingestion format tag: "txt", "pdf" or "docx"
	Category string // inferred document category, empty when unknown
}

// Supported reports whether the ingestor handles the given extension.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}

// File extracts text and metadata from the document at path.
func File(path string) (string, Meta, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return fromTxt(path)
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDocx(path)
	}
	return "", Meta{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Category infers a document category from case-insensitive substring matches
// on the file name. Checked in priority order, first match wins.
func Category(filename string) string {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "emp"):
		return "employment"
	case strings.Contains(name, "edu"):
		return "education"
	case strings.Contains(name, "add"), strings.Contains(name, "address"):
		return "address"
	case strings.Contains(name, "misc"), strings.Contains(name, "criminal"):
		// Misc packets carry red flags, criminal checks and similar
		// compliance material.
		return "compliance"
	}
	return ""
}

func fromTxt(path string) (string, Meta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", Meta{}, fmt.Errorf("read txt: %w", err)
	}
	return string(raw), Meta{Source: filepath.Base(path), Type: "txt"}, nil
}

func fromPDF(path string) (string, Meta, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", Meta{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", Meta{}, fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	meta := Meta{
		Source:   filepath.Base(path),
		Type:     "pdf",
		Category: Category(filepath.Base(path)),
	}
	return b.String(), meta, nil
}

func fromDocx(path string) (string, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", Meta{}, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", Meta{}, fmt.Errorf("stat docx: %w", err)
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", Meta{}, fmt.Errorf("parse docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}
	return strings.Join(paragraphs, "\n"), Meta{Source: filepath.Base(path), Type: "docx"}, nil
}
