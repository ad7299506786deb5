package document

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Extractor turns a document into best-effort plain text.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// PDFExtractor extracts text page by page. Pages without text are skipped and
// the remaining pages are joined with a single newline, in page order.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, doc Document) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Name: doc.Name, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}

// DOCXExtractor extracts paragraph text from Word documents.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(doc.Data) == 0 {
		return "", &ExtractionError{Name: doc.Name, Err: errors.New("empty docx data")}
	}

	parsed, err := docx.ReadDocxFromMemory(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}
	defer parsed.Close()

	text, err := stripDocxXML(parsed.Editable().GetContent())
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}
	return text, nil
}

// TextExtractor passes UTF-8 text documents through.
type TextExtractor struct{}

func (TextExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !utf8.Valid(doc.Data) {
		return "", &ExtractionError{Name: doc.Name, Err: errors.New("not a valid utf-8 text document")}
	}
	return strings.TrimSpace(string(doc.Data)), nil
}

// AutoExtractor picks an extractor from the file extension and falls back to
// content sniffing. Unknown binary content is treated as PDF, the primary
// upload format, so that it fails with a PDF parse error.
type AutoExtractor struct {
	PDF  Extractor
	DOCX Extractor
	Text Extractor
}

// NewAutoExtractor returns an AutoExtractor wired with the default extractors.
func NewAutoExtractor() *AutoExtractor {
	return &AutoExtractor{
		PDF:  PDFExtractor{},
		DOCX: DOCXExtractor{},
		Text: TextExtractor{},
	}
}

func (a *AutoExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	return a.pick(doc).Extract(ctx, doc)
}

func (a *AutoExtractor) pick(doc Document) Extractor {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return a.PDF
	case ".docx":
		return a.DOCX
	case ".txt", ".md":
		return a.Text
	}

	switch {
	case bytes.HasPrefix(doc.Data, pdfMagic):
		return a.PDF
	case bytes.HasPrefix(doc.Data, zipMagic):
		return a.DOCX
	case len(doc.Data) > 0 && utf8.Valid(doc.Data):
		return a.Text
	default:
		return a.PDF
	}
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteString("\n")
			}
		}
	}

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}
