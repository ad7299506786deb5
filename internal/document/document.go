package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// Document is an uploaded file: its display name and raw content.
type Document struct {
	Name string
	Data []byte
}

// New creates a document. The name is kept exactly as given: it becomes the
// candidate name of the result row.
func New(name string, data []byte) Document {
	return Document{Name: name, Data: data}
}

// ReadFile loads a document from disk, using the base file name as its display name.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document %q: %w", path, err)
	}
	return New(filepath.Base(path), data), nil
}

// ReadFiles loads every path in order.
func ReadFiles(paths []string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ExtractionError reports that a document could not be parsed at all.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %q: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
