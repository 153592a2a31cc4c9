// Package ingestion turns uploaded or on-disk resume files into pipeline
// input: plain text is cleaned, PDFs pass through opaque with their MIME
// type, Word documents go through an external text extractor.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source is one ingested resume. Exactly one of Text or Data is set.
type Source struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsDocument reports whether the source is a binary attachment.
func (s *Source) IsDocument() bool {
	return len(s.Data) > 0
}

const mimePDF = "application/pdf"

// WordExtractor converts a .docx payload to plain text. Extraction is an
// external collaborator; the builder never parses Word documents itself.
type WordExtractor interface {
	ExtractText(data []byte) (string, error)
}

// UnsupportedFormatError is returned for file types the builder cannot
// ingest.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported resume format %q: use .txt, .md, .pdf or .docx", e.Extension)
}

// WordExtractionError is returned when a .docx document cannot be read.
type WordExtractionError struct {
	Err error
}

func (e *WordExtractionError) Error() string {
	return "could not read Word document"
}

func (e *WordExtractionError) Unwrap() error {
	return e.Err
}

// Ingestor builds pipeline sources from resume files. The word extractor
// is optional; without one .docx uploads are rejected.
type Ingestor struct {
	word WordExtractor
}

// New creates an Ingestor.
func New(word WordExtractor) *Ingestor {
	return &Ingestor{word: word}
}

// FromUpload builds a Source from an uploaded file's name and contents.
func (i *Ingestor) FromUpload(filename string, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("uploaded file %q is empty", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".text":
		return FromText(string(data))
	case ".pdf":
		return &Source{MIMEType: mimePDF, Data: data}, nil
	case ".docx":
		return i.fromWord(data)
	default:
		return nil, &UnsupportedFormatError{Extension: ext}
	}
}

// FromFile reads and ingests a resume file from disk.
func (i *Ingestor) FromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return i.FromUpload(filepath.Base(path), data)
}

// fromWord runs the external extraction and cleans the result like any
// other text source.
func (i *Ingestor) fromWord(data []byte) (*Source, error) {
	if i.word == nil {
		return nil, &WordExtractionError{Err: fmt.Errorf("no word extractor configured")}
	}
	text, err := i.word.ExtractText(data)
	if err != nil {
		return nil, &WordExtractionError{Err: err}
	}
	return FromText(text)
}

// FromText builds a Source from pasted resume text.
func FromText(text string) (*Source, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("resume text is empty")
	}
	return &Source{Text: cleaned}, nil
}
