package document

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

// Extractor turns uploaded documents into plain text for ingestion.
// Currently supports PDF and plain text files.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// CanExtract reports whether the filename carries a supported extension.
func (e *Extractor) CanExtract(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// Extract reads a document and returns its plain text.
func (e *Extractor) Extract(r io.Reader, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(r)
	case ".txt", ".md":
		data, err := io.ReadAll(r)
		if err != nil {
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read document", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", domain.NewDomainError(domain.ErrCodeValidation, "unsupported document type: "+filepath.Ext(filename))
	}
}

func (e *Extractor) extractPDF(r io.Reader) (string, error) {
	// pdf.NewReader needs a ReaderAt, so buffer the upload.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to read document", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to open PDF", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Unparseable pages are skipped, not fatal.
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "PDF contains no extractable text")
	}
	return content, nil
}
