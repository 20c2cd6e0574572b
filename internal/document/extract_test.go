package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

func TestExtractor_CanExtract(t *testing.T) {
	e := NewExtractor()

	assert.True(t, e.CanExtract("manuale.pdf"))
	assert.True(t, e.CanExtract("MANUALE.PDF"))
	assert.True(t, e.CanExtract("note.txt"))
	assert.True(t, e.CanExtract("guida.md"))
	assert.False(t, e.CanExtract("foto.jpg"))
	assert.False(t, e.CanExtract("senza_estensione"))
}

func TestExtractor_ExtractPlainText(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract(strings.NewReader("  istruzioni per la caldaia\n"), "caldaia.txt")

	require.NoError(t, err)
	assert.Equal(t, "istruzioni per la caldaia", text)
}

func TestExtractor_UnsupportedType(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(strings.NewReader("dati"), "foto.jpg")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
}

func TestExtractor_InvalidPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(strings.NewReader("questo non è un pdf"), "finto.pdf")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
}
