package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ocr-worker/domain"
)

// makePDF assembles a minimal single-page PDF with the given text in its
// embedded text layer, computing the xref offsets at build time.
func makePDF(text string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
	}
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects = append(objects,
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)

	var out strings.Builder
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return []byte(out.String())
}

func newTestOcrService(t *testing.T) *OcrService {
	t.Helper()
	tessdata := t.TempDir()
	for _, lang := range []string{"deu", "eng"} {
		err := os.WriteFile(filepath.Join(tessdata, lang+".traineddata"), []byte("fake"), 0o644)
		assert.NoError(t, err)
	}
	svc, err := NewOcrService(tessdata, "deu+eng", 300)
	assert.NoError(t, err)
	return svc
}

func TestNewOcrService_MissingLanguageData(t *testing.T) {
	tessdata := t.TempDir()
	err := os.WriteFile(filepath.Join(tessdata, "eng.traineddata"), []byte("fake"), 0o644)
	assert.NoError(t, err)

	_, err = NewOcrService(tessdata, "deu+eng", 300)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deu.traineddata")
}

func TestIsGoodEnough(t *testing.T) {
	// At least 20 characters with a majority of non-whitespace
	assert.True(t, isGoodEnough("Dies ist ein vernünftiger Text aus einem PDF extrahiert."))
	assert.True(t, isGoodEnough("Invoice total: 42 EUR, paid in full."))

	// Shorter than 20 characters is always rejected, regardless of content
	assert.False(t, isGoodEnough(""))
	assert.False(t, isGoodEnough("Hi"))
	assert.False(t, isGoodEnough("abcdefghijklmnopqrs")) // 19 chars

	// Mostly whitespace
	assert.False(t, isGoodEnough("   .   .   .   .   .   .   "))
	assert.False(t, isGoodEnough(strings.Repeat(" ", 18)+"ab"))
}

func TestConcatPages(t *testing.T) {
	// Blank pages contribute neither text nor marker
	out := concatPages([]string{"first page", "   ", "third page"})
	assert.Equal(t, "first page\n\n--- Page 3 ---\n\nthird page", out)

	// First kept page has no marker
	out = concatPages([]string{"", "only page"})
	assert.Equal(t, "only page", out)

	assert.Equal(t, "", concatPages([]string{"", "  \n ", ""}))
	assert.Equal(t, "", concatPages(nil))
}

func TestExtract_EmbeddedText(t *testing.T) {
	svc := newTestOcrService(t)
	pdf := makePDF("Invoice total: 42 EUR, paid in full.")

	result, err := svc.Extract(pdf)
	assert.NoError(t, err)
	assert.Equal(t, domain.SourceEmbedded, result.Source)
	assert.Equal(t, "Invoice total: 42 EUR, paid in full.", result.Text)
}

func TestExtract_EmbeddedText_Repeatable(t *testing.T) {
	svc := newTestOcrService(t)
	pdf := makePDF("A perfectly normal text layer with enough characters.")

	first, err := svc.Extract(pdf)
	assert.NoError(t, err)
	second, err := svc.Extract(pdf)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.SourceEmbedded, second.Source)
}

func TestExtract_MalformedBytes(t *testing.T) {
	svc := newTestOcrService(t)

	_, err := svc.Extract([]byte("this is not a pdf at all"))
	assert.Error(t, err)
	assert.True(t, domain.IsFatal(err))
}
