package services

import (
	"bytes"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"ocr-worker/domain"
)

// OcrService extracts text from PDF bytes. The embedded text layer is tried
// first; pages are rasterized and run through Tesseract only when the embedded
// text fails the quality check.
type OcrService struct {
	tessdataDir string
	languages   []string
	dpi         int
}

// NewOcrService validates at startup that the trained data files for every
// configured language are present, so a misconfigured container fails fast
// instead of on the first message.
func NewOcrService(tessdataDir, languages string, dpi int) (*OcrService, error) {
	langs := strings.Split(languages, "+")
	for _, lang := range langs {
		path := filepath.Join(tessdataDir, lang+".traineddata")
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return nil, fmt.Errorf("invalid tessdata directory %s: missing %s.traineddata", tessdataDir, lang)
		}
	}

	log.Printf("OCR engine init: tessdata=%s lang=%s dpi=%d", tessdataDir, languages, dpi)
	return &OcrService{
		tessdataDir: tessdataDir,
		languages:   langs,
		dpi:         dpi,
	}, nil
}

func (s *OcrService) Extract(pdfBytes []byte) (domain.ExtractionResult, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return domain.ExtractionResult{}, domain.FatalError("malformed PDF bytes", err)
	}
	defer doc.Close()

	embedded, err := extractEmbedded(doc)
	if err == nil && isGoodEnough(embedded) {
		return domain.ExtractionResult{Text: embedded, Source: domain.SourceEmbedded}, nil
	}

	text, err := s.extractWithOcr(doc)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return domain.ExtractionResult{Text: text, Source: domain.SourceOcr}, nil
}

// extractEmbedded pulls the text layer page by page in reading order. Sparse
// or empty output here usually means a scanned document.
func extractEmbedded(doc *fitz.Document) (string, error) {
	var out strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", err
		}
		out.WriteString(pageText)
	}
	return strings.TrimSpace(out.String()), nil
}

func (s *OcrService) extractWithOcr(doc *fitz.Document) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetTessdataPrefix(s.tessdataDir); err != nil {
		return "", domain.RetryableError("failed to configure tessdata path", err)
	}
	if err := client.SetLanguage(s.languages...); err != nil {
		return "", domain.RetryableError("failed to configure OCR languages", err)
	}

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, float64(s.dpi))
		if err != nil {
			return "", domain.FatalError(fmt.Sprintf("failed to rasterize page %d", n+1), err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", domain.RetryableError(fmt.Sprintf("failed to encode page %d", n+1), err)
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return "", domain.RetryableError(fmt.Sprintf("failed to load page %d into OCR engine", n+1), err)
		}
		pageText, err := client.Text()
		if err != nil {
			return "", domain.RetryableError(fmt.Sprintf("OCR failed on page %d", n+1), err)
		}
		pages = append(pages, pageText)
	}
	return concatPages(pages), nil
}

// concatPages joins non-blank page outputs with a page marker. Blank pages
// contribute neither text nor marker; the first kept page has no marker.
func concatPages(pages []string) string {
	var out strings.Builder
	for n, pageText := range pages {
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if out.Len() > 0 {
			fmt.Fprintf(&out, "\n\n--- Page %d ---\n\n", n+1)
		}
		out.WriteString(pageText)
	}
	return out.String()
}

// isGoodEnough rejects the sparse or empty text that embedded extraction
// yields for scanned PDFs: at least 20 characters, at least half of them
// non-whitespace.
func isGoodEnough(text string) bool {
	total := utf8.RuneCountInString(text)
	if total < 20 {
		return false
	}
	nonWhitespace := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			nonWhitespace++
		}
	}
	return float64(nonWhitespace) >= float64(total)*0.5
}
