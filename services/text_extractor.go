package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/sahilchouksey/course-week-planner/utils"
)

var (
	// ErrUnsupportedMimeType is returned for documents no extractor handles
	ErrUnsupportedMimeType = errors.New("unsupported mime type")
	// ErrNoText is returned when a document yields no usable text
	ErrNoText = errors.New("no text extracted")
)

// minExtractedChars below this a PDF is treated as scanned/image-based
const minExtractedChars = 50

// TextExtractor turns uploaded document bytes into plain text
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, mimeType string) (string, error)
}

// DocumentTextExtractor extracts text from PDFs (ledongthuc/pdf) and plain-text documents
type DocumentTextExtractor struct {
	log      *utils.Logger
	maxPages int
}

// NewDocumentTextExtractor creates an extractor. maxPages <= 0 reads every page.
func NewDocumentTextExtractor(log *utils.Logger, maxPages int) *DocumentTextExtractor {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &DocumentTextExtractor{log: log.With("component", "text_extractor"), maxPages: maxPages}
}

// ExtractText dispatches on mimeType. Parameters such as "; charset=utf-8" are ignored.
func (e *DocumentTextExtractor) ExtractText(ctx context.Context, content []byte, mimeType string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty document: %w", ErrNoText)
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}

	switch {
	case mediaType == "application/pdf":
		return e.extractPDF(ctx, content)
	case strings.HasPrefix(mediaType, "text/"):
		if !utf8.Valid(content) {
			return "", fmt.Errorf("%s is not valid UTF-8: %w", mediaType, ErrNoText)
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			return "", ErrNoText
		}
		return text, nil
	default:
		return "", fmt.Errorf("%q: %w", mimeType, ErrUnsupportedMimeType)
	}
}

// sanitizePDF truncates trailing garbage after the last %%EOF marker. Many PDFs downloaded
// from the web have HTML appended.
func sanitizePDF(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}
	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}

	pdfEnd := lastEOF + len(eofMarker)
	for pdfEnd < len(content) && (content[pdfEnd] == '\n' || content[pdfEnd] == '\r') {
		pdfEnd++
	}
	if len(content)-pdfEnd > 10 {
		return content[:pdfEnd]
	}
	return content
}

func (e *DocumentTextExtractor) extractPDF(ctx context.Context, content []byte) (string, error) {
	content = sanitizePDF(content)
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return "", fmt.Errorf("missing PDF header: %w", ErrNoText)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages: %w", ErrNoText)
	}
	if e.maxPages > 0 && numPages > e.maxPages {
		e.log.Warn("PDF page limit reached, truncating", "pages", numPages, "max_pages", e.maxPages)
		numPages = e.maxPages
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		// rows keep table cells of one schedule line together
		rows, err := page.GetTextByRow()
		if err != nil {
			text, plainErr := page.GetPlainText(nil)
			if plainErr != nil {
				e.log.Debug("page extraction failed", "page", i, "error", plainErr)
				continue
			}
			textBuilder.WriteString(text)
			textBuilder.WriteString("\n")
			continue
		}

		for _, row := range rows {
			var rowText strings.Builder
			for _, word := range row.Content {
				rowText.WriteString(word.S)
			}
			line := strings.TrimSpace(rowText.String())
			if line != "" {
				textBuilder.WriteString(line)
				textBuilder.WriteString("\n")
			}
		}
		textBuilder.WriteString("\n")
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if len(extracted) < minExtractedChars {
		return "", fmt.Errorf("only %d characters extracted, PDF may be image-based: %w", len(extracted), ErrNoText)
	}

	e.log.Debug("PDF text extracted", "pages", numPages, "chars", len(extracted))
	return extracted, nil
}
