package ocr

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// nativeParse extracts embedded text directly from the PDF. It only works
// for digitally-born documents; scanned pages come back empty and the
// quality score reflects that.
func nativeParse(raw []byte) (*domain.ParseResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	result := &domain.ParseResult{Pages: pages}
	totalChars := 0
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		totalChars += len(text)
		result.TextBlocks = append(result.TextBlocks, domain.TextBlock{Text: text, Page: i})
	}
	if len(result.TextBlocks) == 0 {
		return nil, fmt.Errorf("pdf carries no embedded text")
	}

	result.Quality = nativeQuality(totalChars, pages)
	return result, nil
}

// nativeQuality scores density of extracted text per page, clamped so a
// native parse never claims perfect quality (no layout or table recovery).
func nativeQuality(totalChars, pages int) float64 {
	perPage := float64(totalChars) / float64(pages)
	quality := perPage / 2000.0
	if quality > 0.9 {
		quality = 0.9
	}
	if quality < 0.1 {
		quality = 0.1
	}
	return quality
}
