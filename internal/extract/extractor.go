package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/insightflow/backend/internal/models"
)

// Extractor converts uploaded files into UploadedFile records. It depends on
// the PDF resource engine as an injected capability.
type Extractor struct {
	engine *Engine
}

// New creates an extractor. A nil engine gets a no-op default.
func New(engine *Engine) *Extractor {
	if engine == nil {
		engine = NewEngine("", "", 0)
	}
	return &Extractor{engine: engine}
}

// Extract turns one uploaded file into a transmit-safe representation.
// Per-category strategy:
//
//   - images: full binary content, base64; no truncation
//   - spreadsheets: first sheet as delimited text, capped
//   - PDFs: first page text; unreadable documents yield a placeholder, not
//     an error
//   - everything else: plain text, uncapped here (prompt assembly caps later)
//
// Only genuinely unprocessable inputs return an error; the caller drops those
// files from the batch.
func (e *Extractor) Extract(ctx context.Context, name, declaredMIME string, data []byte) (*models.UploadedFile, error) {
	file := &models.UploadedFile{
		ID:         uuid.New().String(),
		Name:       name,
		Type:       declaredMIME,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}

	switch Classify(name, declaredMIME) {
	case CategoryImage:
		file.Content = base64.StdEncoding.EncodeToString(data)
		file.MimeType = declaredMIME

	case CategorySpreadsheet:
		text, err := extractWorkbook(data)
		if err != nil {
			return nil, fmt.Errorf("extracting spreadsheet %q: %w", name, err)
		}
		file.Content = text
		file.MimeType = "text/plain"

	case CategoryDocument:
		file.Content = e.extractPDF(ctx, name, data)
		file.MimeType = "text/plain"

	case CategoryText:
		file.Content = string(data)
		file.MimeType = "text/plain"

	default:
		return nil, fmt.Errorf("unhandled category for %q", name)
	}

	return file, nil
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
