package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// DocumentTimeout is the outer budget for opening and reading one PDF.
const DocumentTimeout = 10 * time.Second

// extractPDF pulls the text runs of the first page, joined with spaces under
// a page-number header. Additional pages are ignored. Failures degrade rather
// than abort: a page that cannot be read yields a placeholder line, and a
// document that cannot be opened at all (or exceeds the outer timeout)
// yields a placeholder string embedding the file name.
func (e *Extractor) extractPDF(ctx context.Context, name string, data []byte) string {
	ctx, cancel := context.WithTimeout(ctx, DocumentTimeout)
	defer cancel()

	// Best effort; extraction proceeds without the resource bundle.
	e.engine.Init()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		// The pdf library panics on some malformed documents.
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("pdf reader panicked: %v", r)}
			}
		}()

		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			done <- outcome{err: fmt.Errorf("opening pdf: %w", err)}
			return
		}
		if r.NumPage() < 1 {
			done <- outcome{err: fmt.Errorf("pdf has no pages")}
			return
		}
		done <- outcome{text: readFirstPage(r)}
	}()

	select {
	case <-ctx.Done():
		fmt.Printf("[Extract] pdf %q timed out: %v\n", name, ctx.Err())
		return pdfPlaceholder(name)
	case out := <-done:
		if out.err != nil {
			fmt.Printf("[Extract] pdf %q unreadable: %v\n", name, out.err)
			return pdfPlaceholder(name)
		}
		return out.text
	}
}

func readFirstPage(r *pdf.Reader) string {
	text, err := pageText(r, 1)
	if err != nil {
		return "--- PDF Page 1 (error) ---"
	}
	return fmt.Sprintf("--- PDF Page 1 ---\n%s", text)
}

// pageText extracts one page's text, converting library panics into an
// error so a bad page does not take the whole file down. GetPlainText does
// the run assembly; Content().Text is per glyph and would shred words.
func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d panicked: %v", num, rec)
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", num)
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", num, err)
	}
	return strings.TrimSpace(text), nil
}

func pdfPlaceholder(name string) string {
	return fmt.Sprintf("[PDF READ ERROR: %s]", name)
}
