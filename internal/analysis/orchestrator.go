// Package analysis drives the end-to-end dashboard generation flow: file
// parts → prompt → structured AI call → normalized AnalysisResult.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/insightflow/backend/internal/ai"
	"github.com/insightflow/backend/internal/models"
)

// MaxFileChars caps any single file's text in the analysis request. Larger
// than the per-chat-turn budget: a dedicated analysis call justifies a
// deeper read.
const MaxFileChars = 6000

// TruncationMarker is appended when a file's content exceeds MaxFileChars.
const TruncationMarker = "\n[TRUNCATED]"

// ErrNoValidFiles means every file in the batch failed extraction; the user
// has to re-select files. Checked before any network call.
var ErrNoValidFiles = errors.New("no valid file processed")

// ProgressFunc receives coarse stage descriptions. Observational only.
type ProgressFunc func(stage string)

// Orchestrator produces one AnalysisResult from a set of uploaded files.
type Orchestrator struct {
	svc ai.Service
}

// New creates an orchestrator. svc may be nil when no credential is
// configured; Analyze then fails with the remediation message.
func New(svc ai.Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// Analyze builds one combined request from all files, invokes the AI service
// in structured-output mode and normalizes the response.
//
// Distinct failure modes: ai.ErrMissingAPIKey (configuration),
// ai.ErrRateLimited (retry shortly), ai.ErrEmptyResponse, and the
// normalizer's ai.ErrTruncated / ai.ErrInvalidFormat.
func (o *Orchestrator) Analyze(ctx context.Context, files []*models.UploadedFile, onProgress ProgressFunc) (*models.AnalysisResult, error) {
	if o.svc == nil {
		return nil, ai.ErrMissingAPIKey
	}
	if len(files) == 0 {
		return nil, ErrNoValidFiles
	}

	report(onProgress, "Reading documents...")

	parts := make([]ai.Part, 0, len(files)+1)
	for _, f := range files {
		report(onProgress, fmt.Sprintf("Processing %s...", f.Name))

		if f.IsImage() {
			raw, err := base64.StdEncoding.DecodeString(f.Content)
			if err != nil {
				// Extraction produced the base64, so this should not
				// happen; skip the file rather than abort the batch.
				fmt.Printf("[Analysis] dropping image %q: bad base64: %v\n", f.Name, err)
				continue
			}
			parts = append(parts, ai.InlinePart(raw, f.MimeType))
			continue
		}

		content := f.Content
		if len(content) > MaxFileChars {
			content = truncateUTF8(content, MaxFileChars) + TruncationMarker
		}
		parts = append(parts, ai.TextPart(fmt.Sprintf("FILE: %s\n%s\n---", f.Name, content)))
	}
	parts = append(parts, ai.TextPart(ai.DashboardPrompt))

	report(onProgress, "Generating strategic intelligence...")

	raw, err := o.svc.GenerateStructured(ctx, ai.StructuredRequest{
		Parts:             parts,
		SystemInstruction: ai.DashboardSystemInstruction,
		Temperature:       0.2,
		MaxOutputTokens:   8192,
	})
	if err != nil {
		return nil, err
	}

	result, err := ai.DecodeAnalysis(raw)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func report(fn ProgressFunc, stage string) {
	if fn != nil {
		fn(stage)
	}
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
