// Package chat produces assistant replies grounded in the prior analysis and
// a bounded slice of the original files.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/insightflow/backend/internal/ai"
	"github.com/insightflow/backend/internal/models"
)

// ExcerptChars caps each file excerpt re-attached to an early chat turn.
const ExcerptChars = 2500

// ExcerptMarker is appended when an excerpt was cut.
const ExcerptMarker = "\n[...]"

// ExcerptTurnLimit is the history length at which raw excerpts stop being
// attached: past it the model is expected to rely on the memory digest.
const ExcerptTurnLimit = 4

// Apology is the single user-facing string any chat failure collapses into.
// The conversational path never surfaces raw technical errors.
const Apology = "Sorry, I'm having trouble processing that request right now. Try rephrasing it."

// Orchestrator forwards user turns to the AI chat service.
type Orchestrator struct {
	svc ai.Service
}

// New creates a chat orchestrator.
func New(svc ai.Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// Reply produces one assistant reply. Any error is swallowed and replaced
// with the fixed apology.
func (o *Orchestrator) Reply(ctx context.Context, history []models.ChatMessage, message string, files []*models.UploadedFile, analysis *models.AnalysisResult) string {
	text, err := o.reply(ctx, history, message, files, analysis)
	if err != nil {
		fmt.Printf("[Chat] turn failed: %v\n", err)
		return Apology
	}
	return text
}

func (o *Orchestrator) reply(ctx context.Context, history []models.ChatMessage, message string, files []*models.UploadedFile, analysis *models.AnalysisResult) (string, error) {
	if o.svc == nil {
		return "", ai.ErrMissingAPIKey
	}

	turns := make([]ai.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, ai.Turn{Role: msg.Role, Text: msg.Text})
	}

	var parts []ai.Part
	if len(history) < ExcerptTurnLimit {
		// Early in a conversation the model benefits from raw source
		// material; later turns lean on the memory digest instead.
		for _, f := range files {
			if f.IsImage() {
				continue
			}
			excerpt := f.Content
			if len(excerpt) > ExcerptChars {
				excerpt = truncateUTF8(excerpt, ExcerptChars) + ExcerptMarker
			}
			parts = append(parts, ai.TextPart(fmt.Sprintf("[Ref: %s]\n%s\n---", f.Name, excerpt)))
		}
	}
	parts = append(parts, ai.TextPart(message))

	system := fmt.Sprintf("%s\n\nMEMORY CONTEXT FROM THE FILES:\n%s", ai.ChatSystemInstruction, memoryDigest(analysis))

	reply, err := o.svc.Converse(ctx, ai.ChatRequest{
		History:           turns,
		Parts:             parts,
		SystemInstruction: system,
		Temperature:       0.7,
		MaxOutputTokens:   2000,
		EnableSearch:      true,
	})
	if err != nil {
		return "", err
	}

	text := reply.Text
	if text == "" {
		text = "No response."
	}
	return appendSources(text, reply.Sources), nil
}

// memoryDigest condenses the current analysis into a carry-forward string so
// later turns do not need the full source documents again.
func memoryDigest(analysis *models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(ai.ChatMemoryFraming)
	if analysis != nil {
		fmt.Fprintf(&b, "SUMMARY: %s\n", analysis.Summary)
		kpis := make([]string, 0, len(analysis.Kpis))
		for _, k := range analysis.Kpis {
			kpis = append(kpis, fmt.Sprintf("%s: %s", k.Label, k.Value))
		}
		fmt.Fprintf(&b, "KPIs: %s\n", strings.Join(kpis, ", "))
	}
	return b.String()
}

// appendSources adds a deduplicated "Sources Consulted" section when the
// service grounded its reply in external search results.
func appendSources(text string, sources []ai.Source) string {
	if len(sources) == 0 {
		return text
	}

	seen := make(map[string]bool, len(sources))
	var links []string
	for _, s := range sources {
		link := fmt.Sprintf("[%s](%s)", s.Title, s.URI)
		if seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, "- "+link)
	}

	return text + "\n\n**Sources Consulted:**\n" + strings.Join(links, "\n")
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
