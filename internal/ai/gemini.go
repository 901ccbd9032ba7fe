package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/insightflow/backend/internal/models"
)

// Gemini implements Service on top of the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed service. An empty apiKey is refused with
// ErrMissingAPIKey so the condition surfaces with a remediation message
// instead of failing silently on the first call.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// GenerateStructured issues a single-shot structured-output request and
// returns the raw response text.
func (g *Gemini) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(req.Temperature),
		MaxOutputTokens:   req.MaxOutputTokens,
	}

	content := genai.NewContentFromParts(toGenaiParts(req.Parts), genai.RoleUser)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, cfg)
	if err != nil {
		return "", mapServiceError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Converse sends one chat turn with the prior history and returns the reply
// text plus any grounding citations.
func (g *Gemini) Converse(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		MaxOutputTokens:   req.MaxOutputTokens,
	}
	if req.EnableSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	history := make([]*genai.Content, 0, len(req.History))
	for _, t := range req.History {
		var role genai.Role = genai.RoleUser
		if t.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(t.Text, role))
	}

	chat, err := g.client.Chats.Create(ctx, g.model, cfg, history)
	if err != nil {
		return nil, mapServiceError(err)
	}

	parts := make([]genai.Part, 0, len(req.Parts))
	for _, p := range toGenaiParts(req.Parts) {
		parts = append(parts, *p)
	}

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, mapServiceError(err)
	}

	reply := &ChatReply{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web != nil {
				reply.Sources = append(reply.Sources, Source{
					Title: chunk.Web.Title,
					URI:   chunk.Web.URI,
				})
			}
		}
	}
	return reply, nil
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Inline != nil {
			out = append(out, genai.NewPartFromBytes(p.Inline, p.MIMEType))
		} else {
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	return out
}

// mapServiceError translates quota rejections into ErrRateLimited so callers
// can tell users to retry instead of showing a raw API error.
func mapServiceError(err error) error {
	var aerr genai.APIError
	if errors.As(err, &aerr) && aerr.Code == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if strings.Contains(err.Error(), "429") {
		return ErrRateLimited
	}
	return err
}
