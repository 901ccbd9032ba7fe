// Package ai defines the narrow interface to the generative-AI service and
// the recovery logic for its nominally-JSON responses.
package ai

import (
	"context"
	"errors"

	"github.com/insightflow/backend/internal/models"
)

// Sentinel errors surfaced by Service implementations and the normalizer.
var (
	// ErrMissingAPIKey means no credential is configured. Fatal, not
	// retryable: the operator has to set GEMINI_API_KEY.
	ErrMissingAPIKey = errors.New("API key not found: set the GEMINI_API_KEY environment variable")

	// ErrRateLimited is a transient quota rejection from the service.
	ErrRateLimited = errors.New("too many requests: wait a moment and try again")

	// ErrEmptyResponse means the service returned no text at all.
	ErrEmptyResponse = errors.New("empty response from AI service")

	// ErrTruncated means the response looks cut off by an output-length
	// limit: an opening brace with no closing brace after it.
	ErrTruncated = errors.New("response cut off by the AI token limit: try sending fewer files")

	// ErrInvalidFormat means no JSON object could be recovered at all.
	ErrInvalidFormat = errors.New("invalid response format")
)

// Part is one piece of an outgoing request: either text or inline binary.
type Part struct {
	Text     string
	Inline   []byte // raw bytes, sent as inline data when non-nil
	MIMEType string // only meaningful for inline parts
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart builds an inline binary part.
func InlinePart(data []byte, mimeType string) Part {
	return Part{Inline: data, MIMEType: mimeType}
}

// StructuredRequest is a single-shot request expecting a strict-JSON reply.
type StructuredRequest struct {
	Parts             []Part
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
}

// Turn is one prior exchange in a chat request, text only.
type Turn struct {
	Role models.MessageRole
	Text string
}

// ChatRequest is a multi-turn request carrying role-tagged history plus the
// parts of the new turn.
type ChatRequest struct {
	History           []Turn
	Parts             []Part
	SystemInstruction string
	Temperature       float32
	MaxOutputTokens   int32
	EnableSearch      bool
}

// Source is one grounding citation attached to a chat reply.
type Source struct {
	Title string
	URI   string
}

// ChatReply is the text of an assistant turn plus any citations the service
// attached when it used its search capability.
type ChatReply struct {
	Text    string
	Sources []Source
}

// Service is the injected AI capability. Orchestrators depend on this
// interface only, so tests can substitute canned or malformed responses.
type Service interface {
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
	Converse(ctx context.Context, req ChatRequest) (*ChatReply, error)
}
