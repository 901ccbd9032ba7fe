// Package testutil provides fakes for orchestrator and handler tests.
package testutil

import (
	"context"
	"sync"

	"github.com/insightflow/backend/internal/ai"
)

// FakeAI implements ai.Service with canned responses and records every
// request so tests can assert on prompt assembly.
type FakeAI struct {
	mu sync.Mutex

	// Canned outputs.
	StructuredText string
	StructuredErr  error
	Reply          *ai.ChatReply
	ConverseErr    error

	// Recorded inputs.
	StructuredRequests []ai.StructuredRequest
	ChatRequests       []ai.ChatRequest
}

var _ ai.Service = (*FakeAI)(nil)

func (f *FakeAI) GenerateStructured(_ context.Context, req ai.StructuredRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StructuredRequests = append(f.StructuredRequests, req)
	if f.StructuredErr != nil {
		return "", f.StructuredErr
	}
	return f.StructuredText, nil
}

func (f *FakeAI) Converse(_ context.Context, req ai.ChatRequest) (*ai.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChatRequests = append(f.ChatRequests, req)
	if f.ConverseErr != nil {
		return nil, f.ConverseErr
	}
	if f.Reply != nil {
		return f.Reply, nil
	}
	return &ai.ChatReply{Text: "canned reply"}, nil
}

// StructuredCalls returns how many structured requests were issued.
func (f *FakeAI) StructuredCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.StructuredRequests)
}

// LastStructured returns the most recent structured request.
func (f *FakeAI) LastStructured() ai.StructuredRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StructuredRequests[len(f.StructuredRequests)-1]
}

// LastChat returns the most recent chat request.
func (f *FakeAI) LastChat() ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChatRequests[len(f.ChatRequests)-1]
}
