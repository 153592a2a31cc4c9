// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"github.com/jonathan/portfolio-builder/internal/llm"
)

// Reply is one scripted response.
type Reply struct {
	Text string
	Err  error
}

// Call records one invocation of the stub.
type Call struct {
	Tier       llm.ModelTier
	Prompt     string // concatenated text parts
	Structured bool
	HasBlob    bool
}

// Stub implements llm.Client by returning scripted replies in order.
// It is safe for concurrent use.
type Stub struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

// NewStub creates a stub that returns the given replies in order.
func NewStub(replies ...Reply) *Stub {
	return &Stub{replies: replies}
}

// Calls returns a copy of all recorded invocations.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// GenerateText returns the next scripted reply.
func (s *Stub) GenerateText(_ context.Context, tier llm.ModelTier, parts ...llm.Part) (string, error) {
	return s.next(tier, false, parts)
}

// GenerateStructured returns the next scripted reply.
func (s *Stub) GenerateStructured(_ context.Context, tier llm.ModelTier, _ *genai.Schema, parts ...llm.Part) (string, error) {
	return s.next(tier, true, parts)
}

// Close is a no-op.
func (s *Stub) Close() error { return nil }

func (s *Stub) next(tier llm.ModelTier, structured bool, parts []llm.Part) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	hasBlob := false
	for _, p := range parts {
		switch v := p.(type) {
		case llm.Text:
			sb.WriteString(string(v))
		case llm.Blob:
			hasBlob = true
		}
	}
	s.calls = append(s.calls, Call{Tier: tier, Prompt: sb.String(), Structured: structured, HasBlob: hasBlob})

	if len(s.replies) == 0 {
		return "", fmt.Errorf("llmtest: no scripted reply for call %d", len(s.calls))
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	if reply.Err != nil {
		return "", reply.Err
	}
	return reply.Text, nil
}
