package core

import "context"

// LLMProvider abstracts the local model service.
type LLMProvider interface {
	// IsAvailable probes the service's model listing. It never returns an
	// error; any failure downgrades to false.
	IsAvailable(ctx context.Context) bool

	// Generate sends the prompt (plus optional system prompt) to the chat
	// completion endpoint and returns the completion text.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}
